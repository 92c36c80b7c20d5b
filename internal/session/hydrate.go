package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"collabcanvas/internal/geometry"
	"collabcanvas/internal/models"

	"github.com/goccy/go-json"
)

// FetchShapes returns the shapes persisted for roomID, in insertion order,
// from the server at baseURL (http:// or https://). Stored payloads that
// are not shapes are skipped.
func FetchShapes(ctx context.Context, client *http.Client, baseURL, roomID, token string) ([]geometry.Shape, error) {
	if client == nil {
		client = http.DefaultClient
	}
	endpoint := strings.TrimSuffix(baseURL, "/") + "/chats/" + url.PathEscape(roomID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch shapes: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch shapes: %s returned status %d", endpoint, resp.StatusCode)
	}

	var body models.ChatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode shapes: %w", err)
	}

	shapes := make([]geometry.Shape, 0, len(body.Messages))
	for _, m := range body.Messages {
		shape, err := geometry.DecodeEnvelope(m.Message)
		if err != nil {
			slog.Warn("[SESSION] Skipping stored message", "room", roomID, "id", m.ID, "error", err)
			continue
		}
		shapes = append(shapes, shape)
	}
	return shapes, nil
}
