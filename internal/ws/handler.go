package ws

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"collabcanvas/internal/auth"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// TokenVerifier validates a connection's bearer token.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Handler upgrades authenticated requests to room sessions.
type Handler struct {
	hub      *Hub
	verifier TokenVerifier
	upgrader websocket.Upgrader
}

// NewHandler returns the websocket endpoint. An empty allowedOrigins
// accepts any origin.
func NewHandler(hub *Hub, verifier TokenVerifier, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimSuffix(o, "/")] = true
	}
	return &Handler{
		hub:      hub,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if len(allowed) == 0 || origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				return allowed[u.Scheme+"://"+u.Host]
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	remoteAddr := r.RemoteAddr
	slog.Debug("[WS] New WebSocket connection request", "from", remoteAddr)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("[WS] Failed to upgrade connection", "from", remoteAddr, "error", err)
		return
	}

	// Authentication failures close without a frame or reason.
	claims, err := h.verifier.Verify(r.URL.Query().Get("token"))
	if err != nil {
		slog.Info("[WS] Rejected connection", "from", remoteAddr, "error", err)
		conn.Close()
		return
	}

	client := newClient(h.hub, conn, uuid.NewString(), claims.User())
	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	slog.Info("[WS] Session opened", "session", client.id, "user", client.userID, "from", remoteAddr)
	go client.WritePump()
	go client.ReadPump()
}
