// Package api wires the HTTP surface of the canvas server.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"collabcanvas/internal/models"
	"collabcanvas/internal/store"
	"collabcanvas/internal/ws"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// NewRouter returns the server routes:
//
//	GET /ws               room sessions
//	GET /health                  liveness and live session count
//	GET /chats/{roomId}          persisted events of a room, for hydration
//	GET /rooms/{roomId}/members  users currently joined to a room
func NewRouter(hub *ws.Hub, verifier ws.TokenVerifier, st store.Store, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.Use(Tracing)
	r.Use(Recovery)

	r.Handle("/ws", ws.NewHandler(hub, verifier, allowedOrigins)).Methods(http.MethodGet)
	r.Handle("/health", healthHandler(hub)).Methods(http.MethodGet)
	r.Handle("/chats/{roomId}", chatsHandler(verifier, st)).Methods(http.MethodGet)
	r.Handle("/rooms/{roomId}/members", membersHandler(hub, verifier)).Methods(http.MethodGet)
	return r
}

func healthHandler(hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, models.HealthResponse{Status: "ok", Sessions: hub.SessionCount()})
	}
}

// authorized writes a 401 and returns false unless r carries a valid bearer
// token.
func authorized(w http.ResponseWriter, r *http.Request, verifier ws.TokenVerifier) bool {
	header := r.Header.Get("Authorization")
	if header == "" {
		writeError(w, http.StatusUnauthorized, "token required")
		return false
	}
	if _, err := verifier.Verify(header); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return false
	}
	return true
}

func membersHandler(hub *ws.Hub, verifier ws.TokenVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r, verifier) {
			return
		}
		roomID := mux.Vars(r)["roomId"]
		writeJSON(w, http.StatusOK, models.MembersResponse{RoomID: models.RoomID(roomID), Members: hub.Members(roomID)})
	}
}

func chatsHandler(verifier ws.TokenVerifier, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r, verifier) {
			return
		}

		roomID, err := strconv.ParseUint(mux.Vars(r)["roomId"], 10, 64)
		if err != nil {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}

		events, err := st.ListEvents(r.Context(), uint(roomID))
		if errors.Is(err, store.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		if err != nil {
			slog.Error("[HTTP] Failed to list events", "room", roomID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := models.ChatsResponse{Messages: make([]models.StoredMessage, 0, len(events))}
		for _, e := range events {
			resp.Messages = append(resp.Messages, models.StoredMessage{
				ID:      e.ID,
				RoomID:  e.RoomID,
				Message: e.Message,
				UserID:  e.UserID,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("[HTTP] Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
