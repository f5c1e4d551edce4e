package handler

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"devmatch/internal/domain/services"
	"devmatch/internal/httputil"
	"devmatch/internal/realtime"
)

// RealtimeHandler upgrades connections and attaches them to the hub
type RealtimeHandler struct {
	hub         *realtime.Hub
	chatService services.ChatService
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

// NewRealtimeHandler creates a realtime handler. Handshakes are accepted from the CORS origins only.
func NewRealtimeHandler(hub *realtime.Hub, chatService services.ChatService, allowedOrigins []string, logger *slog.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub:         hub,
		chatService: chatService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
		logger: logger,
	}
}

// ServeRoom streams a room's messages and read receipts
// GET /ws/rooms/{id}
func (h *RealtimeHandler) ServeRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := httputil.PathParam(w, r, "id", "Room ID")
	if !ok {
		return
	}
	userID := httputil.GetUserID(r)

	// Authorize before upgrading so failures are plain HTTP errors.
	if _, err := h.chatService.GetRoom(r.Context(), roomID, userID); err != nil {
		handleError(w, err)
		return
	}

	h.serve(w, r, realtime.RoomTopic(roomID), userID)
}

// ServeUser streams match notifications for the caller
// GET /ws/me
func (h *RealtimeHandler) ServeUser(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	h.serve(w, r, realtime.UserTopic(userID), userID)
}

func (h *RealtimeHandler) serve(w http.ResponseWriter, r *http.Request, topic, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Debug("websocket upgrade failed", "topic", topic, "error", err)
		return
	}

	client := realtime.NewClient(userID)
	h.hub.Register(topic, client)
	defer h.hub.Unregister(topic, client)

	h.logger.Debug("websocket connected", "topic", topic, "user_id", userID)
	client.Run(conn)
	h.logger.Debug("websocket disconnected", "topic", topic, "user_id", userID)
}
