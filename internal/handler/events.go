package handler

import (
	"log/slog"
	"net/http"
	"time"

	"devmatch/internal/domain/services"
	"devmatch/internal/handler/sse"
	"devmatch/internal/httputil"
	"devmatch/internal/realtime"
)

// EventsHandler streams realtime frames as Server-Sent Events, for clients that cannot
// open a websocket. Frames are the same JSON the websocket routes send.
type EventsHandler struct {
	hub         *realtime.Hub
	chatService services.ChatService
	config      *sse.Config
	logger      *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *realtime.Hub, chatService services.ChatService, config *sse.Config, logger *slog.Logger) *EventsHandler {
	if config == nil {
		config = sse.DefaultConfig()
	}
	return &EventsHandler{
		hub:         hub,
		chatService: chatService,
		config:      config,
		logger:      logger,
	}
}

// Stream handles GET /api/events?room_id=
// With room_id it follows that room; otherwise the caller's match notifications.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	roomID, ok := optionalUUID(w, r, "room_id")
	if !ok {
		return
	}

	topic := realtime.UserTopic(userID)
	if roomID != nil {
		if _, err := h.chatService.GetRoom(r.Context(), *roomID, userID); err != nil {
			handleError(w, err)
			return
		}
		topic = realtime.RoomTopic(*roomID)
	}

	stream := sse.NewWriter(w)
	if err := stream.Start(); err != nil {
		h.logger.Warn("event stream unavailable", "topic", topic, "error", err)
		return
	}

	client := realtime.NewClient(userID)
	h.hub.Register(topic, client)
	defer h.hub.Unregister(topic, client)

	h.logger.Debug("event stream opened", "topic", topic, "user_id", userID)

	ticker := time.NewTicker(h.config.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case payload := <-client.Frames():
			if err := stream.WriteEvent(payload); err != nil {
				h.logger.Debug("client disconnected during event write", "topic", topic, "error", err)
				return
			}
		case <-ticker.C:
			if err := stream.WriteKeepAlive(); err != nil {
				h.logger.Debug("client disconnected during keepalive", "topic", topic, "error", err)
				return
			}
		case <-client.Done():
			// Dropped by the hub for falling behind.
			return
		case <-r.Context().Done():
			h.logger.Debug("event stream closed", "topic", topic, "user_id", userID)
			return
		}
	}
}
