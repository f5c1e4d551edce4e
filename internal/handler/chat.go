package handler

import (
	"log/slog"
	"net/http"

	"devmatch/internal/domain/services"
	"devmatch/internal/httputil"
)

// ChatHandler handles chat room HTTP requests
type ChatHandler struct {
	chatService services.ChatService
	logger      *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService services.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// GetRoom retrieves a chat room
// GET /api/rooms/{id}
func (h *ChatHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := httputil.PathParam(w, r, "id", "Room ID")
	if !ok {
		return
	}

	room, err := h.chatService.GetRoom(r.Context(), roomID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, room)
}

// ListMessages returns a page of messages, oldest first
// GET /api/rooms/{id}/messages?limit=&before=&before_id=
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	roomID, ok := httputil.PathParam(w, r, "id", "Room ID")
	if !ok {
		return
	}

	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	before, err := httputil.QueryTime(r, "before")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	beforeID, ok := optionalUUID(w, r, "before_id")
	if !ok {
		return
	}

	messages, err := h.chatService.ListMessages(r.Context(), &services.ListMessagesRequest{
		RoomID:   roomID,
		UserID:   httputil.GetUserID(r),
		Limit:    limit,
		Before:   before,
		BeforeID: beforeID,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, messages)
}

// SendMessage posts a message to the room
// POST /api/rooms/{id}/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	roomID, ok := httputil.PathParam(w, r, "id", "Room ID")
	if !ok {
		return
	}

	var req services.SendMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.RoomID = roomID
	req.SenderID = httputil.GetUserID(r)

	msg, err := h.chatService.SendMessage(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, msg)
}

// MarkRead marks the other participant's messages as read
// POST /api/rooms/{id}/read
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	roomID, ok := httputil.PathParam(w, r, "id", "Room ID")
	if !ok {
		return
	}

	n, err := h.chatService.MarkRead(r.Context(), roomID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]int{"updated": n})
}
