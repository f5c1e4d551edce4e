// Package realtime pushes bus events to websocket clients.
// Every API instance subscribes to the bus, so a client sees events produced on any instance.
package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"devmatch/internal/events"
	"devmatch/internal/metrics"
)

// Frame is what clients receive.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	FrameMessage = "message"
	FrameRead    = "read"
	FrameMatch   = "match"
)

// RoomTopic and UserTopic name the streams a client can follow.
func RoomTopic(roomID string) string { return "room:" + roomID }
func UserTopic(userID string) string { return "user:" + userID }

// Hub routes frames to the clients following a topic.
type Hub struct {
	mu      sync.RWMutex
	topics  map[string]map[*Client]struct{}
	unsubs  []func()
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewHub(m *metrics.Metrics, logger *slog.Logger) *Hub {
	return &Hub{
		topics:  make(map[string]map[*Client]struct{}),
		metrics: m,
		logger:  logger,
	}
}

// Start subscribes the hub to the chat and match subjects.
func (h *Hub) Start(bus events.Bus) error {
	subs := map[string]events.Handler{
		events.SubjectChatMessage:  h.onMessage,
		events.SubjectMessagesRead: h.onRead,
		events.SubjectMatchCreated: h.onMatch,
	}
	for subject, handler := range subs {
		unsub, err := bus.Subscribe(subject, handler)
		if err != nil {
			h.Close()
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		h.unsubs = append(h.unsubs, unsub)
	}
	return nil
}

// Close unsubscribes and disconnects every client.
func (h *Hub) Close() {
	for _, unsub := range h.unsubs {
		unsub()
	}
	h.unsubs = nil

	h.mu.Lock()
	defer h.mu.Unlock()
	for topic, clients := range h.topics {
		for c := range clients {
			c.close()
		}
		delete(h.topics, topic)
	}
}

func (h *Hub) Register(topic string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]struct{})
	}
	h.topics[topic][c] = struct{}{}
	h.metrics.ConnectionOpened()
}

func (h *Hub) Unregister(topic string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.topics[topic]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.topics, topic)
	}
	h.metrics.ConnectionClosed()
}

// Clients returns how many clients follow topic.
func (h *Hub) Clients(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Broadcast queues frame for every client on topic. A client whose buffer is
// full is disconnected; it can reload history from the API.
func (h *Hub) Broadcast(topic string, frame Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("failed to encode frame", "type", frame.Type, "error", err)
		return
	}

	h.mu.RLock()
	var slow []*Client
	for c := range h.topics[topic] {
		if !c.enqueue(payload) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow websocket client", "topic", topic, "user_id", c.userID)
		h.Unregister(topic, c)
		c.close()
	}
}

func (h *Hub) onMessage(data []byte) {
	var evt events.MessageSent
	if err := json.Unmarshal(data, &evt); err != nil {
		h.logger.Warn("bad chat message event", "error", err)
		return
	}
	msg, _ := json.Marshal(evt.Message)
	h.Broadcast(RoomTopic(evt.Message.RoomID), Frame{Type: FrameMessage, Data: msg})
}

func (h *Hub) onRead(data []byte) {
	var evt events.MessagesRead
	if err := json.Unmarshal(data, &evt); err != nil {
		h.logger.Warn("bad messages read event", "error", err)
		return
	}
	h.Broadcast(RoomTopic(evt.RoomID), Frame{Type: FrameRead, Data: data})
}

func (h *Hub) onMatch(data []byte) {
	var evt events.MatchCreated
	if err := json.Unmarshal(data, &evt); err != nil {
		h.logger.Warn("bad match created event", "error", err)
		return
	}
	h.Broadcast(UserTopic(evt.User1ID), Frame{Type: FrameMatch, Data: data})
	h.Broadcast(UserTopic(evt.User2ID), Frame{Type: FrameMatch, Data: data})
}
