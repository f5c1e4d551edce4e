package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devmatch/internal/domain/models"
	"devmatch/internal/events"
	"devmatch/internal/metrics"
)

func newTestHub(t *testing.T) (*Hub, *events.LocalBus) {
	t.Helper()
	bus := events.NewLocalBus()
	hub := NewHub(metrics.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, hub.Start(bus))
	t.Cleanup(hub.Close)
	return hub, bus
}

func receive(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case payload := <-c.send:
		var f Frame
		require.NoError(t, json.Unmarshal(payload, &f))
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return Frame{}
	}
}

func TestHubRoutesBusEvents(t *testing.T) {
	hub, bus := newTestHub(t)
	ctx := context.Background()

	room := NewClient("u1")
	user1 := NewClient("u1")
	user2 := NewClient("u2")
	hub.Register(RoomTopic("r1"), room)
	hub.Register(UserTopic("u1"), user1)
	hub.Register(UserTopic("u2"), user2)

	msg := models.ChatMessage{ID: "m1", RoomID: "r1", SenderID: "u2", Content: "hi"}
	require.NoError(t, bus.Publish(ctx, events.SubjectChatMessage, events.MessageSent{Message: msg, RecipientID: "u1"}))

	f := receive(t, room)
	assert.Equal(t, FrameMessage, f.Type)
	var got models.ChatMessage
	require.NoError(t, json.Unmarshal(f.Data, &got))
	assert.Equal(t, "hi", got.Content)

	require.NoError(t, bus.Publish(ctx, events.SubjectMessagesRead, events.MessagesRead{RoomID: "r1", ReaderID: "u1", Count: 1}))
	assert.Equal(t, FrameRead, receive(t, room).Type)

	require.NoError(t, bus.Publish(ctx, events.SubjectMatchCreated, events.MatchCreated{MatchID: "x", User1ID: "u1", User2ID: "u2"}))
	assert.Equal(t, FrameMatch, receive(t, user1).Type)
	assert.Equal(t, FrameMatch, receive(t, user2).Type)

	// Other rooms see nothing.
	assert.Empty(t, room.send)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub, _ := newTestHub(t)

	slow := NewClient("u1")
	hub.Register(RoomTopic("r1"), slow)
	for i := 0; i < sendBuffer; i++ {
		hub.Broadcast(RoomTopic("r1"), Frame{Type: FrameMessage, Data: json.RawMessage(`{}`)})
	}
	assert.Equal(t, 1, hub.Clients(RoomTopic("r1")))

	hub.Broadcast(RoomTopic("r1"), Frame{Type: FrameMessage, Data: json.RawMessage(`{}`)})
	assert.Zero(t, hub.Clients(RoomTopic("r1")))
	select {
	case <-slow.Done():
	default:
		t.Fatal("slow client was not closed")
	}
}

func TestHubUnregister(t *testing.T) {
	hub, _ := newTestHub(t)
	c := NewClient("u1")
	hub.Register(UserTopic("u1"), c)
	hub.Unregister(UserTopic("u1"), c)
	hub.Unregister(UserTopic("u1"), c)
	assert.Zero(t, hub.Clients(UserTopic("u1")))
}

func TestClientOverWebsocket(t *testing.T) {
	hub, bus := newTestHub(t)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient("u1")
		hub.Register(UserTopic("u1"), c)
		defer hub.Unregister(UserTopic("u1"), c)
		c.Run(conn)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients(UserTopic("u1")) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, bus.Publish(context.Background(), events.SubjectMatchCreated, events.MatchCreated{MatchID: "m1", User1ID: "u1", User2ID: "u2"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, FrameMatch, f.Type)

	var evt events.MatchCreated
	require.NoError(t, json.Unmarshal(f.Data, &evt))
	assert.Equal(t, "m1", evt.MatchID)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients(UserTopic("u1")) == 0 }, time.Second, 10*time.Millisecond)
}
