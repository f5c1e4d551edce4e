package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devmatch/internal/handler/sse"
	"devmatch/internal/httputil"
	"devmatch/internal/realtime"
)

func TestEventsStream(t *testing.T) {
	api := newTestAPI(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := realtime.NewHub(nil, logger)
	events := NewEventsHandler(hub, api.svc.Chat, &sse.Config{KeepAliveInterval: time.Hour}, logger)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		events.Stream(w, httputil.WithUserID(r, r.Header.Get("X-Test-User")))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	req.Header.Set("X-Test-User", ada)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return hub.Clients(realtime.UserTopic(ada)) == 1 }, time.Second, 10*time.Millisecond)
	hub.Broadcast(realtime.UserTopic(ada), realtime.Frame{Type: realtime.FrameMatch, Data: json.RawMessage(`{"match_id":"m1"}`)})

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "), line)

	var f realtime.Frame
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &f))
	assert.Equal(t, realtime.FrameMatch, f.Type)

	cancel()
	require.Eventually(t, func() bool { return hub.Clients(realtime.UserTopic(ada)) == 0 }, time.Second, 10*time.Millisecond)
}

func TestEventsStreamRoomAccess(t *testing.T) {
	api := newTestAPI(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	events := NewEventsHandler(realtime.NewHub(nil, logger), api.svc.Chat, nil, logger)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"bad room id", "?room_id=r1", http.StatusBadRequest},
		{"unknown room", "?room_id=f0000000-0000-4000-8000-00000000000f", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httputil.WithUserID(httptest.NewRequest(http.MethodGet, "/api/events"+tt.query, nil), ada)
			w := httptest.NewRecorder()
			events.Stream(w, r)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
