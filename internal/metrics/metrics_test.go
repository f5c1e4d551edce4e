package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SwipeRecorded("like", "recorded")
		m.MatchCreated()
		m.RoomCreated("provision")
		m.DetectionFailed("lookup")
		m.MessageSent()
		m.Retried("op")
		m.RateLimited("swipe")
		m.ObserveHTTP(http.MethodGet, "/", 200, time.Millisecond)
		m.ConnectionOpened()
		m.ConnectionClosed()
	})
}

func TestCounters(t *testing.T) {
	m := New()

	m.SwipeRecorded("like", "recorded")
	m.SwipeRecorded("like", "recorded")
	m.SwipeRecorded("skip", "duplicate")
	m.MatchCreated()
	m.RoomCreated("lazy")
	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.swipes.WithLabelValues("like", "recorded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.swipes.WithLabelValues("skip", "duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.matchesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.roomsCreated.WithLabelValues("lazy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.realtimeConnections))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.MessageSent()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "devmatch_chat_messages_sent_total 1")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
