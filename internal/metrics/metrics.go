// Package metrics exposes Prometheus collectors for the matching flow.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "devmatch"

type Metrics struct {
	registry *prometheus.Registry

	swipes              *prometheus.CounterVec
	matchesCreated      prometheus.Counter
	roomsCreated        *prometheus.CounterVec
	detectionFailures   *prometheus.CounterVec
	messagesSent        prometheus.Counter
	retries             *prometheus.CounterVec
	rateLimited         *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	realtimeConnections prometheus.Gauge
}

// New registers all collectors, plus Go runtime and process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		swipes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swipes_total",
			Help:      "Interests recorded, by action and outcome.",
		}, []string{"action", "outcome"}),
		matchesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_created_total",
			Help:      "Matches created.",
		}),
		roomsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_rooms_created_total",
			Help:      "Chat rooms created, by path (provision, lazy, repair).",
		}, []string{"path"}),
		detectionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_detection_failures_total",
			Help:      "Swipes whose match detection did not complete, by stage.",
		}, []string{"stage"}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_sent_total",
			Help:      "Chat messages stored.",
		}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_retries_total",
			Help:      "Retries of transient storage failures, by operation.",
		}, []string{"op"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-user rate limiter.",
		}, []string{"action"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		realtimeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_connections",
			Help:      "Open websocket connections.",
		}),
	}

	reg.MustRegister(
		m.swipes, m.matchesCreated, m.roomsCreated, m.detectionFailures, m.messagesSent,
		m.retries, m.rateLimited, m.httpRequests, m.httpDuration, m.realtimeConnections,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) SwipeRecorded(action, outcome string) {
	if m == nil {
		return
	}
	m.swipes.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) MatchCreated() {
	if m == nil {
		return
	}
	m.matchesCreated.Inc()
}

func (m *Metrics) RoomCreated(path string) {
	if m == nil {
		return
	}
	m.roomsCreated.WithLabelValues(path).Inc()
}

func (m *Metrics) DetectionFailed(stage string) {
	if m == nil {
		return
	}
	m.detectionFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) MessageSent() {
	if m == nil {
		return
	}
	m.messagesSent.Inc()
}

func (m *Metrics) Retried(op string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(op).Inc()
}

func (m *Metrics) RateLimited(action string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(action).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.realtimeConnections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.realtimeConnections.Dec()
}
