// Package sse writes Server-Sent Events.
package sse

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config tunes event streams.
type Config struct {
	// KeepAliveInterval must stay below the idle timeout of any proxy in front of the API.
	KeepAliveInterval time.Duration
}

func DefaultConfig() *Config {
	return &Config{KeepAliveInterval: 15 * time.Second}
}

// Writer writes events to one response and flushes after each.
// It goes through http.ResponseController, so wrapped response writers work.
type Writer struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func NewWriter(w http.ResponseWriter) *Writer {
	return &Writer{w: w, rc: http.NewResponseController(w)}
}

// Start sends the stream headers. It fails when the response cannot be flushed.
func (s *Writer) Start() error {
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // nginx

	// Streams outlive any server write timeout.
	if err := s.rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("clear write deadline: %w", err)
	}

	s.w.WriteHeader(http.StatusOK)
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("initial flush: %w", err)
	}
	return nil
}

// WriteEvent writes one data line. data must not contain newlines; encoded JSON never does.
func (s *Writer) WriteEvent(data []byte) error {
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return s.rc.Flush()
}

// WriteKeepAlive writes an SSE comment, which clients ignore.
func (s *Writer) WriteKeepAlive() error {
	if _, err := io.WriteString(s.w, ": keepalive\n\n"); err != nil {
		return fmt.Errorf("write keepalive: %w", err)
	}
	return s.rc.Flush()
}
