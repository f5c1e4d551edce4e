package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// LocalBus delivers events synchronously to in-process subscribers.
type LocalBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[string]map[int]Handler)}
}

func (b *LocalBus) Publish(ctx context.Context, subject string, v any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[subject]))
	for _, h := range b.subs[subject] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(data)
	}
	return nil
}

func (b *LocalBus) Subscribe(subject string, h Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.subs[subject] == nil {
		b.subs[subject] = make(map[int]Handler)
	}
	b.subs[subject][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[subject], id)
	}, nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string]map[int]Handler)
	return nil
}
