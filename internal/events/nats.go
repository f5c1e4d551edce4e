package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSBus publishes and subscribes over a NATS connection.
type NATSBus struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// ConnectNATS dials url with reconnects enabled.
func ConnectNATS(url string, logger *slog.Logger) (*NATSBus, error) {
	nc, err := nats.Connect(url,
		nats.Name("devmatch-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSBus{nc: nc, logger: logger}, nil
}

// Publish JSON-encodes v. NATS publish does not take a context, so ctx is only checked up front.
func (b *NATSBus) Publish(ctx context.Context, subject string, v any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return b.nc.Publish(subject, data)
}

func (b *NATSBus) Subscribe(subject string, h Handler) (func(), error) {
	sub, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		h(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return func() {
		if err := sub.Unsubscribe(); err != nil {
			b.logger.Debug("nats unsubscribe", "subject", subject, "error", err)
		}
	}, nil
}

// Close drains pending messages before closing the connection.
func (b *NATSBus) Close() error {
	return b.nc.Drain()
}
