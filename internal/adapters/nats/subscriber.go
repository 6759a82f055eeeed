package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	durable string
	subs    []*nats.Subscription
}

// NewSubscriber connects to NATS. durable names the consumer so a restarted
// worker resumes where it stopped.
func NewSubscriber(url, durable string) (*Subscriber, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js, durable: durable}, nil
}

// SubscribeUnsafeReported delivers every unsafe-location report to handler.
// Messages are acked on success and redelivered up to five times otherwise;
// undecodable messages are terminated.
func (s *Subscriber) SubscribeUnsafeReported(ctx context.Context, handler func(ctx context.Context, event *domain.UnsafeLocationReported) error) error {
	sub, err := s.js.Subscribe(SubjectUnsafeReported, func(msg *nats.Msg) {
		var event domain.UnsafeLocationReported
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Warn("drop malformed unsafe report event", "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &event); err != nil {
			slog.Warn("unsafe report handler failed", "event_id", event.EventID, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(s.durable),
		nats.ManualAck(),
		nats.MaxDeliver(5),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
