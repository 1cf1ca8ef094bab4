package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/padwatch/padwatch/internal/core/domain"
)

// Subscriber consumes record events from NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeRecordEvents delivers every record create/update/delete to the
// handler. A handler error naks the message for redelivery.
func (s *Subscriber) SubscribeRecordEvents(ctx context.Context, durable string, handler func(ctx context.Context, ev *domain.RecordEvent) error) error {
	sub, err := s.js.Subscribe("padwatch.records.>", func(msg *nats.Msg) {
		var ev domain.RecordEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &ev); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(durable),
		nats.ManualAck(),
		nats.MaxDeliver(3),
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
