package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/padwatch/padwatch/internal/core/domain"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
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

	// Ensure the record-event stream exists
	cfg := nats.StreamConfig{
		Name:      "RECORD_EVENTS",
		Subjects:  []string{"padwatch.records.>"},
		Retention: nats.InterestPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist — try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishRecordEvent publishes a create/update/delete event on a
// per-record subject.
func (p *Publisher) PublishRecordEvent(ctx context.Context, ev *domain.RecordEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("padwatch.records."+ev.Kind+"."+ev.RecordID, data)
	return err
}

// PublishBroadcast sends a fire-and-forget message to every live client.
func (p *Publisher) PublishBroadcast(ctx context.Context, data []byte) error {
	return p.conn.Publish("padwatch.updates.broadcast", data)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
