package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes events as JSON on "<prefix>.<kind>" subjects.
// With a nil connection it silently drops events.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSPublisher creates a publisher on conn.
func NewNATSPublisher(conn *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// Subject returns the subject an event of kind k is published on.
func (p *NATSPublisher) Subject(k Kind) string {
	if p.prefix == "" {
		return string(k)
	}
	return p.prefix + "." + string(k)
}

func (p *NATSPublisher) Publish(_ context.Context, ev Event) error {
	if p.conn == nil {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Kind, err)
	}
	if err := p.conn.Publish(p.Subject(ev.Kind), data); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Kind, err)
	}
	return nil
}
