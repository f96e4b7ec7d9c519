// Package broadcast publishes pedido events to NATS so board clients can
// refresh without polling.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"pigmea/internal/config"
	"pigmea/internal/stages"
)

// Event is the wire format for a pedido change.
type Event struct {
	Event        string       `json:"event"`
	PedidoID     string       `json:"pedido_id"`
	Registration string       `json:"registration,omitempty"`
	FromStage    stages.Stage `json:"from_stage,omitempty"`
	ToStage      stages.Stage `json:"to_stage,omitempty"`
	Detail       string       `json:"detail,omitempty"`
	OccurredAt   time.Time    `json:"occurred_at"`
	Source       string       `json:"source,omitempty"`
}

// Emitter publishes events. A nil or disconnected emitter degrades to a noop
// so callers never have to branch on broadcast configuration.
type Emitter struct {
	conn          *nats.Conn
	subjectPrefix string
	source        string
}

// Connect dials NATS when broadcasting is enabled. When disabled, the
// returned emitter silently drops events.
func Connect(cfg *config.Config) (*Emitter, error) {
	if cfg == nil || !cfg.Broadcast.Enabled {
		return &Emitter{}, nil
	}

	conn, err := nats.Connect(
		cfg.Broadcast.URL,
		nats.Name(cfg.Broadcast.Name),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &Emitter{
		conn:          conn,
		subjectPrefix: cfg.Broadcast.SubjectPrefix,
		source:        cfg.Broadcast.Name,
	}, nil
}

// Publish sends an event on "<prefix>.<event>". Skips publishing when no
// connection is configured.
func (e *Emitter) Publish(ctx context.Context, event Event) error {
	if e == nil || e.conn == nil {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if event.Source == "" {
		event.Source = e.source
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := e.subjectPrefix + "." + sanitizeToken(event.Event)
	if err := e.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close flushes and drops the connection.
func (e *Emitter) Close() {
	if e == nil || e.conn == nil {
		return
	}
	_ = e.conn.Flush()
	e.conn.Close()
}

// Enabled reports whether events will actually be published.
func (e *Emitter) Enabled() bool {
	return e != nil && e.conn != nil
}

func sanitizeToken(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "unknown"
	}
	var builder strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		default:
			builder.WriteByte('-')
		}
	}
	return strings.Trim(builder.String(), "-")
}
