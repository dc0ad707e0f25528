// Package events publishes committed schedule changes to NATS so that
// departure boards and other consumers can refresh without polling.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/tornimae/busboard/internal/domain"
)

// Metrics is the subset of the metrics collector the publisher reports to.
type Metrics interface {
	EventPublished(err error)
	NATSSetConnected(connected bool)
}

// Message is the JSON payload of every event.
type Message struct {
	Kind        string     `json:"kind"`
	StopID      uuid.UUID  `json:"stop_id"`
	StopName    string     `json:"stop_name,omitempty"`
	DepartureID *uuid.UUID `json:"departure_id,omitempty"`
	Count       int64      `json:"count,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// NewMessage converts a domain event into its wire payload.
func NewMessage(ev domain.Event) Message {
	return Message{
		Kind:        string(ev.Kind),
		StopID:      ev.StopID,
		StopName:    ev.StopName,
		DepartureID: ev.DepartureID,
		Count:       ev.Count,
		OccurredAt:  ev.OccurredAt.UTC(),
	}
}

// Subject returns the NATS subject for an event kind under prefix,
// e.g. "busboard.stop.deleted".
func Subject(prefix string, kind domain.EventKind) string {
	return subjectToken(prefix) + "." + string(kind)
}

// NATSPublisher publishes events on a single NATS connection.
type NATSPublisher struct {
	nc      *nats.Conn
	prefix  string
	log     *slog.Logger
	metrics Metrics
}

// NewNATSPublisher connects to url. Reconnects are handled by the client;
// connection state changes are logged and reported to m when non-nil.
func NewNATSPublisher(url, prefix string, log *slog.Logger, m Metrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("busboard"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Info("nats reconnected", "url", c.ConnectedUrlRedacted())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Info("nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("events.NewNATSPublisher: %w", err)
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{nc: nc, prefix: prefix, log: log, metrics: m}, nil
}

// Publish sends ev as JSON. The context is accepted for interface symmetry;
// core NATS publishes are buffered and do not block on the server.
func (p *NATSPublisher) Publish(_ context.Context, ev domain.Event) error {
	b, err := json.Marshal(NewMessage(ev))
	if err != nil {
		return fmt.Errorf("events.NATSPublisher.Publish: marshal: %w", err)
	}
	subject := Subject(p.prefix, ev.Kind)
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.EventPublished(err)
	}
	if err != nil {
		return fmt.Errorf("events.NATSPublisher.Publish %s: %w", subject, err)
	}
	p.log.Debug("event published", "subject", subject, "stop_id", ev.StopID)
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.log.Warn("nats drain failed", "error", err)
		p.nc.Close()
	}
}

// Nop discards every event. It is used when NATS_URL is not configured.
type Nop struct{}

// Publish implements the publisher interface and always succeeds.
func (Nop) Publish(context.Context, domain.Event) error { return nil }

// subjectToken makes s safe to use as one or more NATS subject tokens.
func subjectToken(s string) string {
	s = strings.Trim(strings.TrimSpace(s), ".")
	// NATS tokens cannot contain whitespace, '>' or '*'.
	repl := strings.NewReplacer(" ", "_", "\t", "_", ">", "_", "*", "_", "/", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "busboard"
	}
	return s
}
