package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/mdxsite/internal/config"
)

// NATSPublisher publishes build events to a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher returns a Publisher for the given notify configuration.
// A nil config or empty URL yields a NoopPublisher and no error.
func NewPublisher(cfg *config.NotifyConfig) (Publisher, error) {
	if cfg == nil || cfg.URL == "" {
		return NoopPublisher{}, nil
	}
	return NewNATSPublisher(cfg.URL, cfg.Subject)
}

// NewNATSPublisher connects to NATS and returns a publisher bound to subject.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		return nil, fmt.Errorf("notify subject is required")
	}

	conn, err := nats.Connect(url,
		nats.Name("mdxsite-notify"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("NATS publisher initialized for build notifications",
		"url", url,
		"subject", subject)

	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// PublishBuildEvent serializes ev and publishes it on the configured subject.
func (p *NATSPublisher) PublishBuildEvent(ctx context.Context, ev *BuildEvent) error {
	if ev == nil {
		return fmt.Errorf("build event is required")
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush publish: %w", err)
	}

	slog.Debug("Published build event",
		"type", string(ev.Type),
		"build_id", ev.BuildID,
		"subject", p.subject)

	return nil
}

// Close closes the connection. Published events were flushed at publish
// time, so nothing is lost.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
