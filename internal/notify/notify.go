// Package notify publishes build lifecycle events to NATS so external
// systems (chat bots, deployment hooks, dashboards) can react to site
// builds without polling. When no NATS URL is configured the package
// degrades to a no-op publisher, keeping call sites unconditional.
package notify

import (
	"context"
	"time"
)

// EventType enumerates the build lifecycle notifications.
type EventType string

const (
	EventBuildStarted   EventType = "build.started"
	EventBuildCompleted EventType = "build.completed"
	EventBuildFailed    EventType = "build.failed"
)

// BuildEvent is the JSON payload published for each build transition.
type BuildEvent struct {
	Type      EventType `json:"type"`
	BuildID   string    `json:"build_id"`
	Site      string    `json:"site,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	Rendered  int       `json:"rendered,omitempty"`
	Skipped   int       `json:"skipped,omitempty"`
	Failed    int       `json:"failed,omitempty"`
	Duration  string    `json:"duration,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers build events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	PublishBuildEvent(ctx context.Context, ev *BuildEvent) error
	Close() error
}

// NoopPublisher discards all events. It is the Publisher used when
// notifications are not configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishBuildEvent(context.Context, *BuildEvent) error { return nil }
func (NoopPublisher) Close() error                                         { return nil }
