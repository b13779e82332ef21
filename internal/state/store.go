// Package state persists incremental build state between runs.
//
// The store remembers, per source page, the content fingerprint that produced
// the last successful render. A page whose fingerprint is unchanged can be
// skipped entirely on the next build. Build summaries are kept alongside so
// the preview server can report what the last build did.
package state

import (
	"context"
	"time"
)

// PageRecord is the persisted build state of one source page.
type PageRecord struct {
	SourcePath  string // relative to the content directory, slash-separated
	Fingerprint string // content fingerprint at last successful render
	OutputPath  string // relative to the output directory, slash-separated
	BuildID     string // build that last rendered this page
	BuiltAt     time.Time
}

// BuildRecord summarizes one completed build.
type BuildRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string // success|failed|canceled
	Rendered   int
	Skipped    int
	Failed     int
}

// Store defines the interface for persisting page and build state.
type Store interface {
	// GetPage returns the record for a source path, or nil when unknown.
	GetPage(ctx context.Context, sourcePath string) (*PageRecord, error)

	// PutPage inserts or replaces the record for a source path.
	PutPage(ctx context.Context, rec PageRecord) error

	// Pages returns all page records ordered by source path.
	Pages(ctx context.Context) ([]PageRecord, error)

	// PrunePages removes records whose source path is not in keep and
	// returns the removed records so callers can clean their outputs.
	PrunePages(ctx context.Context, keep map[string]struct{}) ([]PageRecord, error)

	// RecordBuild stores a completed build summary.
	RecordBuild(ctx context.Context, rec BuildRecord) error

	// LastBuild returns the most recently finished build, or nil when none.
	LastBuild(ctx context.Context) (*BuildRecord, error)

	// Close closes the store and releases resources.
	Close() error
}
