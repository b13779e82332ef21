package linkcheck

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/mdxsite/internal/config"
	"git.home.luguber.info/inful/mdxsite/internal/logfields"
)

// Entry is a cached verification result for one external URL.
type Entry struct {
	URL           string    `json:"url"`
	Status        int       `json:"status"`
	OK            bool      `json:"ok"`
	Error         string    `json:"error,omitempty"`
	CheckedAt     time.Time `json:"checked_at"`
	FailureCount  int       `json:"failure_count,omitempty"`
	FirstFailedAt time.Time `json:"first_failed_at"`
}

// resultCache stores external check results between runs and carries
// broken-link events to whoever listens. The NATS-backed implementation
// does both over one connection; the noop implementation makes every
// lookup a miss and drops events.
type resultCache interface {
	Get(ctx context.Context, url string) (*Entry, error)
	Put(ctx context.Context, e *Entry) error
	Fresh(e *Entry) bool
	PublishBroken(ctx context.Context, b *BrokenLink) error
	Close() error
}

// newResultCache picks the cache implementation for the given config.
func newResultCache(lc *config.LinksConfig) (resultCache, error) {
	if lc == nil || lc.CacheURL == "" {
		return noopCache{}, nil
	}
	return NewNATSCache(lc)
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*Entry, error) { return nil, nil }

func (noopCache) Put(context.Context, *Entry) error { return nil }

func (noopCache) Fresh(*Entry) bool { return false }

func (noopCache) PublishBroken(context.Context, *BrokenLink) error { return nil }

func (noopCache) Close() error { return nil }

// NATSCache keeps check results in a JetStream key-value bucket and
// publishes broken-link events on a subject from the same connection.
type NATSCache struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	kv      jetstream.KeyValue
	subject string
	ttl     time.Duration
}

// NewNATSCache connects to the configured NATS server and opens the
// cache bucket, creating it on first use.
func NewNATSCache(lc *config.LinksConfig) (*NATSCache, error) {
	if lc == nil || lc.CacheURL == "" {
		return nil, errors.New("link cache is not configured")
	}

	bucket := lc.CacheBucket
	if bucket == "" {
		bucket = "mdxsite-linkcheck"
	}
	subject := lc.Subject
	if subject == "" {
		subject = "mdxsite.links.broken"
	}
	ttl, err := time.ParseDuration(lc.CacheTTL)
	if err != nil || ttl <= 0 {
		ttl = time.Hour
	}

	conn, err := nats.Connect(lc.CacheURL,
		nats.Name("mdxsite-linkcheck"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	c := &NATSCache{conn: conn, js: js, subject: subject, ttl: ttl}
	if err := c.initBucket(bucket); err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("link cache connected",
		logfields.Addr(lc.CacheURL),
		slog.String("bucket", bucket),
		logfields.Subject(subject))

	return c, nil
}

func (c *NATSCache) initBucket(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := c.js.KeyValue(ctx, name)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = c.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      name,
			Description: "mdxsite link check results",
			MaxBytes:    100 * 1024 * 1024,
			History:     1,
		})
	}
	if err != nil {
		return fmt.Errorf("open cache bucket %s: %w", name, err)
	}
	c.kv = kv
	return nil
}

// cacheKey hashes a URL into a KV-safe key. Raw URLs contain characters
// the KV key grammar rejects.
func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached entry for a URL, or nil when it has never been
// checked.
func (c *NATSCache) Get(ctx context.Context, url string) (*Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	kve, err := c.kv.Get(ctx, cacheKey(url))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cache entry: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(kve.Value(), &e); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	return &e, nil
}

// Put stores a check result, stamping CheckedAt.
func (c *NATSCache) Put(ctx context.Context, e *Entry) error {
	if e == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	e.CheckedAt = time.Now()
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if _, err := c.kv.Put(ctx, cacheKey(e.URL), data); err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// Fresh reports whether an entry is still inside the configured TTL.
// The bucket has no per-key expiry, so staleness is decided on read.
func (c *NATSCache) Fresh(e *Entry) bool {
	return e != nil && time.Since(e.CheckedAt) < c.ttl
}

// PublishBroken emits a broken-link event on the configured subject.
func (c *NATSCache) PublishBroken(ctx context.Context, b *BrokenLink) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if b.CheckedAt.IsZero() {
		b.CheckedAt = time.Now()
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode broken link event: %w", err)
	}
	if _, err := c.js.Publish(ctx, c.subject, data); err != nil {
		return fmt.Errorf("publish broken link event: %w", err)
	}

	slog.Debug("published broken link event",
		logfields.URL(b.URL),
		logfields.Page(b.Page),
		logfields.Subject(c.subject))

	return nil
}

// Close tears down the NATS connection.
func (c *NATSCache) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}
