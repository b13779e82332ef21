package config

import "strings"

// SiteConfig holds site-wide presentation metadata.
type SiteConfig struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description,omitempty"`
	BaseURL     string         `yaml:"base_url,omitempty"`
	Language    string         `yaml:"language,omitempty"` // BCP 47 tag, e.g. "en" or "nb-NO"
	Params      map[string]any `yaml:"params,omitempty"`   // Free-form values exposed to page templates
}

// ContentConfig locates authored content and its supporting directories.
type ContentConfig struct {
	Dir          string   `yaml:"dir,omitempty"`           // Markdown sources, defaults to "content"
	AssetsDir    string   `yaml:"assets_dir,omitempty"`    // Static files copied verbatim, defaults to "assets"
	TemplatesDir string   `yaml:"templates_dir,omitempty"` // Page template overrides, defaults to "templates"
	Extensions   []string `yaml:"extensions,omitempty"`    // Source extensions, defaults to [".md", ".mdx"]
	Drafts       bool     `yaml:"drafts,omitempty"`        // Include pages marked draft: true
	GitDates     *bool    `yaml:"git_dates,omitempty"`     // Derive page dates from git history (default true)
}

// GitDatesEnabled reports whether page dates should fall back to git history.
func (c ContentConfig) GitDatesEnabled() bool { return c.GitDates == nil || *c.GitDates }

// OutputConfig represents output configuration.
type OutputConfig struct {
	Dir   string `yaml:"dir,omitempty"` // Generated site root, defaults to "public"
	Clean *bool  `yaml:"clean,omitempty"`
}

// CleanEnabled reports whether stale files are removed from the output directory.
func (o OutputConfig) CleanEnabled() bool { return o.Clean == nil || *o.Clean }

// MarkdownConfig tunes the Markdown pipeline.
type MarkdownConfig struct {
	// StrictComponents makes an unregistered component tag a build error
	// instead of an HTML comment placeholder.
	StrictComponents bool `yaml:"strict_components,omitempty"`
}

// PreviewConfig configures the local preview server.
type PreviewConfig struct {
	Addr       string `yaml:"addr,omitempty"`       // listen address, defaults to 127.0.0.1:8080
	LiveReload *bool  `yaml:"livereload,omitempty"` // inject reload script + SSE endpoint (default true)
	Debounce   string `yaml:"debounce,omitempty"`   // quiet window after a file event, defaults to 250ms
	MaxDelay   string `yaml:"max_delay,omitempty"`  // rebuild at latest this long after first event, defaults to 2s
	Schedule   string `yaml:"schedule,omitempty"`   // optional cron expression for periodic rebuilds
	Metrics    bool   `yaml:"metrics,omitempty"`    // serve Prometheus metrics on /metrics
}

// LiveReloadEnabled reports whether the preview server injects the reload script.
func (p *PreviewConfig) LiveReloadEnabled() bool {
	return p == nil || p.LiveReload == nil || *p.LiveReload
}

// LinksConfig configures the link audit.
type LinksConfig struct {
	External     bool     `yaml:"external,omitempty"`      // also verify http(s) URLs over the network
	Timeout      string   `yaml:"timeout,omitempty"`       // per-request timeout, defaults to 10s
	Concurrency  int      `yaml:"concurrency,omitempty"`   // parallel external checks, defaults to 8
	SkipPrefixes []string `yaml:"skip_prefixes,omitempty"` // URL prefixes excluded from checking
	CacheURL     string   `yaml:"cache_url,omitempty"`     // NATS server for the external-result cache
	CacheBucket  string   `yaml:"cache_bucket,omitempty"`  // KV bucket name, defaults to mdxsite-linkcheck
	CacheTTL     string   `yaml:"cache_ttl,omitempty"`     // cache entry lifetime, defaults to 1h
	Subject      string   `yaml:"subject,omitempty"`       // broken-link event subject, defaults to mdxsite.links.broken
}

// StateConfig locates the incremental build state database.
type StateConfig struct {
	Path string `yaml:"path,omitempty"` // defaults to .mdxsite/state.db
}

// NotifyConfig configures build event publishing.
type NotifyConfig struct {
	URL     string `yaml:"url,omitempty"`     // NATS server URL; empty disables publishing
	Subject string `yaml:"subject,omitempty"` // defaults to mdxsite.builds
}

// LoggingConfig selects log verbosity and output shape.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// LogLevel enumerates supported logging levels (maps onto slog levels).
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// NormalizeLogLevel canonicalizes user input returning empty string if unknown.
func NormalizeLogLevel(raw string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(LogLevelDebug):
		return LogLevelDebug
	case string(LogLevelInfo):
		return LogLevelInfo
	case string(LogLevelWarn):
		return LogLevelWarn
	case string(LogLevelError):
		return LogLevelError
	default:
		return ""
	}
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// NormalizeLogFormat canonicalizes user input returning empty string if unknown.
func NormalizeLogFormat(raw string) LogFormat {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(LogFormatJSON):
		return LogFormatJSON
	case string(LogFormatText):
		return LogFormatText
	default:
		return ""
	}
}
