package config

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// VersionDefaultApplier fills in the config format version.
type VersionDefaultApplier struct{}

func (v *VersionDefaultApplier) Domain() string { return "version" }

func (v *VersionDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Version == "" {
		cfg.Version = "1.0"
	}
	return nil
}

// SiteDefaultApplier handles Site configuration defaults.
type SiteDefaultApplier struct{}

func (s *SiteDefaultApplier) Domain() string { return "site" }

func (s *SiteDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Site.Title == "" {
		cfg.Site.Title = "My Site"
	}
	if cfg.Site.Language == "" {
		cfg.Site.Language = "en"
	}
	return nil
}

// ContentDefaultApplier handles Content configuration defaults.
type ContentDefaultApplier struct{}

func (c *ContentDefaultApplier) Domain() string { return "content" }

func (c *ContentDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Content.Dir == "" {
		cfg.Content.Dir = "content"
	}
	if cfg.Content.AssetsDir == "" {
		cfg.Content.AssetsDir = "assets"
	}
	if cfg.Content.TemplatesDir == "" {
		cfg.Content.TemplatesDir = "templates"
	}
	// Distinguish between nil slice and explicitly empty slice
	if cfg.Content.Extensions == nil {
		cfg.Content.Extensions = []string{".md", ".mdx"}
	}
	if cfg.Content.GitDates == nil {
		enabled := true
		cfg.Content.GitDates = &enabled
	}
	return nil
}

// OutputDefaultApplier handles Output configuration defaults.
type OutputDefaultApplier struct{}

func (o *OutputDefaultApplier) Domain() string { return "output" }

func (o *OutputDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "public"
	}
	if cfg.Output.Clean == nil {
		clean := true
		cfg.Output.Clean = &clean
	}
	return nil
}

// PreviewDefaultApplier handles Preview configuration defaults.
type PreviewDefaultApplier struct{}

func (p *PreviewDefaultApplier) Domain() string { return "preview" }

func (p *PreviewDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Preview == nil {
		cfg.Preview = &PreviewConfig{}
	}
	if cfg.Preview.Addr == "" {
		cfg.Preview.Addr = "127.0.0.1:8080"
	}
	if cfg.Preview.LiveReload == nil {
		enabled := true
		cfg.Preview.LiveReload = &enabled
	}
	if cfg.Preview.Debounce == "" {
		cfg.Preview.Debounce = "250ms"
	}
	if cfg.Preview.MaxDelay == "" {
		cfg.Preview.MaxDelay = "2s"
	}
	return nil
}

// LinksDefaultApplier handles Links configuration defaults.
type LinksDefaultApplier struct{}

func (l *LinksDefaultApplier) Domain() string { return "links" }

func (l *LinksDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Links == nil {
		cfg.Links = &LinksConfig{}
	}
	if cfg.Links.Timeout == "" {
		cfg.Links.Timeout = "10s"
	}
	if cfg.Links.Concurrency == 0 {
		cfg.Links.Concurrency = 8
	}
	if cfg.Links.CacheBucket == "" {
		cfg.Links.CacheBucket = "mdxsite-linkcheck"
	}
	if cfg.Links.CacheTTL == "" {
		cfg.Links.CacheTTL = "1h"
	}
	if cfg.Links.Subject == "" {
		cfg.Links.Subject = "mdxsite.links.broken"
	}
	return nil
}

// StateDefaultApplier handles State configuration defaults.
type StateDefaultApplier struct{}

func (s *StateDefaultApplier) Domain() string { return "state" }

func (s *StateDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.State.Path == "" {
		cfg.State.Path = ".mdxsite/state.db"
	}
	return nil
}

// NotifyDefaultApplier handles Notify configuration defaults.
type NotifyDefaultApplier struct{}

func (n *NotifyDefaultApplier) Domain() string { return "notify" }

func (n *NotifyDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Notify == nil {
		cfg.Notify = &NotifyConfig{}
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "mdxsite.builds"
	}
	return nil
}

// LoggingDefaultApplier handles Logging configuration defaults.
type LoggingDefaultApplier struct{}

func (l *LoggingDefaultApplier) Domain() string { return "logging" }

func (l *LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	return nil
}
