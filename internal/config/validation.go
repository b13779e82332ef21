package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

// newConfigurationValidator creates a comprehensive configuration validator.
func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

// validate performs configuration validation using domain-specific methods.
func (cv *configurationValidator) validate() error {
	if err := cv.validateVersion(); err != nil {
		return err
	}
	if err := cv.validateSite(); err != nil {
		return err
	}
	if err := cv.validatePaths(); err != nil {
		return err
	}
	if err := cv.validatePreview(); err != nil {
		return err
	}
	if err := cv.validateLinks(); err != nil {
		return err
	}
	if err := cv.validateNotify(); err != nil {
		return err
	}
	return nil
}

func (cv *configurationValidator) validateVersion() error {
	if !strings.HasPrefix(cv.config.Version, "1.") {
		return fmt.Errorf("unsupported configuration version: %s (expected 1.x)", cv.config.Version)
	}
	return nil
}

func (cv *configurationValidator) validateSite() error {
	if cv.config.Site.BaseURL != "" {
		u, err := url.Parse(cv.config.Site.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid site.base_url %q: %w", cv.config.Site.BaseURL, err)
		}
		if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("site.base_url must be an absolute http(s) URL, got %q", cv.config.Site.BaseURL)
		}
	}
	if _, err := language.Parse(cv.config.Site.Language); err != nil {
		return fmt.Errorf("invalid site.language %q: %w", cv.config.Site.Language, err)
	}
	return nil
}

func (cv *configurationValidator) validatePaths() error {
	contentDir := filepath.Clean(cv.config.Content.Dir)
	outputDir := filepath.Clean(cv.config.Output.Dir)

	if contentDir == outputDir {
		return fmt.Errorf("content.dir and output.dir must differ (both %s)", contentDir)
	}
	// Writing the site into its own sources would make every build dirty.
	if isSubPath(contentDir, outputDir) {
		return fmt.Errorf("output.dir (%s) must not be inside content.dir (%s)", outputDir, contentDir)
	}
	if isSubPath(outputDir, contentDir) {
		return fmt.Errorf("content.dir (%s) must not be inside output.dir (%s)", contentDir, outputDir)
	}
	if len(cv.config.Content.Extensions) == 0 {
		return errors.New("content.extensions must not be empty")
	}
	return nil
}

func (cv *configurationValidator) validatePreview() error {
	p := cv.config.Preview
	if p == nil {
		return nil
	}
	if _, _, err := net.SplitHostPort(p.Addr); err != nil {
		return fmt.Errorf("invalid preview.addr %q: %w", p.Addr, err)
	}
	debounce, err := time.ParseDuration(p.Debounce)
	if err != nil {
		return fmt.Errorf("invalid preview.debounce: %s: %w", p.Debounce, err)
	}
	maxDelay, err := time.ParseDuration(p.MaxDelay)
	if err != nil {
		return fmt.Errorf("invalid preview.max_delay: %s: %w", p.MaxDelay, err)
	}
	if maxDelay < debounce {
		return fmt.Errorf("preview.max_delay (%s) must be >= preview.debounce (%s)", p.MaxDelay, p.Debounce)
	}
	if p.Schedule != "" {
		if fields := strings.Fields(p.Schedule); len(fields) != 5 && len(fields) != 6 {
			return fmt.Errorf("invalid preview.schedule %q: expected 5 or 6 cron fields", p.Schedule)
		}
	}
	return nil
}

func (cv *configurationValidator) validateLinks() error {
	l := cv.config.Links
	if l == nil {
		return nil
	}
	if _, err := time.ParseDuration(l.Timeout); err != nil {
		return fmt.Errorf("invalid links.timeout: %s: %w", l.Timeout, err)
	}
	if _, err := time.ParseDuration(l.CacheTTL); err != nil {
		return fmt.Errorf("invalid links.cache_ttl: %s: %w", l.CacheTTL, err)
	}
	if l.Concurrency < 1 {
		return fmt.Errorf("links.concurrency must be positive: %d", l.Concurrency)
	}
	if l.CacheURL != "" && !hasNATSScheme(l.CacheURL) {
		return fmt.Errorf("links.cache_url must be a nats:// or tls:// URL, got %q", l.CacheURL)
	}
	return nil
}

func (cv *configurationValidator) validateNotify() error {
	n := cv.config.Notify
	if n == nil || n.URL == "" {
		return nil
	}
	if !hasNATSScheme(n.URL) {
		return fmt.Errorf("notify.url must be a nats:// or tls:// URL, got %q", n.URL)
	}
	if n.Subject == "" {
		return errors.New("notify.subject is required when notify.url is set")
	}
	return nil
}

func hasNATSScheme(raw string) bool {
	return strings.HasPrefix(raw, "nats://") || strings.HasPrefix(raw, "tls://")
}

// isSubPath reports whether child is strictly inside parent.
func isSubPath(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
