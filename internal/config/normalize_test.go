package config

import (
	"strings"
	"testing"
)

func TestNormalizeConfigNil(t *testing.T) {
	if _, err := NormalizeConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNormalizeLoggingCaseFold(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "DEBUG", Format: "Json"}}

	res, err := NormalizeConfig(cfg)
	if err != nil {
		t.Fatalf("NormalizeConfig() error = %v", err)
	}
	if cfg.Logging.Level != LogLevelDebug {
		t.Errorf("Level = %v, want debug", cfg.Logging.Level)
	}
	if cfg.Logging.Format != LogFormatJSON {
		t.Errorf("Format = %v, want json", cfg.Logging.Format)
	}
	if len(res.Warnings) != 2 {
		t.Errorf("warnings = %v, want 2 entries", res.Warnings)
	}
}

func TestNormalizeLoggingUnknownFallsBack(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "verbose"}}

	res, err := NormalizeConfig(cfg)
	if err != nil {
		t.Fatalf("NormalizeConfig() error = %v", err)
	}
	if cfg.Logging.Level != LogLevelInfo {
		t.Errorf("Level = %v, want info fallback", cfg.Logging.Level)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "unknown logging.level") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestNormalizeContentExtensions(t *testing.T) {
	cfg := &Config{Content: ContentConfig{Extensions: []string{"MD", " .mdx ", ""}}}

	if _, err := NormalizeConfig(cfg); err != nil {
		t.Fatalf("NormalizeConfig() error = %v", err)
	}
	want := []string{".md", ".mdx"}
	if len(cfg.Content.Extensions) != len(want) {
		t.Fatalf("Extensions = %v, want %v", cfg.Content.Extensions, want)
	}
	for i := range want {
		if cfg.Content.Extensions[i] != want[i] {
			t.Errorf("Extensions[%d] = %v, want %v", i, cfg.Content.Extensions[i], want[i])
		}
	}
}

func TestNormalizeLinksSkipPrefixes(t *testing.T) {
	cfg := &Config{Links: &LinksConfig{SkipPrefixes: []string{" mailto: ", "tel:", "mailto:", ""}}}

	res, err := NormalizeConfig(cfg)
	if err != nil {
		t.Fatalf("NormalizeConfig() error = %v", err)
	}
	got := cfg.Links.SkipPrefixes
	if len(got) != 2 || got[0] != "mailto:" || got[1] != "tel:" {
		t.Errorf("SkipPrefixes = %v, want sorted deduped [mailto: tel:]", got)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a normalization warning")
	}
}

func TestNormalizeBaseURLTrimsTrailingSlash(t *testing.T) {
	cfg := &Config{Site: SiteConfig{BaseURL: "https://example.test/ "}}

	if _, err := NormalizeConfig(cfg); err != nil {
		t.Fatalf("NormalizeConfig() error = %v", err)
	}
	if cfg.Site.BaseURL != "https://example.test" {
		t.Errorf("BaseURL = %q", cfg.Site.BaseURL)
	}
}
