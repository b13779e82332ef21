package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnvFiles loads environment variables from .env/.env.local if present.
// Existing process environment variables are not overwritten. Missing files
// are not an error.
func LoadEnvFiles() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			fmt.Fprintf(os.Stderr, "Note: %s couldn't be loaded: %v\n", envPath, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", envPath)
	}
}

// applyEnvOverrides applies MDXSITE_* process environment overrides onto the
// loaded configuration. These take precedence over file values so deployment
// environments can adjust a site without editing site.yaml.
func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("MDXSITE_TITLE", &cfg.Site.Title)
	setString("MDXSITE_BASE_URL", &cfg.Site.BaseURL)
	setString("MDXSITE_CONTENT_DIR", &cfg.Content.Dir)
	setString("MDXSITE_OUTPUT_DIR", &cfg.Output.Dir)
	setString("MDXSITE_STATE_DB", &cfg.State.Path)

	if cfg.Preview != nil {
		setString("MDXSITE_PREVIEW_ADDR", &cfg.Preview.Addr)
	}
	if cfg.Notify != nil {
		setString("MDXSITE_NATS_URL", &cfg.Notify.URL)
	}

	if v := os.Getenv("MDXSITE_LOG_LEVEL"); v != "" {
		if lvl := NormalizeLogLevel(v); lvl != "" {
			cfg.Logging.Level = lvl
		}
	}
	if v := os.Getenv("MDXSITE_LOG_FORMAT"); v != "" {
		if f := NormalizeLogFormat(v); f != "" {
			cfg.Logging.Format = f
		}
	}
}
