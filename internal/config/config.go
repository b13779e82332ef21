package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the site configuration (site.yaml).
type Config struct {
	Version  string         `yaml:"version"`
	Site     SiteConfig     `yaml:"site"`
	Content  ContentConfig  `yaml:"content,omitempty"`
	Output   OutputConfig   `yaml:"output,omitempty"`
	Markdown MarkdownConfig `yaml:"markdown,omitempty"`
	Preview  *PreviewConfig `yaml:"preview,omitempty"`
	Links    *LinksConfig   `yaml:"links,omitempty"`
	State    StateConfig    `yaml:"state,omitempty"`
	Notify   *NotifyConfig  `yaml:"notify,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// Load loads a site configuration file.
//
// Pipeline: .env loading, environment expansion of the raw YAML, unmarshal,
// normalization (with warnings on stderr), defaults, env overrides, validation.
func Load(configPath string) (*Config, error) {
	LoadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Normalization pass (case-fold enumerations, bounds, early coercions)
	if nres, nerr := NormalizeConfig(&config); nerr != nil {
		return nil, fmt.Errorf("normalize: %w", nerr)
	} else if nres != nil && len(nres.Warnings) > 0 {
		for _, w := range nres.Warnings {
			fmt.Fprintf(os.Stderr, "config normalization: %s\n", w)
		}
	}

	// Apply defaults (after normalization so canonical values drive defaults)
	if err := applyDefaults(&config); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	// MDXSITE_* process environment wins over file values
	applyEnvOverrides(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// applyDefaults applies default values to configuration
func applyDefaults(config *Config) error {
	applier := NewDefaultApplier()
	return applier.ApplyDefaults(config)
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	return ValidateConfig(config)
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Example()

	data, err := yaml.Marshal(exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Example returns the configuration scaffolded by `mdxsite init`.
func Example() *Config {
	return &Config{
		Version: "1.0",
		Site: SiteConfig{
			Title:       "My Site",
			Description: "A site built with mdxsite",
			BaseURL:     "https://example.com",
			Language:    "en",
		},
		Content: ContentConfig{
			Dir:          "content",
			AssetsDir:    "assets",
			TemplatesDir: "templates",
		},
		Output: OutputConfig{
			Dir: "public",
		},
		Preview: &PreviewConfig{
			Addr: "127.0.0.1:8080",
		},
		Links: &LinksConfig{
			Timeout: "10s",
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
}
