package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig performs canonicalization on enumerated and bounded fields prior to default application.
// It mutates the provided config in-place and returns a result describing any coercions.
func NormalizeConfig(c *Config) (*NormalizationResult, error) {
	if c == nil {
		return nil, fmt.Errorf("config nil")
	}
	res := &NormalizationResult{}
	normalizeLogging(&c.Logging, res)
	normalizeContent(&c.Content, res)
	normalizeLinks(c.Links, res)
	if c.Preview != nil {
		c.Preview.Addr = strings.TrimSpace(c.Preview.Addr)
	}
	c.Site.BaseURL = strings.TrimRight(strings.TrimSpace(c.Site.BaseURL), "/")
	return res, nil
}

func normalizeLogging(l *LoggingConfig, res *NormalizationResult) {
	if lvl := NormalizeLogLevel(string(l.Level)); lvl != "" {
		if l.Level != lvl {
			res.Warnings = append(res.Warnings, warnChanged("logging.level", l.Level, lvl))
			l.Level = lvl
		}
	} else if string(l.Level) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("logging.level", string(l.Level), string(LogLevelInfo)))
		l.Level = LogLevelInfo
	}

	if f := NormalizeLogFormat(string(l.Format)); f != "" {
		if l.Format != f {
			res.Warnings = append(res.Warnings, warnChanged("logging.format", l.Format, f))
			l.Format = f
		}
	} else if string(l.Format) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("logging.format", string(l.Format), string(LogFormatText)))
		l.Format = LogFormatText
	}
}

func normalizeContent(c *ContentConfig, res *NormalizationResult) {
	if len(c.Extensions) == 0 {
		return
	}
	// Extensions are order-sensitive (first match wins for ambiguous names),
	// so trim without sorting, then coerce to lowercase dotted form.
	exts := trimStringSlice(c.Extensions)
	changed := len(exts) != len(c.Extensions)
	for i, e := range exts {
		canon := strings.ToLower(e)
		if !strings.HasPrefix(canon, ".") {
			canon = "." + canon
		}
		if canon != e {
			changed = true
		}
		exts[i] = canon
	}
	if changed {
		res.Warnings = append(res.Warnings, fmt.Sprintf("normalized content.extensions to %v", exts))
	}
	c.Extensions = exts
}

func normalizeLinks(l *LinksConfig, res *NormalizationResult) {
	if l == nil {
		return
	}
	l.SkipPrefixes = normalizeStringSlice("links.skip_prefixes", l.SkipPrefixes, res)
	if l.Concurrency < 0 {
		l.Concurrency = 0
	}
}

// normalizeStringSlice performs trim, dedupe, and sort operations on a string slice.
// It records a warning when changes occur. Use this for configuration fields that
// should be canonical (trimmed, unique, sorted).
func normalizeStringSlice(label string, in []string, res *NormalizationResult) []string {
	if len(in) == 0 {
		return in
	}

	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	changed := false

	for _, v := range in {
		t := strings.TrimSpace(v)
		if t == "" {
			changed = true
			continue
		}
		if _, ok := seen[t]; ok {
			changed = true
			continue
		}
		if t != v {
			changed = true
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	if changed {
		res.Warnings = append(res.Warnings, fmt.Sprintf("normalized %s list (%d -> %d entries)", label, len(in), len(out)))
	}

	if len(out) <= 1 {
		return out
	}
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && out[j-1] > out[j] {
			out[j-1], out[j] = out[j], out[j-1]
			j--
		}
	}

	return out
}

// trimStringSlice removes empty entries (after trimming whitespace) from a string slice.
// Does not dedupe or sort. Use this for order-sensitive configuration fields.
func trimStringSlice(in []string) []string {
	if len(in) == 0 {
		return in
	}

	out := make([]string, 0, len(in))
	for _, p := range in {
		if tp := strings.TrimSpace(p); tp != "" {
			out = append(out, tp)
		}
	}
	return out
}

func warnChanged(field string, from, to interface{}) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}
