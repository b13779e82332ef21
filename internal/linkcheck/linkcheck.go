// Package linkcheck audits a built site for broken links and common
// HTML defects.
//
// The pages of a check run are the *.html files under the output tree.
// Each page is parsed once; anchors, images, scripts, and stylesheets
// yield candidate links. Internal links resolve against the output tree
// itself, external links are fetched over HTTP when enabled. External
// results can be cached in a NATS JetStream key-value bucket so repeated
// runs stay cheap, and broken links are published as JSON events for
// downstream tooling.
package linkcheck

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// Page is one HTML file under the output tree.
type Page struct {
	Path string // absolute path to the HTML file
	Rel  string // output-relative path, slash separated
	URL  string // site-absolute URL, for example /docs/intro/
}

// BrokenLink describes a link that failed verification. The same shape
// is published as a JSON event when NATS is configured.
type BrokenLink struct {
	URL          string    `json:"url"`
	Status       int       `json:"status,omitempty"`
	Error        string    `json:"error"`
	Internal     bool      `json:"internal"`
	Tag          string    `json:"tag,omitempty"`
	Attribute    string    `json:"attribute,omitempty"`
	Text         string    `json:"text,omitempty"`
	Page         string    `json:"page"`
	PageURL      string    `json:"page_url"`
	FailureCount int       `json:"failure_count,omitempty"`
	CheckedAt    time.Time `json:"checked_at"`
}

// Report aggregates the outcome of a check run.
type Report struct {
	Pages    int          `json:"pages"`
	Links    int          `json:"links"`    // candidate links extracted
	Checked  int          `json:"checked"`  // links actually verified
	Skipped  int          `json:"skipped"`  // anchors, special schemes, skip prefixes, disabled external
	Broken   []BrokenLink `json:"broken"`
	Findings []Finding    `json:"findings"`
}

// Clean reports whether every verified link resolved. Audit findings
// are advisory and do not affect it.
func (r *Report) Clean() bool {
	return len(r.Broken) == 0
}

// Summary renders the run as a single log-friendly line.
func (r *Report) Summary() string {
	return fmt.Sprintf("pages=%d links=%d checked=%d skipped=%d broken=%d findings=%d",
		r.Pages, r.Links, r.Checked, r.Skipped, len(r.Broken), len(r.Findings))
}

// collectPages walks the output tree and returns every HTML page in it.
// Hidden directories are skipped the same way content discovery skips them.
func collectPages(root string) ([]Page, error) {
	var pages []Page
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), ".html") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		pages = append(pages, Page{Path: p, Rel: rel, URL: pageURL(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan output tree: %w", err)
	}
	return pages, nil
}

// pageURL maps an output-relative file path to the URL it is served at.
// Pretty pages collapse to their directory: docs/intro/index.html becomes
// /docs/intro/ and the root index becomes /.
func pageURL(rel string) string {
	u := "/" + rel
	if strings.HasSuffix(u, "/index.html") {
		return strings.TrimSuffix(u, "index.html")
	}
	return u
}
