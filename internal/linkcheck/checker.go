package linkcheck

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/mdxsite/internal/config"
	"git.home.luguber.info/inful/mdxsite/internal/logfields"
	"git.home.luguber.info/inful/mdxsite/internal/metrics"
)

const userAgent = "mdxsite-linkcheck/1.0"

// Checker verifies the links of a built site. Internal links resolve
// against the output tree; external links are fetched over HTTP when
// enabled in the configuration.
type Checker struct {
	root     string
	base     *url.URL
	external bool
	skip     []string
	client   *http.Client
	cache    resultCache
	recorder metrics.Recorder
	log      *slog.Logger
	pageSem  chan struct{}
	linkSem  chan struct{}

	mu     sync.Mutex
	report *Report
}

// New builds a Checker for the output tree at root. The NATS-backed
// result cache is attached when links.cache_url is configured.
func New(root string, cfg *config.Config) (*Checker, error) {
	lc := cfg.Links
	if lc == nil {
		lc = &config.LinksConfig{}
	}

	timeout, err := time.ParseDuration(lc.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 10 * time.Second
	}
	concurrency := lc.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}

	base, err := url.Parse(cfg.Site.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.Site.BaseURL, err)
	}

	cache, err := newResultCache(lc)
	if err != nil {
		return nil, fmt.Errorf("open link cache: %w", err)
	}

	// Clone the default transport so proxy environment variables apply.
	transport := http.DefaultTransport.(*http.Transport).Clone()

	return &Checker{
		root:     root,
		base:     base,
		external: lc.External,
		skip:     lc.SkipPrefixes,
		client:   &http.Client{Timeout: timeout, Transport: transport},
		cache:    cache,
		recorder: metrics.NoopRecorder{},
		log:      slog.Default(),
		pageSem:  make(chan struct{}, min(concurrency, 4)),
		linkSem:  make(chan struct{}, concurrency),
	}, nil
}

// SetRecorder wires a metrics recorder. Nil restores the noop recorder.
func (c *Checker) SetRecorder(r metrics.Recorder) *Checker {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	c.recorder = r
	return c
}

// SetLogger replaces the default logger.
func (c *Checker) SetLogger(log *slog.Logger) *Checker {
	if log != nil {
		c.log = log
	}
	return c
}

// Close releases the result cache connection.
func (c *Checker) Close() error {
	return c.cache.Close()
}

// Run checks every page under the output tree and returns the combined
// report. Broken links and audit findings accumulate in the report; the
// returned error covers infrastructure problems only.
func (c *Checker) Run(ctx context.Context) (*Report, error) {
	pages, err := collectPages(c.root)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages under %s: run a build first", c.root)
	}

	rep := &Report{Pages: len(pages)}
	c.mu.Lock()
	c.report = rep
	c.mu.Unlock()

	c.log.Info("checking links",
		slog.Int("pages", len(pages)),
		slog.Bool("external", c.external))

	var wg sync.WaitGroup
	for _, page := range pages {
		select {
		case <-ctx.Done():
			wg.Wait()
			return rep, ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			wg.Wait()
			return rep, ctx.Err()
		case c.pageSem <- struct{}{}:
		}
		wg.Add(1)
		go func(pg Page) {
			defer wg.Done()
			defer func() { <-c.pageSem }()
			c.checkPage(ctx, pg)
		}(page)
	}
	wg.Wait()

	c.log.Info("link check complete",
		slog.Int("links", rep.Links),
		slog.Int("broken", len(rep.Broken)),
		slog.Int("findings", len(rep.Findings)))

	return rep, nil
}

// checkPage extracts, audits, and verifies all links of a single page.
func (c *Checker) checkPage(ctx context.Context, page Page) {
	data, err := os.ReadFile(page.Path)
	if err != nil {
		c.log.Warn("failed to read page", logfields.Page(page.Rel), logfields.Error(err))
		return
	}

	links, err := extractLinks(bytes.NewReader(data), c.base)
	if err != nil {
		c.log.Warn("failed to parse page", logfields.Page(page.Rel), logfields.Error(err))
		return
	}

	findings, err := auditPage(bytes.NewReader(data), page.Rel)
	if err != nil {
		c.log.Warn("failed to audit page", logfields.Page(page.Rel), logfields.Error(err))
	} else {
		c.addFindings(findings)
	}

	c.addLinks(len(links))

	var wg sync.WaitGroup
	for _, link := range links {
		if !shouldCheck(link) || c.skipped(link.URL) {
			c.addSkipped()
			continue
		}

		if link.Internal {
			c.checkInternal(ctx, link, page)
			continue
		}

		if !c.external {
			c.addSkipped()
			continue
		}

		// Acquire before spawning so a slow server cannot pile up goroutines.
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		default:
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case c.linkSem <- struct{}{}:
		}
		wg.Add(1)
		go func(l Link) {
			defer wg.Done()
			defer func() { <-c.linkSem }()
			c.checkExternal(ctx, l, page)
		}(link)
	}
	wg.Wait()
}

// checkInternal resolves a link against the output tree. Pretty URLs
// map onto their index.html; everything else must exist as a file.
func (c *Checker) checkInternal(ctx context.Context, link Link, page Page) {
	candidates, err := resolveInternal(c.root, page, link.URL)

	ok := err == nil
	if ok {
		ok = false
		for _, cand := range candidates {
			if info, statErr := os.Stat(cand); statErr == nil && !info.IsDir() {
				ok = true
				break
			}
		}
		if !ok {
			err = fmt.Errorf("no file in output tree for %s", link.URL)
		}
	}

	c.addChecked()
	c.recorder.IncLinkCheckResult("internal", ok)
	if !ok {
		c.reportBroken(ctx, link, page, http.StatusNotFound, err.Error(), nil)
	}
}

// resolveInternal maps an internal link to the output files that could
// serve it, in preference order.
func resolveInternal(root string, page Page, raw string) ([]string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("unparsable URL: %w", err)
	}

	p := u.Path
	if p == "" {
		// Fragment or query against the page itself.
		return []string{page.Path}, nil
	}
	if !strings.HasPrefix(p, "/") {
		pageBase, err := url.Parse(page.URL)
		if err != nil {
			return nil, err
		}
		p = pageBase.ResolveReference(&url.URL{Path: p}).Path
	}

	dirStyle := strings.HasSuffix(p, "/")
	p = path.Clean(p)
	if p == "/" {
		return []string{filepath.Join(root, "index.html")}, nil
	}

	target := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(p, "/")))
	switch {
	case dirStyle:
		return []string{filepath.Join(target, "index.html")}, nil
	case path.Ext(p) != "":
		return []string{target}, nil
	default:
		// Extensionless link: the server would resolve either form.
		return []string{filepath.Join(target, "index.html"), target}, nil
	}
}

// checkExternal verifies an external link over HTTP, consulting the
// result cache first.
func (c *Checker) checkExternal(ctx context.Context, link Link, page Page) {
	cached, err := c.cache.Get(ctx, link.URL)
	if err != nil {
		c.log.Debug("cache lookup failed", logfields.URL(link.URL), logfields.Error(err))
	}
	if cached != nil && c.cache.Fresh(cached) {
		c.addChecked()
		c.recorder.IncLinkCheckResult("external", cached.OK)
		if !cached.OK {
			c.reportBroken(ctx, link, page, cached.Status, cached.Error, cached)
		}
		return
	}

	status, fetchErr := c.fetch(ctx, link.URL)

	entry := &Entry{URL: link.URL, Status: status, OK: fetchErr == nil}
	if fetchErr != nil {
		entry.Error = fetchErr.Error()
		entry.FailureCount = 1
		entry.FirstFailedAt = time.Now()
		if cached != nil && !cached.OK {
			entry.FailureCount = cached.FailureCount + 1
			if !cached.FirstFailedAt.IsZero() {
				entry.FirstFailedAt = cached.FirstFailedAt
			}
		}
	}

	c.addChecked()
	c.recorder.IncLinkCheckResult("external", fetchErr == nil)
	if fetchErr != nil {
		c.reportBroken(ctx, link, page, status, fetchErr.Error(), entry)
	}

	if err := c.cache.Put(ctx, entry); err != nil {
		c.log.Warn("failed to update link cache", logfields.URL(link.URL), logfields.Error(err))
	}
}

// fetch issues a HEAD request and maps the response onto a verdict.
// Status codes that merely signal missing credentials count as alive.
func (c *Checker) fetch(ctx context.Context, linkURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, linkURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if isAuthStatus(resp.StatusCode) {
		return resp.StatusCode, nil
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return resp.StatusCode, nil
}

// isAuthStatus reports status codes that mean the URL exists but wants
// credentials, or rejects HEAD outright.
func isAuthStatus(status int) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusMethodNotAllowed:
		return true
	}
	return false
}

// reportBroken records a broken link and publishes it as an event.
func (c *Checker) reportBroken(ctx context.Context, link Link, page Page, status int, msg string, entry *Entry) {
	b := BrokenLink{
		URL:       link.URL,
		Status:    status,
		Error:     msg,
		Internal:  link.Internal,
		Tag:       link.Tag,
		Attribute: link.Attribute,
		Text:      link.Text,
		Page:      page.Rel,
		PageURL:   page.URL,
		CheckedAt: time.Now(),
	}
	if entry != nil {
		b.FailureCount = entry.FailureCount
	}

	c.mu.Lock()
	c.report.Broken = append(c.report.Broken, b)
	c.mu.Unlock()

	if err := c.cache.PublishBroken(ctx, &b); err != nil {
		c.log.Error("failed to publish broken link",
			logfields.URL(link.URL),
			logfields.Page(page.Rel),
			logfields.Error(err))
	}

	c.log.Warn("broken link",
		logfields.URL(link.URL),
		logfields.Page(page.Rel),
		slog.Int("status", status),
		logfields.Reason(msg))
}

func (c *Checker) skipped(linkURL string) bool {
	for _, prefix := range c.skip {
		if strings.HasPrefix(linkURL, prefix) {
			return true
		}
	}
	return false
}

func (c *Checker) addFindings(fs []Finding) {
	if len(fs) == 0 {
		return
	}
	c.mu.Lock()
	c.report.Findings = append(c.report.Findings, fs...)
	c.mu.Unlock()
}

func (c *Checker) addLinks(n int) {
	c.mu.Lock()
	c.report.Links += n
	c.mu.Unlock()
}

func (c *Checker) addChecked() {
	c.mu.Lock()
	c.report.Checked++
	c.mu.Unlock()
}

func (c *Checker) addSkipped() {
	c.mu.Lock()
	c.report.Skipped++
	c.mu.Unlock()
}
