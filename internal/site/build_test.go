package site

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"git.home.luguber.info/inful/mdxsite/internal/metrics"
	"git.home.luguber.info/inful/mdxsite/internal/state"
)

// captureRecorder counts recorder calls through the metrics interface.
type captureRecorder struct {
	pageOutcomes  map[metrics.PageOutcome]int
	buildOutcomes map[string]int
	buildObserved int
}

func newCaptureRecorder() *captureRecorder {
	return &captureRecorder{
		pageOutcomes:  make(map[metrics.PageOutcome]int),
		buildOutcomes: make(map[string]int),
	}
}

func (c *captureRecorder) ObserveBuildDuration(time.Duration)         { c.buildObserved++ }
func (c *captureRecorder) ObservePageRenderDuration(time.Duration)    {}
func (c *captureRecorder) IncPageOutcome(outcome metrics.PageOutcome) { c.pageOutcomes[outcome]++ }
func (c *captureRecorder) IncBuildOutcome(outcome string)             { c.buildOutcomes[outcome]++ }
func (c *captureRecorder) IncRebuildTrigger(string)                   {}
func (c *captureRecorder) SetLivereloadClients(int)                   {}
func (c *captureRecorder) IncLinkCheckResult(string, bool)            {}

func newSiteFixture(t *testing.T) *Builder {
	t.Helper()
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "content", "index.md"), `---
title: Home
---

# Welcome

[[Get Started|variant=primary]](/docs/intro/)
`)
	writeTestFile(t, filepath.Join(root, "content", "docs", "intro.md"), `---
title: Introduction
---

<FeaturesGrid columns="2">

### Fast

Builds finish quickly.

### Simple

One binary, no runtime.

</FeaturesGrid>
`)
	writeTestFile(t, filepath.Join(root, "assets", "site.css"), "body { margin: 0 }\n")
	return NewBuilder(root, testConfig())
}

func withMemoryStore(t *testing.T, b *Builder) *Builder {
	t.Helper()
	store, err := state.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open state store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return b.SetStore(store)
}

func TestBuildRendersSite(t *testing.T) {
	b := newSiteFixture(t)
	rec := newCaptureRecorder()
	b.SetRecorder(rec)

	report, err := b.Build(t.Context(), BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if report.Outcome != OutcomeSuccess {
		t.Fatalf("outcome = %s, want success", report.Outcome)
	}
	if report.Pages != 2 || report.Rendered != 2 || report.Skipped != 0 || report.Failed != 0 {
		t.Fatalf("counts = pages %d rendered %d skipped %d failed %d",
			report.Pages, report.Rendered, report.Skipped, report.Failed)
	}
	if report.Assets != 1 {
		t.Fatalf("assets = %d, want 1", report.Assets)
	}
	if report.BytesWritten == 0 {
		t.Fatal("bytes written should be non-zero")
	}
	if report.TemplateSource != "embedded" {
		t.Fatalf("template source = %q", report.TemplateSource)
	}

	home := mustReadFile(t, filepath.Join(b.OutputDir(), "index.html"))
	if !strings.Contains(home, `<a class="btn btn--primary" href="/docs/intro/">Get Started</a>`) {
		t.Errorf("home page missing rendered button:\n%s", home)
	}
	if !strings.Contains(home, "<title>Home | Test Site</title>") {
		t.Errorf("home page missing title tag:\n%s", home)
	}

	intro := mustReadFile(t, filepath.Join(b.OutputDir(), "docs", "intro", "index.html"))
	for _, want := range []string{"features-grid--cols-2", "feature-card", "Builds finish quickly."} {
		if !strings.Contains(intro, want) {
			t.Errorf("intro page missing %q:\n%s", want, intro)
		}
	}

	if _, err := os.Stat(filepath.Join(b.OutputDir(), "assets", "site.css")); err != nil {
		t.Errorf("asset not copied: %v", err)
	}
	if _, err := os.Stat(filepath.Join(b.OutputDir(), "build-report.json")); err != nil {
		t.Errorf("build report not persisted: %v", err)
	}

	if rec.pageOutcomes[metrics.PageRendered] != 2 {
		t.Errorf("rendered metric = %d", rec.pageOutcomes[metrics.PageRendered])
	}
	if rec.buildOutcomes["success"] != 1 || rec.buildObserved != 1 {
		t.Errorf("build metrics = %+v observed %d", rec.buildOutcomes, rec.buildObserved)
	}
}

func TestBuildMetadataFallback(t *testing.T) {
	// Pages without frontmatter still get a title and description in the
	// rendered head, taken from the first h1 and the first paragraph.
	b := newSiteFixture(t)
	writeTestFile(t, filepath.Join(b.ContentDir(), "notes.md"),
		"# Field Notes\n\nShort observations from the road.\n")

	if _, err := b.Build(t.Context(), BuildOptions{}); err != nil {
		t.Fatalf("build: %v", err)
	}

	page := mustReadFile(t, filepath.Join(b.OutputDir(), "notes", "index.html"))
	if !strings.Contains(page, "<title>Field Notes | Test Site</title>") {
		t.Errorf("title not derived from first heading:\n%s", page)
	}
	if !strings.Contains(page, `<meta name="description" content="Short observations from the road.">`) {
		t.Errorf("description not derived from first paragraph:\n%s", page)
	}
}

func TestBuildIncrementalSkipsUnchanged(t *testing.T) {
	b := withMemoryStore(t, newSiteFixture(t))

	if _, err := b.Build(t.Context(), BuildOptions{}); err != nil {
		t.Fatalf("first build: %v", err)
	}

	second, err := b.Build(t.Context(), BuildOptions{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if second.Rendered != 0 || second.Skipped != 2 {
		t.Fatalf("second build rendered %d skipped %d, want 0/2", second.Rendered, second.Skipped)
	}

	// Touching content re-renders just that page.
	writeTestFile(t, filepath.Join(b.ContentDir(), "docs", "intro.md"), `---
title: Introduction
---

Updated body.
`)
	third, err := b.Build(t.Context(), BuildOptions{})
	if err != nil {
		t.Fatalf("third build: %v", err)
	}
	if third.Rendered != 1 || third.Skipped != 1 {
		t.Fatalf("third build rendered %d skipped %d, want 1/1", third.Rendered, third.Skipped)
	}
	intro := mustReadFile(t, filepath.Join(b.OutputDir(), "docs", "intro", "index.html"))
	if !strings.Contains(intro, "Updated body.") {
		t.Errorf("intro page not re-rendered:\n%s", intro)
	}
}

func TestBuildForceRerendersAll(t *testing.T) {
	b := withMemoryStore(t, newSiteFixture(t))

	if _, err := b.Build(t.Context(), BuildOptions{}); err != nil {
		t.Fatalf("first build: %v", err)
	}
	forced, err := b.Build(t.Context(), BuildOptions{Force: true})
	if err != nil {
		t.Fatalf("forced build: %v", err)
	}
	if forced.Rendered != 2 || forced.Skipped != 0 {
		t.Fatalf("forced build rendered %d skipped %d, want 2/0", forced.Rendered, forced.Skipped)
	}
}

func TestBuildPrunesRemovedPages(t *testing.T) {
	b := withMemoryStore(t, newSiteFixture(t))

	if _, err := b.Build(t.Context(), BuildOptions{}); err != nil {
		t.Fatalf("first build: %v", err)
	}
	intro := filepath.Join(b.OutputDir(), "docs", "intro", "index.html")
	if _, err := os.Stat(intro); err != nil {
		t.Fatalf("intro output missing after first build: %v", err)
	}

	if err := os.Remove(filepath.Join(b.ContentDir(), "docs", "intro.md")); err != nil {
		t.Fatalf("remove source: %v", err)
	}
	report, err := b.Build(t.Context(), BuildOptions{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if report.Pruned != 1 {
		t.Fatalf("pruned = %d, want 1", report.Pruned)
	}
	if _, err := os.Stat(intro); !os.IsNotExist(err) {
		t.Fatal("stale output survived prune")
	}
	if _, err := os.Stat(filepath.Join(b.OutputDir(), "docs")); !os.IsNotExist(err) {
		t.Fatal("empty parent directory survived prune")
	}
	if _, err := os.Stat(filepath.Join(b.OutputDir(), "index.html")); err != nil {
		t.Fatalf("live output removed by prune: %v", err)
	}
}

func TestBuildFullSwapsOutput(t *testing.T) {
	b := withMemoryStore(t, newSiteFixture(t))
	junk := filepath.Join(b.OutputDir(), "junk.html")
	writeTestFile(t, junk, "junk")

	report, err := b.Build(t.Context(), BuildOptions{Full: true})
	if err != nil {
		t.Fatalf("full build: %v", err)
	}
	if report.Mode != "full" {
		t.Fatalf("mode = %q", report.Mode)
	}
	if report.Rendered != 2 {
		t.Fatalf("rendered = %d, want 2", report.Rendered)
	}
	if _, err := os.Stat(junk); !os.IsNotExist(err) {
		t.Fatal("junk survived the staging swap")
	}
	if _, err := os.Stat(filepath.Join(b.OutputDir(), "index.html")); err != nil {
		t.Fatalf("output missing after swap: %v", err)
	}
	if _, err := os.Stat(b.OutputDir() + "_stage"); !os.IsNotExist(err) {
		t.Fatal("staging directory left behind")
	}
}

func TestBuildDraftsExcluded(t *testing.T) {
	b := newSiteFixture(t)
	writeTestFile(t, filepath.Join(b.ContentDir(), "wip.md"), `---
title: WIP
draft: true
---

Not ready.
`)

	report, err := b.Build(t.Context(), BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if report.DraftsExcluded != 1 {
		t.Fatalf("drafts excluded = %d, want 1", report.DraftsExcluded)
	}
	if _, err := os.Stat(filepath.Join(b.OutputDir(), "wip", "index.html")); !os.IsNotExist(err) {
		t.Fatal("draft page was rendered")
	}

	// Enabling drafts includes the page.
	b.cfg.Content.Drafts = true
	report, err = b.Build(t.Context(), BuildOptions{})
	if err != nil {
		t.Fatalf("build with drafts: %v", err)
	}
	if report.DraftsExcluded != 0 {
		t.Fatalf("drafts excluded = %d, want 0", report.DraftsExcluded)
	}
	if _, err := os.Stat(filepath.Join(b.OutputDir(), "wip", "index.html")); err != nil {
		t.Fatalf("draft page missing with drafts enabled: %v", err)
	}
}

func TestBuildContinuesPastFailedPage(t *testing.T) {
	b := newSiteFixture(t)
	writeTestFile(t, filepath.Join(b.ContentDir(), "broken.md"), "---\ntitle: Broken\n\nnever closed\n")

	report, err := b.Build(t.Context(), BuildOptions{})
	if err != nil {
		t.Fatalf("build should not abort on a bad page: %v", err)
	}
	if report.Outcome != OutcomeWarning {
		t.Fatalf("outcome = %s, want warning", report.Outcome)
	}
	if report.Failed != 1 || report.Rendered != 2 {
		t.Fatalf("failed %d rendered %d, want 1/2", report.Failed, report.Rendered)
	}
	if len(report.Warnings) == 0 || !strings.Contains(report.Warnings[0].Error(), "broken.md") {
		t.Fatalf("warnings = %v", report.Warnings)
	}
	if _, err := os.Stat(filepath.Join(b.OutputDir(), "broken", "index.html")); !os.IsNotExist(err) {
		t.Fatal("broken page should produce no output")
	}
}

func TestBuildCanceled(t *testing.T) {
	b := newSiteFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := b.Build(ctx, BuildOptions{})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if report.Outcome != OutcomeCanceled {
		t.Fatalf("outcome = %s, want canceled", report.Outcome)
	}
}

func TestBuildTemplateOverride(t *testing.T) {
	b := newSiteFixture(t)
	override := filepath.Join(b.templatesDir, "page.html.tmpl")
	writeTestFile(t, override, `<html><body data-shell="custom"><h1>{{ .Page.Title }}</h1>{{ .Content }}</body></html>`)

	report, err := b.Build(t.Context(), BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if report.TemplateSource != override {
		t.Fatalf("template source = %q, want %q", report.TemplateSource, override)
	}
	home := mustReadFile(t, filepath.Join(b.OutputDir(), "index.html"))
	if !strings.Contains(home, `data-shell="custom"`) {
		t.Errorf("override template not used:\n%s", home)
	}
	if !strings.Contains(home, "<h1>Home</h1>") {
		t.Errorf("page title not rendered by override:\n%s", home)
	}
}

func TestBuildRecordsBuildHistory(t *testing.T) {
	b := withMemoryStore(t, newSiteFixture(t))

	report, err := b.Build(t.Context(), BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	last, err := b.store.LastBuild(t.Context())
	if err != nil {
		t.Fatalf("last build: %v", err)
	}
	if last == nil || last.ID != report.ID {
		t.Fatalf("last build = %+v, want ID %s", last, report.ID)
	}
	if last.Outcome != string(OutcomeSuccess) || last.Rendered != 2 {
		t.Fatalf("last build summary = %+v", last)
	}
}

func mustReadFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}
