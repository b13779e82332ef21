package site

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/mdxsite/internal/logfields"
	"git.home.luguber.info/inful/mdxsite/internal/mdx"
	"git.home.luguber.info/inful/mdxsite/internal/metrics"
	"git.home.luguber.info/inful/mdxsite/internal/notify"
	"git.home.luguber.info/inful/mdxsite/internal/state"
)

// BuildOptions selects the build mode.
type BuildOptions struct {
	// Full renders every page into a staging directory and atomically swaps
	// it in, instead of updating the output directory in place.
	Full bool
	// Force ignores stored fingerprints so unchanged pages re-render.
	Force bool
}

// Build runs one site build and returns its report. A non-nil error means
// the build aborted; per-page failures do not abort the build and surface
// as report warnings with a Failed count instead.
func (b *Builder) Build(ctx context.Context, opts BuildOptions) (*BuildReport, error) {
	mode := "incremental"
	if opts.Full {
		mode = "full"
	}
	report := newBuildReport(mode)
	b.log.Info("Starting site build",
		logfields.BuildID(report.ID),
		"mode", mode,
		"content", b.contentDir,
		"output", b.outputDir)
	b.publishStart(ctx, report)

	bs := newBuildState(b, report, opts)
	stages := NewPipeline().
		AddIf(opts.Full, StagePrepare, stagePrepareStaging).
		Add(StageDiscover, stageDiscover).
		Add(StageRenderPages, stageRenderPages).
		Add(StageCopyAssets, stageCopyAssets).
		AddIf(b.store != nil, StagePrune, stagePruneOutputs).
		Build()

	if err := runStages(ctx, bs, stages); err != nil {
		return b.failBuild(ctx, report, err)
	}

	report.deriveOutcome()
	report.finish()

	if opts.Full {
		if err := b.finalizeStaging(); err != nil {
			err = fmt.Errorf("finalize staging: %w", err)
			report.addError(StageFinalize, newFatalStageError(StageFinalize, err))
			return b.failBuild(ctx, report, err)
		}
	}

	// Persist report (best effort) inside the final output directory.
	if err := report.Persist(b.outputDir); err != nil {
		b.log.Warn("Failed to persist build report", logfields.Error(err))
	}
	b.completeBuild(ctx, report)

	b.log.Info("Site build completed",
		logfields.BuildID(report.ID),
		logfields.Outcome(string(report.Outcome)),
		"rendered", report.Rendered,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.Duration().Truncate(time.Millisecond).String())
	return report, nil
}

// failBuild finalizes a report for an aborted build: staging is discarded,
// the outcome derived, and the terminal event published.
func (b *Builder) failBuild(ctx context.Context, report *BuildReport, err error) (*BuildReport, error) {
	b.abortStaging()
	report.finish()
	report.deriveOutcome()
	b.completeBuild(ctx, report)
	b.log.Error("Site build aborted",
		logfields.BuildID(report.ID),
		logfields.Outcome(string(report.Outcome)),
		logfields.Error(err))
	return report, err
}

// completeBuild records the build summary and emits the terminal event and
// metrics. Runs with cancellation stripped so a canceled build still gets
// its bookkeeping.
func (b *Builder) completeBuild(ctx context.Context, report *BuildReport) {
	ctx = context.WithoutCancel(ctx)
	if b.store != nil {
		rec := state.BuildRecord{
			ID:         report.ID,
			StartedAt:  report.Start,
			FinishedAt: report.End,
			Outcome:    string(report.Outcome),
			Rendered:   report.Rendered,
			Skipped:    report.Skipped,
			Failed:     report.Failed,
		}
		if err := b.store.RecordBuild(ctx, rec); err != nil {
			b.log.Warn("Failed to record build in state store", logfields.Error(err))
		}
	}
	b.publishResult(ctx, report)
	b.recorder.ObserveBuildDuration(report.Duration())
	b.recorder.IncBuildOutcome(string(report.Outcome))
}

func (b *Builder) publishStart(ctx context.Context, report *BuildReport) {
	ev := &notify.BuildEvent{
		Type:    notify.EventBuildStarted,
		BuildID: report.ID,
		Site:    b.cfg.Site.Title,
	}
	if err := b.notifier.PublishBuildEvent(ctx, ev); err != nil {
		b.log.Warn("Failed to publish build started event", logfields.Error(err))
	}
}

func (b *Builder) publishResult(ctx context.Context, report *BuildReport) {
	ev := &notify.BuildEvent{
		BuildID:  report.ID,
		Site:     b.cfg.Site.Title,
		Outcome:  string(report.Outcome),
		Rendered: report.Rendered,
		Skipped:  report.Skipped,
		Failed:   report.Failed,
		Duration: report.Duration().Truncate(time.Millisecond).String(),
	}
	switch report.Outcome {
	case OutcomeSuccess, OutcomeWarning:
		ev.Type = notify.EventBuildCompleted
	default:
		ev.Type = notify.EventBuildFailed
		if len(report.Errors) > 0 {
			ev.Error = report.Errors[0].Error()
		}
	}
	if err := b.notifier.PublishBuildEvent(ctx, ev); err != nil {
		b.log.Warn("Failed to publish build event", logfields.Error(err))
	}
}

func stagePrepareStaging(_ context.Context, bs *BuildState) error {
	if err := bs.Builder.beginStaging(); err != nil {
		return newFatalStageError(StagePrepare, err)
	}
	return nil
}

// stageDiscover walks the content tree and loads every publishable page.
// Pages that fail to load are counted and reported but do not abort the
// build; their previous outputs are kept so a typo never blanks a page.
func stageDiscover(ctx context.Context, bs *BuildState) error {
	b := bs.Builder
	files, err := b.discoverContent()
	if err != nil {
		return newFatalStageError(StageDiscover, err)
	}

	outputSeen := make(map[string]string, len(files))
	for _, pf := range files {
		select {
		case <-ctx.Done():
			return newCanceledStageError(StageDiscover, ctx.Err())
		default:
		}

		doc, err := b.loadDocument(pf)
		if err != nil {
			bs.Report.Failed++
			b.recorder.IncPageOutcome(metrics.PageFailed)
			bs.Report.addWarning(StageDiscover, newWarnStageError(StageDiscover,
				fmt.Errorf("page %s: %w", pf.RelPath, err)))
			bs.Keep[pf.RelPath] = struct{}{}
			continue
		}
		if doc.Meta.Draft && !b.cfg.Content.Drafts {
			bs.Report.DraftsExcluded++
			b.log.Debug("Excluding draft page", logfields.Page(pf.RelPath))
			continue
		}
		if prior, clash := outputSeen[doc.OutputRel]; clash {
			bs.Report.Failed++
			b.recorder.IncPageOutcome(metrics.PageFailed)
			bs.Report.addWarning(StageDiscover, newWarnStageError(StageDiscover,
				fmt.Errorf("page %s: output path %s already produced by %s", pf.RelPath, doc.OutputRel, prior)))
			bs.Keep[pf.RelPath] = struct{}{}
			continue
		}
		outputSeen[doc.OutputRel] = pf.RelPath
		bs.Docs = append(bs.Docs, doc)
		bs.Keep[pf.RelPath] = struct{}{}
	}
	bs.Report.Pages = len(bs.Docs)
	return nil
}

// stageRenderPages renders each loaded document through the markdown
// pipeline into the page template and writes the result. Incremental builds
// skip pages whose fingerprint and output location are unchanged.
func stageRenderPages(ctx context.Context, bs *BuildState) error {
	b := bs.Builder
	tmpl, source, err := b.loadPageTemplate()
	if err != nil {
		return newFatalStageError(StageRenderPages, err)
	}
	bs.Report.TemplateSource = source

	md := mdx.New(mdx.Options{
		Registry: b.registry,
		Logger:   b.log,
		Strict:   b.cfg.Markdown.StrictComponents,
	})
	root := b.buildRoot()

	for _, doc := range bs.Docs {
		select {
		case <-ctx.Done():
			return newCanceledStageError(StageRenderPages, ctx.Err())
		default:
		}

		if b.shouldSkip(ctx, bs, doc, root) {
			bs.Report.Skipped++
			b.recorder.IncPageOutcome(metrics.PageSkipped)
			b.log.Debug("Skipping unchanged page", logfields.Page(doc.Source.RelPath))
			continue
		}

		t0 := time.Now()
		n, err := b.renderPage(md, tmpl, doc, root)
		if err != nil {
			bs.Report.Failed++
			b.recorder.IncPageOutcome(metrics.PageFailed)
			bs.Report.addWarning(StageRenderPages, newWarnStageError(StageRenderPages,
				fmt.Errorf("page %s: %w", doc.Source.RelPath, err)))
			continue
		}
		elapsed := time.Since(t0)
		b.recorder.ObservePageRenderDuration(elapsed)
		b.recorder.IncPageOutcome(metrics.PageRendered)
		bs.Report.Rendered++
		bs.Report.BytesWritten += n
		if b.onPageRendered != nil {
			b.onPageRendered()
		}

		if b.store != nil {
			rec := state.PageRecord{
				SourcePath:  doc.Source.RelPath,
				Fingerprint: doc.Fingerprint,
				OutputPath:  doc.OutputRel,
				BuildID:     bs.Report.ID,
				BuiltAt:     time.Now(),
			}
			if err := b.store.PutPage(ctx, rec); err != nil {
				b.log.Warn("Failed to persist page state",
					logfields.Page(doc.Source.RelPath), logfields.Error(err))
			}
		}
		b.log.Debug("Rendered page",
			logfields.Page(doc.Source.RelPath),
			logfields.Slug(doc.Slug),
			logfields.DurationMS(float64(elapsed.Microseconds())/1000.0))
	}
	return nil
}

// shouldSkip reports whether doc can be skipped: incremental mode, known
// fingerprint, same output location, and the output file still present.
func (b *Builder) shouldSkip(ctx context.Context, bs *BuildState, doc *Document, root string) bool {
	if bs.Full || bs.Force || b.store == nil {
		return false
	}
	rec, err := b.store.GetPage(ctx, doc.Source.RelPath)
	if err != nil {
		b.log.Warn("State lookup failed, re-rendering",
			logfields.Page(doc.Source.RelPath), logfields.Error(err))
		return false
	}
	if rec == nil || rec.Fingerprint != doc.Fingerprint || rec.OutputPath != doc.OutputRel {
		return false
	}
	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(doc.OutputRel))); err != nil {
		return false
	}
	return true
}

// renderPage converts one document to HTML, wraps it in the page template,
// and writes it under root. Returns the number of bytes written. Pages
// whose frontmatter omits title or description inherit them from the
// content: the first h1 and the first paragraph.
func (b *Builder) renderPage(md goldmark.Markdown, tmpl *template.Template, doc *Document, root string) (int64, error) {
	node := md.Parser().Parse(text.NewReader(doc.Body))
	var body bytes.Buffer
	if err := md.Renderer().Render(&body, doc.Body, node); err != nil {
		return 0, fmt.Errorf("render markdown: %w", err)
	}

	data := b.templateData(doc, template.HTML(body.String()))
	if strings.TrimSpace(data.Page.Title) == "" {
		data.Page.Title = mdx.Title(node, doc.Body)
	}
	if strings.TrimSpace(data.Page.Description) == "" {
		data.Page.Description = mdx.Description(node, doc.Body)
	}

	var page bytes.Buffer
	if err := tmpl.Execute(&page, data); err != nil {
		return 0, fmt.Errorf("execute page template: %w", err)
	}
	out := filepath.Join(root, filepath.FromSlash(doc.OutputRel))
	if err := writeFileAtomic(out, page.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("write page: %w", err)
	}
	return int64(page.Len()), nil
}

func stageCopyAssets(_ context.Context, bs *BuildState) error {
	n, size, err := bs.Builder.copyAssets(bs.Builder.buildRoot())
	bs.Report.Assets = n
	bs.Report.BytesWritten += size
	if err != nil {
		return newWarnStageError(StageCopyAssets, err)
	}
	return nil
}

// stagePruneOutputs drops state records whose sources disappeared and, for
// in-place builds with clean enabled, removes their stale output files. Full
// builds only prune records; the staging swap already discarded old files.
func stagePruneOutputs(ctx context.Context, bs *BuildState) error {
	b := bs.Builder
	removed, err := b.store.PrunePages(ctx, bs.Keep)
	if err != nil {
		return newWarnStageError(StagePrune, fmt.Errorf("prune page state: %w", err))
	}
	if len(removed) == 0 {
		return nil
	}

	clean := b.cfg.Output.CleanEnabled() && !bs.Full
	for _, rec := range removed {
		bs.Report.Pruned++
		if !clean || rec.OutputPath == "" {
			continue
		}
		out := filepath.Join(b.outputDir, filepath.FromSlash(rec.OutputPath))
		if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
			bs.Report.addWarning(StagePrune, newWarnStageError(StagePrune,
				fmt.Errorf("remove stale output %s: %w", rec.OutputPath, err)))
			continue
		}
		removeEmptyParents(out, b.outputDir)
		b.log.Info("Pruned stale output",
			logfields.Page(rec.SourcePath), logfields.Path(rec.OutputPath))
	}
	return nil
}
