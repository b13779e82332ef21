// Package site turns a directory of markdown content into a static HTML
// site. A build discovers content files, renders each page through the
// component-aware markdown pipeline into an HTML page shell, copies static
// assets, and produces a machine-readable build report.
//
// Two build modes exist. Incremental builds (the default) write changed
// pages in place, skip pages whose content fingerprint matches the state
// store, and prune outputs whose sources disappeared. Full builds render
// everything into a staging directory that is atomically swapped in, so
// readers of the output directory never observe a half-written site.
package site

import (
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/mdxsite/internal/components"
	"git.home.luguber.info/inful/mdxsite/internal/config"
	"git.home.luguber.info/inful/mdxsite/internal/gitinfo"
	"git.home.luguber.info/inful/mdxsite/internal/metrics"
	"git.home.luguber.info/inful/mdxsite/internal/notify"
	"git.home.luguber.info/inful/mdxsite/internal/state"
)

// Builder renders a configured site into its output directory.
type Builder struct {
	cfg  *config.Config
	root string // project root; relative config paths resolve against it

	contentDir   string
	assetsDir    string
	templatesDir string
	outputDir    string // final output dir
	stageDir     string // ephemeral staging dir for the current full build

	registry *components.Registry
	store    state.Store       // nil disables skip decisions and pruning
	git      *gitinfo.Resolver // nil disables git-derived page dates
	recorder metrics.Recorder
	notifier notify.Publisher
	log      *slog.Logger

	// optional instrumentation callback (not exported)
	onPageRendered func()
}

// NewBuilder creates a Builder for the project rooted at root.
func NewBuilder(root string, cfg *config.Config) *Builder {
	b := &Builder{
		cfg:      cfg,
		root:     filepath.Clean(root),
		registry: components.Default(),
		recorder: metrics.NoopRecorder{},
		notifier: notify.NoopPublisher{},
		log:      slog.Default(),
	}
	b.contentDir = b.resolve(cfg.Content.Dir)
	b.assetsDir = b.resolve(cfg.Content.AssetsDir)
	b.templatesDir = b.resolve(cfg.Content.TemplatesDir)
	b.outputDir = b.resolve(cfg.Output.Dir)
	return b
}

func (b *Builder) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(b.root, p)
}

// SetStore injects the incremental state store. Returns the builder for chaining.
func (b *Builder) SetStore(s state.Store) *Builder {
	b.store = s
	return b
}

// SetGitInfo injects the git history resolver used for page date fallback.
func (b *Builder) SetGitInfo(r *gitinfo.Resolver) *Builder {
	b.git = r
	return b
}

// SetRecorder injects a metrics recorder (optional).
func (b *Builder) SetRecorder(r metrics.Recorder) *Builder {
	if r == nil {
		b.recorder = metrics.NoopRecorder{}
		return b
	}
	b.recorder = r
	return b
}

// SetNotifier injects the build event publisher (optional).
func (b *Builder) SetNotifier(p notify.Publisher) *Builder {
	if p == nil {
		b.notifier = notify.NoopPublisher{}
		return b
	}
	b.notifier = p
	return b
}

// SetRegistry overrides the component registry used by the markdown pipeline.
func (b *Builder) SetRegistry(r *components.Registry) *Builder {
	if r != nil {
		b.registry = r
	}
	return b
}

// SetLogger overrides the builder's logger.
func (b *Builder) SetLogger(l *slog.Logger) *Builder {
	if l != nil {
		b.log = l
	}
	return b
}

// OutputDir returns the final output directory.
func (b *Builder) OutputDir() string { return b.outputDir }

// ContentDir returns the resolved content directory.
func (b *Builder) ContentDir() string { return b.contentDir }

// AssetsDir returns the resolved static assets directory.
func (b *Builder) AssetsDir() string { return b.assetsDir }

// TemplatesDir returns the resolved template override directory.
func (b *Builder) TemplatesDir() string { return b.templatesDir }

// buildRoot returns the directory active build stages should write into
// (staging if present, else the final output directory).
func (b *Builder) buildRoot() string {
	if b.stageDir != "" {
		return b.stageDir
	}
	return b.outputDir
}
