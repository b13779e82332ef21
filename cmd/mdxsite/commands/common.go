// Package commands defines the mdxsite CLI: one struct per subcommand,
// wired through kong.
package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdxsite/internal/config"
	"git.home.luguber.info/inful/mdxsite/internal/errors"
	"git.home.luguber.info/inful/mdxsite/internal/gitinfo"
	"git.home.luguber.info/inful/mdxsite/internal/logfields"
	"git.home.luguber.info/inful/mdxsite/internal/notify"
	"git.home.luguber.info/inful/mdxsite/internal/site"
	"git.home.luguber.info/inful/mdxsite/internal/state"
)

// Global carries state shared across subcommands.
type Global struct {
	Verbose bool
	Logger  *slog.Logger
}

// CLI is the root command definition and global flags.
type CLI struct {
	Config      string           `short:"c" help:"Site configuration file path" default:"site.yaml"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	VersionFlag kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the site into the output directory"`
	Preview PreviewCmd `cmd:"" help:"Serve the site locally with live reload"`
	Check   CheckCmd   `cmd:"" help:"Check links and HTML structure of the built site"`
	Init    InitCmd    `cmd:"" help:"Scaffold a starter site"`
	Version VersionCmd `cmd:"" help:"Show detailed version information"`
}

// AfterApply runs after flag parsing; set up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig loads the site configuration and re-applies logging from
// its logging section.
func loadConfig(path string, g *Global) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "load configuration")
	}
	g.Logger = applyLogging(cfg, g.Verbose)
	return cfg, nil
}

// applyLogging rebuilds the default logger from the configuration. The
// -v flag always wins over the configured level.
func applyLogging(cfg *config.Config, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case config.LogLevelDebug:
		level = slog.LevelDebug
	case config.LogLevelWarn:
		level = slog.LevelWarn
	case config.LogLevelError:
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Logging.Format == config.LogFormatJSON {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// projectRoot is the directory holding the configuration file; relative
// paths in the configuration resolve against it.
func projectRoot(configPath string) string {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return filepath.Dir(configPath)
	}
	return filepath.Dir(abs)
}

// newBuilder assembles a site builder with the optional collaborators
// the configuration asks for: sqlite state store, git page dates, and
// the NATS build-event publisher. The returned cleanup closes them.
//
// Optional pieces degrade with a warning instead of failing the
// command; a local build should not die because NATS is down.
func newBuilder(root string, cfg *config.Config, g *Global) (*site.Builder, func()) {
	b := site.NewBuilder(root, cfg).SetLogger(g.Logger)

	var closers []func()

	if cfg.State.Path != "" {
		dbPath := cfg.State.Path
		if dbPath != ":memory:" && !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(root, dbPath)
		}
		store, err := openStateStore(dbPath)
		if err != nil {
			g.Logger.Warn("state store unavailable; incremental skips disabled",
				logfields.Path(dbPath), logfields.Error(err))
		} else {
			b.SetStore(store)
			closers = append(closers, func() { _ = store.Close() })
		}
	}

	if cfg.Content.GitDatesEnabled() {
		if r, err := gitinfo.Open(root, g.Logger); err == nil {
			b.SetGitInfo(r)
		} else {
			g.Logger.Debug("no git history for page dates", logfields.Error(err))
		}
	}

	pub, err := notify.NewPublisher(cfg.Notify)
	if err != nil {
		g.Logger.Warn("build event publisher unavailable", logfields.Error(err))
		pub = notify.NoopPublisher{}
	}
	b.SetNotifier(pub)
	closers = append(closers, func() { _ = pub.Close() })

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return b, cleanup
}

func openStateStore(dbPath string) (state.Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
	}
	return state.NewSQLiteStore(dbPath)
}
