// Package preview runs the local authoring server. It serves the built
// site from the output directory, watches the source directories,
// rebuilds incrementally when files change, and notifies connected
// browsers over server-sent events so they reload.
//
// One HTTP listener carries everything: the site itself, the reload
// event stream and script, a JSON health endpoint, an optional
// Prometheus endpoint, and a manual rebuild hook.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mdxsite/internal/config"
	"git.home.luguber.info/inful/mdxsite/internal/logfields"
	"git.home.luguber.info/inful/mdxsite/internal/metrics"
	"git.home.luguber.info/inful/mdxsite/internal/site"
)

const (
	defaultAddr     = "127.0.0.1:8080"
	shutdownTimeout = 5 * time.Second
)

// Server wires the preview pieces together: builder, watcher,
// debouncer, reload hub, and the HTTP front.
type Server struct {
	pc      *config.PreviewConfig
	builder *site.Builder

	hub      *ReloadHub
	debounce *Debouncer
	status   *buildStatus
	recorder metrics.Recorder
	registry *prom.Registry
	log      *slog.Logger
}

// New creates a preview server around an already configured builder.
func New(cfg *config.Config, builder *site.Builder) *Server {
	pc := cfg.Preview
	if pc == nil {
		pc = &config.PreviewConfig{}
	}
	quiet := parseDurationOr(pc.Debounce, 250*time.Millisecond)
	maxDelay := parseDurationOr(pc.MaxDelay, 2*time.Second)

	s := &Server{
		pc:       pc,
		builder:  builder,
		debounce: NewDebouncer(quiet, maxDelay),
		status:   newBuildStatus(),
		recorder: metrics.NoopRecorder{},
		log:      slog.Default(),
	}
	if pc.Metrics {
		s.registry = prom.NewRegistry()
		s.recorder = metrics.NewPrometheusRecorder(s.registry)
		builder.SetRecorder(s.recorder)
	}
	s.hub = NewReloadHub(s.recorder)
	return s
}

// SetLogger replaces the default logger.
func (s *Server) SetLogger(l *slog.Logger) *Server {
	if l != nil {
		s.log = l
	}
	return s
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Run builds the site once, then serves and rebuilds until ctx is
// canceled. The initial build may fail without aborting: the server
// still comes up so the author can fix the problem and get a reload,
// with /healthz reporting the failure.
func (s *Server) Run(ctx context.Context) error {
	report, err := s.builder.Build(ctx, site.BuildOptions{})
	s.status.record(report, err)
	if err != nil {
		s.log.Error("initial build failed; serving previous output",
			logfields.Error(err))
	}

	w, err := newWatcher(s.watchDirs(), s.debounce, s.log)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.close()

	var sched *scheduler
	if expr := s.pc.Schedule; expr != "" {
		sched, err = newScheduler(expr, s.debounce, s.log)
		if err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		sched.start()
		defer func() { _ = sched.stop() }()
	}

	addr := s.pc.Addr
	if addr == "" {
		addr = defaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go w.run()
	go s.debounce.Run(runCtx)
	go s.rebuildLoop(runCtx)

	srv := &http.Server{
		Handler:           s.handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// WriteTimeout stays zero: the reload stream holds its
		// response open indefinitely.
		IdleTimeout: 300 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	s.log.Info("preview server listening",
		logfields.Addr(ln.Addr().String()),
		slog.Bool("livereload", s.pc.LiveReloadEnabled()),
		slog.Bool("metrics", s.pc.Metrics))

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	}

	s.log.Info("preview server shutting down")
	s.hub.Shutdown()
	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) watchDirs() []string {
	return []string{
		s.builder.ContentDir(),
		s.builder.AssetsDir(),
		s.builder.TemplatesDir(),
	}
}

// rebuildLoop consumes coalesced triggers one at a time. Builds run
// sequentially; anything arriving mid-build merges into the next
// trigger inside the debouncer.
func (s *Server) rebuildLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case trig := <-s.debounce.C():
			s.rebuild(ctx, trig)
		}
	}
}

func (s *Server) rebuild(ctx context.Context, trig Trigger) {
	s.recorder.IncRebuildTrigger(trig.Reason)
	s.log.Info("rebuilding",
		logfields.Reason(trig.Reason),
		slog.Int("events", trig.Count),
		slog.Bool("full", trig.Full))

	report, err := s.builder.Build(ctx, site.BuildOptions{Full: trig.Full})
	s.status.record(report, err)
	if err != nil {
		s.log.Error("rebuild failed", logfields.Error(err))
		return
	}
	s.hub.Broadcast(report.ID)
}
