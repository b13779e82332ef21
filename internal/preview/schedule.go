package preview

import (
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"
)

// scheduler runs the optional cron-driven full rebuild. Scheduled
// rebuilds go through the same debouncer as file events so they merge
// with an in-flight burst instead of racing it.
type scheduler struct {
	inner gocron.Scheduler
}

func newScheduler(expr string, d *Debouncer, log *slog.Logger) (*scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.CronJob(expr, false),
		gocron.NewTask(func() {
			log.Info("scheduled rebuild due", slog.String("cron", expr))
			d.Request("schedule", true)
		}),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("schedule %q: %w", expr, err)
	}

	return &scheduler{inner: s}, nil
}

func (s *scheduler) start() { s.inner.Start() }

func (s *scheduler) stop() error { return s.inner.Shutdown() }
