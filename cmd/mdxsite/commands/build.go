package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/mdxsite/internal/errors"
	"git.home.luguber.info/inful/mdxsite/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Full  bool `help:"Render every page into a staging directory and swap it in atomically"`
	Force bool `short:"f" help:"Re-render pages even when their fingerprint is unchanged"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, g)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	builder, cleanup := newBuilder(projectRoot(root.Config), cfg, g)
	defer cleanup()

	report, err := builder.Build(ctx, site.BuildOptions{Full: b.Full, Force: b.Force})
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(err, errors.CategoryBuild, errors.SeverityError, "build canceled")
		}
		return errors.Wrap(err, errors.CategoryBuild, errors.SeverityFatal, "build aborted")
	}

	fmt.Println(report.Summary())
	if report.Failed > 0 {
		return errors.Newf(errors.CategoryContent, errors.SeverityError,
			"%d page(s) failed to build", report.Failed)
	}
	return nil
}
