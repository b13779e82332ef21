package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/mdxsite/internal/config"
	"git.home.luguber.info/inful/mdxsite/internal/errors"
	"git.home.luguber.info/inful/mdxsite/internal/preview"
)

// PreviewCmd implements the 'preview' command.
type PreviewCmd struct {
	Addr string `help:"Listen address (overrides preview.addr)"`
}

func (p *PreviewCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, g)
	if err != nil {
		return err
	}
	if p.Addr != "" {
		if cfg.Preview == nil {
			cfg.Preview = &config.PreviewConfig{}
		}
		cfg.Preview.Addr = p.Addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	builder, cleanup := newBuilder(projectRoot(root.Config), cfg, g)
	defer cleanup()

	srv := preview.New(cfg, builder).SetLogger(g.Logger)
	if err := srv.Run(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryDaemon, errors.SeverityFatal, "preview server failed")
	}
	return nil
}
