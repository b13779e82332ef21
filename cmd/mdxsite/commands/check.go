package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/mdxsite/internal/config"
	"git.home.luguber.info/inful/mdxsite/internal/errors"
	"git.home.luguber.info/inful/mdxsite/internal/linkcheck"
	"git.home.luguber.info/inful/mdxsite/internal/site"
)

// CheckCmd implements the 'check' command. It audits the built output
// tree, so a build must have run first.
type CheckCmd struct {
	External bool `help:"Also verify external links over the network (overrides links.external)"`
	JSON     bool `help:"Emit the report as JSON on stdout"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, g)
	if err != nil {
		return err
	}
	if c.External {
		if cfg.Links == nil {
			cfg.Links = &config.LinksConfig{}
		}
		cfg.Links.External = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	outputDir := site.NewBuilder(projectRoot(root.Config), cfg).OutputDir()
	checker, err := linkcheck.New(outputDir, cfg)
	if err != nil {
		return errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "configure link check")
	}
	defer checker.Close()
	checker.SetLogger(g.Logger)

	report, err := checker.Run(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, errors.SeverityError, "link check failed")
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, errors.SeverityError, "encode report")
		}
	} else {
		printReport(report)
	}

	if !report.Clean() {
		return errors.Newf(errors.CategoryContent, errors.SeverityError,
			"%d broken link(s)", len(report.Broken))
	}
	return nil
}

func printReport(report *linkcheck.Report) {
	fmt.Println(report.Summary())
	for _, b := range report.Broken {
		loc := b.Page
		if b.Tag != "" {
			loc = fmt.Sprintf("%s <%s>", b.Page, b.Tag)
		}
		fmt.Printf("broken: %s on %s: %s\n", b.URL, loc, b.Error)
	}
	for _, f := range report.Findings {
		fmt.Printf("finding: %s\n", f)
	}
}
