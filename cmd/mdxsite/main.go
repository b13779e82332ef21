package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdxsite/cmd/mdxsite/commands"
	"git.home.luguber.info/inful/mdxsite/internal/errors"
	"git.home.luguber.info/inful/mdxsite/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("mdxsite"),
		kong.Description("Markdown site generator with component blocks and live preview."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	err := ctx.Run(&commands.Global{Verbose: cli.Verbose})
	if err != nil {
		errors.NewCLIAdapter(cli.Verbose, nil).HandleError(err)
	}
}
