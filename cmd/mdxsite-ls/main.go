// mdxsite-ls is the mdxsite language server. It speaks LSP over stdio and
// publishes component authoring diagnostics for markdown documents; logs go
// to stderr so stdout stays a clean protocol channel.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/sourcegraph/jsonrpc2"

	"git.home.luguber.info/inful/mdxsite/internal/components"
	"git.home.luguber.info/inful/mdxsite/internal/lsp"
	"git.home.luguber.info/inful/mdxsite/internal/version"
)

type stdRWC struct{}

func (stdRWC) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdRWC) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdRWC) Close() error                { return nil }

func main() {
	var (
		debug       bool
		showVersion bool
	)
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("mdxsite-ls %s\n", version.Version)
		return
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("starting mdxsite-ls", slog.String("version", version.Version))

	server := lsp.NewServer(components.Default(), logger)

	<-jsonrpc2.NewConn(
		context.Background(),
		jsonrpc2.NewBufferedStream(stdRWC{}, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(server.Handle),
	).DisconnectNotify()

	logger.Info("connection closed, exiting")
}
