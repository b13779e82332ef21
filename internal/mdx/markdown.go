package mdx

import (
	"io"
	"log/slog"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/mdxsite/internal/components"
)

// Options configures a markdown pipeline.
type Options struct {
	// Registry resolves component names; defaults to the built-in set.
	Registry *components.Registry
	Logger   *slog.Logger
	// Strict makes an unregistered component name a render error instead of
	// an HTML comment placeholder.
	Strict bool
}

func (o Options) withDefaults() Options {
	if o.Registry == nil {
		o.Registry = components.Default()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// New builds the markdown pipeline: CommonMark parsing with auto heading
// IDs, the block-component and bracket-button transforms, and component
// rendering through the registry. Raw HTML passes through, matching how
// authored content embeds plain markup next to components.
func New(opts Options) goldmark.Markdown {
	opts = opts.withDefaults()

	cr := newComponentRenderer(opts.Registry, opts.Logger, opts.Strict)
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(NewBlockTransformer(opts.Logger), 500),
				util.Prioritized(NewButtonTransformer(opts.Logger), 600),
			),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(cr, 500)),
		),
	)
	cr.inner = md.Renderer()
	return md
}

// Convert renders src through a pipeline built from opts.
func Convert(src []byte, w io.Writer, opts Options) error {
	return New(opts).Convert(src, w)
}

// Parse returns the transformed AST of src without rendering it.
func Parse(src []byte, opts Options) gmast.Node {
	return New(opts).Parser().Parse(text.NewReader(src))
}
