package mdx

import (
	"bytes"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/mdxsite/internal/components"
	"git.home.luguber.info/inful/mdxsite/internal/render"
)

var htmlTagPattern = regexp.MustCompile(`^\s*<([a-zA-Z][\w-]*)`)

// ComponentRenderer renders ComponentInline and ComponentBlock nodes by
// resolving the component name against the registry, materializing the
// node's children into render elements, and delegating markup emission to
// the component implementation.
type ComponentRenderer struct {
	registry *components.Registry
	log      *slog.Logger
	strict   bool

	// inner is the full document renderer, set after construction; child
	// nodes are materialized through it.
	inner renderer.Renderer
}

func newComponentRenderer(reg *components.Registry, log *slog.Logger, strict bool) *ComponentRenderer {
	return &ComponentRenderer{registry: reg, log: log, strict: strict}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *ComponentRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindComponentInline, r.renderComponent)
	reg.Register(KindComponentBlock, r.renderComponent)
}

func (r *ComponentRenderer) renderComponent(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}

	name, attrs, line := componentParts(node)
	comp, ok := r.registry.Lookup(name)
	if !ok {
		if r.strict {
			return gmast.WalkStop, contentError(name, line, fmt.Errorf("component %q is not registered", name))
		}
		r.log.Warn("skipping unknown component", "component", name, "line", line)
		fmt.Fprintf(w, "<!-- unknown component %q -->", name)
		return gmast.WalkSkipChildren, nil
	}

	children, err := r.materialize(node, source)
	if err != nil {
		return gmast.WalkStop, contentError(name, line, err)
	}

	inv := components.Invocation{Name: name, Attrs: attrs, Children: children}
	if err := comp.Render(w, inv); err != nil {
		return gmast.WalkStop, contentError(name, line, err)
	}
	return gmast.WalkSkipChildren, nil
}

// materialize converts a component node's direct children into render
// elements: resolved tag, rendered markup, plain text.
func (r *ComponentRenderer) materialize(node gmast.Node, source []byte) ([]render.Element, error) {
	var els []render.Element
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		var buf bytes.Buffer
		if err := r.inner.Render(&buf, source, c); err != nil {
			return nil, err
		}
		els = append(els, render.Element{
			Tag:   TagOf(c, source, r.registry),
			Attrs: componentAttrs(c),
			HTML:  strings.TrimRight(buf.String(), "\n"),
			Text:  Text(c, source),
		})
	}
	return els, nil
}

// TagOf resolves an element tag for grouping: intrinsic markup tags map from
// node kinds, component nodes resolve through the registry's display tag.
// An empty result means the tag cannot be determined.
func TagOf(n gmast.Node, source []byte, reg *components.Registry) string {
	switch node := n.(type) {
	case *gmast.Heading:
		return fmt.Sprintf("h%d", node.Level)
	case *gmast.Paragraph:
		return "p"
	case *gmast.List:
		if node.IsOrdered() {
			return "ol"
		}
		return "ul"
	case *gmast.Blockquote:
		return "blockquote"
	case *gmast.FencedCodeBlock, *gmast.CodeBlock:
		return "pre"
	case *gmast.ThematicBreak:
		return "hr"
	case *gmast.HTMLBlock:
		if m := htmlTagPattern.FindStringSubmatch(HTMLBlockText(node, source)); m != nil {
			return strings.ToLower(m[1])
		}
		return ""
	case *ComponentInline:
		return reg.DisplayTag(node.ComponentName)
	case *ComponentBlock:
		return reg.DisplayTag(node.ComponentName)
	default:
		return ""
	}
}

func componentParts(n gmast.Node) (string, []render.Attribute, int) {
	switch node := n.(type) {
	case *ComponentInline:
		return node.ComponentName, node.Attrs, 0
	case *ComponentBlock:
		return node.ComponentName, node.Attrs, node.Line
	default:
		return "", nil, 0
	}
}

func componentAttrs(n gmast.Node) []render.Attribute {
	switch node := n.(type) {
	case *ComponentInline:
		return node.Attrs
	case *ComponentBlock:
		return node.Attrs
	default:
		return nil
	}
}

func contentError(component string, line int, err error) error {
	if line > 0 {
		return fmt.Errorf("component %s (line %d): %w", component, line, err)
	}
	return fmt.Errorf("component %s: %w", component, err)
}
