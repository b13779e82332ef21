package mdx

import (
	"strings"

	gmast "github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/mdxsite/internal/render"
)

// KindComponentInline is the node kind of inline component invocations.
var KindComponentInline = gmast.NewNodeKind("ComponentInline")

// KindComponentBlock is the node kind of block-level component invocations.
var KindComponentBlock = gmast.NewNodeKind("ComponentBlock")

// ComponentInline is an inline component invocation embedded in running
// text, produced by the bracket-button rewrite. Attrs preserve authoring
// order; children hold the component's inline content.
type ComponentInline struct {
	gmast.BaseInline

	ComponentName string
	Attrs         []render.Attribute
}

// NewComponentInline returns an inline invocation of the named component.
func NewComponentInline(name string, attrs []render.Attribute) *ComponentInline {
	return &ComponentInline{ComponentName: name, Attrs: attrs}
}

func (n *ComponentInline) Kind() gmast.NodeKind { return KindComponentInline }

func (n *ComponentInline) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{
		"ComponentName": n.ComponentName,
		"Attrs":         attrString(n.Attrs),
	}, nil)
}

// ComponentBlock is a block-level component invocation produced by folding a
// <Name>...</Name> HTML block pair. Children are the block nodes authored
// between the tags. Line is the 1-based source line of the opening tag, kept
// for diagnostics.
type ComponentBlock struct {
	gmast.BaseBlock

	ComponentName string
	Attrs         []render.Attribute
	Line          int
}

// NewComponentBlock returns a block invocation of the named component.
func NewComponentBlock(name string, attrs []render.Attribute, line int) *ComponentBlock {
	return &ComponentBlock{ComponentName: name, Attrs: attrs, Line: line}
}

func (n *ComponentBlock) Kind() gmast.NodeKind { return KindComponentBlock }

func (n *ComponentBlock) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{
		"ComponentName": n.ComponentName,
		"Attrs":         attrString(n.Attrs),
	}, nil)
}

func attrString(attrs []render.Attribute) string {
	parts := make([]string, 0, len(attrs))
	for _, a := range attrs {
		parts = append(parts, a.Name+"="+a.Value)
	}
	return strings.Join(parts, " ")
}
