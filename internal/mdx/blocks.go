package mdx

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/mdxsite/internal/render"
)

// Component tags start with an uppercase letter so they never collide with
// intrinsic HTML tags, which CommonMark keeps as plain HTML blocks.
var (
	openTagPattern  = regexp.MustCompile(`^<([A-Z][A-Za-z0-9]*)((?:\s+[a-zA-Z][\w-]*="[^"]*")*)\s*(/?)>$`)
	closeTagPattern = regexp.MustCompile(`^</([A-Z][A-Za-z0-9]*)>$`)
	attrPattern     = regexp.MustCompile(`([a-zA-Z][\w-]*)="([^"]*)"`)
)

type openTag struct {
	name        string
	attrs       []render.Attribute
	selfClosing bool
}

func parseOpenTag(raw string) (openTag, bool) {
	m := openTagPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return openTag{}, false
	}
	tag := openTag{name: m[1], selfClosing: m[3] == "/"}
	for _, am := range attrPattern.FindAllStringSubmatch(m[2], -1) {
		tag.attrs = append(tag.attrs, render.Attribute{Name: am[1], Value: am[2]})
	}
	return tag, true
}

func matchesCloseTag(raw, name string) bool {
	m := closeTagPattern.FindStringSubmatch(strings.TrimSpace(raw))
	return m != nil && m[1] == name
}

// BlockTransformer folds <Name>...</Name> HTML block pairs into
// ComponentBlock nodes. The opening and closing tags must each stand alone
// as an HTML block (blank lines around them); everything between becomes the
// component's children. An opening tag without a matching close passes
// through as authored.
type BlockTransformer struct {
	log *slog.Logger
}

// NewBlockTransformer returns the block-component folding pass.
func NewBlockTransformer(log *slog.Logger) *BlockTransformer {
	if log == nil {
		log = slog.Default()
	}
	return &BlockTransformer{log: log}
}

func (t *BlockTransformer) Transform(doc *gmast.Document, reader text.Reader, _ parser.Context) {
	t.fold(doc, reader.Source())
}

// fold rewrites component tag pairs among parent's direct children, then
// recurses into each folded component so nested components (with distinct
// names) resolve too.
func (t *BlockTransformer) fold(parent gmast.Node, source []byte) {
	child := parent.FirstChild()
	for child != nil {
		next := child.NextSibling()
		if comp := t.tryFold(parent, child, source); comp != nil {
			t.fold(comp, source)
			child = comp.NextSibling()
			continue
		}
		child = next
	}
}

func (t *BlockTransformer) tryFold(parent, node gmast.Node, source []byte) gmast.Node {
	hb, ok := node.(*gmast.HTMLBlock)
	if !ok {
		return nil
	}
	open, ok := parseOpenTag(HTMLBlockText(hb, source))
	if !ok {
		return nil
	}

	comp := NewComponentBlock(open.name, open.attrs, BlockLine(source, hb))
	if open.selfClosing {
		parent.ReplaceChild(parent, hb, comp)
		t.log.Debug("folded block component", "component", open.name, "children", 0, "line", comp.Line)
		return comp
	}

	var between []gmast.Node
	closing := hb.NextSibling()
	for closing != nil {
		if chb, isHTML := closing.(*gmast.HTMLBlock); isHTML && matchesCloseTag(HTMLBlockText(chb, source), open.name) {
			break
		}
		between = append(between, closing)
		closing = closing.NextSibling()
	}
	if closing == nil {
		return nil
	}

	parent.RemoveChild(parent, closing)
	for _, n := range between {
		parent.RemoveChild(parent, n)
		comp.AppendChild(comp, n)
	}
	parent.ReplaceChild(parent, hb, comp)
	t.log.Debug("folded block component", "component", open.name, "children", len(between), "line", comp.Line)
	return comp
}

// HTMLBlockText returns the raw source text of an HTML block.
func HTMLBlockText(hb *gmast.HTMLBlock, source []byte) string {
	var sb strings.Builder
	lines := hb.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return sb.String()
}

// BlockLine returns the 1-based source line on which a block node starts,
// or 0 when the node carries no segment information. Folded component
// blocks report their recorded opening-tag line; container blocks without
// own segments fall through to their first child.
func BlockLine(source []byte, n gmast.Node) int {
	if cb, ok := n.(*ComponentBlock); ok {
		return cb.Line
	}
	if lines := n.Lines(); lines != nil && lines.Len() > 0 {
		return bytes.Count(source[:lines.At(0).Start], []byte("\n")) + 1
	}
	if fc := n.FirstChild(); fc != nil {
		return BlockLine(source, fc)
	}
	return 0
}

// TagSyntax classifies raw HTML block text against the component tag
// grammar.
type TagSyntax int

const (
	// TagNone means the text is not component tag syntax at all.
	TagNone TagSyntax = iota
	// TagOpen is a well-formed standalone opening (or self-closing) tag.
	TagOpen
	// TagClose is a well-formed standalone closing tag.
	TagClose
	// TagMalformed looks like a component tag but fails the grammar,
	// usually an unquoted attribute value.
	TagMalformed
	// TagAttached is a component tag with content on the following lines
	// of the same HTML block: the author omitted the surrounding blank
	// lines, so the fold never sees a standalone pair.
	TagAttached
)

// componentShapePattern is the loose test for "meant to be a component
// tag": an open or close angle bracket followed by an uppercase name.
var componentShapePattern = regexp.MustCompile(`^</?[A-Z][A-Za-z0-9]*([\s/>]|$)`)

// ClassifyTag reports how raw relates to the component tag grammar, with
// the component name when one can be read. The fold only consumes
// well-formed standalone tags; everything else ClassifyTag names is an
// authoring problem surfaced through diagnostics.
func ClassifyTag(raw string) (TagSyntax, string) {
	trimmed := strings.TrimSpace(raw)
	first, _, multiline := strings.Cut(trimmed, "\n")
	first = strings.TrimSpace(first)

	if multiline {
		if tag, ok := parseOpenTag(first); ok {
			return TagAttached, tag.name
		}
		if m := closeTagPattern.FindStringSubmatch(first); m != nil {
			return TagAttached, m[1]
		}
		if componentShapePattern.MatchString(first) {
			return TagMalformed, ""
		}
		return TagNone, ""
	}

	if tag, ok := parseOpenTag(trimmed); ok {
		return TagOpen, tag.name
	}
	if m := closeTagPattern.FindStringSubmatch(trimmed); m != nil {
		return TagClose, m[1]
	}
	if componentShapePattern.MatchString(trimmed) {
		return TagMalformed, ""
	}
	return TagNone, ""
}
