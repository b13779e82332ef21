package mdx

import (
	"log/slog"
	"regexp"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/mdxsite/internal/render"
)

// ButtonComponentName is the component every rewritten bracket link
// instantiates.
const ButtonComponentName = "Button"

// buttonPattern matches the full literal link text of a bracket button: an
// outer bracket pair around the button text, optionally followed by a pipe
// and a comma-separated key=value props segment. Authored form:
// [[text|k1=v1,k2=v2]](url).
var buttonPattern = regexp.MustCompile(`^\[(.+?)(?:\|(.+?))?\]$`)

// ButtonTransformer rewrites links whose literal text matches the
// bracket-button shorthand into Button component nodes. Links it cannot
// interpret pass through untouched; the transform never fails a document.
type ButtonTransformer struct {
	log *slog.Logger
}

// NewButtonTransformer returns the bracket-button rewrite pass.
func NewButtonTransformer(log *slog.Logger) *ButtonTransformer {
	if log == nil {
		log = slog.Default()
	}
	return &ButtonTransformer{log: log}
}

// Transform visits every link exactly once and substitutes matching links in
// place at their original index, leaving sibling order and count intact.
func (t *ButtonTransformer) Transform(doc *gmast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()

	var links []*gmast.Link
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if link, ok := n.(*gmast.Link); ok {
			links = append(links, link)
		}
		return gmast.WalkContinue, nil
	})

	for _, link := range links {
		t.rewrite(link, source)
	}
}

func (t *ButtonTransformer) rewrite(link *gmast.Link, source []byte) {
	parent := link.Parent()
	if parent == nil {
		return
	}
	label, props, ok := matchButton(link, source)
	if !ok {
		return
	}

	attrs := make([]render.Attribute, 0, len(props)+1)
	attrs = append(attrs, render.Attribute{Name: "href", Value: string(link.Destination)})
	attrs = append(attrs, props...)

	comp := NewComponentInline(ButtonComponentName, attrs)
	comp.AppendChild(comp, gmast.NewString([]byte(label)))
	parent.ReplaceChild(parent, link, comp)

	t.log.Debug("rewrote bracket button",
		"label", label,
		"href", string(link.Destination),
		"props", len(props))
}

// matchButton extracts the button text and props from a link, or reports
// false when the link does not use the shorthand. The grammar is matched
// against the concatenation of the link's text children; goldmark splits
// bracketed text like [Label|a=1] into several text segments. A link with no
// children, a non-text first child, or any non-text inline content is never
// a candidate.
func matchButton(link *gmast.Link, source []byte) (string, []render.Attribute, bool) {
	if link.FirstChild() == nil {
		return "", nil, false
	}
	if _, ok := link.FirstChild().(*gmast.Text); !ok {
		return "", nil, false
	}

	var sb strings.Builder
	for c := link.FirstChild(); c != nil; c = c.NextSibling() {
		switch tc := c.(type) {
		case *gmast.Text:
			sb.Write(tc.Segment.Value(source))
		case *gmast.String:
			sb.Write(tc.Value)
		default:
			return "", nil, false
		}
	}

	m := buttonPattern.FindStringSubmatch(sb.String())
	if m == nil {
		return "", nil, false
	}
	return m[1], parseProps(m[2]), true
}

// BracketCheck is the result of inspecting a link's literal text against
// the bracket-button shorthand, used for authoring diagnostics.
type BracketCheck struct {
	// Attempted reports that the text starts with an inner bracket and so
	// reads as an attempt at the shorthand.
	Attempted bool
	// Valid reports that the text matches the shorthand grammar.
	Valid bool
	// DroppedProps lists the props pieces the rewrite would silently
	// discard: pieces without an equals sign or with an empty key or value.
	DroppedProps []string
}

// CheckBracket inspects a link's literal text for bracket-button problems.
// Text that does not begin with a bracket is not an attempt and returns the
// zero value.
func CheckBracket(text string) BracketCheck {
	if !strings.HasPrefix(text, "[") {
		return BracketCheck{}
	}
	m := buttonPattern.FindStringSubmatch(text)
	if m == nil {
		return BracketCheck{Attempted: true}
	}
	return BracketCheck{Attempted: true, Valid: true, DroppedProps: badProps(m[2])}
}

func badProps(segment string) []string {
	if segment == "" {
		return nil
	}
	var bad []string
	for _, piece := range strings.Split(segment, ",") {
		key, value, found := strings.Cut(piece, "=")
		if !found || strings.TrimSpace(key) == "" || strings.TrimSpace(value) == "" {
			bad = append(bad, strings.TrimSpace(piece))
		}
	}
	return bad
}

// parseProps parses a comma-separated key=value props segment. A piece
// without an equals sign, or with an empty key or value after trimming, is
// dropped; surviving props keep their authored order.
func parseProps(segment string) []render.Attribute {
	if segment == "" {
		return nil
	}
	var attrs []render.Attribute
	for _, piece := range strings.Split(segment, ",") {
		key, value, found := strings.Cut(piece, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		attrs = append(attrs, render.Attribute{Name: key, Value: value})
	}
	return attrs
}
