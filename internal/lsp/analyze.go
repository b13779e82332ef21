package lsp

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sourcegraph/go-lsp"
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/mdxsite/internal/components"
	"git.home.luguber.info/inful/mdxsite/internal/frontmatter"
	"git.home.luguber.info/inful/mdxsite/internal/mdx"
	"git.home.luguber.info/inful/mdxsite/internal/render"
)

// diagnosticSource tags every diagnostic this server publishes.
const diagnosticSource = "mdxsite"

// childSequencer is implemented by components that demand a fixed child
// pattern, so content can be validated without rendering it.
type childSequencer interface {
	ChildSequence() []string
}

// Analyze checks one markdown document for component authoring problems:
// frontmatter that will not parse, block tags that never fold, unknown
// component names, child sequences a component will reject at render time,
// and bracket-button shorthand the rewrite would ignore or truncate.
//
// The parse mirrors the build pipeline's block folding but leaves bracket
// links unrewritten so their authored text is still inspectable. Diagnostics
// carry positions in the full document, frontmatter included.
func Analyze(src []byte, reg *components.Registry) []lsp.Diagnostic {
	if reg == nil {
		reg = components.Default()
	}

	body, lineOff, diags := checkFrontmatter(src)
	a := &analysis{
		reg:     reg,
		src:     body,
		lines:   lineStarts(body),
		lineOff: lineOff,
		diags:   diags,
	}

	md := goldmark.New(goldmark.WithParserOptions(
		parser.WithASTTransformers(
			util.Prioritized(mdx.NewBlockTransformer(nil), 500),
		),
	))
	doc := md.Parser().Parse(text.NewReader(body))

	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.HTMLBlock:
			a.checkHTMLBlock(node)
		case *gmast.RawHTML:
			a.checkRawHTML(node)
		case *mdx.ComponentBlock:
			a.checkComponentBlock(node)
		case *gmast.Link:
			a.checkLink(node)
		}
		return gmast.WalkContinue, nil
	})
	return a.diags
}

// checkFrontmatter splits off YAML frontmatter and validates it. The
// returned body is what markdown analysis runs on; lineOff is how many
// full-document lines the frontmatter consumed. An unterminated fence keeps
// the whole document as body so the rest of the file still gets checked.
func checkFrontmatter(src []byte) (body []byte, lineOff int, diags []lsp.Diagnostic) {
	diags = []lsp.Diagnostic{}
	fmDiag := func(end lsp.Position, msg string) {
		diags = append(diags, lsp.Diagnostic{
			Range:    lsp.Range{Start: lsp.Position{}, End: end},
			Severity: lsp.Error,
			Code:     "frontmatter",
			Source:   diagnosticSource,
			Message:  msg,
		})
	}

	fm, rest, had, _, err := frontmatter.Split(src)
	if err != nil {
		fmDiag(lsp.Position{Line: 0, Character: 3}, err.Error())
		return src, 0, diags
	}
	if !had {
		return rest, 0, diags
	}

	lineOff = countLines(src[:len(src)-len(rest)])
	fmEnd := lsp.Position{Line: lineOff}
	if fields, perr := frontmatter.ParseYAML(fm); perr != nil {
		fmDiag(fmEnd, "frontmatter is not valid YAML: "+yamlMessage(perr))
	} else if _, ferr := frontmatter.PageFromFields(fields); ferr != nil {
		fmDiag(fmEnd, ferr.Error())
	}
	return rest, lineOff, diags
}

// yamlMessage flattens yaml.v3's multi-line error text into one line.
func yamlMessage(err error) string {
	return strings.Join(strings.Fields(err.Error()), " ")
}

// analysis accumulates diagnostics over one parsed document. src is the
// markdown body; lineOff is how many full-document lines precede it, so
// published positions line up with what the editor shows.
type analysis struct {
	src     []byte
	reg     *components.Registry
	lines   []int
	lineOff int
	diags   []lsp.Diagnostic
}

func (a *analysis) add(r lsp.Range, sev lsp.DiagnosticSeverity, code, msg string) {
	a.diags = append(a.diags, lsp.Diagnostic{
		Range:    r,
		Severity: sev,
		Code:     code,
		Source:   diagnosticSource,
		Message:  msg,
	})
}

func (a *analysis) checkHTMLBlock(hb *gmast.HTMLBlock) {
	syntax, name := mdx.ClassifyTag(mdx.HTMLBlockText(hb, a.src))
	line := mdx.BlockLine(a.src, hb)
	switch syntax {
	case mdx.TagOpen:
		a.add(a.lineRange(line), lsp.Error, "unclosed-tag",
			fmt.Sprintf("<%s> is never closed: expected </%s> on its own line", name, name))
	case mdx.TagClose:
		a.add(a.lineRange(line), lsp.Error, "unmatched-close",
			fmt.Sprintf("</%s> has no matching opening tag", name))
	case mdx.TagMalformed:
		a.add(a.lineRange(line), lsp.Error, "malformed-tag",
			`malformed component tag: attributes must be written name="value"`)
	case mdx.TagAttached:
		a.add(a.lineRange(line), lsp.Error, "tag-needs-blank-lines",
			fmt.Sprintf("component tag <%s> must stand alone with blank lines between it and its content", name))
	}
}

func (a *analysis) checkRawHTML(rh *gmast.RawHTML) {
	if rh.Segments.Len() == 0 {
		return
	}
	var sb strings.Builder
	for i := 0; i < rh.Segments.Len(); i++ {
		seg := rh.Segments.At(i)
		sb.Write(seg.Value(a.src))
	}
	syntax, name := mdx.ClassifyTag(sb.String())
	if syntax == mdx.TagNone {
		return
	}
	display := "component tag"
	if name != "" {
		display = fmt.Sprintf("component tag <%s>", name)
	}
	start := rh.Segments.At(0).Start
	stop := rh.Segments.At(rh.Segments.Len() - 1).Stop
	a.add(a.spanRange(start, stop), lsp.Warning, "inline-component-tag",
		display+" is inside a paragraph; put it on its own line with blank lines around it")
}

func (a *analysis) checkComponentBlock(cb *mdx.ComponentBlock) {
	comp, ok := a.reg.Lookup(cb.ComponentName)
	if !ok {
		a.add(a.lineRange(cb.Line), lsp.Warning, "unknown-component",
			fmt.Sprintf("unknown component <%s>; registered components: %s",
				cb.ComponentName, strings.Join(a.reg.Names(), ", ")))
		return
	}
	seq, ok := comp.(childSequencer)
	if !ok {
		return
	}

	var children []render.Element
	var nodes []gmast.Node
	for c := cb.FirstChild(); c != nil; c = c.NextSibling() {
		children = append(children, render.Element{Tag: mdx.TagOf(c, a.src, a.reg)})
		nodes = append(nodes, c)
	}

	_, err := render.GroupBySequence(children, seq.ChildSequence())
	if err == nil {
		return
	}
	line := cb.Line
	var ge *render.GroupError
	if errors.As(err, &ge) && ge.Position < len(nodes) {
		if l := mdx.BlockLine(a.src, nodes[ge.Position]); l > 0 {
			line = l
		}
	}
	a.add(a.lineRange(line), lsp.Error, "child-sequence",
		fmt.Sprintf("%s content: %v", cb.ComponentName, err))
}

func (a *analysis) checkLink(link *gmast.Link) {
	first, ok := link.FirstChild().(*gmast.Text)
	if !ok {
		return
	}
	check := mdx.CheckBracket(mdx.Text(link, a.src))
	if !check.Attempted {
		return
	}

	start := first.Segment.Start
	stop := first.Segment.Stop
	for c := link.FirstChild(); c != nil; c = c.NextSibling() {
		if t, isText := c.(*gmast.Text); isText {
			stop = t.Segment.Stop
		}
	}
	rng := a.spanRange(start, stop)

	if !check.Valid {
		a.add(rng, lsp.Warning, "bracket-shorthand",
			"bracket button not recognized: expected [[text|key=value,...]](url)")
		return
	}
	for _, piece := range check.DroppedProps {
		a.add(rng, lsp.Warning, "bracket-prop",
			fmt.Sprintf("button prop %q is not key=value and will be dropped", piece))
	}
}

// lineStarts indexes the byte offset of every line start in src.
func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func countLines(prefix []byte) int {
	n := 0
	for _, b := range prefix {
		if b == '\n' {
			n++
		}
	}
	return n
}

// posAt maps a body byte offset to a full-document position. Characters
// count bytes, which matches columns for the ASCII component syntax.
func (a *analysis) posAt(off int) lsp.Position {
	line := sort.Search(len(a.lines), func(i int) bool { return a.lines[i] > off }) - 1
	if line < 0 {
		line = 0
	}
	return lsp.Position{Line: line + a.lineOff, Character: off - a.lines[line]}
}

func (a *analysis) spanRange(start, stop int) lsp.Range {
	return lsp.Range{Start: a.posAt(start), End: a.posAt(stop)}
}

// lineRange covers one 1-based body line, leading indentation excluded.
func (a *analysis) lineRange(line int) lsp.Range {
	idx := line - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(a.lines) {
		idx = len(a.lines) - 1
	}
	start := a.lines[idx]
	end := len(a.src)
	if idx+1 < len(a.lines) {
		end = a.lines[idx+1] - 1
	}
	for start < end && (a.src[start] == ' ' || a.src[start] == '\t') {
		start++
	}
	for end > start && a.src[end-1] == '\r' {
		end--
	}
	return lsp.Range{Start: a.posAt(start), End: a.posAt(end)}
}
