package mdx

import (
	"strings"

	gmast "github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/mdxsite/internal/render"
)

// Text returns the concatenated literal text of a subtree.
func Text(n gmast.Node, source []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch tc := c.(type) {
		case *gmast.Text:
			sb.Write(tc.Segment.Value(source))
		case *gmast.String:
			sb.Write(tc.Value)
		}
		return gmast.WalkContinue, nil
	})
	return sb.String()
}

// Title returns the text of the first level-1 heading, or "" if the
// document has none.
func Title(doc gmast.Node, source []byte) string {
	var title string
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok && h.Level == 1 {
			title = Text(h, source)
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return title
}

// Description returns the text of the first paragraph, or "" if the
// document has none.
func Description(doc gmast.Node, source []byte) string {
	var desc string
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if p, ok := n.(*gmast.Paragraph); ok {
			desc = Text(p, source)
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return desc
}

// Links returns every link destination in document order: inline links,
// autolinks, images, and rewritten component hrefs.
func Links(doc gmast.Node, source []byte) []string {
	links := make([]string, 0)
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, string(node.URL(source)))
		case *gmast.Image:
			links = append(links, string(node.Destination))
		case *gmast.Link:
			links = append(links, string(node.Destination))
		case *ComponentInline:
			if href, ok := componentHref(node.Attrs); ok {
				links = append(links, href)
			}
		case *ComponentBlock:
			if href, ok := componentHref(node.Attrs); ok {
				links = append(links, href)
			}
		}
		return gmast.WalkContinue, nil
	})
	return links
}

func componentHref(attrs []render.Attribute) (string, bool) {
	for _, a := range attrs {
		if a.Name == "href" {
			return a.Value, true
		}
	}
	return "", false
}
