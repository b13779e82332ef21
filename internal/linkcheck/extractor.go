package linkcheck

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Link is one candidate link extracted from a page.
type Link struct {
	URL       string // raw attribute value
	Text      string // anchor text, alt text, or rel, depending on the tag
	Tag       string // element the link came from
	Attribute string // attribute holding the URL
	Internal  bool   // relative, or absolute on the site host
}

// linkAttrs maps the elements worth checking to the attribute that
// carries their URL.
var linkAttrs = map[string]string{
	"a":      "href",
	"img":    "src",
	"script": "src",
	"link":   "href",
	"video":  "src",
	"audio":  "src",
	"source": "src",
	"iframe": "src",
}

// extractLinks parses HTML and returns every candidate link in document
// order. base decides internal versus external; a nil base treats every
// absolute URL as external.
func extractLinks(r io.Reader, base *url.URL) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if l, ok := elementLink(n, base); ok {
				links = append(links, l)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

// elementLink builds the Link for a single element, if it carries one.
func elementLink(n *html.Node, base *url.URL) (Link, bool) {
	attrName, ok := linkAttrs[n.Data]
	if !ok {
		return Link{}, false
	}
	raw := attr(n, attrName)
	if raw == "" {
		return Link{}, false
	}

	var text string
	switch n.Data {
	case "a":
		text = nodeText(n)
	case "img":
		text = attr(n, "alt")
	case "link":
		text = attr(n, "rel")
	}

	return Link{
		URL:       raw,
		Text:      text,
		Tag:       n.Data,
		Attribute: attrName,
		Internal:  isInternal(raw, base),
	}, true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeText collects the text content of a node and its children, with
// runs of whitespace collapsed so markup inside the anchor does not
// mangle the reported text.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// isInternal reports whether a URL belongs to the site itself. Relative
// URLs and fragments are internal; anything carrying a host, including
// scheme-relative URLs, is internal only when the host matches the
// configured base URL. Non-HTTP schemes like mailto: count as internal
// so they never reach the external checker.
func isInternal(raw string, base *url.URL) bool {
	if strings.HasPrefix(raw, "#") ||
		strings.HasPrefix(raw, "mailto:") ||
		strings.HasPrefix(raw, "tel:") ||
		strings.HasPrefix(raw, "javascript:") {
		return true
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Host != "" {
		return base != nil && base.Host != "" && u.Host == base.Host
	}
	return true
}

// shouldCheck filters out links that cannot meaningfully be verified:
// same-page anchors, special schemes, and empty values.
func shouldCheck(l Link) bool {
	if l.URL == "" || strings.HasPrefix(l.URL, "#") {
		return false
	}
	for _, scheme := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(l.URL, scheme) {
			return false
		}
	}
	return true
}
