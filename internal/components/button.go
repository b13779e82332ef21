package components

import (
	"fmt"
	"html"
	"io"
	"strings"
)

func escape(s string) string { return html.EscapeString(s) }

// Button renders a link styled as a button. The bracket rewrite synthesizes
// the href attribute; variant and size map to class modifiers, every other
// authored prop passes through as a plain HTML attribute.
type Button struct{}

func (Button) Name() string { return "Button" }

func (Button) Render(w io.Writer, inv Invocation) error {
	classes := []string{"btn"}
	if v, ok := inv.Attr("variant"); ok {
		classes = append(classes, "btn--"+v)
	}
	if s, ok := inv.Attr("size"); ok {
		classes = append(classes, "btn--"+s)
	}

	label := inv.ChildrenText()
	href := inv.AttrOr("href", "#")
	if label == "" {
		label = href
	}

	_, err := fmt.Fprintf(w, `<a class="%s" href="%s"%s>%s</a>`,
		escape(strings.Join(classes, " ")),
		escape(href),
		passthroughAttrs(inv.Attrs, "href", "variant", "size"),
		escape(label))
	return err
}
