package components

import (
	"fmt"
	"io"
)

// Section wraps its children in a titled page section with an optional
// anchor id.
type Section struct{}

func (Section) Name() string { return "Section" }

func (Section) Render(w io.Writer, inv Invocation) error {
	if id, ok := inv.Attr("id"); ok {
		if _, err := fmt.Fprintf(w, "<section class=\"section\" id=\"%s\">\n", escape(id)); err != nil {
			return err
		}
	} else if _, err := io.WriteString(w, "<section class=\"section\">\n"); err != nil {
		return err
	}
	if title, ok := inv.Attr("title"); ok {
		if _, err := fmt.Fprintf(w, "<h2 class=\"section__title\">%s</h2>\n", escape(title)); err != nil {
			return err
		}
	}
	if html := inv.ChildrenHTML(); html != "" {
		if _, err := io.WriteString(w, html+"\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</section>\n")
	return err
}
