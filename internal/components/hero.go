package components

import (
	"fmt"
	"io"
)

// Hero renders a page-opening banner: a required title, an optional
// subtitle, and any children (typically a paragraph of call-to-action
// buttons) as the action row.
type Hero struct{}

func (Hero) Name() string { return "Hero" }

func (Hero) Render(w io.Writer, inv Invocation) error {
	if _, err := io.WriteString(w, "<section class=\"hero\">\n"); err != nil {
		return err
	}
	if title, ok := inv.Attr("title"); ok {
		if _, err := fmt.Fprintf(w, "<h1 class=\"hero__title\">%s</h1>\n", escape(title)); err != nil {
			return err
		}
	}
	if subtitle, ok := inv.Attr("subtitle"); ok {
		if _, err := fmt.Fprintf(w, "<p class=\"hero__subtitle\">%s</p>\n", escape(subtitle)); err != nil {
			return err
		}
	}
	if html := inv.ChildrenHTML(); html != "" {
		if _, err := fmt.Fprintf(w, "<div class=\"hero__actions\">\n%s\n</div>\n", html); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</section>\n")
	return err
}
