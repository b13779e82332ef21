package components

import (
	"fmt"
	"io"
)

// Card wraps its children in a card shell with an optional title heading.
type Card struct{}

func (Card) Name() string { return "Card" }

func (Card) Render(w io.Writer, inv Invocation) error {
	if _, err := io.WriteString(w, "<article class=\"card\">\n"); err != nil {
		return err
	}
	if title, ok := inv.Attr("title"); ok {
		if _, err := fmt.Fprintf(w, "<h3 class=\"card__title\">%s</h3>\n", escape(title)); err != nil {
			return err
		}
	}
	if html := inv.ChildrenHTML(); html != "" {
		if _, err := io.WriteString(w, html+"\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</article>\n")
	return err
}
