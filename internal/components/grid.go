package components

import (
	"fmt"
	"io"

	"git.home.luguber.info/inful/mdxsite/internal/render"
)

// featurePattern is the child structure FeaturesGrid expects: a heading
// introducing each feature, followed by its description.
var featurePattern = []string{"h3", "p"}

// FeaturesGrid lays out alternating heading/paragraph children as feature
// cards. The child sequence is validated strictly: content that does not
// alternate h3/p fails the render with a positional error instead of
// producing a misaligned grid.
type FeaturesGrid struct{}

func (FeaturesGrid) Name() string { return "FeaturesGrid" }

// ChildSequence exposes the expected child pattern so authoring tools can
// validate content without rendering it.
func (FeaturesGrid) ChildSequence() []string { return featurePattern }

func (FeaturesGrid) Render(w io.Writer, inv Invocation) error {
	groups, err := render.GroupBySequence(inv.Children, featurePattern)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "<section class=\"features-grid features-grid--cols-%s\">\n", escape(inv.AttrOr("columns", "3"))); err != nil {
		return err
	}
	for _, group := range groups {
		if _, err := io.WriteString(w, "<article class=\"feature-card\">\n"); err != nil {
			return err
		}
		for _, el := range group {
			if _, err := io.WriteString(w, el.HTML+"\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</article>\n"); err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, "</section>\n")
	return err
}
