package render

// Attribute is a single name/value pair on a component invocation. Attribute
// order is semantically meaningful (href first, then authored props) and is
// preserved from parse to output.
type Attribute struct {
	Name  string
	Value string
}

// Element is one materialized child of a component: the resolved tag, the
// rendered markup, and the plain text content. Tag is either an intrinsic
// markup tag ("h3", "p", "ul", ...) or a registered component name
// ("Button", "Card", ...). An empty Tag means the element's kind could not
// be determined (bare text, unrecognized node).
type Element struct {
	Tag   string
	Attrs []Attribute
	HTML  string
	Text  string
}

// Attr returns the value of the named attribute and whether it was present.
func (e Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}
