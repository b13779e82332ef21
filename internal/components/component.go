// Package components holds the registry of embeddable UI components and the
// built-in set rendered into page markup. Component names resolve through an
// explicit registry; the same lookup backs tag resolution when a container
// validates its child sequence.
package components

import (
	"io"
	"regexp"
	"sort"
	"strings"

	"git.home.luguber.info/inful/mdxsite/internal/render"
)

// Invocation is one use of a component in content: the authored attributes
// in order plus the materialized children.
type Invocation struct {
	Name     string
	Attrs    []render.Attribute
	Children []render.Element
}

// Attr returns the value of the named attribute and whether it was authored.
func (inv Invocation) Attr(name string) (string, bool) {
	for _, a := range inv.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute's value, or fallback when absent.
func (inv Invocation) AttrOr(name, fallback string) string {
	if v, ok := inv.Attr(name); ok {
		return v
	}
	return fallback
}

// ChildrenHTML returns the rendered markup of all children, newline joined.
func (inv Invocation) ChildrenHTML() string {
	parts := make([]string, 0, len(inv.Children))
	for _, c := range inv.Children {
		parts = append(parts, c.HTML)
	}
	return strings.Join(parts, "\n")
}

// ChildrenText returns the concatenated plain text of all children.
func (inv Invocation) ChildrenText() string {
	var sb strings.Builder
	for _, c := range inv.Children {
		sb.WriteString(c.Text)
	}
	return sb.String()
}

// Component renders one kind of embedded UI element.
type Component interface {
	Name() string
	Render(w io.Writer, inv Invocation) error
}

// Registry maps component names to implementations.
type Registry struct {
	byName map[string]Component
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Component)}
}

// Default returns a registry with the built-in components registered.
func Default() *Registry {
	r := NewRegistry()
	r.Register(Button{})
	r.Register(Card{})
	r.Register(FeaturesGrid{})
	r.Register(Hero{})
	r.Register(Section{})
	return r
}

// Register adds or replaces a component under its name.
func (r *Registry) Register(c Component) {
	r.byName[c.Name()] = c
}

// Lookup resolves a component by name.
func (r *Registry) Lookup(name string) (Component, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// DisplayTag returns the tag a component element presents to sequence
// validation: its registered name, or "" when the name is not registered
// and the tag therefore cannot be determined.
func (r *Registry) DisplayTag(name string) string {
	if _, ok := r.byName[name]; ok {
		return name
	}
	return ""
}

// Names returns the registered component names, sorted, for diagnostics.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var attrNamePattern = regexp.MustCompile(`^[a-zA-Z][\w-]*$`)

// passthroughAttrs renders authored attributes as HTML attributes, skipping
// names the component consumed itself and anything that is not a plain
// attribute name.
func passthroughAttrs(attrs []render.Attribute, consumed ...string) string {
	var sb strings.Builder
	for _, a := range attrs {
		if !attrNamePattern.MatchString(a.Name) {
			continue
		}
		skip := false
		for _, c := range consumed {
			if a.Name == c {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		sb.WriteString(" ")
		sb.WriteString(a.Name)
		sb.WriteString(`="`)
		sb.WriteString(escape(a.Value))
		sb.WriteString(`"`)
	}
	return sb.String()
}
