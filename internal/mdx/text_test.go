package mdx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "first h1", src: "# Welcome\n\n## Not this\n", want: "Welcome"},
		{name: "h1 after content", src: "intro\n\n# Late title\n", want: "Late title"},
		{name: "formatted heading", src: "# Hello *world*\n", want: "Hello world"},
		{name: "no h1", src: "## Only h2\n\ntext\n", want: ""},
		{name: "empty document", src: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := []byte(tt.src)
			doc := Parse(src, Options{})
			assert.Equal(t, tt.want, Title(doc, src))
		})
	}
}

func TestDescription(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "first paragraph", src: "# T\n\nFirst para.\n\nSecond para.\n", want: "First para."},
		{name: "no paragraph", src: "# Only a title\n", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := []byte(tt.src)
			doc := Parse(src, Options{})
			assert.Equal(t, tt.want, Description(doc, src))
		})
	}
}

func TestLinks(t *testing.T) {
	src := []byte(`# T

A [plain](/plain) link and [[Go]](/go) and ![img](/img.png).

<https://auto.example.com>
`)
	doc := Parse(src, Options{})

	links := Links(doc, src)
	assert.Equal(t, []string{"/plain", "/go", "/img.png", "https://auto.example.com"}, links)
}

func TestTextConcatenation(t *testing.T) {
	src := []byte("para with *emphasis* and `code` here\n")
	doc := Parse(src, Options{})

	assert.Equal(t, "para with emphasis and code here", Text(doc, src))
}
