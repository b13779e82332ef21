package linkcheck

import (
	"net/url"
	"strings"
	"testing"
)

func TestExtractLinks(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head>
	<link rel="stylesheet" href="/assets/site.css">
	<script src="/assets/app.js"></script>
</head>
<body>
	<a href="/docs/intro/">Getting <em>Started</em></a>
	<a href="https://example.com/about/">About</a>
	<a href="https://other.example.org/page">Elsewhere</a>
	<img src="/assets/logo.png" alt="Logo">
	<video src="/assets/demo.mp4"></video>
	<p>No link here.</p>
</body>
</html>`

	base, _ := url.Parse("https://example.com/")
	links, err := extractLinks(strings.NewReader(page), base)
	if err != nil {
		t.Fatalf("extractLinks: %v", err)
	}

	if len(links) != 7 {
		t.Fatalf("got %d links, want 7: %+v", len(links), links)
	}

	// Document order: head before body.
	css := links[0]
	if css.Tag != "link" || css.Attribute != "href" || css.URL != "/assets/site.css" {
		t.Errorf("stylesheet link = %+v", css)
	}
	if css.Text != "stylesheet" {
		t.Errorf("stylesheet rel = %q, want %q", css.Text, "stylesheet")
	}
	if !css.Internal {
		t.Error("stylesheet link should be internal")
	}

	intro := links[2]
	if intro.Tag != "a" || intro.URL != "/docs/intro/" {
		t.Errorf("intro link = %+v", intro)
	}
	if intro.Text != "Getting Started" {
		t.Errorf("intro text = %q, want %q", intro.Text, "Getting Started")
	}

	about := links[3]
	if !about.Internal {
		t.Errorf("same-host absolute link should be internal: %+v", about)
	}

	elsewhere := links[4]
	if elsewhere.Internal {
		t.Errorf("cross-host link should be external: %+v", elsewhere)
	}

	logo := links[5]
	if logo.Tag != "img" || logo.Text != "Logo" {
		t.Errorf("img link = %+v", logo)
	}

	video := links[6]
	if video.Tag != "video" || video.URL != "/assets/demo.mp4" {
		t.Errorf("video link = %+v", video)
	}
}

func TestExtractLinksSkipsEmptyAttributes(t *testing.T) {
	page := `<html><body><a name="anchor">No href</a><img alt="decorative"></body></html>`
	links, err := extractLinks(strings.NewReader(page), nil)
	if err != nil {
		t.Fatalf("extractLinks: %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("got %d links, want 0: %+v", len(links), links)
	}
}

func TestIsInternal(t *testing.T) {
	base, _ := url.Parse("https://example.com/")

	tests := []struct {
		name string
		raw  string
		base *url.URL
		want bool
	}{
		{"RelativePath", "docs/intro/", base, true},
		{"AbsolutePath", "/docs/intro/", base, true},
		{"Fragment", "#section", base, true},
		{"Mailto", "mailto:docs@example.com", base, true},
		{"Tel", "tel:+4712345678", base, true},
		{"SameHost", "https://example.com/about/", base, true},
		{"OtherHost", "https://other.example.org/", base, false},
		{"SchemeRelativeOtherHost", "//cdn.example.net/lib.js", base, false},
		{"NoBase", "https://example.com/about/", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isInternal(tt.raw, tt.base); got != tt.want {
				t.Errorf("isInternal(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestShouldCheck(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"Page", "/docs/intro/", true},
		{"External", "https://example.com/", true},
		{"PathWithFragment", "/docs/intro/#setup", true},
		{"Empty", "", false},
		{"Anchor", "#main", false},
		{"Mailto", "mailto:x@example.com", false},
		{"Tel", "tel:+4712345678", false},
		{"Javascript", "javascript:void(0)", false},
		{"DataURI", "data:image/png;base64,iVBOR", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldCheck(Link{URL: tt.url}); got != tt.want {
				t.Errorf("shouldCheck(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}
