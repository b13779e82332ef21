package site

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"git.home.luguber.info/inful/mdxsite/internal/config"
)

//go:embed templates_defaults/page.html.tmpl
var embeddedTemplates embed.FS

const pageTemplateName = "page.html.tmpl"

// TemplateData is the root object visible to the page template.
type TemplateData struct {
	Site    SiteData
	Page    PageData
	Content template.HTML
}

// SiteData exposes site-wide configuration to templates.
type SiteData struct {
	Title       string
	Description string
	BaseURL     string
	Language    string
	Params      map[string]any
}

// PageData exposes one page's metadata to templates.
type PageData struct {
	Title       string
	Description string
	Slug        string
	URL         string // site-absolute path, e.g. /docs/intro/
	Permalink   string // BaseURL + URL when a base URL is configured
	Date        time.Time
	Draft       bool
	Weight      int
	SourcePath  string         // content-relative source, e.g. docs/intro.md
	Params      map[string]any // raw frontmatter fields
}

var pageTemplateFuncs = template.FuncMap{
	"formatDate":   func(t time.Time) string { return t.Format("January 2, 2006") },
	"humanizeTime": humanize.Time,
}

// loadPageTemplate returns the page template and a source label for the
// build report: the override path when the templates directory provides
// page.html.tmpl, otherwise "embedded".
func (b *Builder) loadPageTemplate() (*template.Template, string, error) {
	override := filepath.Join(b.templatesDir, pageTemplateName)
	if raw, err := os.ReadFile(override); err == nil {
		tpl, err := template.New(pageTemplateName).Funcs(pageTemplateFuncs).Parse(string(raw))
		if err != nil {
			return nil, "", fmt.Errorf("parse page template %s: %w", override, err)
		}
		return tpl, override, nil
	}

	raw, err := embeddedTemplates.ReadFile("templates_defaults/" + pageTemplateName)
	if err != nil {
		panic(fmt.Sprintf("embedded default page template missing: %v", err))
	}
	tpl, err := template.New(pageTemplateName).Funcs(pageTemplateFuncs).Parse(string(raw))
	if err != nil {
		return nil, "", fmt.Errorf("parse embedded page template: %w", err)
	}
	return tpl, "embedded", nil
}

// templateData assembles the data for rendering one document.
func (b *Builder) templateData(doc *Document, content template.HTML) TemplateData {
	site := siteData(b.cfg.Site)
	permalink := ""
	if site.BaseURL != "" {
		permalink = site.BaseURL + doc.URL
	}
	return TemplateData{
		Site: site,
		Page: PageData{
			Title:       doc.Meta.Title,
			Description: doc.Meta.Description,
			Slug:        doc.Slug,
			URL:         doc.URL,
			Permalink:   permalink,
			Date:        doc.Date,
			Draft:       doc.Meta.Draft,
			Weight:      doc.Meta.Weight,
			SourcePath:  doc.Source.RelPath,
			Params:      doc.Fields,
		},
		Content: content,
	}
}

func siteData(sc config.SiteConfig) SiteData {
	return SiteData{
		Title:       sc.Title,
		Description: sc.Description,
		BaseURL:     sc.BaseURL,
		Language:    sc.Language,
		Params:      sc.Params,
	}
}
