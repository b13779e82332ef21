package site

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/mdxsite/internal/frontmatter"
)

// Document is a fully loaded content page ready to render.
type Document struct {
	Source      PageFile
	Meta        frontmatter.Page
	Fields      map[string]any // raw frontmatter fields, template-visible
	Body        []byte         // markdown body without frontmatter
	Fingerprint string
	Slug        string // final URL path element
	OutputRel   string // output path relative to the output root, slash-separated
	URL         string // site-absolute URL path with trailing slash
	Date        time.Time
}

// loadDocument reads and parses one content file into a Document.
func (b *Builder) loadDocument(pf PageFile) (*Document, error) {
	raw, err := os.ReadFile(pf.AbsPath)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}

	fm, body, had, _, err := frontmatter.Split(raw)
	if err != nil {
		return nil, fmt.Errorf("split frontmatter: %w", err)
	}
	var fields map[string]any
	if had {
		if fields, err = frontmatter.ParseYAML(fm); err != nil {
			return nil, fmt.Errorf("parse frontmatter: %w", err)
		}
	}
	meta, err := frontmatter.PageFromFields(fields)
	if err != nil {
		return nil, fmt.Errorf("page metadata: %w", err)
	}
	fp, err := frontmatter.Fingerprint(fields, body)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}

	doc := &Document{
		Source:      pf,
		Meta:        meta,
		Fields:      fields,
		Body:        body,
		Fingerprint: fp,
	}
	doc.Slug, doc.OutputRel, doc.URL = b.outputLocation(pf.RelPath, meta.Slug)
	doc.Date = b.resolveDate(meta, pf.AbsPath)
	return doc, nil
}

// outputLocation maps a source path to its slug, output file, and URL.
// Pages become pretty URLs (about.md -> about/index.html) except index
// sources, which render as the index of their own directory. A frontmatter
// slug overrides the one derived from the file name; directory elements are
// always slugified.
func (b *Builder) outputLocation(rel, metaSlug string) (slug, outputRel, url string) {
	dir := path.Dir(rel)
	if dir == "." {
		dir = ""
	}
	slugDir := slugifyPath(dir)
	base := strings.TrimSuffix(path.Base(rel), path.Ext(rel))

	if strings.EqualFold(base, "index") {
		if slugDir == "" {
			return "", "index.html", "/"
		}
		return path.Base(slugDir), path.Join(slugDir, "index.html"), "/" + slugDir + "/"
	}

	if metaSlug != "" {
		slug = Slugify(metaSlug)
	} else {
		slug = Slugify(base)
	}
	outputRel = path.Join(slugDir, slug, "index.html")
	url = "/" + path.Join(slugDir, slug) + "/"
	return slug, outputRel, url
}

// resolveDate picks the page date: explicit frontmatter date first, then git
// commit time (when enabled), then the file's modification time. Pages with
// no determinable date keep the zero time; templates guard on IsZero.
func (b *Builder) resolveDate(meta frontmatter.Page, absPath string) time.Time {
	if !meta.Date.IsZero() {
		return meta.Date
	}
	if b.cfg.Content.GitDatesEnabled() {
		return b.git.ModTime(absPath)
	}
	if fi, err := os.Stat(absPath); err == nil {
		return fi.ModTime()
	}
	return time.Time{}
}
