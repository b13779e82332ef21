package linkcheck

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Finding kinds reported by the structural audit.
const (
	FindingMissingAlt  = "missing_alt"
	FindingEmptyHref   = "empty_href"
	FindingDuplicateID = "duplicate_id"
)

// Finding is a structural defect in a rendered page. Findings are
// advisory; they are reported alongside broken links but never fail a
// check on their own.
type Finding struct {
	Page   string `json:"page"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s: %s", f.Page, f.Kind, f.Detail)
}

// auditPage inspects a rendered page for accessibility and markup
// defects: images without an alt attribute, anchors without a
// destination, and ids used more than once.
func auditPage(r io.Reader, page string) ([]Finding, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var findings []Finding

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr("alt"); !ok {
			findings = append(findings, Finding{
				Page:   page,
				Kind:   FindingMissingAlt,
				Detail: fmt.Sprintf("image %q has no alt attribute", s.AttrOr("src", "")),
			})
		}
	})

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			findings = append(findings, Finding{
				Page:   page,
				Kind:   FindingEmptyHref,
				Detail: fmt.Sprintf("anchor %q has no destination", strings.TrimSpace(s.Text())),
			})
		}
	})

	seen := make(map[string]int)
	doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		id := s.AttrOr("id", "")
		if id == "" {
			return
		}
		seen[id]++
		if seen[id] == 2 {
			findings = append(findings, Finding{
				Page:   page,
				Kind:   FindingDuplicateID,
				Detail: fmt.Sprintf("id %q appears more than once", id),
			})
		}
	})

	return findings, nil
}
