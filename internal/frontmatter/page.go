package frontmatter

import (
	"fmt"
	"time"
)

// Page is the authored metadata of one content page. Title and Description
// fall back to values extracted from the body when absent; Slug falls back
// to the source filename.
type Page struct {
	Title       string
	Description string
	Slug        string
	Date        time.Time
	Draft       bool
	Weight      int
}

// PageFromFields extracts page metadata from parsed frontmatter fields.
// Unknown fields are ignored; known fields with the wrong type are an error
// so authoring mistakes surface instead of silently vanishing.
func PageFromFields(fields map[string]any) (Page, error) {
	var p Page
	var err error

	if p.Title, err = stringField(fields, "title"); err != nil {
		return Page{}, err
	}
	if p.Description, err = stringField(fields, "description"); err != nil {
		return Page{}, err
	}
	if p.Slug, err = stringField(fields, "slug"); err != nil {
		return Page{}, err
	}
	if p.Date, err = dateField(fields, "date"); err != nil {
		return Page{}, err
	}
	if p.Draft, err = boolField(fields, "draft"); err != nil {
		return Page{}, err
	}
	if p.Weight, err = intField(fields, "weight"); err != nil {
		return Page{}, err
	}
	return p, nil
}

func stringField(fields map[string]any, key string) (string, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("frontmatter field %q must be a string, got %T", key, v)
	}
	return s, nil
}

func boolField(fields map[string]any, key string) (bool, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("frontmatter field %q must be a boolean, got %T", key, v)
	}
	return b, nil
}

func intField(fields map[string]any, key string) (int, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("frontmatter field %q must be an integer, got %T", key, v)
	}
}

// dateField tolerates the scalar forms yaml produces for dates: time.Time
// when tagged, else plain strings in common layouts.
func dateField(fields map[string]any, key string) (time.Time, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return time.Time{}, nil
	}
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
			if ts, err := time.Parse(layout, d); err == nil {
				return ts, nil
			}
		}
		return time.Time{}, fmt.Errorf("frontmatter field %q has unrecognized date %q", key, d)
	default:
		return time.Time{}, fmt.Errorf("frontmatter field %q must be a date, got %T", key, v)
	}
}
