package site

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// slugFolder decomposes to NFKD, strips combining marks, and recomposes, so
// "Déjà Vu" folds to "Deja Vu" before lowercasing.
var slugFolder = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts s into a URL path element: diacritics folded away,
// lowercased, runs of non-alphanumeric characters collapsed into single
// hyphens. An input with no usable characters yields "untitled".
func Slugify(s string) string {
	folded, _, err := transform.String(slugFolder, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var sb strings.Builder
	sb.Grow(len(folded))
	lastHyphen := true // suppress leading hyphen
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				sb.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	out := strings.TrimSuffix(sb.String(), "-")
	if out == "" {
		return "untitled"
	}
	return out
}

// slugifyPath applies Slugify to each element of a slash-separated relative
// path. Empty input stays empty.
func slugifyPath(rel string) string {
	if rel == "" {
		return ""
	}
	parts := strings.Split(rel, "/")
	for i, p := range parts {
		parts[i] = Slugify(p)
	}
	return strings.Join(parts, "/")
}
