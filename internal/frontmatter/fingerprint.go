package frontmatter

import (
	"strings"

	"github.com/inful/mdfp"
)

// Fingerprint computes the canonical content fingerprint of a page from its
// parsed frontmatter fields and body. The frontmatter is serialized with
// sorted keys and LF newlines before hashing so the fingerprint is stable
// across map iteration order and platform newline style.
func Fingerprint(fields map[string]any, body []byte) (string, error) {
	frontmatterForHash := ""
	if len(fields) > 0 {
		serialized, err := SerializeYAML(fields, Style{Newline: "\n"})
		if err != nil {
			return "", err
		}
		frontmatterForHash = trimSingleTrailingNewline(string(serialized))
	}
	return mdfp.CalculateFingerprintFromParts(frontmatterForHash, string(body)), nil
}

func trimSingleTrailingNewline(s string) string {
	if before, ok := strings.CutSuffix(s, "\r\n"); ok {
		return before
	}
	if before, ok := strings.CutSuffix(s, "\n"); ok {
		return before
	}
	return s
}
