package render

import (
	"errors"
	"fmt"
)

// ErrEmptyPattern is returned when GroupBySequence is called with a
// zero-length pattern.
var ErrEmptyPattern = errors.New("sequence pattern must not be empty")

// unknownTag is reported when an element's tag cannot be determined, or when
// a window runs past the end of the children list.
const unknownTag = "unknown"

// GroupError describes a structural violation found while grouping children
// against an expected tag sequence. Position is the 0-based index into the
// flat children list.
type GroupError struct {
	Position int
	Expected string
	Actual   string
}

func (e *GroupError) Error() string {
	return fmt.Sprintf("Expected %s at position %d, found %s", e.Expected, e.Position, e.Actual)
}

// GroupBySequence partitions children into consecutive non-overlapping groups
// of len(pattern), validating that each element's tag matches the pattern
// entry for its offset. The first mismatch aborts the whole operation: the
// result is either every group or an error, never a partial grouping.
//
// A trailing window shorter than the pattern is a structural error, reported
// at the index of the first missing element. Empty children yield zero groups
// and no error. Elements are never reordered or duplicated.
func GroupBySequence(children []Element, pattern []string) ([][]Element, error) {
	if len(pattern) == 0 {
		return nil, ErrEmptyPattern
	}
	if len(children) == 0 {
		return nil, nil
	}

	k := len(pattern)
	groups := make([][]Element, 0, (len(children)+k-1)/k)
	for i := 0; i < len(children); i += k {
		group := make([]Element, 0, k)
		for j := 0; j < k; j++ {
			pos := i + j
			if pos >= len(children) {
				return nil, &GroupError{Position: pos, Expected: pattern[j], Actual: unknownTag}
			}
			if tag := children[pos].Tag; tag != pattern[j] {
				if tag == "" {
					tag = unknownTag
				}
				return nil, &GroupError{Position: pos, Expected: pattern[j], Actual: tag}
			}
			group = append(group, children[pos])
		}
		groups = append(groups, group)
	}
	return groups, nil
}
