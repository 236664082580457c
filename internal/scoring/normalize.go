package scoring

import (
	"sort"
	"strings"
)

// Pair is one left/right association of a matching question.
type Pair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Normalize canonicalizes a free-text answer for comparison: leading and
// trailing whitespace is trimmed, internal runs of whitespace collapse to a
// single space, and the result is lower-cased. Digits and punctuation inside
// words are kept untouched because gap answers are spelling-sensitive.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// CanonicalPairs returns a copy of pairs sorted by normalized left element,
// then normalized right element, with both sides normalized. Two submissions
// containing the same associations in different order canonicalize to the
// same slice.
func CanonicalPairs(pairs []Pair) []Pair {
	out := make([]Pair, len(pairs))
	for i, p := range pairs {
		out[i] = Pair{Left: Normalize(p.Left), Right: Normalize(p.Right)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Left != out[j].Left {
			return out[i].Left < out[j].Left
		}
		return out[i].Right < out[j].Right
	})
	return out
}
