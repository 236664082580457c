package scoring

import "fmt"

// Kind enumerates the three canonical Listening question types.
type Kind string

const (
	KindMCQ   Kind = "mcq"
	KindGap   Kind = "gap"
	KindMatch Kind = "match"
)

// Value is a submitted answer, tagged by question type so comparison can
// dispatch exhaustively instead of sniffing runtime types. Text carries the
// answer for mcq and gap; Pairs carries it for match.
type Value struct {
	Kind  Kind
	Text  string
	Pairs []Pair
}

// Question is the comparator's view of one authored question: identity,
// position and the answer key. For mcq and gap the key is a list of accepted
// variants; a submission matching any variant is correct. For match the key
// is the unordered pair list.
type Question struct {
	ID      uint
	Number  int
	Section int
	Type    Kind
	Key     []string
	Pairs   []Pair
}

// UnknownTypeError reports a question whose type is outside the supported
// set. It is a data-integrity problem with the authored test, never a
// per-question scoring outcome.
type UnknownTypeError struct {
	QuestionID uint
	Type       Kind
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("question %d has unsupported type %q", e.QuestionID, e.Type)
}

// IsCorrect decides whether one submitted value answers one question.
// A missing or empty submission is incorrect, never an error.
func IsCorrect(q Question, v *Value) (bool, error) {
	switch q.Type {
	case KindMCQ, KindGap:
		if v == nil || Normalize(v.Text) == "" {
			return false, nil
		}
		got := Normalize(v.Text)
		for _, variant := range q.Key {
			if got == Normalize(variant) {
				return true, nil
			}
		}
		return false, nil
	case KindMatch:
		if v == nil || len(v.Pairs) == 0 {
			return false, nil
		}
		return pairsEqual(CanonicalPairs(v.Pairs), CanonicalPairs(q.Pairs)), nil
	default:
		return false, &UnknownTypeError{QuestionID: q.ID, Type: q.Type}
	}
}

func pairsEqual(a, b []Pair) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
