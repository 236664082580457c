package scoring

import "fmt"

// SectionScore is the correct/total tally of one Listening section.
type SectionScore struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Summary is the aggregate outcome of scoring a full question set.
type Summary struct {
	RawScore       int
	TotalQuestions int
	Sections       map[int]SectionScore
	// Correctness records the per-question verdict keyed by question ID,
	// including unanswered questions (false).
	Correctness map[uint]bool
}

// SectionForQuestion maps a 1-based question number onto the four fixed
// Listening sections: 1-10, 11-20, 21-30, 31-40. Question numbers beyond 40
// keep extending in bands of ten.
func SectionForQuestion(number int) int {
	if number < 1 {
		return 1
	}
	return (number-1)/10 + 1
}

// Score runs the comparator over every question of a test. Questions without
// a submitted value score incorrect. The per-section totals are checked to
// sum to the question count before the summary is returned.
func Score(questions []Question, answers map[uint]Value) (*Summary, error) {
	sum := &Summary{
		TotalQuestions: len(questions),
		Sections:       make(map[int]SectionScore),
		Correctness:    make(map[uint]bool, len(questions)),
	}

	for _, q := range questions {
		section := q.Section
		if section == 0 {
			section = SectionForQuestion(q.Number)
		}

		var submitted *Value
		if v, ok := answers[q.ID]; ok {
			submitted = &v
		}

		correct, err := IsCorrect(q, submitted)
		if err != nil {
			return nil, err
		}

		tally := sum.Sections[section]
		tally.Total++
		if correct {
			tally.Correct++
			sum.RawScore++
		}
		sum.Sections[section] = tally
		sum.Correctness[q.ID] = correct
	}

	checked := 0
	for _, tally := range sum.Sections {
		checked += tally.Total
	}
	if checked != len(questions) {
		return nil, fmt.Errorf("section totals sum to %d, expected %d", checked, len(questions))
	}

	return sum, nil
}
