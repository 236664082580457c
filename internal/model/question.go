package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vuphan179/ieltsprep/internal/scoring"
	"gorm.io/gorm"
)

// StringSlice stores answer-key variants as a JSON array column.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringSlice", value)
	}
	if len(raw) == 0 {
		*s = StringSlice{}
		return nil
	}
	return json.Unmarshal(raw, s)
}

// PairSlice stores matching-question key pairs as a JSON array column.
type PairSlice []scoring.Pair

func (p PairSlice) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (p *PairSlice) Scan(value interface{}) error {
	if value == nil {
		*p = PairSlice{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for PairSlice", value)
	}
	if len(raw) == 0 {
		*p = PairSlice{}
		return nil
	}
	return json.Unmarshal(raw, p)
}

type Question struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	TestID         uint           `json:"test_id" gorm:"not null;index"`
	QuestionNumber int            `json:"question_number" gorm:"not null"` // 1-based position in the test
	Type           string         `json:"type" gorm:"not null"`            // "mcq", "gap", "match"
	SectionNumber  int            `json:"section_number" gorm:"not null"`
	Prompt         string         `json:"prompt" gorm:"type:text"`
	Options        StringSlice    `json:"options,omitempty" gorm:"type:jsonb"`     // mcq choices shown to the candidate
	AnswerKey      StringSlice    `json:"answer_key,omitempty" gorm:"type:jsonb"`  // accepted variants for mcq/gap
	MatchPairs     PairSlice      `json:"match_pairs,omitempty" gorm:"type:jsonb"` // key pairs for match
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// NormalizeQuestionType folds the richer type names found in authored source
// data down to the three canonical kinds. It is called at authoring time so a
// bad type fails loudly there, never during scoring.
func NormalizeQuestionType(raw string) (scoring.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "mcq", "multiple_choice", "multiple-choice", "single_choice":
		return scoring.KindMCQ, nil
	case "gap", "gap_fill", "fill_blank", "fill_in_the_blank", "completion":
		return scoring.KindGap, nil
	case "match", "matching":
		return scoring.KindMatch, nil
	default:
		return "", fmt.Errorf("unknown question type %q", raw)
	}
}

// ToScoring converts the stored question into the scoring engine's view,
// deriving the section from the question number when none was authored.
func (q *Question) ToScoring() scoring.Question {
	section := q.SectionNumber
	if section == 0 {
		section = scoring.SectionForQuestion(q.QuestionNumber)
	}
	return scoring.Question{
		ID:      q.ID,
		Number:  q.QuestionNumber,
		Section: section,
		Type:    scoring.Kind(q.Type),
		Key:     q.AnswerKey,
		Pairs:   q.MatchPairs,
	}
}
