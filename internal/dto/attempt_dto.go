package dto

import (
	"time"

	"github.com/vuphan179/ieltsprep/internal/scoring"
)

// AnswerSubmitDTO is one answer inside an autosave or submit request. Value
// carries mcq/gap answers; Pairs carries match answers. Exactly one of the
// two is expected per question type.
type AnswerSubmitDTO struct {
	QuestionID uint           `json:"question_id" binding:"required"`
	Value      string         `json:"value,omitempty"`
	Pairs      []scoring.Pair `json:"pairs,omitempty"`
}

// AttemptStartDTO creates a new in-progress attempt for a test.
type AttemptStartDTO struct {
	TestID uint `json:"test_id" binding:"required"`
}

// AnswersSaveDTO is the autosave request body.
type AnswersSaveDTO struct {
	Answers []AnswerSubmitDTO `json:"answers" binding:"required,min=1,dive"`
}

// AttemptSubmitDTO is the final submission request. Answers are optional;
// any previously autosaved answers are scored either way.
type AttemptSubmitDTO struct {
	Answers         []AnswerSubmitDTO `json:"answers,omitempty" binding:"omitempty,dive"`
	AutoSubmit      bool              `json:"auto_submit,omitempty"`
	DurationSeconds *int              `json:"duration_seconds,omitempty"`
}

// AttemptResultDTO is the scoring outcome returned by submit.
type AttemptResultDTO struct {
	AttemptID      uint                         `json:"attempt_id"`
	Status         string                       `json:"status"`
	RawScore       int                          `json:"raw_score"`
	TotalQuestions int                          `json:"total_questions"`
	BandScore      float64                      `json:"band_score"`
	SectionScores  map[int]scoring.SectionScore `json:"section_scores,omitempty"`
}

// AnswerRecordDTO is one stored answer within an attempt detail view.
type AnswerRecordDTO struct {
	QuestionID      uint   `json:"question_id"`
	RawValue        string `json:"raw_value"`
	NormalizedValue string `json:"normalized_value,omitempty"`
	IsCorrect       *bool  `json:"is_correct,omitempty"`
}

// AttemptDetailDTO is the full view of one attempt.
type AttemptDetailDTO struct {
	ID              uint                         `json:"id"`
	TestID          uint                         `json:"test_id"`
	TestTitle       string                       `json:"test_title,omitempty"`
	UserID          uint                         `json:"user_id"`
	Status          string                       `json:"status"`
	DurationSeconds *int                         `json:"duration_seconds,omitempty"`
	RawScore        *int                         `json:"raw_score,omitempty"`
	TotalQuestions  *int                         `json:"total_questions,omitempty"`
	BandScore       *float64                     `json:"band_score,omitempty"`
	SectionScores   map[int]scoring.SectionScore `json:"section_scores,omitempty"`
	Answers         []AnswerRecordDTO            `json:"answers,omitempty"`
	CompletedAt     *time.Time                   `json:"completed_at,omitempty"`
	CreatedAt       time.Time                    `json:"created_at"`
}

// AttemptSummaryDTO is one row in a user's attempt history for a test.
type AttemptSummaryDTO struct {
	ID          uint       `json:"id"`
	TestID      uint       `json:"test_id"`
	Status      string     `json:"status"`
	RawScore    *int       `json:"raw_score,omitempty"`
	BandScore   *float64   `json:"band_score,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
