package model

import (
	"time"
)

// AnswerRecord is one candidate answer to one question within an attempt.
// Rows are upserted freely while the attempt is in progress (autosave) and
// frozen once the attempt reaches a terminal status. RawValue holds the
// submission as received, JSON-encoded: a string for mcq/gap, a pair list
// for match.
type AnswerRecord struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	AttemptID       uint      `json:"attempt_id" gorm:"not null;uniqueIndex:idx_answer_attempt_question"`
	QuestionID      uint      `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_attempt_question"`
	RawValue        string    `json:"raw_value" gorm:"type:text;not null"`
	NormalizedValue string    `json:"normalized_value,omitempty" gorm:"type:text"`
	IsCorrect       *bool     `json:"is_correct,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
