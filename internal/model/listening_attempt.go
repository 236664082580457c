package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vuphan179/ieltsprep/internal/scoring"
	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptInProgress    AttemptStatus = "in_progress"
	AttemptCompleted     AttemptStatus = "completed"
	AttemptAutoSubmitted AttemptStatus = "auto_submitted"
)

// Terminal reports whether the status admits no further transition.
func (s AttemptStatus) Terminal() bool {
	return s == AttemptCompleted || s == AttemptAutoSubmitted
}

// SectionScoreMap stores the per-section correct/total breakdown as a JSON
// object column keyed by section number.
type SectionScoreMap map[int]scoring.SectionScore

func (m SectionScoreMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (m *SectionScoreMap) Scan(value interface{}) error {
	if value == nil {
		*m = SectionScoreMap{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for SectionScoreMap", value)
	}
	if len(raw) == 0 {
		*m = SectionScoreMap{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

// ListeningAttempt is one candidate's run through a Listening test. Score
// fields stay nil until the attempt reaches a terminal status, after which
// they are never rewritten.
type ListeningAttempt struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	UserID          uint            `json:"user_id" gorm:"not null;index"`
	TestID          uint            `json:"test_id" gorm:"not null;index"`
	Test            Test            `json:"test,omitempty" gorm:"foreignKey:TestID"`
	Status          AttemptStatus   `json:"status" gorm:"not null;default:'in_progress';index"`
	DurationSeconds *int            `json:"duration_seconds,omitempty"`
	RawScore        *int            `json:"raw_score,omitempty"`
	TotalQuestions  *int            `json:"total_questions,omitempty"`
	BandScore       *float64        `json:"band_score,omitempty"`
	SectionScores   SectionScoreMap `json:"section_scores,omitempty" gorm:"type:jsonb"`
	Answers         []AnswerRecord  `json:"answers,omitempty" gorm:"foreignKey:AttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}
