package model

import (
	"time"

	"gorm.io/gorm"
)

// WritingAttempt is one writing-task submission with its AI feedback. The
// band estimate is advisory and comes from the external model, not from the
// deterministic Listening scorer.
type WritingAttempt struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	UserID       uint           `json:"user_id" gorm:"not null;index"`
	TaskPrompt   string         `json:"task_prompt" gorm:"type:text;not null"`
	Essay        string         `json:"essay" gorm:"type:text;not null"`
	Feedback     string         `json:"feedback,omitempty" gorm:"type:text"`
	BandEstimate *float64       `json:"band_estimate,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
