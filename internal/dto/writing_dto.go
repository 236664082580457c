package dto

import "time"

// WritingFeedbackRequestDTO asks the AI service for feedback on one essay.
type WritingFeedbackRequestDTO struct {
	TaskPrompt string `json:"task_prompt" binding:"required"`
	Essay      string `json:"essay" binding:"required"`
}

// WritingFeedbackResponseDTO is the persisted feedback result.
type WritingFeedbackResponseDTO struct {
	ID           uint      `json:"id"`
	TaskPrompt   string    `json:"task_prompt"`
	Essay        string    `json:"essay"`
	Feedback     string    `json:"feedback"`
	BandEstimate *float64  `json:"band_estimate,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
