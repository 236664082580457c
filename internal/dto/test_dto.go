package dto

import (
	"time"

	"github.com/vuphan179/ieltsprep/internal/scoring"
)

// QuestionResponseDTO is a question as shown to a candidate. The answer key
// is never serialized here.
type QuestionResponseDTO struct {
	ID             uint     `json:"id"`
	TestID         uint     `json:"test_id"`
	QuestionNumber int      `json:"question_number"`
	Type           string   `json:"type"`
	SectionNumber  int      `json:"section_number"`
	Prompt         string   `json:"prompt"`
	Options        []string `json:"options,omitempty"`
}

// TestResponseDTO is the full test view a candidate starts an attempt from.
type TestResponseDTO struct {
	ID          uint                  `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	Module      string                `json:"module"`
	Questions   []QuestionResponseDTO `json:"questions,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// TestSummaryDTO is used for listing available tests.
type TestSummaryDTO struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Module        string    `json:"module"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// --- Admin authoring DTOs ---

// QuestionCreateDTO is one question inside an admin test-creation request.
// Type accepts the richer source names; they are normalized to mcq/gap/match
// before persisting.
type QuestionCreateDTO struct {
	QuestionNumber int            `json:"question_number" binding:"required,min=1"`
	Type           string         `json:"type" binding:"required"`
	SectionNumber  int            `json:"section_number" binding:"omitempty,min=1,max=4"`
	Prompt         string         `json:"prompt"`
	Options        []string       `json:"options"`
	AnswerKey      []string       `json:"answer_key"`
	MatchPairs     []scoring.Pair `json:"match_pairs"`
}

// TestCreateDTO is the admin request to author a complete test.
type TestCreateDTO struct {
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description,omitempty"`
	Questions   []QuestionCreateDTO `json:"questions" binding:"required,min=1,dive"`
}

// ErrorResponse is the uniform error body for every endpoint.
type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
