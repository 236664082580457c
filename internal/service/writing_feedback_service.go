package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"github.com/vuphan179/ieltsprep/config"
	"github.com/vuphan179/ieltsprep/internal/dto"
	"github.com/vuphan179/ieltsprep/internal/model"
	"github.com/vuphan179/ieltsprep/internal/repository"
	"google.golang.org/api/option"
)

// WritingFeedbackService calls the external model for writing-task feedback
// and persists the result. The Listening scorer never depends on this; it is
// the one network-bound evaluation path in the system.
type WritingFeedbackService interface {
	FeedbackForEssay(ctx context.Context, userID uint, req dto.WritingFeedbackRequestDTO) (*dto.WritingFeedbackResponseDTO, error)
	GetUserWritingAttempts(ctx context.Context, userID uint) ([]dto.WritingFeedbackResponseDTO, error)
}

type writingFeedbackService struct {
	client      *genai.GenerativeModel
	writingRepo repository.WritingAttemptRepository
}

func NewWritingFeedbackService(cfg *config.Config, writingRepo repository.WritingAttemptRepository) (WritingFeedbackService, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set; writing feedback will be unavailable")
		return &writingFeedbackService{writingRepo: writingRepo}, nil
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &writingFeedbackService{
		client:      client.GenerativeModel("gemini-1.5-flash"),
		writingRepo: writingRepo,
	}, nil
}

func (s *writingFeedbackService) FeedbackForEssay(ctx context.Context, userID uint, req dto.WritingFeedbackRequestDTO) (*dto.WritingFeedbackResponseDTO, error) {
	if s.client == nil {
		return nil, fmt.Errorf("writing feedback service is not configured")
	}

	prompt := fmt.Sprintf(`You are an IELTS Writing examiner. Assess the essay below against the task.

Task:
%s

Essay:
%s

Respond in exactly this format:
Band: <estimated band score between 0 and 9, 0.5 increments>
Feedback: <concise feedback on task response, coherence, lexical resource and grammar>`,
		req.TaskPrompt, req.Essay)

	resp, err := s.client.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Error().Err(err).Uint("userID", userID).Msg("FeedbackForEssay: Gemini call failed")
		return nil, fmt.Errorf("AI feedback request failed: %w", err)
	}

	raw := collectText(resp)
	band, feedback := parseBandAndFeedback(raw)

	attempt := model.WritingAttempt{
		UserID:       userID,
		TaskPrompt:   req.TaskPrompt,
		Essay:        req.Essay,
		Feedback:     feedback,
		BandEstimate: band,
	}
	if err := s.writingRepo.Create(ctx, &attempt); err != nil {
		log.Error().Err(err).Uint("userID", userID).Msg("FeedbackForEssay: failed to persist writing attempt")
		return nil, &StorageError{Op: "save writing attempt", Cause: err}
	}

	return writingAttemptToDTO(&attempt), nil
}

func (s *writingFeedbackService) GetUserWritingAttempts(ctx context.Context, userID uint) ([]dto.WritingFeedbackResponseDTO, error) {
	attempts, err := s.writingRepo.FindAllByUser(ctx, userID)
	if err != nil {
		return nil, &StorageError{Op: "load writing attempts", Cause: err}
	}
	out := make([]dto.WritingFeedbackResponseDTO, 0, len(attempts))
	for i := range attempts {
		out = append(out, *writingAttemptToDTO(&attempts[i]))
	}
	return out, nil
}

func writingAttemptToDTO(attempt *model.WritingAttempt) *dto.WritingFeedbackResponseDTO {
	return &dto.WritingFeedbackResponseDTO{
		ID:           attempt.ID,
		TaskPrompt:   attempt.TaskPrompt,
		Essay:        attempt.Essay,
		Feedback:     attempt.Feedback,
		BandEstimate: attempt.BandEstimate,
		CreatedAt:    attempt.CreatedAt,
	}
}

func collectText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String()
}

// parseBandAndFeedback extracts the "Band:" and "Feedback:" sections of the
// model response. A missing or unparseable band leaves the estimate nil; the
// raw text still becomes the feedback so nothing is lost.
func parseBandAndFeedback(raw string) (*float64, string) {
	bandIdx := strings.Index(raw, "Band:")
	feedbackIdx := strings.Index(raw, "Feedback:")
	if bandIdx == -1 {
		return nil, strings.TrimSpace(raw)
	}

	bandLine := raw[bandIdx+len("Band:"):]
	if nl := strings.Index(bandLine, "\n"); nl != -1 {
		bandLine = bandLine[:nl]
	}

	var band *float64
	if v, err := strconv.ParseFloat(strings.TrimSpace(bandLine), 64); err == nil && v >= 0 && v <= 9 {
		band = &v
	}

	feedback := strings.TrimSpace(raw)
	if feedbackIdx != -1 {
		feedback = strings.TrimSpace(raw[feedbackIdx+len("Feedback:"):])
	}
	return band, feedback
}
