package repository

import (
	"context"
	"time"

	"github.com/vuphan179/ieltsprep/internal/model"
	"gorm.io/gorm"
)

// ScoredAnswer is the per-question verdict written back to an AnswerRecord
// when an attempt completes.
type ScoredAnswer struct {
	NormalizedValue string
	IsCorrect       bool
}

// AttemptCompletion is the full terminal-state patch applied to an attempt
// in one transaction.
type AttemptCompletion struct {
	Status          model.AttemptStatus
	CompletedAt     time.Time
	DurationSeconds *int
	RawScore        int
	TotalQuestions  int
	BandScore       float64
	SectionScores   model.SectionScoreMap
	Answers         map[uint]ScoredAnswer
}

type ListeningAttemptRepository interface {
	Create(ctx context.Context, attempt *model.ListeningAttempt) error
	// FindByIDAndUser scopes the lookup to the owning user; a foreign
	// attempt is indistinguishable from a missing one.
	FindByIDAndUser(ctx context.Context, id, userID uint) (*model.ListeningAttempt, error)
	FindByIDAndUserWithAnswers(ctx context.Context, id, userID uint) (*model.ListeningAttempt, error)
	FindAllByTestAndUser(ctx context.Context, testID, userID uint) ([]model.ListeningAttempt, error)
	// Complete performs the guarded terminal transition: the attempt row is
	// updated only while its status is still in_progress, and the answer
	// verdicts are finalized in the same transaction. The boolean reports
	// whether this call won the transition; false means another submission
	// already completed the attempt.
	Complete(ctx context.Context, id, userID uint, completion AttemptCompletion) (bool, error)
}

type listeningAttemptRepository struct {
	db *gorm.DB
}

func NewListeningAttemptRepository(db *gorm.DB) ListeningAttemptRepository {
	return &listeningAttemptRepository{db: db}
}

func (r *listeningAttemptRepository) Create(ctx context.Context, attempt *model.ListeningAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *listeningAttemptRepository) FindByIDAndUser(ctx context.Context, id, userID uint) (*model.ListeningAttempt, error) {
	var attempt model.ListeningAttempt
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *listeningAttemptRepository) FindByIDAndUserWithAnswers(ctx context.Context, id, userID uint) (*model.ListeningAttempt, error) {
	var attempt model.ListeningAttempt
	err := r.db.WithContext(ctx).
		Preload("Test").
		Preload("Answers").
		Where("id = ? AND user_id = ?", id, userID).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *listeningAttemptRepository) FindAllByTestAndUser(ctx context.Context, testID, userID uint) ([]model.ListeningAttempt, error) {
	var attempts []model.ListeningAttempt
	err := r.db.WithContext(ctx).
		Where("test_id = ? AND user_id = ?", testID, userID).
		Order("created_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *listeningAttemptRepository) Complete(ctx context.Context, id, userID uint, completion AttemptCompletion) (bool, error) {
	won := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Conditional write: two racing submissions can both read
		// in_progress, but only one passes this WHERE clause.
		res := tx.Model(&model.ListeningAttempt{}).
			Where("id = ? AND user_id = ? AND status = ?", id, userID, model.AttemptInProgress).
			Updates(map[string]interface{}{
				"status":           completion.Status,
				"completed_at":     completion.CompletedAt,
				"duration_seconds": completion.DurationSeconds,
				"raw_score":        completion.RawScore,
				"total_questions":  completion.TotalQuestions,
				"band_score":       completion.BandScore,
				"section_scores":   completion.SectionScores,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // lost the race; leave won=false, nothing else to do
		}
		won = true

		for questionID, verdict := range completion.Answers {
			err := tx.Model(&model.AnswerRecord{}).
				Where("attempt_id = ? AND question_id = ?", id, questionID).
				Updates(map[string]interface{}{
					"normalized_value": verdict.NormalizedValue,
					"is_correct":       verdict.IsCorrect,
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	return won, err
}
