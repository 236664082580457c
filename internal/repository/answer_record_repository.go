package repository

import (
	"context"

	"github.com/vuphan179/ieltsprep/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRecordRepository interface {
	// UpsertMany writes answer rows keyed by (attempt_id, question_id);
	// last write wins per question.
	UpsertMany(ctx context.Context, records []model.AnswerRecord) error
	FindByAttemptID(ctx context.Context, attemptID uint) ([]model.AnswerRecord, error)
}

type answerRecordRepository struct {
	db *gorm.DB
}

func NewAnswerRecordRepository(db *gorm.DB) AnswerRecordRepository {
	return &answerRecordRepository{db: db}
}

func (r *answerRecordRepository) UpsertMany(ctx context.Context, records []model.AnswerRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"raw_value", "normalized_value", "updated_at"}),
	}).Create(&records).Error
}

func (r *answerRecordRepository) FindByAttemptID(ctx context.Context, attemptID uint) ([]model.AnswerRecord, error) {
	var records []model.AnswerRecord
	err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("question_id ASC").
		Find(&records).Error
	return records, err
}
