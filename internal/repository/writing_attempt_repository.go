package repository

import (
	"context"

	"github.com/vuphan179/ieltsprep/internal/model"
	"gorm.io/gorm"
)

type WritingAttemptRepository interface {
	Create(ctx context.Context, attempt *model.WritingAttempt) error
	FindAllByUser(ctx context.Context, userID uint) ([]model.WritingAttempt, error)
}

type writingAttemptRepository struct {
	db *gorm.DB
}

func NewWritingAttemptRepository(db *gorm.DB) WritingAttemptRepository {
	return &writingAttemptRepository{db: db}
}

func (r *writingAttemptRepository) Create(ctx context.Context, attempt *model.WritingAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *writingAttemptRepository) FindAllByUser(ctx context.Context, userID uint) ([]model.WritingAttempt, error) {
	var attempts []model.WritingAttempt
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&attempts).Error
	return attempts, err
}
