package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grantforge/grantforge/pkg/model"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, log *model.AIReviewLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *ReviewRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.AIReviewLog, error) {
	var logs []model.AIReviewLog
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}
