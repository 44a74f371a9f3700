package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grantforge/grantforge/pkg/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND approved = ?", companyID, true).
		Order("name ASC").
		Find(&users).Error
	return users, err
}

func (r *UserRepository) ListPending(ctx context.Context, companyID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND approved = ?", companyID, false).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

// Approve marks a registration approved and assigns its role.
func (r *UserRepository) Approve(ctx context.Context, id uuid.UUID, role model.Role) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"approved":   true,
			"role":       role,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"updated_at":    time.Now(),
		}).Error
}
