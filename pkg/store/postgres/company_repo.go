package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grantforge/grantforge/pkg/model"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Create(ctx context.Context, company *model.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *CompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var company model.Company
	err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *CompanyRepository) List(ctx context.Context) ([]model.Company, error) {
	var companies []model.Company
	err := r.db.WithContext(ctx).Order("name ASC").Find(&companies).Error
	return companies, err
}

func (r *CompanyRepository) Update(ctx context.Context, id uuid.UUID, name string) error {
	result := r.db.WithContext(ctx).Model(&model.Company{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":       name,
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

func (r *CompanyRepository) SetArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	result := r.db.WithContext(ctx).Model(&model.Company{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"archived":   archived,
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

func (r *CompanyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Company{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
