package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grantforge/grantforge/pkg/model"
)

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, file *model.File) error {
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *FileRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*model.File, error) {
	var file model.File
	err := r.db.WithContext(ctx).First(&file, "id = ? AND company_id = ?", id, companyID).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// ListByCompany omits the blob column so listings stay cheap.
func (r *FileRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.File, error) {
	var files []model.File
	err := r.db.WithContext(ctx).
		Select("id", "company_id", "uploader_id", "filename", "mime_type", "size", "created_at").
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}
