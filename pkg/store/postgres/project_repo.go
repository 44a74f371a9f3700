package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grantforge/grantforge/pkg/model"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// ProjectFilter narrows List results. Nil pointer fields are ignored.
type ProjectFilter struct {
	Status    *model.ProjectStatus
	Archived  *bool
	Completed *bool
	Sort      string // created_at, name, deadline; "-" prefix for descending
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *ProjectRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Preload("Questions").
		First(&project, "id = ? AND company_id = ?", id, companyID).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) List(ctx context.Context, companyID uuid.UUID, filter ProjectFilter, limit, offset int) ([]model.Project, int64, error) {
	var projects []model.Project
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Project{}).Where("company_id = ?", companyID)

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Archived != nil {
		query = query.Where("archived = ?", *filter.Archived)
	}
	if filter.Completed != nil {
		query = query.Where("completed = ?", *filter.Completed)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order(orderClause(filter.Sort)).
		Limit(limit).
		Offset(offset).
		Find(&projects).Error

	return projects, total, err
}

func orderClause(sort string) string {
	desc := false
	if len(sort) > 0 && sort[0] == '-' {
		desc = true
		sort = sort[1:]
	}
	switch sort {
	case "name", "deadline", "created_at":
	default:
		return "created_at DESC"
	}
	if desc {
		return sort + " DESC"
	}
	return sort + " ASC"
}

// ProjectUpdate carries the mutable project fields. Nil pointers leave the
// stored value untouched.
type ProjectUpdate struct {
	Name        *string
	Description *string
	Details     *string
	FocusAreas  *model.StringList
	Deadline    *time.Time
}

// Update snapshots the current row as a new ProjectVersion and applies the
// changes in one transaction, so a crash can never leave an edit without
// its version row.
func (r *ProjectRepository) Update(ctx context.Context, companyID, id, changedBy uuid.UUID, update ProjectUpdate) (*model.Project, error) {
	var project model.Project

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&project, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
			return err
		}

		var maxVersion int
		if err := tx.Model(&model.ProjectVersion{}).
			Where("project_id = ?", id).
			Select("COALESCE(MAX(version_number), 0)").
			Scan(&maxVersion).Error; err != nil {
			return err
		}

		version := &model.ProjectVersion{
			ProjectID:     project.ID,
			VersionNumber: maxVersion + 1,
			Name:          project.Name,
			Description:   project.Description,
			Details:       project.Details,
			Status:        project.Status,
			Deadline:      project.Deadline,
			ChangedBy:     changedBy,
		}
		if err := tx.Create(version).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"updated_at": time.Now()}
		if update.Name != nil {
			updates["name"] = *update.Name
		}
		if update.Description != nil {
			updates["description"] = *update.Description
		}
		if update.Details != nil {
			updates["details"] = *update.Details
		}
		if update.FocusAreas != nil {
			updates["focus_areas"] = *update.FocusAreas
		}
		if update.Deadline != nil {
			updates["deadline"] = update.Deadline
		}

		if err := tx.Model(&project).Updates(updates).Error; err != nil {
			return err
		}

		return tx.First(&project, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}

	return &project, nil
}

func (r *ProjectRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Project{}, "id = ? AND company_id = ?", id, companyID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ProjectRepository) SetArchived(ctx context.Context, companyID, id uuid.UUID, archived bool) error {
	return r.setFlag(ctx, companyID, id, "archived", archived)
}

func (r *ProjectRepository) SetCompleted(ctx context.Context, companyID, id uuid.UUID, completed bool) error {
	return r.setFlag(ctx, companyID, id, "completed", completed)
}

func (r *ProjectRepository) setFlag(ctx context.Context, companyID, id uuid.UUID, column string, value bool) error {
	result := r.db.WithContext(ctx).Model(&model.Project{}).
		Where("id = ? AND company_id = ?", id, companyID).
		Updates(map[string]interface{}{
			column:       value,
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

func (r *ProjectRepository) ListVersions(ctx context.Context, companyID, id uuid.UUID) ([]model.ProjectVersion, error) {
	if _, err := r.GetByID(ctx, companyID, id); err != nil {
		return nil, err
	}
	var versions []model.ProjectVersion
	err := r.db.WithContext(ctx).
		Where("project_id = ?", id).
		Order("version_number DESC").
		Find(&versions).Error
	return versions, err
}

func (r *ProjectRepository) SaveNarrative(ctx context.Context, narrative *model.Narrative) error {
	return r.db.WithContext(ctx).Create(narrative).Error
}

func (r *ProjectRepository) ListNarratives(ctx context.Context, companyID, id uuid.UUID) ([]model.Narrative, error) {
	if _, err := r.GetByID(ctx, companyID, id); err != nil {
		return nil, err
	}
	var narratives []model.Narrative
	err := r.db.WithContext(ctx).
		Where("project_id = ?", id).
		Order("created_at DESC").
		Find(&narratives).Error
	return narratives, err
}
