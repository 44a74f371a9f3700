package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grantforge/grantforge/pkg/model"
)

type QuestionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) Create(ctx context.Context, question *model.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *QuestionRepository) CreateBatch(ctx context.Context, questions []*model.Question) error {
	return r.db.WithContext(ctx).CreateInBatches(questions, 100).Error
}

func (r *QuestionRepository) GetByID(ctx context.Context, projectID, id uuid.UUID) (*model.Question, error) {
	var question model.Question
	err := r.db.WithContext(ctx).
		Preload("Assignee").
		First(&question, "id = ? AND project_id = ?", id, projectID).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *QuestionRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Question, error) {
	var questions []model.Question
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&questions).Error
	return questions, err
}

// QuestionUpdate carries the mutable question fields. Nil pointers leave
// the stored value untouched.
type QuestionUpdate struct {
	Text       *string
	Answer     *string
	Status     *model.QuestionStatus
	MaxLength  *int
	LengthUnit *model.LengthUnit
}

func (r *QuestionRepository) Update(ctx context.Context, projectID, id uuid.UUID, update QuestionUpdate) (*model.Question, error) {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if update.Text != nil {
		updates["text"] = *update.Text
	}
	if update.Answer != nil {
		updates["answer"] = *update.Answer
	}
	if update.Status != nil {
		updates["status"] = *update.Status
	}
	if update.MaxLength != nil {
		updates["max_length"] = *update.MaxLength
	}
	if update.LengthUnit != nil {
		updates["length_unit"] = *update.LengthUnit
	}

	result := r.db.WithContext(ctx).Model(&model.Question{}).
		Where("id = ? AND project_id = ?", id, projectID).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return r.GetByID(ctx, projectID, id)
}

func (r *QuestionRepository) Delete(ctx context.Context, projectID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Question{}, "id = ? AND project_id = ?", id, projectID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Assign sets the assignee and appends an audit log row in one transaction.
// Reassigning to the current assignee is a no-op and writes no log.
func (r *QuestionRepository) Assign(ctx context.Context, projectID, id uuid.UUID, assigneeID *uuid.UUID, assignedBy uuid.UUID) (*model.Question, error) {
	var question model.Question

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&question, "id = ? AND project_id = ?", id, projectID).Error; err != nil {
			return err
		}

		if uuidPtrEqual(question.AssigneeID, assigneeID) {
			return nil
		}

		log := &model.QuestionAssignmentLog{
			QuestionID:   question.ID,
			AssignedByID: assignedBy,
			AssignedToID: assigneeID,
			PreviousID:   question.AssigneeID,
		}
		if err := tx.Create(log).Error; err != nil {
			return err
		}

		if err := tx.Model(&question).Updates(map[string]interface{}{
			"assignee_id": assigneeID,
			"updated_at":  time.Now(),
		}).Error; err != nil {
			return err
		}

		question.AssigneeID = assigneeID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &question, nil
}

func (r *QuestionRepository) ListAssignmentLogs(ctx context.Context, questionID uuid.UUID) ([]model.QuestionAssignmentLog, error) {
	var logs []model.QuestionAssignmentLog
	err := r.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
