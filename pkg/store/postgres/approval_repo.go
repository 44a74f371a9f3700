package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grantforge/grantforge/pkg/model"
	"github.com/grantforge/grantforge/pkg/workflow"
)

type ApprovalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// Request creates a pending approval request and moves the project to
// pending_approval in one transaction. At most one pending request may
// exist per project; the guard runs inside the same transaction.
func (r *ApprovalRepository) Request(ctx context.Context, project *model.Project, requesterID, approverID uuid.UUID) (*model.ApprovalRequest, error) {
	request := &model.ApprovalRequest{
		ProjectID:   project.ID,
		RequesterID: requesterID,
		ApproverID:  approverID,
		Status:      model.ApprovalPending,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Project
		if err := tx.First(&current, "id = ?", project.ID).Error; err != nil {
			return err
		}
		if err := workflow.CanRequestApproval(current.Status); err != nil {
			return err
		}

		var pending int64
		if err := tx.Model(&model.ApprovalRequest{}).
			Where("project_id = ? AND status = ?", project.ID, model.ApprovalPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return workflow.ErrPendingExists
		}

		if err := tx.Create(request).Error; err != nil {
			return err
		}

		return tx.Model(&model.Project{}).
			Where("id = ?", project.ID).
			Updates(map[string]interface{}{
				"status":     model.ProjectPendingApproval,
				"updated_at": time.Now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	return request, nil
}

// Respond records the approver's decision and moves the project to the
// matching status, atomically.
func (r *ApprovalRepository) Respond(ctx context.Context, requestID, approverID uuid.UUID, approve bool, comments string) (*model.ApprovalRequest, error) {
	var request model.ApprovalRequest

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&request, "id = ?", requestID).Error; err != nil {
			return err
		}
		if request.ApproverID != approverID {
			return workflow.ErrWrongApprover
		}
		if err := workflow.CanRespond(request.Status); err != nil {
			return err
		}

		requestStatus, projectStatus := workflow.Decide(approve)
		now := time.Now()

		if err := tx.Model(&request).Updates(map[string]interface{}{
			"status":       requestStatus,
			"comments":     comments,
			"responded_at": &now,
			"updated_at":   now,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Project{}).
			Where("id = ?", request.ProjectID).
			Updates(map[string]interface{}{
				"status":     projectStatus,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		request.Status = requestStatus
		request.Comments = comments
		request.RespondedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &request, nil
}

// Rescind withdraws a project from the approval workflow: every pending
// request for it is marked rescinded and the project returns to draft.
func (r *ApprovalRepository) Rescind(ctx context.Context, projectID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project model.Project
		if err := tx.First(&project, "id = ?", projectID).Error; err != nil {
			return err
		}
		if err := workflow.CanRescind(project.Status); err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&model.ApprovalRequest{}).
			Where("project_id = ? AND status = ?", projectID, model.ApprovalPending).
			Updates(map[string]interface{}{
				"status":       model.ApprovalRescinded,
				"responded_at": &now,
				"updated_at":   now,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&model.Project{}).
			Where("id = ?", projectID).
			Updates(map[string]interface{}{
				"status":     model.ProjectDraft,
				"updated_at": now,
			}).Error
	})
}

func (r *ApprovalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	var request model.ApprovalRequest
	err := r.db.WithContext(ctx).
		Preload("Project").
		First(&request, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *ApprovalRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.ApprovalRequest, error) {
	var requests []model.ApprovalRequest
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Preload("Approver").
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *ApprovalRepository) ListPendingForApprover(ctx context.Context, approverID uuid.UUID) ([]model.ApprovalRequest, error) {
	var requests []model.ApprovalRequest
	err := r.db.WithContext(ctx).
		Preload("Project").
		Where("approver_id = ? AND status = ?", approverID, model.ApprovalPending).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}

// ListDecidedByCompany returns the company's approval decision history.
func (r *ApprovalRepository) ListDecidedByCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]model.ApprovalRequest, error) {
	var requests []model.ApprovalRequest
	err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Approver").
		Joins("JOIN projects ON projects.id = approval_requests.project_id").
		Where("projects.company_id = ? AND approval_requests.status <> ?", companyID, model.ApprovalPending).
		Order("approval_requests.updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&requests).Error
	return requests, err
}
