// Package workflow holds the approval state machine guards. The store's
// ApprovalRepository runs these inside its transactions so that every
// multi-step transition is atomic.
package workflow

import (
	"errors"

	"github.com/grantforge/grantforge/pkg/model"
)

var (
	ErrNotDraft           = errors.New("project is not in a requestable state")
	ErrPendingExists      = errors.New("project already has a pending approval request")
	ErrNotPending         = errors.New("approval request is not pending")
	ErrNotPendingApproval = errors.New("project is not pending approval")
	ErrWrongApprover      = errors.New("approval request belongs to another approver")
)

// CanRequestApproval reports whether a project may enter the approval
// workflow. Rejected projects may be resubmitted after edits.
func CanRequestApproval(status model.ProjectStatus) error {
	if status != model.ProjectDraft && status != model.ProjectRejected {
		return ErrNotDraft
	}
	return nil
}

// CanRespond reports whether an approval request may still be decided.
func CanRespond(status model.ApprovalStatus) error {
	if status != model.ApprovalPending {
		return ErrNotPending
	}
	return nil
}

// CanRescind reports whether a project's pending approval may be withdrawn.
func CanRescind(status model.ProjectStatus) error {
	if status != model.ProjectPendingApproval {
		return ErrNotPendingApproval
	}
	return nil
}

// Decide maps an approval decision onto the project status it implies.
func Decide(approve bool) (model.ApprovalStatus, model.ProjectStatus) {
	if approve {
		return model.ApprovalApproved, model.ProjectApproved
	}
	return model.ApprovalRejected, model.ProjectRejected
}
