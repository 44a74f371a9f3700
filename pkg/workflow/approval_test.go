package workflow

import (
	"testing"

	"github.com/grantforge/grantforge/pkg/model"
)

func TestCanRequestApproval(t *testing.T) {
	if err := CanRequestApproval(model.ProjectDraft); err != nil {
		t.Fatalf("draft should be requestable: %v", err)
	}
	if err := CanRequestApproval(model.ProjectRejected); err != nil {
		t.Fatalf("rejected should be resubmittable: %v", err)
	}
	if err := CanRequestApproval(model.ProjectPendingApproval); err != ErrNotDraft {
		t.Fatalf("expected ErrNotDraft, got %v", err)
	}
	if err := CanRequestApproval(model.ProjectApproved); err != ErrNotDraft {
		t.Fatalf("expected ErrNotDraft, got %v", err)
	}
}

func TestCanRespond(t *testing.T) {
	if err := CanRespond(model.ApprovalPending); err != nil {
		t.Fatalf("pending should be decidable: %v", err)
	}
	for _, status := range []model.ApprovalStatus{model.ApprovalApproved, model.ApprovalRejected, model.ApprovalRescinded} {
		if err := CanRespond(status); err != ErrNotPending {
			t.Fatalf("status %s: expected ErrNotPending, got %v", status, err)
		}
	}
}

func TestCanRescind(t *testing.T) {
	if err := CanRescind(model.ProjectPendingApproval); err != nil {
		t.Fatalf("pending_approval should be rescindable: %v", err)
	}
	for _, status := range []model.ProjectStatus{model.ProjectDraft, model.ProjectApproved, model.ProjectRejected} {
		if err := CanRescind(status); err != ErrNotPendingApproval {
			t.Fatalf("status %s: expected ErrNotPendingApproval, got %v", status, err)
		}
	}
}

func TestDecide(t *testing.T) {
	requestStatus, projectStatus := Decide(true)
	if requestStatus != model.ApprovalApproved || projectStatus != model.ProjectApproved {
		t.Fatalf("approve: got %s/%s", requestStatus, projectStatus)
	}

	requestStatus, projectStatus = Decide(false)
	if requestStatus != model.ApprovalRejected || projectStatus != model.ProjectRejected {
		t.Fatalf("reject: got %s/%s", requestStatus, projectStatus)
	}
}
