package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grantforge/grantforge/pkg/eventbus"
	"github.com/grantforge/grantforge/pkg/metrics"
	"github.com/grantforge/grantforge/pkg/model"
	"github.com/grantforge/grantforge/pkg/store/postgres"
	"github.com/grantforge/grantforge/pkg/workflow"
)

type ApprovalHandler struct {
	db     *postgres.Store
	logger *zap.Logger
	bus    *eventbus.Bus
}

func NewApprovalHandler(db *postgres.Store, logger *zap.Logger, bus *eventbus.Bus) *ApprovalHandler {
	return &ApprovalHandler{db: db, logger: logger, bus: bus}
}

type approvalRequestBody struct {
	ApproverID string `json:"approver_id" binding:"required"`
}

type approvalResponse struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"project_id"`
	RequesterID string  `json:"requester_id"`
	ApproverID  string  `json:"approver_id"`
	Status      string  `json:"status"`
	Comments    string  `json:"comments,omitempty"`
	RespondedAt *string `json:"responded_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// Request puts a project up for approval. Only the project owner may
// request, and the approver must be an approver-role user of the same
// company.
func (h *ApprovalHandler) Request(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	companyID, ok := requireCompany(c, claims)
	if !ok {
		return
	}
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	project, err := postgres.NewProjectRepository(h.db.DB()).GetByID(c.Request.Context(), companyID, projectID)
	if err != nil {
		notFoundOr(c, h.logger, err, "project")
		return
	}
	if project.OwnerID != claims.UserUUID() {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the project owner can request approval"})
		return
	}

	var body approvalRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	approverID, err := uuid.Parse(body.ApproverID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid approver_id"})
		return
	}

	approver, err := postgres.NewUserRepository(h.db.DB()).GetByID(c.Request.Context(), approverID)
	if err != nil {
		notFoundOr(c, h.logger, err, "approver")
		return
	}
	if approver.CompanyID == nil || *approver.CompanyID != companyID {
		c.JSON(http.StatusForbidden, gin.H{"error": "approver belongs to another company"})
		return
	}
	if approver.Role != model.RoleApprover && approver.Role != model.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "named user cannot approve projects"})
		return
	}

	request, err := postgres.NewApprovalRepository(h.db.DB()).Request(c.Request.Context(), project, claims.UserUUID(), approverID)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrNotDraft):
			c.JSON(http.StatusConflict, gin.H{"error": "project cannot be submitted for approval in its current status"})
		case errors.Is(err, workflow.ErrPendingExists):
			c.JSON(http.StatusConflict, gin.H{"error": "project already has a pending approval request"})
		default:
			h.logger.Error("failed to create approval request", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to request approval"})
		}
		return
	}

	metrics.ProjectTransitions.WithLabelValues(companyID.String(), string(model.ProjectPendingApproval)).Inc()
	publish(c.Request.Context(), h.bus, h.logger, eventbus.ChannelApproval, "approval_requested", eventbus.ApprovalEvent{
		RequestID:  request.ID.String(),
		ProjectID:  project.ID.String(),
		ApproverID: approverID.String(),
		Status:     string(request.Status),
	})

	c.JSON(http.StatusCreated, mapApproval(request))
}

type respondBody struct {
	Approve  *bool  `json:"approve" binding:"required"`
	Comments string `json:"comments"`
}

// Respond records the decision of the approver named on the request.
func (h *ApprovalHandler) Respond(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	requestID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var body respondBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	request, err := postgres.NewApprovalRepository(h.db.DB()).Respond(c.Request.Context(), requestID, claims.UserUUID(), *body.Approve, body.Comments)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrWrongApprover):
			c.JSON(http.StatusForbidden, gin.H{"error": "approval request belongs to another approver"})
		case errors.Is(err, workflow.ErrNotPending):
			c.JSON(http.StatusConflict, gin.H{"error": "approval request has already been decided"})
		default:
			notFoundOr(c, h.logger, err, "approval request")
		}
		return
	}

	metrics.ApprovalDecisions.WithLabelValues(string(request.Status)).Inc()
	publish(c.Request.Context(), h.bus, h.logger, eventbus.ChannelApproval, "approval_decided", eventbus.ApprovalEvent{
		RequestID:  request.ID.String(),
		ProjectID:  request.ProjectID.String(),
		ApproverID: claims.UserID,
		Status:     string(request.Status),
		Comments:   request.Comments,
	})

	c.JSON(http.StatusOK, mapApproval(request))
}

// Rescind withdraws a project from approval. Admin only.
func (h *ApprovalHandler) Rescind(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok || !requireAdmin(c, claims) {
		return
	}
	companyID, ok := requireCompany(c, claims)
	if !ok {
		return
	}
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := postgres.NewProjectRepository(h.db.DB()).GetByID(c.Request.Context(), companyID, projectID); err != nil {
		notFoundOr(c, h.logger, err, "project")
		return
	}

	if err := postgres.NewApprovalRepository(h.db.DB()).Rescind(c.Request.Context(), projectID); err != nil {
		if errors.Is(err, workflow.ErrNotPendingApproval) {
			c.JSON(http.StatusConflict, gin.H{"error": "project is not pending approval"})
			return
		}
		notFoundOr(c, h.logger, err, "project")
		return
	}

	metrics.ApprovalDecisions.WithLabelValues(string(model.ApprovalRescinded)).Inc()
	publish(c.Request.Context(), h.bus, h.logger, eventbus.ChannelApproval, "approval_rescinded", eventbus.ApprovalEvent{
		ProjectID: projectID.String(),
		Status:    string(model.ApprovalRescinded),
	})

	c.JSON(http.StatusOK, gin.H{"status": "rescinded"})
}

// History lists a project's approval requests, newest first.
func (h *ApprovalHandler) History(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	companyID, ok := requireCompany(c, claims)
	if !ok {
		return
	}
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := postgres.NewProjectRepository(h.db.DB()).GetByID(c.Request.Context(), companyID, projectID); err != nil {
		notFoundOr(c, h.logger, err, "project")
		return
	}

	requests, err := postgres.NewApprovalRepository(h.db.DB()).ListByProject(c.Request.Context(), projectID)
	if err != nil {
		h.logger.Error("failed to list approval requests", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list approval requests"})
		return
	}

	response := make([]approvalResponse, 0, len(requests))
	for i := range requests {
		response = append(response, mapApproval(&requests[i]))
	}
	c.JSON(http.StatusOK, response)
}

// Pending lists the requests waiting on the calling approver.
func (h *ApprovalHandler) Pending(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	requests, err := postgres.NewApprovalRepository(h.db.DB()).ListPendingForApprover(c.Request.Context(), claims.UserUUID())
	if err != nil {
		h.logger.Error("failed to list pending approvals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list pending approvals"})
		return
	}

	response := make([]approvalResponse, 0, len(requests))
	for i := range requests {
		response = append(response, mapApproval(&requests[i]))
	}
	c.JSON(http.StatusOK, response)
}

func mapApproval(request *model.ApprovalRequest) approvalResponse {
	return approvalResponse{
		ID:          request.ID.String(),
		ProjectID:   request.ProjectID.String(),
		RequesterID: request.RequesterID.String(),
		ApproverID:  request.ApproverID.String(),
		Status:      string(request.Status),
		Comments:    request.Comments,
		RespondedAt: formatTime(request.RespondedAt),
		CreatedAt:   request.CreatedAt.UTC().Format(timeRFC3339Nano),
	}
}
