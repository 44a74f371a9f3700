package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/grantforge/grantforge/pkg/model"
	"github.com/grantforge/grantforge/pkg/store/postgres"
)

type AdminHandler struct {
	db     *postgres.Store
	logger *zap.Logger
}

func NewAdminHandler(db *postgres.Store, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, logger: logger}
}

// PendingUsers lists the company's registrations awaiting approval.
func (h *AdminHandler) PendingUsers(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok || !requireAdmin(c, claims) {
		return
	}
	companyID, ok := requireCompany(c, claims)
	if !ok {
		return
	}

	users, err := postgres.NewUserRepository(h.db.DB()).ListPending(c.Request.Context(), companyID)
	if err != nil {
		h.logger.Error("failed to list pending users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list pending users"})
		return
	}

	response := make([]userResponse, 0, len(users))
	for i := range users {
		response = append(response, mapUser(&users[i]))
	}
	c.JSON(http.StatusOK, response)
}

type approveUserRequest struct {
	Role string `json:"role" binding:"required"`
}

// ApproveUser activates a registration and assigns its role.
func (h *AdminHandler) ApproveUser(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok || !requireAdmin(c, claims) {
		return
	}
	companyID, ok := requireCompany(c, claims)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req approveUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	role := model.Role(req.Role)
	if !model.IsValidRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	repo := postgres.NewUserRepository(h.db.DB())
	user, err := repo.GetByID(c.Request.Context(), id)
	if err != nil {
		notFoundOr(c, h.logger, err, "user")
		return
	}
	if user.CompanyID == nil || *user.CompanyID != companyID {
		c.JSON(http.StatusForbidden, gin.H{"error": "user belongs to another company"})
		return
	}

	if err := repo.Approve(c.Request.Context(), id, role); err != nil {
		notFoundOr(c, h.logger, err, "user")
		return
	}

	user, err = repo.GetByID(c.Request.Context(), id)
	if err != nil {
		notFoundOr(c, h.logger, err, "user")
		return
	}
	c.JSON(http.StatusOK, mapUser(user))
}

// ApprovalHistory lists the company's decided approval requests.
func (h *AdminHandler) ApprovalHistory(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok || !requireAdmin(c, claims) {
		return
	}
	companyID, ok := requireCompany(c, claims)
	if !ok {
		return
	}

	limit := parseLimit(c.Query("limit"), 50)
	offset := parseOffset(c.Query("offset"))

	requests, err := postgres.NewApprovalRepository(h.db.DB()).ListDecidedByCompany(c.Request.Context(), companyID, limit, offset)
	if err != nil {
		h.logger.Error("failed to list approval history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list approval history"})
		return
	}

	response := make([]approvalResponse, 0, len(requests))
	for i := range requests {
		response = append(response, mapApproval(&requests[i]))
	}
	c.JSON(http.StatusOK, response)
}
