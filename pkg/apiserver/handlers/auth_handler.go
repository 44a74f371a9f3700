package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/grantforge/grantforge/pkg/auth"
	"github.com/grantforge/grantforge/pkg/model"
	"github.com/grantforge/grantforge/pkg/store/postgres"
)

type AuthHandler struct {
	db     *postgres.Store
	tokens *auth.TokenManager
	logger *zap.Logger
}

func NewAuthHandler(db *postgres.Store, tokens *auth.TokenManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{db: db, tokens: tokens, logger: logger}
}

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Name        string `json:"name" binding:"required"`
	Password    string `json:"password" binding:"required,min=8"`
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
}

type userResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	Approved  bool    `json:"approved"`
	CompanyID *string `json:"company_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// Register creates an unapproved account. Joining an existing company takes
// company_id; company_name registers a new tenant instead.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	if req.CompanyID == "" && req.CompanyName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_id or company_name is required"})
		return
	}

	ctx := c.Request.Context()

	var companyID uuid.UUID
	if req.CompanyID != "" {
		parsed, err := uuid.Parse(req.CompanyID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company_id"})
			return
		}
		if _, err := postgres.NewCompanyRepository(h.db.DB()).GetByID(ctx, parsed); err != nil {
			notFoundOr(c, h.logger, err, "company")
			return
		}
		companyID = parsed
	} else {
		company := &model.Company{Name: req.CompanyName}
		if err := postgres.NewCompanyRepository(h.db.DB()).Create(ctx, company); err != nil {
			h.logger.Error("failed to create company", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
			return
		}
		companyID = company.ID
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		return
	}

	user := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         model.RoleViewer,
		CompanyID:    &companyID,
	}
	if err := postgres.NewUserRepository(h.db.DB()).Create(ctx, user); err != nil {
		h.logger.Error("failed to create user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		return
	}

	c.JSON(http.StatusCreated, mapUser(user))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := postgres.NewUserRepository(h.db.DB()).GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.logger.Error("failed to load user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log in"})
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !user.Approved {
		c.JSON(http.StatusForbidden, gin.H{"error": "account pending approval"})
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		h.logger.Error("failed to sign token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  mapUser(user),
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	repo := postgres.NewUserRepository(h.db.DB())
	user, err := repo.GetByID(c.Request.Context(), claims.UserUUID())
	if err != nil {
		notFoundOr(c, h.logger, err, "user")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "current password does not match"})
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to change password"})
		return
	}

	if err := repo.UpdatePassword(c.Request.Context(), user.ID, hash); err != nil {
		h.logger.Error("failed to update password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to change password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "password changed"})
}

func mapUser(user *model.User) userResponse {
	resp := userResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		Approved:  user.Approved,
		CreatedAt: user.CreatedAt.UTC().Format(timeRFC3339Nano),
	}
	if user.CompanyID != nil {
		id := user.CompanyID.String()
		resp.CompanyID = &id
	}
	return resp
}
