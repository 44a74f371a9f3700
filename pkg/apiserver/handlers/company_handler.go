package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grantforge/grantforge/pkg/model"
	"github.com/grantforge/grantforge/pkg/store/postgres"
)

type CompanyHandler struct {
	db     *postgres.Store
	logger *zap.Logger
}

func NewCompanyHandler(db *postgres.Store, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{db: db, logger: logger}
}

type companyRequest struct {
	Name string `json:"name" binding:"required"`
}

type companyResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Archived  bool   `json:"archived"`
	CreatedAt string `json:"created_at"`
}

// List returns the caller's own company. The company is the tenant
// boundary; no role sees across it.
func (h *CompanyHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	companyID, ok := requireCompany(c, claims)
	if !ok {
		return
	}

	company, err := postgres.NewCompanyRepository(h.db.DB()).GetByID(c.Request.Context(), companyID)
	if err != nil {
		notFoundOr(c, h.logger, err, "company")
		return
	}
	c.JSON(http.StatusOK, []companyResponse{mapCompany(company)})
}

func (h *CompanyHandler) Get(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if claims.CompanyUUID() != id {
		c.JSON(http.StatusForbidden, gin.H{"error": "wrong company"})
		return
	}

	company, err := postgres.NewCompanyRepository(h.db.DB()).GetByID(c.Request.Context(), id)
	if err != nil {
		notFoundOr(c, h.logger, err, "company")
		return
	}
	c.JSON(http.StatusOK, mapCompany(company))
}

func (h *CompanyHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok || !requireAdmin(c, claims) {
		return
	}

	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	company := &model.Company{Name: req.Name}
	if err := postgres.NewCompanyRepository(h.db.DB()).Create(c.Request.Context(), company); err != nil {
		h.logger.Error("failed to create company", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create company"})
		return
	}
	c.JSON(http.StatusCreated, mapCompany(company))
}

func (h *CompanyHandler) Update(c *gin.Context) {
	id, ok := requireOwnCompanyAdmin(c)
	if !ok {
		return
	}

	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	repo := postgres.NewCompanyRepository(h.db.DB())
	if err := repo.Update(c.Request.Context(), id, req.Name); err != nil {
		notFoundOr(c, h.logger, err, "company")
		return
	}

	company, err := repo.GetByID(c.Request.Context(), id)
	if err != nil {
		notFoundOr(c, h.logger, err, "company")
		return
	}
	c.JSON(http.StatusOK, mapCompany(company))
}

func (h *CompanyHandler) Archive(c *gin.Context) {
	h.setArchived(c, true)
}

func (h *CompanyHandler) Unarchive(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *CompanyHandler) setArchived(c *gin.Context, archived bool) {
	id, ok := requireOwnCompanyAdmin(c)
	if !ok {
		return
	}

	if err := postgres.NewCompanyRepository(h.db.DB()).SetArchived(c.Request.Context(), id, archived); err != nil {
		notFoundOr(c, h.logger, err, "company")
		return
	}
	c.JSON(http.StatusOK, gin.H{"archived": archived})
}

func (h *CompanyHandler) Delete(c *gin.Context) {
	id, ok := requireOwnCompanyAdmin(c)
	if !ok {
		return
	}

	if err := postgres.NewCompanyRepository(h.db.DB()).Delete(c.Request.Context(), id); err != nil {
		notFoundOr(c, h.logger, err, "company")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// requireOwnCompanyAdmin gates company mutations: the caller must be an
// admin and the target must be the caller's own company.
func requireOwnCompanyAdmin(c *gin.Context) (uuid.UUID, bool) {
	claims, ok := requireClaims(c)
	if !ok || !requireAdmin(c, claims) {
		return uuid.Nil, false
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return uuid.Nil, false
	}
	if claims.CompanyUUID() != id {
		c.JSON(http.StatusForbidden, gin.H{"error": "wrong company"})
		return uuid.Nil, false
	}
	return id, true
}

func mapCompany(company *model.Company) companyResponse {
	return companyResponse{
		ID:        company.ID.String(),
		Name:      company.Name,
		Archived:  company.Archived,
		CreatedAt: company.CreatedAt.UTC().Format(timeRFC3339Nano),
	}
}
