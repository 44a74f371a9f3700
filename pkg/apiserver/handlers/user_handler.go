package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/grantforge/grantforge/pkg/store/postgres"
)

type UserHandler struct {
	db     *postgres.Store
	logger *zap.Logger
}

func NewUserHandler(db *postgres.Store, logger *zap.Logger) *UserHandler {
	return &UserHandler{db: db, logger: logger}
}

// List returns the approved users of the caller's company.
func (h *UserHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	companyID, ok := requireCompany(c, claims)
	if !ok {
		return
	}

	users, err := postgres.NewUserRepository(h.db.DB()).ListByCompany(c.Request.Context(), companyID)
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}

	response := make([]userResponse, 0, len(users))
	for i := range users {
		response = append(response, mapUser(&users[i]))
	}
	c.JSON(http.StatusOK, response)
}
