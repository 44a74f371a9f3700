package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/grantforge/grantforge/pkg/apiserver/middleware"
	"github.com/grantforge/grantforge/pkg/auth"
	"github.com/grantforge/grantforge/pkg/eventbus"
	"github.com/grantforge/grantforge/pkg/model"
)

const timeRFC3339Nano = time.RFC3339Nano

func parseLimit(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseOffset(value string) int {
	if value == "" {
		return 0
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

func formatTime(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := value.UTC().Format(timeRFC3339Nano)
	return &formatted
}

// requireClaims pulls the authenticated identity off the context; Auth
// middleware guarantees it is present on protected routes.
func requireClaims(c *gin.Context) (*auth.Claims, bool) {
	claims := middleware.Claims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return nil, false
	}
	return claims, true
}

func requireAdmin(c *gin.Context, claims *auth.Claims) bool {
	if !claims.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return false
	}
	return true
}

func requireCompany(c *gin.Context, claims *auth.Claims) (uuid.UUID, bool) {
	companyID := claims.CompanyUUID()
	if companyID == uuid.Nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no company association"})
		return uuid.Nil, false
	}
	return companyID, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// canEditProject: project mutations are limited to the owning user and
// company admins.
func canEditProject(claims *auth.Claims, project *model.Project) bool {
	return claims.IsAdmin() || project.OwnerID == claims.UserUUID()
}

// notFoundOr maps gorm's not-found to 404 and everything else to a logged
// generic 500.
func notFoundOr(c *gin.Context, logger *zap.Logger, err error, resource string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": resource + " not found"})
		return
	}
	logger.Error("database error", zap.String("resource", resource), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// publish sends a change notification when a bus is configured. Failures
// are logged, never surfaced: notifications are best-effort.
func publish(ctx context.Context, bus *eventbus.Bus, logger *zap.Logger, channel, eventType string, payload interface{}) {
	if bus == nil {
		return
	}
	event, err := eventbus.NewEvent(eventType, payload)
	if err != nil {
		logger.Warn("failed to encode event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := bus.Publish(ctx, channel, event); err != nil {
		logger.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
