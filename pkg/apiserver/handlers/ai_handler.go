package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/grantforge/grantforge/pkg/ai"
	"github.com/grantforge/grantforge/pkg/metrics"
	"github.com/grantforge/grantforge/pkg/model"
	"github.com/grantforge/grantforge/pkg/store/postgres"
)

type AIHandler struct {
	db       *postgres.Store
	reviewer ai.Reviewer
	model    string
	logger   *zap.Logger
}

func NewAIHandler(db *postgres.Store, reviewer ai.Reviewer, model string, logger *zap.Logger) *AIHandler {
	return &AIHandler{db: db, reviewer: reviewer, model: model, logger: logger}
}

type reviewResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Model     string `json:"model"`
	Response  string `json:"response"`
	CreatedAt string `json:"created_at"`
}

// Review sends the proposal and grant metadata to the completion service
// and records the exchange.
func (h *AIHandler) Review(c *gin.Context) {
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
	if h.reviewer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI review is not configured"})
		return
	}

	var info ai.GrantInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	project, err := postgres.NewProjectRepository(h.db.DB()).GetByID(c.Request.Context(), companyID, projectID)
	if err != nil {
		notFoundOr(c, h.logger, err, "project")
		return
	}

	questions, err := postgres.NewQuestionRepository(h.db.DB()).ListByProject(c.Request.Context(), projectID)
	if err != nil {
		h.logger.Error("failed to list questions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to review project"})
		return
	}

	prompt, response, err := h.reviewer.Review(c.Request.Context(), project, questions, info)
	if err != nil {
		metrics.AIReviewsTotal.WithLabelValues("error").Inc()
		h.logger.Error("AI review failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "AI review failed"})
		return
	}

	log := &model.AIReviewLog{
		ProjectID:   project.ID,
		RequestedBy: claims.UserUUID(),
		Model:       h.model,
		PromptInputs: model.JSONB{
			"purpose": info.Purpose,
			"funder":  info.Funder,
			"amount":  info.Amount,
		},
		Prompt:   prompt,
		Response: response,
	}
	if err := postgres.NewReviewRepository(h.db.DB()).Create(c.Request.Context(), log); err != nil {
		h.logger.Error("failed to record AI review", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record review"})
		return
	}

	metrics.AIReviewsTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusCreated, mapReview(log))
}

func (h *AIHandler) ListReviews(c *gin.Context) {
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

	logs, err := postgres.NewReviewRepository(h.db.DB()).ListByProject(c.Request.Context(), projectID)
	if err != nil {
		h.logger.Error("failed to list reviews", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reviews"})
		return
	}

	response := make([]reviewResponse, 0, len(logs))
	for i := range logs {
		response = append(response, mapReview(&logs[i]))
	}
	c.JSON(http.StatusOK, response)
}

func mapReview(log *model.AIReviewLog) reviewResponse {
	return reviewResponse{
		ID:        log.ID.String(),
		ProjectID: log.ProjectID.String(),
		Model:     log.Model,
		Response:  log.Response,
		CreatedAt: log.CreatedAt.UTC().Format(timeRFC3339Nano),
	}
}
