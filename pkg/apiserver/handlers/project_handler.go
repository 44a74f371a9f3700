package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/grantforge/grantforge/pkg/eventbus"
	"github.com/grantforge/grantforge/pkg/metrics"
	"github.com/grantforge/grantforge/pkg/model"
	"github.com/grantforge/grantforge/pkg/narrative"
	"github.com/grantforge/grantforge/pkg/store/postgres"
)

type ProjectHandler struct {
	db     *postgres.Store
	logger *zap.Logger
	bus    *eventbus.Bus
}

func NewProjectHandler(db *postgres.Store, logger *zap.Logger, bus *eventbus.Bus) *ProjectHandler {
	return &ProjectHandler{db: db, logger: logger, bus: bus}
}

type projectCreateRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Details     string   `json:"details"`
	FocusAreas  []string `json:"focus_areas"`
	Deadline    *string  `json:"deadline"`
}

type projectUpdateRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Details     *string   `json:"details"`
	FocusAreas  *[]string `json:"focus_areas"`
	Deadline    *string   `json:"deadline"`
}

type projectResponse struct {
	ID          string   `json:"id"`
	CompanyID   string   `json:"company_id"`
	OwnerID     string   `json:"owner_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Details     string   `json:"details,omitempty"`
	FocusAreas  []string `json:"focus_areas,omitempty"`
	Status      string   `json:"status"`
	Completed   bool     `json:"completed"`
	Archived    bool     `json:"archived"`
	Deadline    *string  `json:"deadline,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type projectDetailResponse struct {
	projectResponse
	Questions []questionResponse `json:"questions"`
}

func (h *ProjectHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	companyID, ok := requireCompany(c, claims)
	if !ok {
		return
	}
	if claims.Role == string(model.RoleViewer) {
		c.JSON(http.StatusForbidden, gin.H{"error": "viewers cannot create projects"})
		return
	}

	var req projectCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	deadline, ok := parseDeadline(c, req.Deadline)
	if !ok {
		return
	}

	project := &model.Project{
		CompanyID:   companyID,
		OwnerID:     claims.UserUUID(),
		Name:        req.Name,
		Description: req.Description,
		Details:     req.Details,
		FocusAreas:  model.StringList(req.FocusAreas),
		Status:      model.ProjectDraft,
		Deadline:    deadline,
	}

	if err := postgres.NewProjectRepository(h.db.DB()).Create(c.Request.Context(), project); err != nil {
		h.logger.Error("failed to create project", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create project"})
		return
	}

	metrics.ProjectTransitions.WithLabelValues(companyID.String(), string(project.Status)).Inc()
	publish(c.Request.Context(), h.bus, h.logger, eventbus.ChannelProject, "project_created", eventbus.ProjectEvent{
		ProjectID: project.ID.String(),
		CompanyID: companyID.String(),
		Status:    string(project.Status),
		ActorID:   claims.UserID,
	})

	c.JSON(http.StatusCreated, mapProject(project))
}

func (h *ProjectHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	companyID, ok := requireCompany(c, claims)
	if !ok {
		return
	}

	var filter postgres.ProjectFilter
	if value := strings.TrimSpace(c.Query("status")); value != "" {
		status := model.ProjectStatus(value)
		if !model.IsValidProjectStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		filter.Status = &status
	}
	if value := strings.TrimSpace(c.Query("archived")); value != "" {
		archived, err := strconv.ParseBool(value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid archived flag"})
			return
		}
		filter.Archived = &archived
	}
	if value := strings.TrimSpace(c.Query("completed")); value != "" {
		completed, err := strconv.ParseBool(value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid completed flag"})
			return
		}
		filter.Completed = &completed
	}
	filter.Sort = strings.TrimSpace(c.Query("sort"))

	limit := parseLimit(c.Query("limit"), 20)
	offset := parseOffset(c.Query("offset"))

	projects, total, err := postgres.NewProjectRepository(h.db.DB()).List(c.Request.Context(), companyID, filter, limit, offset)
	if err != nil {
		h.logger.Error("failed to list projects", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list projects"})
		return
	}

	response := make([]projectResponse, 0, len(projects))
	for i := range projects {
		response = append(response, mapProject(&projects[i]))
	}
	c.JSON(http.StatusOK, gin.H{"projects": response, "total": total})
}

func (h *ProjectHandler) Get(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
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

	project, err := postgres.NewProjectRepository(h.db.DB()).GetByID(c.Request.Context(), companyID, id)
	if err != nil {
		notFoundOr(c, h.logger, err, "project")
		return
	}

	questions := make([]questionResponse, 0, len(project.Questions))
	for i := range project.Questions {
		questions = append(questions, mapQuestion(&project.Questions[i]))
	}

	c.JSON(http.StatusOK, projectDetailResponse{
		projectResponse: mapProject(project),
		Questions:       questions,
	})
}

func (h *ProjectHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
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

	repo := postgres.NewProjectRepository(h.db.DB())
	project, err := repo.GetByID(c.Request.Context(), companyID, id)
	if err != nil {
		notFoundOr(c, h.logger, err, "project")
		return
	}
	if !canEditProject(claims, project) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner or an admin can edit this project"})
		return
	}

	var req projectUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	update := postgres.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
		Details:     req.Details,
	}
	if req.FocusAreas != nil {
		areas := model.StringList(*req.FocusAreas)
		update.FocusAreas = &areas
	}
	if req.Deadline != nil {
		deadline, ok := parseDeadline(c, req.Deadline)
		if !ok {
			return
		}
		update.Deadline = deadline
	}

	updated, err := repo.Update(c.Request.Context(), companyID, id, claims.UserUUID(), update)
	if err != nil {
		notFoundOr(c, h.logger, err, "project")
		return
	}

	publish(c.Request.Context(), h.bus, h.logger, eventbus.ChannelProject, "project_updated", eventbus.ProjectEvent{
		ProjectID: updated.ID.String(),
		CompanyID: companyID.String(),
		Status:    string(updated.Status),
		ActorID:   claims.UserID,
	})

	c.JSON(http.StatusOK, mapProject(updated))
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
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

	repo := postgres.NewProjectRepository(h.db.DB())
	project, err := repo.GetByID(c.Request.Context(), companyID, id)
	if err != nil {
		notFoundOr(c, h.logger, err, "project")
		return
	}
	if !canEditProject(claims, project) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner or an admin can delete this project"})
		return
	}

	if err := repo.Delete(c.Request.Context(), companyID, id); err != nil {
		notFoundOr(c, h.logger, err, "project")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *ProjectHandler) Archive(c *gin.Context)   { h.setFlag(c, "archived", true) }
func (h *ProjectHandler) Unarchive(c *gin.Context) { h.setFlag(c, "archived", false) }
func (h *ProjectHandler) Complete(c *gin.Context)  { h.setFlag(c, "completed", true) }

func (h *ProjectHandler) setFlag(c *gin.Context, flag string, value bool) {
	claims, ok := requireClaims(c)
	if !ok {
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

	repo := postgres.NewProjectRepository(h.db.DB())
	project, err := repo.GetByID(c.Request.Context(), companyID, id)
	if err != nil {
		notFoundOr(c, h.logger, err, "project")
		return
	}
	if !canEditProject(claims, project) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner or an admin can modify this project"})
		return
	}

	if flag == "archived" {
		err = repo.SetArchived(c.Request.Context(), companyID, id, value)
	} else {
		err = repo.SetCompleted(c.Request.Context(), companyID, id, value)
	}
	if err != nil {
		notFoundOr(c, h.logger, err, "project")
		return
	}
	c.JSON(http.StatusOK, gin.H{flag: value})
}

func (h *ProjectHandler) ListVersions(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
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

	versions, err := postgres.NewProjectRepository(h.db.DB()).ListVersions(c.Request.Context(), companyID, id)
	if err != nil {
		notFoundOr(c, h.logger, err, "project")
		return
	}

	type versionResponse struct {
		ID            string  `json:"id"`
		VersionNumber int     `json:"version_number"`
		Name          string  `json:"name"`
		Description   string  `json:"description"`
		Status        string  `json:"status"`
		Deadline      *string `json:"deadline,omitempty"`
		ChangedBy     string  `json:"changed_by"`
		CreatedAt     string  `json:"created_at"`
	}

	response := make([]versionResponse, 0, len(versions))
	for _, v := range versions {
		response = append(response, versionResponse{
			ID:            v.ID.String(),
			VersionNumber: v.VersionNumber,
			Name:          v.Name,
			Description:   v.Description,
			Status:        string(v.Status),
			Deadline:      formatTime(v.Deadline),
			ChangedBy:     v.ChangedBy.String(),
			CreatedAt:     v.CreatedAt.UTC().Format(timeRFC3339Nano),
		})
	}
	c.JSON(http.StatusOK, response)
}

// Compile assembles the project's questions and answers into a narrative
// and stores it.
func (h *ProjectHandler) Compile(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
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

	repo := postgres.NewProjectRepository(h.db.DB())
	project, err := repo.GetByID(c.Request.Context(), companyID, id)
	if err != nil {
		notFoundOr(c, h.logger, err, "project")
		return
	}

	questions, err := postgres.NewQuestionRepository(h.db.DB()).ListByProject(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to list questions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compile narrative"})
		return
	}

	compiled := &model.Narrative{
		ProjectID:  project.ID,
		Content:    narrative.Compile(project, questions),
		CompiledBy: claims.UserUUID(),
	}
	if err := repo.SaveNarrative(c.Request.Context(), compiled); err != nil {
		h.logger.Error("failed to save narrative", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compile narrative"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         compiled.ID.String(),
		"project_id": compiled.ProjectID.String(),
		"content":    compiled.Content,
		"created_at": compiled.CreatedAt.UTC().Format(timeRFC3339Nano),
	})
}

func (h *ProjectHandler) ListNarratives(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
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

	narratives, err := postgres.NewProjectRepository(h.db.DB()).ListNarratives(c.Request.Context(), companyID, id)
	if err != nil {
		notFoundOr(c, h.logger, err, "project")
		return
	}

	type narrativeResponse struct {
		ID        string `json:"id"`
		Content   string `json:"content"`
		CreatedAt string `json:"created_at"`
	}
	response := make([]narrativeResponse, 0, len(narratives))
	for _, n := range narratives {
		response = append(response, narrativeResponse{
			ID:        n.ID.String(),
			Content:   n.Content,
			CreatedAt: n.CreatedAt.UTC().Format(timeRFC3339Nano),
		})
	}
	c.JSON(http.StatusOK, response)
}

func parseDeadline(c *gin.Context, value *string) (*time.Time, bool) {
	if value == nil || *value == "" {
		return nil, true
	}
	parsed, err := time.Parse(time.RFC3339, *value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deadline, expected RFC3339"})
		return nil, false
	}
	return &parsed, true
}

func mapProject(project *model.Project) projectResponse {
	return projectResponse{
		ID:          project.ID.String(),
		CompanyID:   project.CompanyID.String(),
		OwnerID:     project.OwnerID.String(),
		Name:        project.Name,
		Description: project.Description,
		Details:     project.Details,
		FocusAreas:  []string(project.FocusAreas),
		Status:      string(project.Status),
		Completed:   project.Completed,
		Archived:    project.Archived,
		Deadline:    formatTime(project.Deadline),
		CreatedAt:   project.CreatedAt.UTC().Format(timeRFC3339Nano),
		UpdatedAt:   project.UpdatedAt.UTC().Format(timeRFC3339Nano),
	}
}
