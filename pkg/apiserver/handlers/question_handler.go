package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grantforge/grantforge/pkg/auth"
	"github.com/grantforge/grantforge/pkg/compliance"
	"github.com/grantforge/grantforge/pkg/config"
	"github.com/grantforge/grantforge/pkg/docparse"
	"github.com/grantforge/grantforge/pkg/eventbus"
	"github.com/grantforge/grantforge/pkg/model"
	"github.com/grantforge/grantforge/pkg/store/postgres"
)

type QuestionHandler struct {
	db     *postgres.Store
	upload config.UploadConfig
	logger *zap.Logger
	bus    *eventbus.Bus
}

func NewQuestionHandler(db *postgres.Store, upload config.UploadConfig, logger *zap.Logger, bus *eventbus.Bus) *QuestionHandler {
	return &QuestionHandler{db: db, upload: upload, logger: logger, bus: bus}
}

type questionCreateRequest struct {
	Text       string `json:"text" binding:"required"`
	Answer     string `json:"answer"`
	MaxLength  int    `json:"max_length"`
	LengthUnit string `json:"length_unit"`
}

type questionUpdateRequest struct {
	Text       *string `json:"text"`
	Answer     *string `json:"answer"`
	Status     *string `json:"status"`
	MaxLength  *int    `json:"max_length"`
	LengthUnit *string `json:"length_unit"`
}

type questionResponse struct {
	ID         string            `json:"id"`
	ProjectID  string            `json:"project_id"`
	Text       string            `json:"text"`
	Answer     string            `json:"answer"`
	Status     string            `json:"status"`
	AssigneeID *string           `json:"assignee_id,omitempty"`
	MaxLength  int               `json:"max_length"`
	LengthUnit string            `json:"length_unit"`
	Compliance compliance.Result `json:"compliance"`
	CreatedAt  string            `json:"created_at"`
	UpdatedAt  string            `json:"updated_at"`
}

// loadProject scopes the nested question routes: the project must belong to
// the caller's company.
func (h *QuestionHandler) loadProject(c *gin.Context) (*auth.Claims, *model.Project, bool) {
	claims, ok := requireClaims(c)
	if !ok {
		return nil, nil, false
	}
	companyID, ok := requireCompany(c, claims)
	if !ok {
		return nil, nil, false
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return nil, nil, false
	}

	project, err := postgres.NewProjectRepository(h.db.DB()).GetByID(c.Request.Context(), companyID, id)
	if err != nil {
		notFoundOr(c, h.logger, err, "project")
		return nil, nil, false
	}
	return claims, project, true
}

func (h *QuestionHandler) List(c *gin.Context) {
	_, project, ok := h.loadProject(c)
	if !ok {
		return
	}

	questions, err := postgres.NewQuestionRepository(h.db.DB()).ListByProject(c.Request.Context(), project.ID)
	if err != nil {
		h.logger.Error("failed to list questions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list questions"})
		return
	}

	response := make([]questionResponse, 0, len(questions))
	for i := range questions {
		response = append(response, mapQuestion(&questions[i]))
	}
	c.JSON(http.StatusOK, response)
}

func (h *QuestionHandler) Create(c *gin.Context) {
	claims, project, ok := h.loadProject(c)
	if !ok {
		return
	}
	if !canEditProject(claims, project) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner or an admin can add questions"})
		return
	}

	var req questionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	unit, ok := parseLengthUnit(c, req.LengthUnit)
	if !ok {
		return
	}

	question := &model.Question{
		ProjectID:  project.ID,
		Text:       req.Text,
		Answer:     req.Answer,
		Status:     model.QuestionPending,
		MaxLength:  req.MaxLength,
		LengthUnit: unit,
	}
	if err := postgres.NewQuestionRepository(h.db.DB()).Create(c.Request.Context(), question); err != nil {
		h.logger.Error("failed to create question", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create question"})
		return
	}

	c.JSON(http.StatusCreated, mapQuestion(question))
}

func (h *QuestionHandler) Get(c *gin.Context) {
	_, project, ok := h.loadProject(c)
	if !ok {
		return
	}
	qid, ok := parseUUIDParam(c, "qid")
	if !ok {
		return
	}

	question, err := postgres.NewQuestionRepository(h.db.DB()).GetByID(c.Request.Context(), project.ID, qid)
	if err != nil {
		notFoundOr(c, h.logger, err, "question")
		return
	}
	c.JSON(http.StatusOK, mapQuestion(question))
}

func (h *QuestionHandler) Update(c *gin.Context) {
	claims, project, ok := h.loadProject(c)
	if !ok {
		return
	}
	qid, ok := parseUUIDParam(c, "qid")
	if !ok {
		return
	}

	repo := postgres.NewQuestionRepository(h.db.DB())
	question, err := repo.GetByID(c.Request.Context(), project.ID, qid)
	if err != nil {
		notFoundOr(c, h.logger, err, "question")
		return
	}

	isAssignee := question.AssigneeID != nil && *question.AssigneeID == claims.UserUUID()
	if !isAssignee && !canEditProject(claims, project) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the assignee, owner, or an admin can edit this question"})
		return
	}

	var req questionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	update := postgres.QuestionUpdate{
		Text:      req.Text,
		Answer:    req.Answer,
		MaxLength: req.MaxLength,
	}
	if req.Status != nil {
		status := model.QuestionStatus(*req.Status)
		if !model.IsValidQuestionStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		update.Status = &status
	}
	if req.LengthUnit != nil {
		unit, ok := parseLengthUnit(c, *req.LengthUnit)
		if !ok {
			return
		}
		update.LengthUnit = &unit
	}

	updated, err := repo.Update(c.Request.Context(), project.ID, qid, update)
	if err != nil {
		notFoundOr(c, h.logger, err, "question")
		return
	}

	publish(c.Request.Context(), h.bus, h.logger, eventbus.ChannelQuestion, "question_updated", eventbus.QuestionEvent{
		QuestionID: updated.ID.String(),
		ProjectID:  project.ID.String(),
		Status:     string(updated.Status),
	})

	c.JSON(http.StatusOK, mapQuestion(updated))
}

func (h *QuestionHandler) Delete(c *gin.Context) {
	claims, project, ok := h.loadProject(c)
	if !ok {
		return
	}
	if !canEditProject(claims, project) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner or an admin can delete questions"})
		return
	}
	qid, ok := parseUUIDParam(c, "qid")
	if !ok {
		return
	}

	if err := postgres.NewQuestionRepository(h.db.DB()).Delete(c.Request.Context(), project.ID, qid); err != nil {
		notFoundOr(c, h.logger, err, "question")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type assignRequest struct {
	AssigneeID *string `json:"assignee_id"` // null unassigns
}

func (h *QuestionHandler) Assign(c *gin.Context) {
	claims, project, ok := h.loadProject(c)
	if !ok {
		return
	}
	if !canEditProject(claims, project) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner or an admin can assign questions"})
		return
	}
	qid, ok := parseUUIDParam(c, "qid")
	if !ok {
		return
	}

	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var assigneeID *uuid.UUID
	if req.AssigneeID != nil && *req.AssigneeID != "" {
		parsed, err := uuid.Parse(*req.AssigneeID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignee_id"})
			return
		}
		assignee, err := postgres.NewUserRepository(h.db.DB()).GetByID(c.Request.Context(), parsed)
		if err != nil {
			notFoundOr(c, h.logger, err, "assignee")
			return
		}
		if assignee.CompanyID == nil || *assignee.CompanyID != project.CompanyID {
			c.JSON(http.StatusForbidden, gin.H{"error": "assignee belongs to another company"})
			return
		}
		assigneeID = &parsed
	}

	question, err := postgres.NewQuestionRepository(h.db.DB()).Assign(c.Request.Context(), project.ID, qid, assigneeID, claims.UserUUID())
	if err != nil {
		notFoundOr(c, h.logger, err, "question")
		return
	}

	event := eventbus.QuestionEvent{
		QuestionID: question.ID.String(),
		ProjectID:  project.ID.String(),
		Status:     string(question.Status),
	}
	if assigneeID != nil {
		event.AssigneeID = assigneeID.String()
	}
	publish(c.Request.Context(), h.bus, h.logger, eventbus.ChannelQuestion, "question_assigned", event)

	c.JSON(http.StatusOK, mapQuestion(question))
}

func (h *QuestionHandler) ListAssignments(c *gin.Context) {
	_, project, ok := h.loadProject(c)
	if !ok {
		return
	}
	qid, ok := parseUUIDParam(c, "qid")
	if !ok {
		return
	}

	repo := postgres.NewQuestionRepository(h.db.DB())
	if _, err := repo.GetByID(c.Request.Context(), project.ID, qid); err != nil {
		notFoundOr(c, h.logger, err, "question")
		return
	}

	logs, err := repo.ListAssignmentLogs(c.Request.Context(), qid)
	if err != nil {
		h.logger.Error("failed to list assignment logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list assignments"})
		return
	}

	type logResponse struct {
		ID         string  `json:"id"`
		AssignedBy string  `json:"assigned_by"`
		AssignedTo *string `json:"assigned_to,omitempty"`
		PreviousID *string `json:"previous_assignee,omitempty"`
		CreatedAt  string  `json:"created_at"`
	}
	response := make([]logResponse, 0, len(logs))
	for _, log := range logs {
		entry := logResponse{
			ID:         log.ID.String(),
			AssignedBy: log.AssignedByID.String(),
			CreatedAt:  log.CreatedAt.UTC().Format(timeRFC3339Nano),
		}
		if log.AssignedToID != nil {
			id := log.AssignedToID.String()
			entry.AssignedTo = &id
		}
		if log.PreviousID != nil {
			id := log.PreviousID.String()
			entry.PreviousID = &id
		}
		response = append(response, entry)
	}
	c.JSON(http.StatusOK, response)
}

// ParseDocument accepts an uploaded document, extracts question/answer
// pairs heuristically, and creates questions from them. The raw document is
// retained as a company file.
func (h *QuestionHandler) ParseDocument(c *gin.Context) {
	claims, project, ok := h.loadProject(c)
	if !ok {
		return
	}
	if !canEditProject(claims, project) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner or an admin can import questions"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if header.Size > h.upload.MaxBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}

	opened, err := header.Open()
	if err != nil {
		h.logger.Error("failed to open upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}
	defer opened.Close()

	data, err := io.ReadAll(io.LimitReader(opened, h.upload.MaxBytes+1))
	if err != nil {
		h.logger.Error("failed to read upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}
	if int64(len(data)) > h.upload.MaxBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}

	file := newStoredFile(project.CompanyID, claims.UserUUID(), header.Filename, header.Header.Get("Content-Type"), data)
	if err := postgres.NewFileRepository(h.db.DB()).Create(c.Request.Context(), file); err != nil {
		h.logger.Error("failed to store file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}

	h.createParsedQuestions(c, project, string(data), file.ID.String())
}

type parseTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// ParseText runs the same extraction over pasted text.
func (h *QuestionHandler) ParseText(c *gin.Context) {
	claims, project, ok := h.loadProject(c)
	if !ok {
		return
	}
	if !canEditProject(claims, project) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner or an admin can import questions"})
		return
	}

	var req parseTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	h.createParsedQuestions(c, project, req.Text, "")
}

func (h *QuestionHandler) createParsedQuestions(c *gin.Context, project *model.Project, text, fileID string) {
	pairs := docparse.NewParser().Parse(text)

	questions := make([]*model.Question, 0, len(pairs))
	for _, pair := range pairs {
		questions = append(questions, &model.Question{
			ProjectID: project.ID,
			Text:      pair.Question,
			Answer:    pair.Answer,
			Status:    model.QuestionPending,
		})
	}

	if len(questions) > 0 {
		if err := postgres.NewQuestionRepository(h.db.DB()).CreateBatch(c.Request.Context(), questions); err != nil {
			h.logger.Error("failed to create parsed questions", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create questions"})
			return
		}
	}

	response := make([]questionResponse, 0, len(questions))
	for _, q := range questions {
		response = append(response, mapQuestion(q))
	}

	payload := gin.H{"questions": response, "parsed": len(response)}
	if fileID != "" {
		payload["file_id"] = fileID
	}
	c.JSON(http.StatusCreated, payload)
}

func parseLengthUnit(c *gin.Context, value string) (model.LengthUnit, bool) {
	switch model.LengthUnit(value) {
	case "":
		return model.UnitChars, true
	case model.UnitChars:
		return model.UnitChars, true
	case model.UnitWords:
		return model.UnitWords, true
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid length_unit"})
		return "", false
	}
}

func mapQuestion(question *model.Question) questionResponse {
	resp := questionResponse{
		ID:         question.ID.String(),
		ProjectID:  question.ProjectID.String(),
		Text:       question.Text,
		Answer:     question.Answer,
		Status:     string(question.Status),
		MaxLength:  question.MaxLength,
		LengthUnit: string(question.LengthUnit),
		Compliance: compliance.Check(question.Answer, question.MaxLength, question.LengthUnit),
		CreatedAt:  question.CreatedAt.UTC().Format(timeRFC3339Nano),
		UpdatedAt:  question.UpdatedAt.UTC().Format(timeRFC3339Nano),
	}
	if question.AssigneeID != nil {
		id := question.AssigneeID.String()
		resp.AssigneeID = &id
	}
	return resp
}
