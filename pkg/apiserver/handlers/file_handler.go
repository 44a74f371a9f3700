package handlers

import (
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grantforge/grantforge/pkg/config"
	"github.com/grantforge/grantforge/pkg/metrics"
	"github.com/grantforge/grantforge/pkg/model"
	"github.com/grantforge/grantforge/pkg/store/postgres"
)

type FileHandler struct {
	db     *postgres.Store
	upload config.UploadConfig
	logger *zap.Logger
}

func NewFileHandler(db *postgres.Store, upload config.UploadConfig, logger *zap.Logger) *FileHandler {
	return &FileHandler{db: db, upload: upload, logger: logger}
}

type fileResponse struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	MimeType  string `json:"mime_type"`
	Size      int64  `json:"size"`
	Uploader  string `json:"uploader_id"`
	CreatedAt string `json:"created_at"`
}

func (h *FileHandler) Upload(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	companyID, ok := requireCompany(c, claims)
	if !ok {
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

	file := newStoredFile(companyID, claims.UserUUID(), header.Filename, header.Header.Get("Content-Type"), data)
	if err := postgres.NewFileRepository(h.db.DB()).Create(c.Request.Context(), file); err != nil {
		h.logger.Error("failed to store file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}

	metrics.UploadBytes.Add(float64(len(data)))
	c.JSON(http.StatusCreated, mapFile(file))
}

func (h *FileHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	companyID, ok := requireCompany(c, claims)
	if !ok {
		return
	}

	files, err := postgres.NewFileRepository(h.db.DB()).ListByCompany(c.Request.Context(), companyID)
	if err != nil {
		h.logger.Error("failed to list files", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list files"})
		return
	}

	response := make([]fileResponse, 0, len(files))
	for i := range files {
		response = append(response, mapFile(&files[i]))
	}
	c.JSON(http.StatusOK, response)
}

func (h *FileHandler) Download(c *gin.Context) {
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

	file, err := postgres.NewFileRepository(h.db.DB()).GetByID(c.Request.Context(), companyID, id)
	if err != nil {
		notFoundOr(c, h.logger, err, "file")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.MimeType, file.Data)
}

// newStoredFile sniffs the mimetype from content when the client did not
// declare one.
func newStoredFile(companyID, uploaderID uuid.UUID, filename, declaredType string, data []byte) *model.File {
	mimeType := declaredType
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimetype.Detect(data).String()
	}
	return &model.File{
		CompanyID:  companyID,
		UploaderID: uploaderID,
		Filename:   filename,
		MimeType:   mimeType,
		Size:       int64(len(data)),
		Data:       data,
	}
}

func mapFile(file *model.File) fileResponse {
	return fileResponse{
		ID:        file.ID.String(),
		Filename:  file.Filename,
		MimeType:  file.MimeType,
		Size:      file.Size,
		Uploader:  file.UploaderID.String(),
		CreatedAt: file.CreatedAt.UTC().Format(timeRFC3339Nano),
	}
}
