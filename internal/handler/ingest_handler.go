package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/valokuva/cms-admin-api/internal/dto"
	appErrors "github.com/valokuva/cms-admin-api/pkg/errors"
	"github.com/valokuva/cms-admin-api/pkg/response"
)

// ingestKeyHeader authenticates the desktop publishing tool.
const ingestKeyHeader = "X-Ingest-Key"

type ingestService interface {
	VerifyKey(key string) error
	Ingest(ctx context.Context, req dto.IngestRequest, content io.Reader, actor int64) (*dto.IngestResponse, error)
}

// IngestHandler receives file uploads from the publishing tool.
type IngestHandler struct {
	service  ingestService
	validate *validator.Validate
}

// NewIngestHandler builds a new handler.
func NewIngestHandler(service ingestService, validate *validator.Validate) *IngestHandler {
	return &IngestHandler{service: service, validate: validate}
}

// Ingest godoc
// @Summary Ingest one file
// @Tags Ingest
// @Accept multipart/form-data
// @Produce json
// @Param X-Ingest-Key header string true "Pre-shared ingest key"
// @Param meta formData string true "JSON metadata (fileName, mimeType, sha256sum, userId, ...)"
// @Param file formData file true "File content"
// @Success 200 {object} response.Envelope
// @Router /ingest [post]
func (h *IngestHandler) Ingest(c *gin.Context) {
	if err := h.service.VerifyKey(c.GetHeader(ingestKeyHeader)); err != nil {
		response.Error(c, err)
		return
	}

	var req dto.IngestRequest
	if meta := c.PostForm("meta"); meta != "" {
		if err := json.Unmarshal([]byte(meta), &req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid ingest metadata"))
			return
		}
	} else if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid ingest form"))
		return
	}
	upload, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "missing file part"))
		return
	}
	if req.FileName == "" {
		req.FileName = upload.Filename
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid ingest payload"))
		return
	}
	content, err := upload.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload"))
		return
	}
	defer content.Close() //nolint:errcheck

	result, err := h.service.Ingest(c.Request.Context(), req, content, req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusCreated
	if result.Updated {
		status = http.StatusOK
	}
	response.JSON(c, status, result, nil)
}
