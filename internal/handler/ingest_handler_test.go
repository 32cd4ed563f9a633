package handler

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valokuva/cms-admin-api/internal/dto"
	appErrors "github.com/valokuva/cms-admin-api/pkg/errors"
)

type ingestServiceMock struct {
	keyErr  error
	lastReq dto.IngestRequest
	actor   int64
	body    []byte
}

func (m *ingestServiceMock) VerifyKey(key string) error {
	return m.keyErr
}

func (m *ingestServiceMock) Ingest(ctx context.Context, req dto.IngestRequest, content io.Reader, actor int64) (*dto.IngestResponse, error) {
	m.lastReq = req
	m.actor = actor
	body, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	m.body = body
	return &dto.IngestResponse{FileID: 1, FileClass: "document"}, nil
}

func ingestForm(t *testing.T, fields map[string]string, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func TestIngestHandlerAcceptsUpload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &ingestServiceMock{}
	handler := NewIngestHandler(svc, validator.New())

	content := []byte("report body")
	sum := sha256.Sum256(content)
	buf, contentType := ingestForm(t, map[string]string{
		"userId":    "4",
		"filePath":  "2024/reports",
		"fileName":  "annual.pdf",
		"mimeType":  "application/pdf",
		"sha256sum": hex.EncodeToString(sum[:]),
	}, "annual.pdf", content)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/ingest", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Ingest-Key", "sekrit")
	c.Request = req

	handler.Ingest(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(4), svc.actor)
	assert.Equal(t, "annual.pdf", svc.lastReq.FileName)
	assert.Equal(t, content, svc.body)
}

func TestIngestHandlerParsesJSONMetaPart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &ingestServiceMock{}
	handler := NewIngestHandler(svc, validator.New())

	content := []byte("summer photo")
	sum := sha256.Sum256(content)
	meta := `{"userId":9,"fileName":"beach.jpg","filePath":"2024/summer","mimeType":"image/jpeg",` +
		`"sha256sum":"` + hex.EncodeToString(sum[:]) + `","galleryName":"summer","galleryDescription":"Summer 2024"}`
	buf, contentType := ingestForm(t, map[string]string{"meta": meta}, "beach.jpg", content)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/ingest", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Ingest-Key", "sekrit")
	c.Request = req

	handler.Ingest(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(9), svc.actor)
	assert.Equal(t, "summer", svc.lastReq.Gallery)
	assert.Equal(t, "Summer 2024", svc.lastReq.GalleryDesc)
	assert.Equal(t, "2024/summer", svc.lastReq.FilePath)
}

func TestIngestHandlerRejectsBadKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &ingestServiceMock{keyErr: appErrors.Clone(appErrors.ErrUnauthorized, "invalid ingest key")}
	handler := NewIngestHandler(svc, validator.New())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/ingest", nil)
	c.Request = req

	handler.Ingest(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIngestHandlerRequiresChecksum(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &ingestServiceMock{}
	handler := NewIngestHandler(svc, validator.New())

	buf, contentType := ingestForm(t, map[string]string{
		"userId":   "4",
		"fileName": "annual.pdf",
		"mimeType": "application/pdf",
	}, "annual.pdf", []byte("report body"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/ingest", buf)
	req.Header.Set("Content-Type", contentType)
	c.Request = req

	handler.Ingest(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestHandlerRequiresFilePart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &ingestServiceMock{}
	handler := NewIngestHandler(svc, validator.New())

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	require.NoError(t, writer.WriteField("userId", "4"))
	require.NoError(t, writer.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/ingest", buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.Request = req

	handler.Ingest(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
