package handler_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"takeoff/internal/domain"
	"takeoff/internal/handler"
	"takeoff/mocks"
)

func newFileRouter(svc *mocks.MockFileService) *gin.Engine {
	h := handler.NewFileHandler(svc)
	r := gin.New()
	r.POST("/files/upload", h.Upload)
	r.GET("/files", h.List)
	r.GET("/files/:id", h.GetByID)
	r.GET("/files/:id/url", h.GetDownloadURL)
	r.DELETE("/files/:id", h.Delete)
	return r
}

func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.Copy(fw, bytes.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadHandler_Created(t *testing.T) {
	meta := &domain.FileMeta{ID: uuid.New(), OriginalName: "plans.pdf", Status: domain.FileStatusUploaded}

	svc := new(mocks.MockFileService)
	svc.On("Upload", mock.Anything, mock.AnythingOfType("service.FileUploadInput")).Return(meta, nil)

	body, contentType := multipartUpload(t, "file", "plans.pdf", []byte("%PDF-1.7"))
	req := httptest.NewRequest(http.MethodPost, "/files/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newFileRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, decodeResponse(t, rec).Success)
}

func TestUploadHandler_MissingFileField(t *testing.T) {
	body, contentType := multipartUpload(t, "wrong_field", "plans.pdf", []byte("%PDF-1.7"))
	req := httptest.NewRequest(http.MethodPost, "/files/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newFileRouter(new(mocks.MockFileService)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_FILE", decodeResponse(t, rec).Error.Code)
}

func TestUploadHandler_UnsupportedType(t *testing.T) {
	svc := new(mocks.MockFileService)
	svc.On("Upload", mock.Anything, mock.Anything).Return(nil, domain.ErrUnsupportedFileType)

	body, contentType := multipartUpload(t, "file", "malware.exe", []byte("MZ"))
	req := httptest.NewRequest(http.MethodPost, "/files/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newFileRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", decodeResponse(t, rec).Error.Code)
}

func TestUploadHandler_FileTooLarge(t *testing.T) {
	svc := new(mocks.MockFileService)
	svc.On("Upload", mock.Anything, mock.Anything).Return(nil, domain.ErrFileTooLarge)

	body, contentType := multipartUpload(t, "file", "plans.pdf", []byte("%PDF-1.7"))
	req := httptest.NewRequest(http.MethodPost, "/files/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newFileRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestGetFileHandler_NotFound(t *testing.T) {
	fileID := uuid.New()
	svc := new(mocks.MockFileService)
	svc.On("GetByID", mock.Anything, fileID).Return(nil, domain.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/files/"+fileID.String(), nil)
	rec := httptest.NewRecorder()
	newFileRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDownloadURLHandler(t *testing.T) {
	fileID := uuid.New()
	svc := new(mocks.MockFileService)
	svc.On("GetDownloadURL", mock.Anything, fileID).Return("https://s3.example.com/signed", nil)

	req := httptest.NewRequest(http.MethodGet, "/files/"+fileID.String()+"/url", nil)
	rec := httptest.NewRecorder()
	newFileRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "https://s3.example.com/signed", data["url"])
}

func TestDeleteFileHandler(t *testing.T) {
	fileID := uuid.New()
	svc := new(mocks.MockFileService)
	svc.On("Delete", mock.Anything, fileID).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/files/"+fileID.String(), nil)
	rec := httptest.NewRecorder()
	newFileRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertCalled(t, "Delete", mock.Anything, fileID)
}

func TestListFilesHandler(t *testing.T) {
	svc := new(mocks.MockFileService)
	svc.On("List", mock.Anything, 10, 50).
		Return([]domain.FileMeta{{ID: uuid.New()}}, 31, nil)

	req := httptest.NewRequest(http.MethodGet, "/files?offset=10&limit=50", nil)
	rec := httptest.NewRecorder()
	newFileRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 31, resp.Meta.Total)
	assert.Equal(t, 10, resp.Meta.Offset)
}
