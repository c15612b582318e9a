package handler_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docsense/internal/domain"
	"docsense/internal/handler"
	"docsense/internal/pipeline"
	"docsense/internal/report"
	"docsense/internal/schema"
	"docsense/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func multipartBody(t *testing.T, field string, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range names {
		part, err := writer.CreateFormFile(field, name)
		require.NoError(t, err)
		_, _ = part.Write([]byte("%PDF-1.4 test content"))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func newContext(t *testing.T, method, target string, body *bytes.Buffer, contentType string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	if body == nil {
		body = &bytes.Buffer{}
	}
	c.Request, _ = http.NewRequest(method, target, body)
	if contentType != "" {
		c.Request.Header.Set("Content-Type", contentType)
	}
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) (handler.APIResponse, map[string]interface{}) {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := resp.Data.(map[string]interface{})
	return resp, data
}

func TestDocumentHandler_Upload_Success(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(svc, pipeline.DefaultOptions())

	svc.On("Process", mock.Anything, mock.AnythingOfType("*multipart.FileHeader"), pipeline.Options{Threshold: 0.5}).
		Return(&domain.FileResult{
			DocumentName:   "test.pdf",
			Content:        "Date: 2024-01-01",
			Classification: "Facture",
			Confidence:     "0.9000",
			Fields:         map[string]string{"Date": "2024-01-01"},
		}, nil)

	body, ct := multipartBody(t, "file", "test.pdf")
	c, w := newContext(t, http.MethodPost, "/upload", body, ct)
	h.Upload(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp, data := decode(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "test.pdf", data["document_name"])
	assert.Equal(t, "Facture", data["classification"])
	assert.Equal(t, "0.9000", data["confidence"])
	assert.Equal(t, map[string]interface{}{"Date": "2024-01-01"}, data["fields"])
	svc.AssertExpectations(t)
}

func TestDocumentHandler_Upload_NoFile(t *testing.T) {
	h := handler.NewDocumentHandler(new(mocks.MockDocumentService), pipeline.DefaultOptions())

	c, w := newContext(t, http.MethodPost, "/upload", nil, "")
	h.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp, _ := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "NO_FILE", resp.Error.Code)
}

func TestDocumentHandler_Upload_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unsupported", domain.ErrUnsupportedFileType, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE"},
		{"too large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{"no text", domain.ErrAcquisitionFailed, http.StatusUnprocessableEntity, "ACQUISITION_FAILED"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockDocumentService)
			h := handler.NewDocumentHandler(svc, pipeline.DefaultOptions())
			svc.On("Process", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			body, ct := multipartBody(t, "file", "test.pdf")
			c, w := newContext(t, http.MethodPost, "/upload", body, ct)
			h.Upload(c)

			assert.Equal(t, tt.status, w.Code)
			resp, _ := decode(t, w)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestDocumentHandler_Upload_InvalidThreshold(t *testing.T) {
	h := handler.NewDocumentHandler(new(mocks.MockDocumentService), pipeline.DefaultOptions())

	for _, q := range []string{"abc", "1.5", "-1", "NaN"} {
		body, ct := multipartBody(t, "file", "test.pdf")
		c, w := newContext(t, http.MethodPost, "/upload?threshold="+q, body, ct)
		h.Upload(c)

		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		resp, _ := decode(t, w)
		assert.Equal(t, "INVALID_THRESHOLD", resp.Error.Code)
	}
}

func pngData(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDocumentHandler_DetectTextMultiple(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(svc, pipeline.DefaultOptions())

	page := 1
	imgRaw := domain.RawFile{Data: pngData(t), Filename: "b.png", Type: domain.FileTypePNG, Kind: domain.ContentKindImage}
	svc.On("ProcessBatch", mock.Anything, mock.MatchedBy(func(h []*multipart.FileHeader) bool { return len(h) == 3 }), pipeline.Options{Threshold: 0.7}).
		Return(&domain.BatchResult{
			Results: []domain.FileResult{
				{
					DocumentName: "a.pdf", Classification: "CV", Confidence: "0.8000",
					Fields:     map[string]string{"Nom": "Dupont"},
					Detections: []domain.Detection{{Text: "Nom: Dupont", Confidence: 0.9, Page: &page, Source: domain.SourceOCRPage}},
				},
				{DocumentName: "b.png", Classification: "Autre", Confidence: "0.5000", Fields: map[string]string{}, Source: &imgRaw},
			},
			Failed:          []domain.FileFailure{{DocumentName: "c.pdf", Error: domain.ErrAcquisitionFailed.Error()}},
			TotalDetections: 3,
			TotalConfidence: 2.4,
		}, nil)

	body, ct := multipartBody(t, "files", "a.pdf", "b.png", "c.pdf")
	c, w := newContext(t, http.MethodPost, "/detect-text-multiple?threshold=0.7&return_images=true", body, ct)
	h.DetectTextMultiple(c)

	require.Equal(t, http.StatusOK, w.Code)
	_, data := decode(t, w)
	assert.Equal(t, "success", data["status"])
	assert.InDelta(t, 0.8, data["average_confidence"], 1e-9)
	assert.Equal(t, float64(3), data["total_detections"])

	results := data["results"].([]interface{})
	require.Len(t, results, 2)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "a.pdf", first["filename"])
	assert.Len(t, first["detections"], 1)
	assert.NotContains(t, first, "image_base64")

	second := results[1].(map[string]interface{})
	encoded, ok := second["image_base64"].(string)
	require.True(t, ok)
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(decoded))
	assert.NoError(t, err)

	failed := data["failed"].([]interface{})
	require.Len(t, failed, 1)
	assert.Equal(t, "c.pdf", failed[0].(map[string]interface{})["filename"])
}

func TestDocumentHandler_DetectTextMultiple_NoFiles(t *testing.T) {
	h := handler.NewDocumentHandler(new(mocks.MockDocumentService), pipeline.DefaultOptions())

	body, ct := multipartBody(t, "other")
	c, w := newContext(t, http.MethodPost, "/detect-text-multiple", body, ct)
	h.DetectTextMultiple(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp, _ := decode(t, w)
	assert.Equal(t, "NO_FILES", resp.Error.Code)
}

func TestDocumentHandler_DetectTextMultiple_BadReturnImages(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(svc, pipeline.DefaultOptions())

	body, ct := multipartBody(t, "files", "a.pdf")
	c, w := newContext(t, http.MethodPost, "/detect-text-multiple?return_images=maybe", body, ct)
	h.DetectTextMultiple(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp, _ := decode(t, w)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
	svc.AssertNotCalled(t, "ProcessBatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentHandler_Report(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(svc, pipeline.DefaultOptions())
	svc.On("ProcessBatch", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.BatchResult{Results: []domain.FileResult{{DocumentName: "a.pdf", Classification: "CV"}}}, nil)

	body, ct := multipartBody(t, "files", "a.pdf")
	c, w := newContext(t, http.MethodPost, "/report?format=csv", body, ct)
	h.Report(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "docsense_report_")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), report.BOM))
	assert.Contains(t, w.Body.String(), "a.pdf,processed,CV")
}

func TestDocumentHandler_Report_BadFormat(t *testing.T) {
	h := handler.NewDocumentHandler(new(mocks.MockDocumentService), pipeline.DefaultOptions())

	c, w := newContext(t, http.MethodPost, "/report?format=pdf", nil, "")
	h.Report(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSchemaHandler(t *testing.T) {
	h := handler.NewSchemaHandler(schema.New(map[string][]schema.Field{
		"Facture": {{Name: "Date", Aliases: []string{"Date de facture"}}},
	}))

	c, w := newContext(t, http.MethodGet, "/schema", nil, "")
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"category":"Facture"`)

	c, w = newContext(t, http.MethodGet, "/schema/facture", nil, "")
	c.Params = gin.Params{{Key: "category", Value: "facture"}}
	h.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Date de facture")

	c, w = newContext(t, http.MethodGet, "/schema/recette", nil, "")
	c.Params = gin.Params{{Key: "category", Value: "recette"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthHandler(t *testing.T) {
	h := handler.NewHealthHandler(map[string]handler.HealthCheck{
		"cache": func(context.Context) error { return errors.New("down") },
	})

	c, w := newContext(t, http.MethodGet, "/", nil, "")
	h.Welcome(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(t, http.MethodGet, "/healthz", nil, "")
	h.Liveness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(t, http.MethodGet, "/readyz", nil, "")
	h.Readiness(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "cache not reachable")
}
