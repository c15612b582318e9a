package handler

import (
	"bytes"
	"encoding/base64"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docsense/internal/domain"
	"docsense/internal/pipeline"
	"docsense/internal/raster"
	"docsense/internal/report"
	"docsense/internal/service"
)

// DocumentHandler handles document processing endpoints.
type DocumentHandler struct {
	docService service.DocumentService
	defaults   pipeline.Options
}

// NewDocumentHandler creates a new DocumentHandler. defaults supplies the
// threshold used when a request omits it.
func NewDocumentHandler(docService service.DocumentService, defaults pipeline.Options) *DocumentHandler {
	return &DocumentHandler{docService: docService, defaults: defaults}
}

// DetectResult is one processed file of a multi-file response.
type DetectResult struct {
	Filename       string             `json:"filename"`
	Detections     []domain.Detection `json:"detections"`
	Classification string             `json:"classification"`
	Confidence     string             `json:"confidence"`
	Fields         map[string]string  `json:"fields"`
	ImageBase64    string             `json:"image_base64,omitempty"`
}

// DetectResponse is the body of a multi-file response.
type DetectResponse struct {
	Status            string               `json:"status"`
	AverageConfidence float64              `json:"average_confidence"`
	TotalDetections   int                  `json:"total_detections"`
	Results           []DetectResult       `json:"results"`
	Failed            []domain.FileFailure `json:"failed"`
}

// Upload handles POST /upload with a single "file" form field.
func (h *DocumentHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			HandleError(c, domain.ErrFileTooLarge)
			return
		}
		RespondError(c, http.StatusBadRequest, "NO_FILE", "file is required")
		return
	}

	opts, ok := h.options(c)
	if !ok {
		return
	}

	result, err := h.docService.Process(c.Request.Context(), header, opts)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

// DetectTextMultiple handles POST /detect-text-multiple with one or more "files" form fields.
func (h *DocumentHandler) DetectTextMultiple(c *gin.Context) {
	returnImages, err := strconv.ParseBool(c.DefaultQuery("return_images", "false"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_PARAMETER", "return_images must be a boolean")
		return
	}

	batch, ok := h.processForm(c)
	if !ok {
		return
	}

	resp := DetectResponse{
		Status:            "success",
		AverageConfidence: round4(batch.AverageConfidence()),
		TotalDetections:   batch.TotalDetections,
		Results:           make([]DetectResult, 0, len(batch.Results)),
		Failed:            batch.Failed,
	}
	if resp.Failed == nil {
		resp.Failed = []domain.FileFailure{}
	}
	for i := range batch.Results {
		r := &batch.Results[i]
		item := DetectResult{
			Filename:       r.DocumentName,
			Detections:     r.Detections,
			Classification: r.Classification,
			Confidence:     r.Confidence,
			Fields:         r.Fields,
		}
		if item.Detections == nil {
			item.Detections = []domain.Detection{}
		}
		if returnImages && r.Source != nil && r.Source.Kind == domain.ContentKindImage {
			if png, err := raster.NormalizeImage(r.Source.Data, 0); err == nil {
				item.ImageBase64 = base64.StdEncoding.EncodeToString(png)
			}
		}
		resp.Results = append(resp.Results, item)
	}
	RespondOK(c, resp)
}

// Report handles POST /report?format=csv|xlsx and returns the batch summary as a download.
func (h *DocumentHandler) Report(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	if format != "csv" && format != "xlsx" {
		RespondError(c, http.StatusBadRequest, "INVALID_PARAMETER", "format must be csv or xlsx")
		return
	}

	batch, ok := h.processForm(c)
	if !ok {
		return
	}

	filename := report.BuildFilename(format, time.Now())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if format == "xlsx" {
		data, err := report.XLSX(batch)
		if err != nil {
			HandleError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, batch); err != nil {
		HandleError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *DocumentHandler) processForm(c *gin.Context) (*domain.BatchResult, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		if isTooLarge(err) {
			HandleError(c, domain.ErrFileTooLarge)
			return nil, false
		}
		RespondError(c, http.StatusBadRequest, "NO_FILES", "multipart form with files is required")
		return nil, false
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		HandleError(c, domain.ErrNoFiles)
		return nil, false
	}

	opts, ok := h.options(c)
	if !ok {
		return nil, false
	}

	batch, err := h.docService.ProcessBatch(c.Request.Context(), headers, opts)
	if err != nil {
		HandleError(c, err)
		return nil, false
	}
	return batch, true
}

func (h *DocumentHandler) options(c *gin.Context) (pipeline.Options, bool) {
	opts := h.defaults
	if raw := c.Query("threshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			HandleError(c, domain.ErrInvalidThreshold)
			return opts, false
		}
		opts.Threshold = threshold
	}
	if err := opts.Validate(); err != nil {
		HandleError(c, err)
		return opts, false
	}
	return opts, true
}

func isTooLarge(err error) bool {
	status, _, _ := MapDomainError(err)
	return status == http.StatusRequestEntityTooLarge || strings.Contains(err.Error(), "request body too large")
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
