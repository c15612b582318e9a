package domain

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// RawFile is an uploaded document as received, before any processing.
type RawFile struct {
	Data     []byte
	Filename string
	Type     FileType
	Kind     ContentKind
}

// NewRawFile builds a RawFile, inferring its type from the filename extension.
func NewRawFile(filename string, data []byte) (RawFile, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	fileType, ok := AllowedExtensions[ext]
	if !ok {
		return RawFile{}, ErrUnsupportedFileType
	}
	return RawFile{
		Data:     data,
		Filename: filename,
		Type:     fileType,
		Kind:     fileType.Kind(),
	}, nil
}

// Size returns the file size in bytes.
func (f RawFile) Size() int64 {
	return int64(len(f.Data))
}

// SizeMB returns the file size in mebibytes.
func (f RawFile) SizeMB() float64 {
	return float64(len(f.Data)) / (1024 * 1024)
}

// ContentType returns the MIME type for the file.
func (f RawFile) ContentType() string {
	return AllowedFileTypes[f.Type]
}

// Region is a bounding box in pixel coordinates of the recognised image.
type Region struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// Detection is one unit of recovered text and its provenance.
type Detection struct {
	Text            string          `json:"text"`
	Confidence      float64         `json:"confidence"`
	Page            *int            `json:"page,omitempty"`
	Region          *Region         `json:"region,omitempty"`
	IsEmbeddedImage bool            `json:"is_embedded_image"`
	Source          DetectionSource `json:"source"`
}

// IsBlank reports whether the detection carries no text.
func (d Detection) IsBlank() bool {
	return strings.TrimSpace(d.Text) == ""
}

// Accepted reports whether the detection is usable at the given threshold.
func (d Detection) Accepted(threshold float64) bool {
	return !d.IsBlank() && d.Confidence >= threshold
}

// MergedResult is the per-file aggregation of detections.
type MergedResult struct {
	Text            string  `json:"text"`
	TotalDetections int     `json:"total_detections"`
	TotalConfidence float64 `json:"total_confidence"`
}

// AverageConfidence returns TotalConfidence / TotalDetections, or 0 when there are none.
func (m MergedResult) AverageConfidence() float64 {
	if m.TotalDetections == 0 {
		return 0
	}
	return m.TotalConfidence / float64(m.TotalDetections)
}

// Classification is the outcome of the classification stage.
type Classification struct {
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	Windows    int         `json:"windows"`
	Status     StageStatus `json:"status"`
	Reason     string      `json:"reason,omitempty"`
}

// Degraded reports whether the label is a fallback rather than a model decision.
func (c Classification) Degraded() bool {
	return c.Status == StageDegraded
}

// ExtractedFields is the outcome of the field extraction stage.
// Values always holds every declared field for Category.
type ExtractedFields struct {
	Category   string            `json:"category"`
	Mode       ExtractionMode    `json:"mode"`
	Names      []string          `json:"names"`
	Values     map[string]string `json:"values"`
	Unresolved []string          `json:"unresolved,omitempty"`
	Status     StageStatus       `json:"status"`
	Reason     string            `json:"reason,omitempty"`
	Truncated  bool              `json:"truncated,omitempty"`
}

// Resolved reports whether the named field holds an extracted value.
func (e ExtractedFields) Resolved(name string) bool {
	if _, ok := e.Values[name]; !ok {
		return false
	}
	for _, u := range e.Unresolved {
		if u == name {
			return false
		}
	}
	return true
}

// StageReport records how one pipeline stage ended for a file.
type StageReport struct {
	Stage  string      `json:"stage"`
	Status StageStatus `json:"status"`
	Reason string      `json:"reason,omitempty"`
}

// Pipeline stage names.
const (
	StageAcquisition    = "acquisition"
	StageClassification = "classification"
	StageExtraction     = "extraction"
)

// FileResult is the record returned to the caller for one processed file.
type FileResult struct {
	DocumentName   string            `json:"document_name"`
	Content        string            `json:"content"`
	Classification string            `json:"classification"`
	Confidence     string            `json:"confidence"`
	Fields         map[string]string `json:"fields"`

	Detections []Detection     `json:"-"`
	Merged     MergedResult    `json:"-"`
	Class      Classification  `json:"-"`
	Extraction ExtractedFields `json:"-"`
	Stages     []StageReport   `json:"-"`
	Duration   time.Duration   `json:"-"`
	Source     *RawFile        `json:"-"`
}

// FileFailure records a file of a batch that did not produce a result.
type FileFailure struct {
	DocumentName string        `json:"filename"`
	Error        string        `json:"error"`
	Stages       []StageReport `json:"-"`
}

// BatchResult is the outcome of processing several files in one request.
// Aggregates only cover successful files.
type BatchResult struct {
	Results         []FileResult  `json:"results"`
	Failed          []FileFailure `json:"failed"`
	TotalDetections int           `json:"total_detections"`
	TotalConfidence float64       `json:"-"`
}

// AverageConfidence returns the detection-weighted mean confidence across successful files.
func (b BatchResult) AverageConfidence() float64 {
	if b.TotalDetections == 0 {
		return 0
	}
	return b.TotalConfidence / float64(b.TotalDetections)
}

// FormatConfidence renders a confidence rounded to four decimals.
func FormatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'f', 4, 64)
}

// SanitizeFilename drops directory components and replaces spaces with underscores.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	return strings.ReplaceAll(name, " ", "_")
}
