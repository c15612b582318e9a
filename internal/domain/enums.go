package domain

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// DefaultMaxFileSizeMB is the upload size ceiling applied before the pipeline runs.
const DefaultMaxFileSizeMB = 10

// ContentKind is the broad processing path for a file.
type ContentKind string

const (
	ContentKindPDF   ContentKind = "pdf"
	ContentKindImage ContentKind = "image"
)

// Kind returns the processing path for a file type.
func (t FileType) Kind() ContentKind {
	if t == FileTypePDF {
		return ContentKindPDF
	}
	return ContentKindImage
}

// DetectionSource records which acquisition path produced a Detection.
type DetectionSource string

const (
	SourceNative      DetectionSource = "native"
	SourceStructure   DetectionSource = "structure"
	SourceOCRPage     DetectionSource = "ocr_page"
	SourceOCREmbedded DetectionSource = "ocr_embedded"
	SourceOCRImage    DetectionSource = "ocr_image"
	SourceError       DetectionSource = "error"
)

// FallbackStrategy selects what the resolver does when a PDF has no native text.
type FallbackStrategy string

const (
	FallbackStructure FallbackStrategy = "structure"
	FallbackOptical   FallbackStrategy = "optical"
)

// ValidFallbackStrategies lists the accepted fallback strategies.
var ValidFallbackStrategies = map[FallbackStrategy]bool{
	FallbackStructure: true,
	FallbackOptical:   true,
}

// ExtractionMode selects the field extraction strategy.
type ExtractionMode string

const (
	ExtractionPattern   ExtractionMode = "pattern"
	ExtractionDelegated ExtractionMode = "delegated"
)

// StageStatus is the outcome of a single pipeline stage.
type StageStatus string

const (
	StageCompleted StageStatus = "completed"
	StageDegraded  StageStatus = "degraded"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

// FileStatus is the overall outcome for one file of a request.
type FileStatus string

const (
	FileStatusProcessed FileStatus = "processed"
	FileStatusFailed    FileStatus = "failed"
)

// DefaultCategories is the static label set used when no model supplies its own.
var DefaultCategories = []string{
	"Facture",
	"CV",
	"Article",
	"Contrat",
	"Proposition Commerciale",
	"Rapport",
	"Correspondance",
	"Autre",
}

const (
	// DefaultSentinel marks a field that could not be resolved.
	DefaultSentinel = "N/A"
	// DefaultUnknownLabel is returned when classification cannot run.
	DefaultUnknownLabel = "Unknown"
	// DefaultAcceptanceThreshold is the minimum OCR confidence for a detection to be kept.
	DefaultAcceptanceThreshold = 0.5
)
