package port

import (
	"context"

	"docsense/internal/domain"
)

// PageImage is a raster taken from a document, encoded as PNG.
type PageImage struct {
	Page     int // 1-based
	Index    int // position among the images of the page
	PNG      []byte
	Embedded bool
}

// OCRResult is the output of a single recognition call.
type OCRResult struct {
	Text       string
	Confidence float64 // [0,1]
	Region     *domain.Region
}

// NativeTextExtractor returns the embedded text of each page of a PDF.
// Image-only pages yield empty strings.
type NativeTextExtractor interface {
	ExtractPages(ctx context.Context, data []byte) ([]string, error)
}

// StructureParser converts a whole document into one structured text string.
type StructureParser interface {
	Parse(ctx context.Context, data []byte, kind domain.ContentKind) (string, error)
}

// PageRasterizer renders every page of a PDF to an image.
type PageRasterizer interface {
	Rasterize(ctx context.Context, data []byte) ([]PageImage, error)
}

// EmbeddedImageExtractor pulls raster images stored inside a PDF.
type EmbeddedImageExtractor interface {
	ExtractImages(ctx context.Context, data []byte) ([]PageImage, error)
}

// OCREngine recognises text in a single image.
type OCREngine interface {
	Recognize(ctx context.Context, image []byte) (*OCRResult, error)
}

// DetectionCache stores resolver output keyed by content.
type DetectionCache interface {
	Get(ctx context.Context, key string) ([]domain.Detection, error)
	Set(ctx context.Context, key string, detections []domain.Detection) error
}
