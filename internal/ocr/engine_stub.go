//go:build !ocr

package ocr

import (
	"context"

	"docsense/internal/port"
)

// Engine is the placeholder used when OCR support is not compiled in.
type Engine struct{}

// NewEngine returns an engine that reports ErrOCRNotEnabled on every call.
func NewEngine(languages string) (*Engine, error) {
	return &Engine{}, nil
}

// Close is a no-op.
func (e *Engine) Close() error {
	return nil
}

// Recognize always fails with ErrOCRNotEnabled.
func (e *Engine) Recognize(ctx context.Context, image []byte) (*port.OCRResult, error) {
	return nil, ErrOCRNotEnabled
}
