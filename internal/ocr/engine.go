//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"docsense/internal/port"
)

// Engine implements port.OCREngine with Tesseract. The underlying client is not
// safe for concurrent use, so calls are serialized.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewEngine creates a Tesseract engine for the given language spec (e.g. "fra+eng").
func NewEngine(languages string) (*Engine, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(Languages(languages)...); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("setting ocr language: %w", err)
	}
	return &Engine{client: client}, nil
}

// Close releases the Tesseract client.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Recognize runs OCR on PNG/JPEG bytes.
func (e *Engine) Recognize(ctx context.Context, image []byte) (*port.OCRResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("setting ocr image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return nil, fmt.Errorf("recognizing text: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("reading word confidences: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{Text: b.Word, Confidence: b.Confidence, Box: b.Box})
	}
	conf, region := Summarize(words)

	return &port.OCRResult{
		Text:       Normalize(text),
		Confidence: conf,
		Region:     region,
	}, nil
}
