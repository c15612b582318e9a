// Package pdftext reads the embedded text layer of PDF documents.
package pdftext

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

// Extractor implements port.NativeTextExtractor with github.com/ledongthuc/pdf.
type Extractor struct {
	log zerolog.Logger
}

// NewExtractor creates a native text extractor.
func NewExtractor(log zerolog.Logger) *Extractor {
	return &Extractor{log: log}
}

// ExtractPages returns the plain text of every page in order. Pages that cannot
// be read are returned as empty strings. Only a container that cannot be opened
// produces an error.
func (e *Extractor) ExtractPages(ctx context.Context, data []byte) (pages []string, err error) {
	if len(data) == 0 {
		return nil, nil
	}

	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("reading pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	count := reader.NumPage()
	pages = make([]string, 0, count)
	for i := 1; i <= count; i++ {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		pages = append(pages, e.pageText(reader, i))
	}
	return pages, nil
}

func (e *Extractor) pageText(reader *pdf.Reader, num int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().Int("page", num).Interface("panic", r).Msg("pdftext: page unreadable, skipping")
			text = ""
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		e.log.Warn().Int("page", num).Err(err).Msg("pdftext: failed to extract page text, skipping")
		return ""
	}
	return text
}
