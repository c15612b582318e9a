package pdftext_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"docsense/internal/pdftext"
)

func TestExtractPages_EmptyInput(t *testing.T) {
	e := pdftext.NewExtractor(zerolog.Nop())

	pages, err := e.ExtractPages(context.Background(), nil)

	assert.NoError(t, err)
	assert.Empty(t, pages)
}

func TestExtractPages_NotAPDF(t *testing.T) {
	e := pdftext.NewExtractor(zerolog.Nop())

	pages, err := e.ExtractPages(context.Background(), []byte("this is plainly not a pdf document"))

	assert.Error(t, err)
	assert.Empty(t, pages)
}
