// Package docparse converts whole documents into structured text and pulls
// embedded images out of PDFs, using github.com/tsawler/tabula.
package docparse

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tsawler/tabula"
	"github.com/tsawler/tabula/reader"

	"docsense/internal/domain"
	"docsense/internal/port"
	"docsense/internal/raster"
)

// Parser implements port.StructureParser and port.EmbeddedImageExtractor.
// Images have no structure layer, so whole-image parses are delegated to the
// OCR engine.
type Parser struct {
	ocr      port.OCREngine
	maxWidth int
	log      zerolog.Logger
}

// NewParser creates a structure parser.
func NewParser(ocr port.OCREngine, maxWidth int, log zerolog.Logger) *Parser {
	return &Parser{ocr: ocr, maxWidth: maxWidth, log: log}
}

// Parse returns a markdown rendering of a PDF, or the recognised text of an image.
func (p *Parser) Parse(ctx context.Context, data []byte, kind domain.ContentKind) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	if kind == domain.ContentKindImage {
		img, err := raster.NormalizeImage(data, p.maxWidth)
		if err != nil {
			return "", err
		}
		res, err := p.ocr.Recognize(ctx, img)
		if err != nil {
			return "", fmt.Errorf("parsing image: %w", err)
		}
		return res.Text, nil
	}

	var markdown string
	err := withReader(data, func(r *reader.Reader) error {
		md, warnings, err := tabula.FromReader(r).ToMarkdown()
		if err != nil {
			return fmt.Errorf("converting pdf to markdown: %w", err)
		}
		if len(warnings) > 0 {
			p.log.Debug().Int("warnings", len(warnings)).Msg("docparse: markdown conversion reported warnings")
		}
		markdown = strings.TrimSpace(md)
		return nil
	})
	return markdown, err
}

// ExtractImages returns every decodable image XObject of a PDF as PNG, in page
// order and by resource name within a page. Unreadable pages and images are skipped.
func (p *Parser) ExtractImages(ctx context.Context, data []byte) ([]port.PageImage, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var out []port.PageImage
	err := withReader(data, func(r *reader.Reader) error {
		count, err := r.PageCount()
		if err != nil {
			return fmt.Errorf("counting pages: %w", err)
		}
		for i := 0; i < count; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			out = append(out, p.pageImages(r, i)...)
		}
		return nil
	})
	return out, err
}

func (p *Parser) pageImages(r *reader.Reader, index int) []port.PageImage {
	page, err := r.GetPage(index)
	if err != nil {
		p.log.Warn().Int("page", index+1).Err(err).Msg("docparse: failed to load page, skipping")
		return nil
	}
	images, err := r.ExtractPageImages(page)
	if err != nil {
		p.log.Warn().Int("page", index+1).Err(err).Msg("docparse: failed to read page images, skipping")
		return nil
	}
	sort.Slice(images, func(a, b int) bool { return images[a].Name < images[b].Name })

	var out []port.PageImage
	for j := range images {
		encoded, err := images[j].ToPNG()
		if err != nil {
			p.log.Warn().Int("page", index+1).Str("image", images[j].Name).Err(err).Msg("docparse: failed to convert image, skipping")
			continue
		}
		if p.maxWidth > 0 && images[j].Width > p.maxWidth {
			if encoded, err = raster.NormalizeImage(encoded, p.maxWidth); err != nil {
				p.log.Warn().Int("page", index+1).Str("image", images[j].Name).Err(err).Msg("docparse: failed to resize image, skipping")
				continue
			}
		}
		out = append(out, port.PageImage{Page: index + 1, Index: len(out), PNG: encoded, Embedded: true})
	}
	return out
}

// withReader spools data to a temporary file, since tabula reads from paths.
func withReader(data []byte, fn func(r *reader.Reader) error) (err error) {
	tmp, err := os.CreateTemp("", "docsense-*.pdf")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	path := tmp.Name()
	defer func() { _ = os.Remove(path) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	r, err := reader.Open(path)
	if err != nil {
		return fmt.Errorf("opening pdf: %w", err)
	}
	defer func() { _ = r.Close() }()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("reading pdf: %v", rec)
		}
	}()
	return fn(r)
}
