// Package acquire turns uploaded files into text detections and aggregates them.
package acquire

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"docsense/internal/domain"
	"docsense/internal/port"
	"docsense/internal/raster"
)

// TextSource produces the detections of one file.
type TextSource interface {
	Resolve(ctx context.Context, raw domain.RawFile, threshold float64) []domain.Detection
}

// Collaborators are the capabilities the resolver chooses between.
type Collaborators struct {
	Native    port.NativeTextExtractor
	Structure port.StructureParser
	Rasterer  port.PageRasterizer
	Embedded  port.EmbeddedImageExtractor
	OCR       port.OCREngine
}

// Resolver decides how text is obtained from a file: the native text layer
// first, then either a whole-document structure parse or per-image OCR.
type Resolver struct {
	c        Collaborators
	fallback domain.FallbackStrategy
	maxWidth int
	log      zerolog.Logger
}

// NewResolver creates a resolver using the given fallback strategy for PDFs
// without native text and for image inputs.
func NewResolver(c Collaborators, fallback domain.FallbackStrategy, maxWidth int, log zerolog.Logger) *Resolver {
	if !domain.ValidFallbackStrategies[fallback] {
		fallback = domain.FallbackOptical
	}
	return &Resolver{c: c, fallback: fallback, maxWidth: maxWidth, log: log}
}

// Strategy returns the configured fallback strategy.
func (r *Resolver) Strategy() domain.FallbackStrategy {
	return r.fallback
}

// Resolve returns the detections of raw. It never fails: unreadable units are
// skipped, and a container that cannot be opened at all yields a single
// zero-confidence detection carrying the error message.
func (r *Resolver) Resolve(ctx context.Context, raw domain.RawFile, threshold float64) []domain.Detection {
	log := r.log.With().Str("file", raw.Filename).Str("kind", string(raw.Kind)).Logger()

	if raw.Kind == domain.ContentKindImage {
		return r.resolveImage(ctx, raw, threshold, log)
	}
	return r.resolvePDF(ctx, raw, threshold, log)
}

func (r *Resolver) resolvePDF(ctx context.Context, raw domain.RawFile, threshold float64, log zerolog.Logger) []domain.Detection {
	pages, err := r.c.Native.ExtractPages(ctx, raw.Data)
	if err != nil {
		log.Error().Err(err).Msg("resolver: pdf could not be opened")
		return []domain.Detection{{Text: err.Error(), Confidence: 0, Source: domain.SourceError}}
	}

	if text := strings.TrimSpace(strings.Join(pages, "\n")); text != "" {
		log.Debug().Int("pages", len(pages)).Msg("resolver: using native text layer")
		return []domain.Detection{{Text: text, Confidence: 1.0, Source: domain.SourceNative}}
	}

	log.Info().Str("fallback", string(r.fallback)).Msg("resolver: no native text, falling back")
	if r.fallback == domain.FallbackStructure {
		return r.parseWhole(ctx, raw, log)
	}
	return r.optical(ctx, raw.Data, threshold, log)
}

func (r *Resolver) resolveImage(ctx context.Context, raw domain.RawFile, threshold float64, log zerolog.Logger) []domain.Detection {
	if r.fallback == domain.FallbackStructure {
		return r.parseWhole(ctx, raw, log)
	}

	img, err := raster.NormalizeImage(raw.Data, r.maxWidth)
	if err != nil {
		log.Warn().Err(err).Msg("resolver: image could not be decoded, skipping")
		return nil
	}
	det, ok := r.recognize(ctx, img, domain.SourceOCRImage, nil, false, log)
	if !ok || !det.Accepted(threshold) {
		log.Info().Float64("confidence", det.Confidence).Float64("threshold", threshold).Msg("resolver: image detection rejected")
		return nil
	}
	return []domain.Detection{det}
}

func (r *Resolver) parseWhole(ctx context.Context, raw domain.RawFile, log zerolog.Logger) []domain.Detection {
	text, err := r.c.Structure.Parse(ctx, raw.Data, raw.Kind)
	if err != nil {
		log.Warn().Err(err).Msg("resolver: structure parse failed")
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return []domain.Detection{{Text: text, Confidence: 1.0, Source: domain.SourceStructure}}
}

// optical recognises rendered pages first, then embedded images, keeping only
// detections that meet the threshold.
func (r *Resolver) optical(ctx context.Context, data []byte, threshold float64, log zerolog.Logger) []domain.Detection {
	pages, err := r.c.Rasterer.Rasterize(ctx, data)
	if err != nil {
		log.Warn().Err(err).Msg("resolver: page rasterization failed")
	}
	embedded, err := r.c.Embedded.ExtractImages(ctx, data)
	if err != nil {
		log.Warn().Err(err).Msg("resolver: embedded image extraction failed")
	}

	var out []domain.Detection
	for _, group := range [][]port.PageImage{pages, embedded} {
		for _, img := range group {
			if ctx.Err() != nil {
				return out
			}
			page := img.Page
			source := domain.SourceOCRPage
			if img.Embedded {
				source = domain.SourceOCREmbedded
			}
			det, ok := r.recognize(ctx, img.PNG, source, &page, img.Embedded, log)
			if !ok {
				continue
			}
			if !det.Accepted(threshold) {
				log.Debug().Int("page", page).Bool("embedded", img.Embedded).Float64("confidence", det.Confidence).
					Msg("resolver: detection below threshold or blank")
				continue
			}
			out = append(out, det)
		}
	}
	return out
}

func (r *Resolver) recognize(ctx context.Context, img []byte, source domain.DetectionSource, page *int, embedded bool, log zerolog.Logger) (domain.Detection, bool) {
	res, err := r.c.OCR.Recognize(ctx, img)
	if err != nil {
		ev := log.Warn().Err(err).Str("source", string(source))
		if page != nil {
			ev = ev.Int("page", *page)
		}
		ev.Msg("resolver: recognition failed, skipping")
		return domain.Detection{}, false
	}
	return domain.Detection{
		Text:            strings.TrimSpace(res.Text),
		Confidence:      clamp(res.Confidence),
		Page:            page,
		Region:          res.Region,
		IsEmbeddedImage: embedded,
		Source:          source,
	}, true
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
