// Package raster renders PDF pages to images and prepares images for OCR.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	"image/png"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"

	"docsense/internal/port"
)

// Rasterizer implements port.PageRasterizer with MuPDF via go-fitz.
type Rasterizer struct {
	maxWidth int
	log      zerolog.Logger
}

// NewRasterizer creates a rasterizer that downscales pages wider than maxWidth.
// A maxWidth of 0 keeps the native render size.
func NewRasterizer(maxWidth int, log zerolog.Logger) *Rasterizer {
	return &Rasterizer{maxWidth: maxWidth, log: log}
}

// Rasterize renders each page to PNG. Pages that fail to render are skipped.
func (r *Rasterizer) Rasterize(ctx context.Context, data []byte) ([]port.PageImage, error) {
	if len(data) == 0 {
		return nil, nil
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening pdf for rasterization: %w", err)
	}
	defer func() { _ = doc.Close() }()

	count := doc.NumPage()
	images := make([]port.PageImage, 0, count)
	for n := 0; n < count; n++ {
		if err := ctx.Err(); err != nil {
			return images, err
		}

		img, err := doc.Image(n)
		if err != nil {
			r.log.Warn().Int("page", n+1).Err(err).Msg("raster: failed to render page, skipping")
			continue
		}
		encoded, err := EncodePNG(Downscale(img, r.maxWidth))
		if err != nil {
			r.log.Warn().Int("page", n+1).Err(err).Msg("raster: failed to encode page, skipping")
			continue
		}
		images = append(images, port.PageImage{Page: n + 1, PNG: encoded})
	}
	return images, nil
}

// Decode decodes PNG or JPEG bytes.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// Downscale shrinks img proportionally so its width is at most maxWidth.
func Downscale(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	height := b.Dy() * maxWidth / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// NormalizeImage decodes an uploaded image, bounds its width and re-encodes it as PNG.
func NormalizeImage(data []byte, maxWidth int) ([]byte, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return EncodePNG(Downscale(img, maxWidth))
}
