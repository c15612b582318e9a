// Package ocr recognises text in raster images.
//
// The Tesseract-backed engine is compiled only with the "ocr" build tag and
// requires libtesseract on the host:
//
//	go build -tags ocr ./...
//
// Without the tag, NewEngine returns an engine whose Recognize always fails
// with ErrOCRNotEnabled, so the rest of the pipeline still builds and runs.
package ocr

import (
	"errors"
	"image"
	"strings"

	"docsense/internal/domain"
)

// ErrOCRNotEnabled is returned when the binary was built without OCR support.
var ErrOCRNotEnabled = errors.New("ocr support not enabled; rebuild with -tags ocr")

// Word is a recognised word with the engine's 0-100 confidence.
type Word struct {
	Text       string
	Confidence float64
	Box        image.Rectangle
}

// Summarize returns the mean word confidence scaled to [0,1] and the union of
// the word boxes. Blank words are ignored.
func Summarize(words []Word) (float64, *domain.Region) {
	var sum float64
	var n int
	var union image.Rectangle
	for _, w := range words {
		if strings.TrimSpace(w.Text) == "" {
			continue
		}
		sum += w.Confidence
		n++
		union = union.Union(w.Box)
	}
	if n == 0 {
		return 0, nil
	}

	conf := sum / float64(n) / 100
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	var region *domain.Region
	if !union.Empty() {
		region = &domain.Region{X0: union.Min.X, Y0: union.Min.Y, X1: union.Max.X, Y1: union.Max.Y}
	}
	return conf, region
}

// Languages splits a Tesseract language spec such as "fra+eng".
func Languages(spec string) []string {
	var out []string
	for _, l := range strings.Split(spec, "+") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return []string{"eng"}
	}
	return out
}
