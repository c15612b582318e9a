// Package fields fills the schema fields of a classified document.
package fields

import (
	"context"
	"strings"

	"docsense/internal/domain"
)

// Extractor fills the declared fields of category from text. It never fails:
// unresolved fields carry the sentinel value.
type Extractor interface {
	Extract(ctx context.Context, text, category string) domain.ExtractedFields
}

func newResult(category string, mode domain.ExtractionMode, names []string) domain.ExtractedFields {
	if names == nil {
		names = []string{}
	}
	return domain.ExtractedFields{
		Category: category,
		Mode:     mode,
		Names:    names,
		Values:   make(map[string]string, len(names)),
		Status:   domain.StageCompleted,
	}
}

func fillSentinel(out *domain.ExtractedFields, sentinel string) {
	out.Unresolved = out.Unresolved[:0]
	for _, name := range out.Names {
		out.Values[name] = sentinel
		out.Unresolved = append(out.Unresolved, name)
	}
}

// Truncate returns at most budget runes of text and whether anything was cut.
// A non-positive budget disables truncation.
func Truncate(text string, budget int) (string, bool) {
	if budget <= 0 {
		return text, false
	}
	n := 0
	for i := range text {
		if n == budget {
			return text[:i], true
		}
		n++
	}
	return text, false
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
