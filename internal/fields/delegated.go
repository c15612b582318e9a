package fields

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"docsense/internal/domain"
	"docsense/internal/port"
	"docsense/internal/schema"
)

// DelegatedExtractor asks a field-understanding service for every field in
// one request carrying a bounded prefix of the text.
type DelegatedExtractor struct {
	schema   *schema.Schema
	service  port.FieldService
	sentinel string
	budget   int
	log      zerolog.Logger
}

// NewDelegatedExtractor creates a delegated extractor. budget is the number
// of characters of text sent to the service; non-positive sends everything.
func NewDelegatedExtractor(s *schema.Schema, service port.FieldService, sentinel string, budget int, log zerolog.Logger) *DelegatedExtractor {
	if sentinel == "" {
		sentinel = domain.DefaultSentinel
	}
	return &DelegatedExtractor{schema: s, service: service, sentinel: sentinel, budget: budget, log: log}
}

// Extract implements Extractor.
func (d *DelegatedExtractor) Extract(ctx context.Context, text, category string) domain.ExtractedFields {
	out := newResult(category, domain.ExtractionDelegated, d.schema.Names(category))
	if !d.schema.Has(category) || len(out.Names) == 0 {
		out.Status = domain.StageSkipped
		out.Reason = "no fields declared for category"
		return out
	}

	if isBlank(text) {
		fillSentinel(&out, d.sentinel)
		out.Status = domain.StageDegraded
		out.Reason = "no text to extract from"
		return out
	}

	prefix, truncated := Truncate(text, d.budget)
	out.Truncated = truncated

	resp, err := d.service.ExtractFields(ctx, port.FieldRequest{
		Category: category,
		Fields:   out.Names,
		Text:     prefix,
	})
	if err != nil {
		d.log.Warn().Err(err).Str("category", category).Msg("delegated extraction failed, using sentinel values")
		fillSentinel(&out, d.sentinel)
		out.Status = domain.StageDegraded
		out.Reason = err.Error()
		return out
	}

	for _, name := range out.Names {
		v, ok := resp.Values[name]
		v = strings.TrimSpace(v)
		if !ok || v == "" || v == d.sentinel {
			out.Values[name] = d.sentinel
			out.Unresolved = append(out.Unresolved, name)
			continue
		}
		out.Values[name] = v
	}

	d.log.Debug().
		Str("category", category).
		Str("model", resp.ModelUsed).
		Bool("truncated", truncated).
		Int("unresolved", len(out.Unresolved)).
		Msg("delegated extraction done")
	return out
}
