package fields

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"docsense/internal/domain"
	"docsense/internal/schema"
)

// A capitalized word directly followed by a separator starts a new field.
var nextLabel = regexp.MustCompile(`(?:^|[ \t])(\p{Lu}[\p{L}\p{N}_'’-]*)[ \t]*[:=]`)

// PatternExtractor resolves "Label: value" and "Label = value" pairs.
type PatternExtractor struct {
	schema   *schema.Schema
	sentinel string
	log      zerolog.Logger

	labels map[string]*regexp.Regexp // per label, case-insensitive
	stops  map[string]*regexp.Regexp // per category, every known label
}

// NewPatternExtractor compiles the label patterns of every category in s.
func NewPatternExtractor(s *schema.Schema, sentinel string, log zerolog.Logger) *PatternExtractor {
	if sentinel == "" {
		sentinel = domain.DefaultSentinel
	}
	p := &PatternExtractor{
		schema:   s,
		sentinel: sentinel,
		log:      log,
		labels:   make(map[string]*regexp.Regexp),
		stops:    make(map[string]*regexp.Regexp),
	}
	for _, c := range s.Categories() {
		var all []string
		for _, f := range s.Fields(c) {
			for _, label := range f.Labels() {
				label = strings.TrimSpace(label)
				if label == "" {
					continue
				}
				all = append(all, label)
				if _, ok := p.labels[label]; !ok {
					p.labels[label] = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(label) + `[ \t]*[:=]`)
				}
			}
		}
		if re := stopPattern(all); re != nil {
			p.stops[strings.ToLower(c)] = re
		}
	}
	return p
}

// stopPattern matches any of labels followed by a separator, longest first.
func stopPattern(labels []string) *regexp.Regexp {
	if len(labels) == 0 {
		return nil
	}
	sorted := append([]string(nil), labels...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, len(sorted))
	for i, l := range sorted {
		quoted[i] = regexp.QuoteMeta(l)
	}
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])(` + strings.Join(quoted, "|") + `)[ \t]*[:=]`)
}

// Extract implements Extractor.
func (p *PatternExtractor) Extract(_ context.Context, text, category string) domain.ExtractedFields {
	out := newResult(category, domain.ExtractionPattern, p.schema.Names(category))
	if !p.schema.Has(category) {
		out.Status = domain.StageSkipped
		out.Reason = "no fields declared for category"
		return out
	}

	stop := p.stops[strings.ToLower(strings.TrimSpace(category))]
	for _, f := range p.schema.Fields(category) {
		value, ok := p.find(text, f, stop)
		if !ok {
			out.Values[f.Name] = p.sentinel
			out.Unresolved = append(out.Unresolved, f.Name)
			continue
		}
		out.Values[f.Name] = value
	}

	p.log.Debug().
		Str("category", category).
		Int("fields", len(out.Names)).
		Int("unresolved", len(out.Unresolved)).
		Msg("pattern extraction done")
	return out
}

// find tries the field name then each alias; the first non-empty capture wins.
func (p *PatternExtractor) find(text string, f schema.Field, stop *regexp.Regexp) (string, bool) {
	for _, label := range f.Labels() {
		re, ok := p.labels[strings.TrimSpace(label)]
		if !ok {
			continue
		}
		for _, loc := range re.FindAllStringIndex(text, -1) {
			rest := text[loc[1]:]
			if nl := strings.IndexAny(rest, "\r\n"); nl >= 0 {
				rest = rest[:nl]
			}
			rest = strings.TrimSpace(cutAtNextLabel(rest, stop))
			if rest != "" {
				return rest, true
			}
		}
	}
	return "", false
}

// cutAtNextLabel truncates value where another capitalized label begins.
// Known schema labels take precedence over the generic capitalized-word rule.
func cutAtNextLabel(value string, stop *regexp.Regexp) string {
	cut := len(value)
	if stop != nil {
		for _, m := range stop.FindAllStringSubmatchIndex(value, -1) {
			if startsUpper(value[m[2]:]) {
				cut = m[2]
				break
			}
		}
	}
	if m := nextLabel.FindStringSubmatchIndex(value); m != nil && m[2] < cut {
		cut = m[2]
	}
	return value[:cut]
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}
