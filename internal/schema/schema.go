// Package schema holds the per-category list of fields to extract.
package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"docsense/internal/domain"
)

// Field is one value to extract, with the alternative labels it may appear
// under in a document.
type Field struct {
	Name    string   `yaml:"name" json:"name"`
	Aliases []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
}

// Labels returns the name followed by its aliases.
func (f Field) Labels() []string {
	return append([]string{f.Name}, f.Aliases...)
}

// Schema maps categories to their ordered fields. Category lookup is
// case-insensitive. A Schema is not modified after loading.
type Schema struct {
	categories map[string]category
}

type category struct {
	name   string
	fields []Field
}

// New builds a schema from category → fields. A field declared twice keeps
// its first position and the last declaration.
func New(table map[string][]Field) *Schema {
	s := &Schema{categories: make(map[string]category, len(table))}
	for name, fields := range table {
		s.set(name, fields)
	}
	return s
}

func (s *Schema) set(name string, fields []Field) {
	name = strings.TrimSpace(name)
	key := strings.ToLower(name)

	var out []Field
	pos := make(map[string]int, len(fields))
	if existing, ok := s.categories[key]; ok {
		out = existing.fields
		for i, f := range out {
			pos[f.Name] = i
		}
	}
	for _, f := range fields {
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			continue
		}
		if i, ok := pos[f.Name]; ok {
			out[i] = f
			continue
		}
		pos[f.Name] = len(out)
		out = append(out, f)
	}
	s.categories[key] = category{name: name, fields: out}
}

// Fields returns the fields of category, or nil for an unknown category.
func (s *Schema) Fields(categoryName string) []Field {
	c, ok := s.categories[strings.ToLower(strings.TrimSpace(categoryName))]
	if !ok {
		return nil
	}
	out := make([]Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// Names returns the field names of category in declaration order.
func (s *Schema) Names(categoryName string) []string {
	fields := s.Fields(categoryName)
	if fields == nil {
		return nil
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// Has reports whether category is declared.
func (s *Schema) Has(categoryName string) bool {
	_, ok := s.categories[strings.ToLower(strings.TrimSpace(categoryName))]
	return ok
}

// Categories returns the declared category names, sorted.
func (s *Schema) Categories() []string {
	out := make([]string, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c.name)
	}
	sort.Strings(out)
	return out
}

// Formats accepted by Load.
const (
	FormatAuto     = "auto"
	FormatEntities = "entities"
	FormatYAML     = "yaml"
)

// Load reads a schema file. An empty path returns the built-in schema.
// FormatAuto picks YAML for .yaml/.yml files and the entities format otherwise.
func Load(path, format string) (*Schema, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}

	if format == "" || format == FormatAuto {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			format = FormatYAML
		default:
			format = FormatEntities
		}
	}

	switch format {
	case FormatYAML:
		return ParseYAML(data)
	case FormatEntities:
		return ParseEntities(data)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", domain.ErrInvalidSchema, format)
	}
}
