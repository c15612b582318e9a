package schema

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"docsense/internal/domain"
)

var entityLine = regexp.MustCompile(`(?s)([^\[\]:\n]+?)\s*:\s*\[(.*?)\]`)

// ParseEntities reads the "doctype: [field1, field2, ...]" format. Entries
// may span lines.
func ParseEntities(data []byte) (*Schema, error) {
	s := &Schema{categories: make(map[string]category)}
	for _, m := range entityLine.FindAllStringSubmatch(string(data), -1) {
		name := strings.TrimSpace(m[1])
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		var fields []Field
		for _, f := range strings.Split(m[2], ",") {
			f = strings.Trim(strings.TrimSpace(f), `"'`)
			if f != "" {
				fields = append(fields, Field{Name: f})
			}
		}
		s.set(name, fields)
	}
	if len(s.categories) == 0 {
		return nil, fmt.Errorf("%w: no category found", domain.ErrInvalidSchema)
	}
	return s, nil
}

type yamlFile struct {
	Categories map[string][]yamlField `yaml:"categories"`
}

// yamlField accepts either a bare field name or a {name, aliases} mapping.
type yamlField Field

func (f *yamlField) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		f.Name = node.Value
		return nil
	}
	var full Field
	if err := node.Decode(&full); err != nil {
		return err
	}
	*f = yamlField(full)
	return nil
}

// ParseYAML reads a schema of the form:
//
//	categories:
//	  Facture:
//	    - name: Numéro de facture
//	      aliases: [N° facture]
//	    - Date
func ParseYAML(data []byte) (*Schema, error) {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSchema, err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("%w: no category found", domain.ErrInvalidSchema)
	}
	table := make(map[string][]Field, len(f.Categories))
	for name, fields := range f.Categories {
		for _, yf := range fields {
			table[name] = append(table[name], Field(yf))
		}
	}
	return New(table), nil
}
