package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ReplySchema is the JSON Schema a whole model reply must satisfy.
var ReplySchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type":    "object",
}

// FieldValueSchema is the JSON Schema a single field value must satisfy to be
// used. Values that fail it are treated as unresolved.
var FieldValueSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type":    []string{"string", "number", "boolean", "null"},
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateJSONAgainstSchema validates data against schemaMap.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	schema, err := compileSchema(schemaMap)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// DecodeFieldValues extracts the first JSON object from a model reply and
// returns the declared fields as strings. Only a reply that is not a JSON
// object is an error. Null, absent and non-scalar fields are left out, so each
// of them resolves to the sentinel on its own.
func DecodeFieldValues(reply string, fields []string) (map[string]string, error) {
	raw, err := firstJSONObject(reply)
	if err != nil {
		return nil, err
	}
	if err := ValidateJSONAgainstSchema(ReplySchema, raw); err != nil {
		return nil, err
	}
	scalar, err := compileSchema(FieldValueSchema)
	if err != nil {
		return nil, err
	}

	var obj map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("decoding fields: %w", err)
	}

	out := make(map[string]string, len(fields))
	for _, f := range fields {
		v, ok := obj[f]
		if !ok || scalar.Validate(v) != nil {
			continue
		}
		switch v := v.(type) {
		case string:
			out[f] = v
		case json.Number:
			out[f] = v.String()
		case bool:
			out[f] = strconv.FormatBool(v)
		}
	}
	return out, nil
}

// firstJSONObject strips code fences and returns the first balanced {...}
// block of s.
func firstJSONObject(s string) ([]byte, error) {
	s = stripFences(s)
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in reply (raw: %s)", Truncate(s, 200))
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return []byte(s[start : i+1]), nil
			}
		}
	}
	return nil, fmt.Errorf("unterminated JSON object in reply (raw: %s)", Truncate(s, 200))
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}
