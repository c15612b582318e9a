package port

import "context"

// FieldRequest carries the data sent to a field-understanding service.
type FieldRequest struct {
	Category string
	Fields   []string
	Text     string // already truncated to the configured budget
}

// FieldOutput contains the values a field-understanding service resolved.
// Values only holds fields the service answered; absent fields are unresolved.
type FieldOutput struct {
	Values          map[string]string
	ModelUsed       string
	PromptUsed      string
	FieldProvenance map[string]string // which provider supplied each field (merge mode)
	SecondaryModel  string
}

// FieldService abstracts LLM-based field extraction.
type FieldService interface {
	ExtractFields(ctx context.Context, req FieldRequest) (*FieldOutput, error)
}
