package llm

import (
	"encoding/json"
	"strings"
)

// SystemPrompt is sent as the system message by chat-style providers.
const SystemPrompt = "Return only a valid JSON object."

// BuildFieldPrompt returns the extraction prompt for fields over text.
func BuildFieldPrompt(category string, fields []string, text string) string {
	names, _ := json.Marshal(fields)

	var b strings.Builder
	b.WriteString("You are an intelligent document assistant. Extract the following fields from the content below")
	if category != "" {
		b.WriteString(" (document type: ")
		b.WriteString(category)
		b.WriteString(")")
	}
	b.WriteString(". Return only a JSON object where each field has a value or 'N/A' if not found.\n\n")
	b.WriteString("Fields: ")
	b.Write(names)
	b.WriteString("\n\nContent:\n")
	b.WriteString(text)
	b.WriteString("\n\nExample output: {\"field1\": \"value\", \"field2\": \"N/A\"}")
	return b.String()
}
