package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsense/internal/llm"
)

func TestDecodeFieldValues(t *testing.T) {
	fields := []string{"Nom", "Total", "Payé", "Date"}

	tests := []struct {
		name  string
		reply string
		want  map[string]string
	}{
		{
			name:  "plain object",
			reply: `{"Nom": "Dupont", "Total": 120.5, "Payé": true, "Date": null}`,
			want:  map[string]string{"Nom": "Dupont", "Total": "120.5", "Payé": "true"},
		},
		{
			name:  "code fence",
			reply: "```json\n{\"Nom\": \"Martin\"}\n```",
			want:  map[string]string{"Nom": "Martin"},
		},
		{
			name:  "reasoning before object",
			reply: "Let me think. The answer is {\"Nom\": \"a {b}\", \"extra\": [1]} done {\"Nom\": \"ignored\"}",
			want:  map[string]string{"Nom": "a {b}"},
		},
		{
			name:  "large integer kept verbatim",
			reply: `{"Total": 12345678901234567890}`,
			want:  map[string]string{"Total": "12345678901234567890"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := llm.DecodeFieldValues(tt.reply, fields)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeFieldValues_Errors(t *testing.T) {
	for name, reply := range map[string]string{
		"no object":    "I could not find anything.",
		"unterminated": `{"Nom": "x"`,
		"invalid json": `{"Nom": x}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := llm.DecodeFieldValues(reply, []string{"Nom"})
			assert.Error(t, err)
		})
	}
}

func TestDecodeFieldValues_NonScalarFieldIsDroppedAlone(t *testing.T) {
	reply := `{"Nom": "Dupont", "Adresse": {"rue": "1 rue X"}, "Tél": ["01", "02"]}`

	got, err := llm.DecodeFieldValues(reply, []string{"Nom", "Adresse", "Tél"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Nom": "Dupont"}, got)
}

func TestBuildFieldPrompt(t *testing.T) {
	p := llm.BuildFieldPrompt("Facture", []string{"Date", "Total"}, "Date: 2024")

	assert.Contains(t, p, `Fields: ["Date","Total"]`)
	assert.Contains(t, p, "Content:\nDate: 2024")
	assert.Contains(t, p, "Facture")
	assert.Contains(t, p, "'N/A'")
}
