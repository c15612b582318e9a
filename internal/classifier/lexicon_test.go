package classifier_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsense/internal/classifier"
	"docsense/internal/domain"
)

func TestLoadLexicon_DefaultCoversCategories(t *testing.T) {
	lex, err := classifier.LoadLexicon("", 0)
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultCategories, lex.Labels())
	assert.Equal(t, 512, lex.MaxLength())
}

func TestParseLexicon_Errors(t *testing.T) {
	_, err := classifier.ParseLexicon([]byte("labels: []"), 0)
	assert.Error(t, err)

	_, err = classifier.ParseLexicon([]byte("labels: [{name: ''}]"), 0)
	assert.Error(t, err)

	_, err = classifier.ParseLexicon([]byte("{not yaml"), 0)
	assert.Error(t, err)
}

func TestLexicon_EncodeAndLogits(t *testing.T) {
	lex, err := classifier.ParseLexicon([]byte(`
max_length: 8
labels:
  - name: Facture
    keywords: {facture: 2, tva: 1}
  - name: Autre
    bias: 0.5
`), 0)
	require.NoError(t, err)

	tokens, err := lex.Encode("Facture TVA inconnu")
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, 0, tokens[2])

	logits, err := lex.Logits(context.Background(), tokens)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 0.5}, logits)

	_, err = lex.Logits(context.Background(), make([]int, 9))
	assert.Error(t, err)
}

func TestLexicon_ClassifiesDefaultCategories(t *testing.T) {
	lex, err := classifier.LoadLexicon("", 0)
	require.NoError(t, err)
	c, err := classifier.New(lex, lex, classifier.Options{Stride: 256, Normalize: true}, zerolog.Nop())
	require.NoError(t, err)

	tests := []struct {
		text string
		want string
	}{
		{text: "FACTURE N° 42\nMontant HT: 100 €\nTVA 20%\nTotal TTC: 120 €", want: "Facture"},
		{text: "Curriculum vitae. Expérience professionnelle, compétences, formation et langues.", want: "CV"},
		{text: "Entre les soussignés, il est convenu le présent contrat. Clause de résiliation.", want: "Contrat"},
		{text: "Madame, Monsieur, veuillez agréer mes salutations. Cordialement.", want: "Correspondance"},
		{text: "zzz qqq", want: "Autre"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := c.Classify(context.Background(), tt.text)
			assert.Equal(t, tt.want, got.Label)
			assert.Greater(t, got.Confidence, 0.0)
			assert.LessOrEqual(t, got.Confidence, 1.0)
		})
	}
}
