package schema_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsense/internal/domain"
	"docsense/internal/schema"
)

func TestDefault_CoversDefaultCategories(t *testing.T) {
	s := schema.Default()
	for _, c := range domain.DefaultCategories {
		assert.True(t, s.Has(c), c)
	}
	assert.Empty(t, s.Names("Autre"))
	assert.Equal(t, "Numéro de facture", s.Names("Facture")[0])
}

func TestSchema_CaseInsensitiveLookup(t *testing.T) {
	s := schema.Default()
	assert.Equal(t, s.Names("Facture"), s.Names("FACTURE"))
	assert.Equal(t, s.Names("Facture"), s.Names(" facture "))
}

func TestSchema_UnknownCategory(t *testing.T) {
	s := schema.Default()
	assert.Nil(t, s.Fields("Devis"))
	assert.Nil(t, s.Names("Devis"))
	assert.False(t, s.Has("Devis"))
}

func TestSchema_DuplicateFieldLastWriteWins(t *testing.T) {
	s := schema.New(map[string][]schema.Field{
		"Facture": {
			{Name: "Date", Aliases: []string{"Le"}},
			{Name: "Total"},
			{Name: "Date", Aliases: []string{"Émise le"}},
		},
	})

	fields := s.Fields("facture")
	require.Len(t, fields, 2)
	assert.Equal(t, "Date", fields[0].Name)
	assert.Equal(t, []string{"Émise le"}, fields[0].Aliases)
	assert.Equal(t, "Total", fields[1].Name)
}

func TestSchema_FieldsReturnsCopy(t *testing.T) {
	s := schema.Default()
	f := s.Fields("CV")
	f[0].Name = "changed"
	assert.Equal(t, "Nom", s.Fields("CV")[0].Name)
}

func TestParseEntities(t *testing.T) {
	data := []byte(`facture: [Numéro de facture, Date, Montant TTC]
CV: ["Nom", 'Prénom',
     Email]
contrat: []
facture: [Date, Client]
`)
	s, err := schema.ParseEntities(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"Numéro de facture", "Date", "Montant TTC", "Client"}, s.Names("Facture"))
	assert.Equal(t, []string{"Nom", "Prénom", "Email"}, s.Names("cv"))
	assert.True(t, s.Has("Contrat"))
	assert.Empty(t, s.Names("Contrat"))
}

func TestParseEntities_Empty(t *testing.T) {
	_, err := schema.ParseEntities([]byte("nothing here"))
	assert.ErrorIs(t, err, domain.ErrInvalidSchema)
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
categories:
  Facture:
    - name: Invoice Number
      aliases: [Invoice No, N° facture]
    - Date
`)
	s, err := schema.ParseYAML(data)
	require.NoError(t, err)

	fields := s.Fields("facture")
	require.Len(t, fields, 2)
	assert.Equal(t, []string{"Invoice Number", "Invoice No", "N° facture"}, fields[0].Labels())
	assert.Equal(t, "Date", fields[1].Name)
	assert.Empty(t, fields[1].Aliases)
}

func TestParseYAML_Invalid(t *testing.T) {
	_, err := schema.ParseYAML([]byte("categories: {}"))
	assert.ErrorIs(t, err, domain.ErrInvalidSchema)

	_, err = schema.ParseYAML([]byte(":::"))
	assert.ErrorIs(t, err, domain.ErrInvalidSchema)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	entities := filepath.Join(dir, "Entities.txt")
	require.NoError(t, os.WriteFile(entities, []byte("rapport: [Titre, Auteur]"), 0o600))
	yml := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(yml, []byte("categories:\n  Rapport: [Titre]\n"), 0o600))

	s, err := schema.Load(entities, schema.FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, []string{"Titre", "Auteur"}, s.Names("Rapport"))

	s, err = schema.Load(yml, schema.FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, []string{"Titre"}, s.Names("Rapport"))

	s, err = schema.Load("", schema.FormatAuto)
	require.NoError(t, err)
	assert.True(t, s.Has("Facture"))

	_, err = schema.Load(filepath.Join(dir, "missing.txt"), schema.FormatAuto)
	assert.Error(t, err)

	_, err = schema.Load(entities, "toml")
	assert.ErrorIs(t, err, domain.ErrInvalidSchema)
}
