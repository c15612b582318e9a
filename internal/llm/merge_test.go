package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docsense/internal/llm"
	"docsense/internal/port"
	"docsense/mocks"
)

func TestMerge_FillsUnresolvedFromSecondary(t *testing.T) {
	req := port.FieldRequest{Fields: []string{"Nom", "Date", "Total", "Client"}}
	primary := new(mocks.MockFieldService)
	secondary := new(mocks.MockFieldService)
	primary.On("ExtractFields", mock.Anything, req).Return(&port.FieldOutput{
		Values:    map[string]string{"Nom": "Dupont", "Date": "2024-01-01", "Total": ""},
		ModelUsed: "p-model",
	}, nil)
	secondary.On("ExtractFields", mock.Anything, req).Return(&port.FieldOutput{
		Values:    map[string]string{"Nom": "dupont", "Date": "01/01/2024", "Total": "120"},
		ModelUsed: "s-model",
	}, nil)

	out, err := llm.NewMergeFieldService(primary, secondary, zerolog.Nop()).ExtractFields(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Nom": "Dupont", "Date": "2024-01-01", "Total": "120"}, out.Values)
	assert.Equal(t, map[string]string{
		"Nom":   llm.ProvenanceAgree,
		"Date":  llm.ProvenanceDisagreement,
		"Total": llm.ProvenanceSecondary,
	}, out.FieldProvenance)
	assert.Equal(t, "p-model", out.ModelUsed)
	assert.Equal(t, "s-model", out.SecondaryModel)
}

func TestMerge_OneSideFails(t *testing.T) {
	req := port.FieldRequest{Fields: []string{"Nom"}}

	primary := new(mocks.MockFieldService)
	secondary := new(mocks.MockFieldService)
	primary.On("ExtractFields", mock.Anything, req).Return(nil, errors.New("timeout"))
	secondary.On("ExtractFields", mock.Anything, req).Return(&port.FieldOutput{Values: map[string]string{"Nom": "X"}, ModelUsed: "s"}, nil)

	out, err := llm.NewMergeFieldService(primary, secondary, zerolog.Nop()).ExtractFields(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "secondary_only", out.FieldProvenance["_source"])
	assert.Equal(t, "s", out.SecondaryModel)

	primary = new(mocks.MockFieldService)
	secondary = new(mocks.MockFieldService)
	primary.On("ExtractFields", mock.Anything, req).Return(&port.FieldOutput{Values: map[string]string{"Nom": "X"}}, nil)
	secondary.On("ExtractFields", mock.Anything, req).Return(nil, errors.New("timeout"))

	out, err = llm.NewMergeFieldService(primary, secondary, zerolog.Nop()).ExtractFields(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "primary_only", out.FieldProvenance["_source"])
}

func TestMerge_BothFail(t *testing.T) {
	primary := new(mocks.MockFieldService)
	secondary := new(mocks.MockFieldService)
	primary.On("ExtractFields", mock.Anything, mock.Anything).Return(nil, errors.New("a"))
	secondary.On("ExtractFields", mock.Anything, mock.Anything).Return(nil, errors.New("b"))

	_, err := llm.NewMergeFieldService(primary, secondary, zerolog.Nop()).ExtractFields(context.Background(), port.FieldRequest{})
	assert.Error(t, err)
}
