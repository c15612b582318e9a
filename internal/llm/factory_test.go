package llm_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsense/internal/config"
	"docsense/internal/llm"
	"docsense/internal/port"
)

// stubService is a minimal FieldService for testing the factory.
type stubService struct {
	model string
}

func (s *stubService) ExtractFields(_ context.Context, _ port.FieldRequest) (*port.FieldOutput, error) {
	return &port.FieldOutput{ModelUsed: s.model}, nil
}

func registerStub() {
	llm.RegisterProvider("test-provider", func(cfg *config.ProviderConfig) (port.FieldService, error) {
		return &stubService{model: cfg.DefaultModel}, nil
	})
}

func TestFactory_RegisterAndCreate(t *testing.T) {
	registerStub()

	svc, err := llm.NewFieldService(&config.ProviderConfig{Provider: "test-provider", DefaultModel: "test-model"})

	require.NoError(t, err)
	out, err := svc.ExtractFields(context.Background(), port.FieldRequest{})
	require.NoError(t, err)
	assert.Equal(t, "test-model", out.ModelUsed)
	assert.Contains(t, llm.Providers(), "test-provider")
}

func TestFactory_UnknownProvider(t *testing.T) {
	svc, err := llm.NewFieldService(&config.ProviderConfig{Provider: "nonexistent-provider-xyz"})

	assert.Nil(t, svc)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field provider")
}

func TestBuild(t *testing.T) {
	registerStub()

	_, err := llm.Build(config.ExtractionConfig{}, zerolog.Nop())
	assert.Error(t, err)

	single, err := llm.Build(config.ExtractionConfig{
		Primary: config.ProviderConfig{Provider: "test-provider"},
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &stubService{}, single)

	chain, err := llm.Build(config.ExtractionConfig{
		Primary:   config.ProviderConfig{Provider: "test-provider"},
		Secondary: config.ProviderConfig{Provider: "test-provider"},
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &llm.FallbackFieldService{}, chain)

	merged, err := llm.Build(config.ExtractionConfig{
		MergeMode: true,
		Primary:   config.ProviderConfig{Provider: "test-provider"},
		Secondary: config.ProviderConfig{Provider: "test-provider"},
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &llm.MergeFieldService{}, merged)

	_, err = llm.Build(config.ExtractionConfig{
		Primary: config.ProviderConfig{Provider: "missing"},
	}, zerolog.Nop())
	assert.Error(t, err)
}
