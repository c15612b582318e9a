package app_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsense/internal/app"
	"docsense/internal/config"
	"docsense/internal/domain"
	"docsense/internal/service"
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("DOCSENSE_TRACKING_SINK", "none")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNew_Defaults(t *testing.T) {
	cfg := loadConfig(t)

	a, err := app.New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.ElementsMatch(t, domain.DefaultCategories, a.Classifier.Labels())
	assert.True(t, a.Schema.Has("Facture"))
	assert.InDelta(t, domain.DefaultAcceptanceThreshold, a.Defaults.Threshold, 1e-9)
	assert.Empty(t, a.Checks)
}

func TestNew_MemoryCacheAndProcessing(t *testing.T) {
	cfg := loadConfig(t)
	cfg.Cache.Backend = "memory"
	cfg.Acquisition.Fallback = "structure"

	a, err := app.New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	// An empty PDF yields no text whichever path is taken.
	batch, err := a.Documents.ProcessFiles(context.Background(), []service.NamedFile{{Name: "empty.pdf"}}, a.Defaults)
	require.NoError(t, err)
	assert.Empty(t, batch.Results)
	require.Len(t, batch.Failed, 1)
	assert.Equal(t, domain.ErrAcquisitionFailed.Error(), batch.Failed[0].Error)
}

func TestNew_InvalidBackends(t *testing.T) {
	cfg := loadConfig(t)
	cfg.Cache.Backend = "memcached"
	_, err := app.New(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)

	cfg = loadConfig(t)
	cfg.Classifier.Backend = "onnx"
	_, err = app.New(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)

	cfg = loadConfig(t)
	cfg.Extraction.Mode = "delegated"
	cfg.Extraction.Primary.Provider = "nope"
	_, err = app.New(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
