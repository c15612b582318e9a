package classifier

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"docsense/internal/config"
)

// Backends.
const (
	BackendLexicon = "lexicon"
	BackendRemote  = "remote"
)

// Load builds a classifier from configuration, loading its model once.
func Load(ctx context.Context, cfg config.ClassifierConfig, log zerolog.Logger) (*Classifier, error) {
	opts := Options{Stride: cfg.Stride, Normalize: cfg.Normalize, UnknownLabel: cfg.UnknownLabel}

	switch cfg.Backend {
	case BackendLexicon, "":
		lex, err := LoadLexicon(cfg.ModelPath, cfg.MaxLength)
		if err != nil {
			return nil, err
		}
		log.Info().Str("backend", BackendLexicon).Strs("labels", lex.Labels()).Int("max_length", lex.MaxLength()).
			Msg("classifier model loaded")
		return New(lex, lex, opts, log)
	case BackendRemote:
		remote, err := NewRemote(ctx, cfg.Endpoint, cfg.TimeoutSecs)
		if err != nil {
			return nil, err
		}
		log.Info().Str("backend", BackendRemote).Str("endpoint", cfg.Endpoint).Strs("labels", remote.Labels()).
			Msg("classifier model loaded")
		return New(remote, remote, opts, log)
	default:
		return nil, fmt.Errorf("unknown classifier backend %q", cfg.Backend)
	}
}
