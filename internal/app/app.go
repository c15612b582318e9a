// Package app assembles the document pipeline from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"docsense/internal/acquire"
	"docsense/internal/cache"
	"docsense/internal/classifier"
	"docsense/internal/config"
	"docsense/internal/docparse"
	"docsense/internal/domain"
	"docsense/internal/fields"
	"docsense/internal/handler"
	"docsense/internal/llm"
	"docsense/internal/llm/providers"
	"docsense/internal/ocr"
	"docsense/internal/pdftext"
	"docsense/internal/pipeline"
	"docsense/internal/port"
	"docsense/internal/raster"
	"docsense/internal/schema"
	"docsense/internal/service"
	s3storage "docsense/internal/storage/s3"
	"docsense/internal/tracking"
)

// App holds the long-lived components built at startup.
type App struct {
	Schema       *schema.Schema
	Classifier   *classifier.Classifier
	Orchestrator *pipeline.Orchestrator
	Documents    service.DocumentService
	Policy       service.UploadPolicy
	Defaults     pipeline.Options
	Checks       map[string]handler.HealthCheck

	closers []func() error
}

// New builds every component the pipeline needs. Model and schema are loaded
// once here and shared by all requests.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Checks: make(map[string]handler.HealthCheck)}

	s, err := schema.Load(cfg.Schema.Path, cfg.Schema.Format)
	if err != nil {
		return nil, fmt.Errorf("loading field schema: %w", err)
	}
	a.Schema = s
	log.Info().Strs("categories", s.Categories()).Msg("field schema loaded")

	clf, err := classifier.Load(ctx, cfg.Classifier, log.With().Str("component", "classifier").Logger())
	if err != nil {
		return nil, fmt.Errorf("loading classifier: %w", err)
	}
	a.Classifier = clf

	extractor, err := buildExtractor(cfg.Extraction, s, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	engine, err := ocr.NewEngine(cfg.Acquisition.OCRLanguage)
	if err != nil {
		return nil, fmt.Errorf("initializing ocr: %w", err)
	}
	a.closers = append(a.closers, engine.Close)

	acqLog := log.With().Str("component", "acquisition").Logger()
	parser := docparse.NewParser(engine, cfg.Acquisition.MaxWidth, acqLog)
	strategy := domain.FallbackStrategy(cfg.Acquisition.Fallback)
	resolver := acquire.NewResolver(acquire.Collaborators{
		Native:    pdftext.NewExtractor(acqLog),
		Structure: parser,
		Rasterer:  raster.NewRasterizer(cfg.Acquisition.MaxWidth, acqLog),
		Embedded:  parser,
		OCR:       engine,
	}, strategy, cfg.Acquisition.MaxWidth, acqLog)

	source, err := a.withCache(resolver, cfg.Cache, resolver.Strategy(), log)
	if err != nil {
		a.Close()
		return nil, err
	}

	var artifacts port.ObjectStorage
	if cfg.S3.Enabled() {
		store, err := s3storage.NewStore(ctx, &cfg.S3)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("initializing artifact store: %w", err)
		}
		artifacts = store
		log.Info().Str("bucket", store.Bucket()).Msg("artifact store configured")
	}

	sink, err := tracking.New(cfg.Tracking, artifacts, log.With().Str("component", "tracking").Logger())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initializing tracking: %w", err)
	}

	mode := domain.ExtractionMode(cfg.Extraction.Mode)
	a.Orchestrator = pipeline.New(source, clf, extractor, mode, sink, log)
	a.Policy = service.NewUploadPolicy(cfg.Upload)
	a.Defaults = pipeline.Options{Threshold: cfg.Acquisition.Threshold}
	a.Documents = service.NewDocumentService(a.Policy, a.Orchestrator, log)
	return a, nil
}

func buildExtractor(cfg config.ExtractionConfig, s *schema.Schema, log zerolog.Logger) (fields.Extractor, error) {
	fieldLog := log.With().Str("component", "fields").Logger()
	if domain.ExtractionMode(cfg.Mode) != domain.ExtractionDelegated {
		return fields.NewPatternExtractor(s, cfg.Sentinel, fieldLog), nil
	}

	providers.Register()
	svc, err := llm.Build(cfg, log.With().Str("component", "llm").Logger())
	if err != nil {
		return nil, fmt.Errorf("initializing field provider: %w", err)
	}
	return fields.NewDelegatedExtractor(s, svc, cfg.Sentinel, cfg.CharBudget, fieldLog), nil
}

func (a *App) withCache(next acquire.TextSource, cfg config.CacheConfig, strategy domain.FallbackStrategy, log zerolog.Logger) (acquire.TextSource, error) {
	cacheLog := log.With().Str("component", "cache").Logger()
	switch cfg.Backend {
	case "", "none":
		return next, nil
	case "memory":
		cacheLog.Info().Dur("ttl", cfg.TTL).Msg("in-memory detection cache enabled")
		return acquire.NewCachedResolver(next, cache.NewMemoryCache(cfg.TTL), strategy, cacheLog), nil
	case "redis":
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			Prefix:   cfg.Prefix,
			TTL:      cfg.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.closers = append(a.closers, rc.Close)
		a.Checks["cache"] = rc.Ping
		cacheLog.Info().Str("addr", cfg.Addr).Msg("redis detection cache enabled")
		return acquire.NewCachedResolver(next, rc, strategy, cacheLog), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Close releases the resources opened by New, in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}
