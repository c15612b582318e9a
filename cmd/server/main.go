package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"docsense/internal/app"
	"docsense/internal/auth"
	"docsense/internal/config"
	"docsense/internal/handler"
	"docsense/internal/logger"
	"docsense/internal/middleware"
	"docsense/internal/router"
)

func main() {
	if err := run(); err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.Log, os.Stdout)
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	defer a.Close()

	var validator middleware.TokenValidator
	if cfg.Auth.Enabled() {
		issuer, err := auth.NewTokenIssuer(cfg.Auth)
		if err != nil {
			return fmt.Errorf("failed to initialize auth: %w", err)
		}
		validator = issuer
		log.Info().Msg("bearer token required on processing routes")
	}

	r := router.Setup(router.Handlers{
		Health:   handler.NewHealthHandler(a.Checks),
		Document: handler.NewDocumentHandler(a.Documents, a.Defaults),
		Schema:   handler.NewSchemaHandler(a.Schema),
	}, router.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxBodyBytes:   multipartLimit(a.Policy.MaxBytes(), a.Policy.MaxFiles()),
		Validator:      validator,
	}, log)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// multipartLimit bounds a request body to every allowed file at full size
// plus room for the form framing.
func multipartLimit(maxBytes int64, maxFiles int) int64 {
	if maxFiles <= 0 {
		return 0
	}
	return maxBytes*int64(maxFiles) + 1<<20
}
