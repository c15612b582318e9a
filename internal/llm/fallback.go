package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"docsense/internal/port"
)

// provider is one entry of a fallback chain with its rate-limit backoff.
type provider struct {
	name string
	svc  port.FieldService

	mu      sync.RWMutex
	resetAt time.Time // zero value = available
}

func (p *provider) backoff(now time.Time) (time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.resetAt, !p.resetAt.IsZero() && now.Before(p.resetAt)
}

func (p *provider) pause(until time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetAt = until
}

// FallbackFieldService asks providers in order until one resolves at least one
// field. Rate-limited providers are paused for their Retry-After period. When
// every provider answers without resolving anything, the first answer is
// returned so the caller fills all fields with the sentinel.
type FallbackFieldService struct {
	chain []*provider
	now   func() time.Time
	log   zerolog.Logger
}

// NewFallbackFieldService creates a FallbackFieldService from an ordered list of services and their names.
func NewFallbackFieldService(services []port.FieldService, names []string, log zerolog.Logger) *FallbackFieldService {
	chain := make([]*provider, len(services))
	for i, svc := range services {
		chain[i] = &provider{name: names[i], svc: svc}
	}
	return &FallbackFieldService{chain: chain, now: time.Now, log: log}
}

// WithClock replaces the clock used for rate-limit backoff.
func (f *FallbackFieldService) WithClock(now func() time.Time) *FallbackFieldService {
	f.now = now
	return f
}

func (f *FallbackFieldService) ExtractFields(ctx context.Context, req port.FieldRequest) (*port.FieldOutput, error) {
	log := f.log.With().Str("category", req.Category).Int("fields", len(req.Fields)).Logger()
	now := f.now()

	var (
		empty         *port.FieldOutput
		lastErr       error
		earliestReset time.Time
		onlyLimited   = true
	)
	noteReset := func(at time.Time) {
		if earliestReset.IsZero() || at.Before(earliestReset) {
			earliestReset = at
		}
	}

	for attempt, p := range f.chain {
		if resetAt, paused := p.backoff(now); paused {
			log.Debug().Str("provider", p.name).Time("reset_at", resetAt).Msg("llm fallback: provider paused, skipping")
			noteReset(resetAt)
			continue
		}

		log.Debug().Str("provider", p.name).Int("attempt", attempt+1).Msg("llm fallback: asking provider")
		out, err := p.svc.ExtractFields(ctx, req)
		if err == nil {
			if len(req.Fields) == 0 || len(out.Values) > 0 {
				return out, nil
			}
			log.Info().Str("provider", p.name).Msg("llm fallback: provider resolved no fields, trying next")
			if empty == nil {
				empty = out
			}
			onlyLimited = false
			continue
		}

		log.Warn().Err(err).Str("provider", p.name).Int("attempt", attempt+1).Msg("llm fallback: provider failed")
		lastErr = err

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			resetAt := now.Add(rlErr.RetryAfter)
			p.pause(resetAt)
			noteReset(resetAt)
		} else {
			onlyLimited = false
		}
	}

	if empty != nil {
		return empty, nil
	}
	if lastErr == nil || onlyLimited {
		retryAfter := earliestReset.Sub(now)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return nil, NewRateLimitError("all", fmt.Errorf("all providers rate limited"), int(retryAfter.Seconds()))
	}
	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}
