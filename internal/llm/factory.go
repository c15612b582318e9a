package llm

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"docsense/internal/config"
	"docsense/internal/port"
)

// ProviderFactory creates a FieldService from a provider config.
type ProviderFactory func(cfg *config.ProviderConfig) (port.FieldService, error)

var (
	providersMu sync.RWMutex
	providers   = map[string]ProviderFactory{}
)

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[name] = factory
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	providersMu.RLock()
	defer providersMu.RUnlock()
	names := make([]string, 0, len(providers))
	for n := range providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewFieldService creates a FieldService from a provider config using the registered factory.
func NewFieldService(cfg *config.ProviderConfig) (port.FieldService, error) {
	providersMu.RLock()
	factory, ok := providers[cfg.Provider]
	providersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown field provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// Build assembles the configured providers. In merge mode the primary and
// secondary run side by side; otherwise providers are tried in order.
func Build(cfg config.ExtractionConfig, log zerolog.Logger) (port.FieldService, error) {
	var (
		services []port.FieldService
		names    []string
	)
	for _, pc := range []*config.ProviderConfig{cfg.PrimaryConfig(), cfg.SecondaryConfig(), cfg.TertiaryConfig()} {
		if pc == nil {
			continue
		}
		svc, err := NewFieldService(pc)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
		names = append(names, pc.Provider)
	}

	switch {
	case len(services) == 0:
		return nil, errors.New("no field provider configured")
	case cfg.MergeMode && len(services) >= 2:
		log.Info().Str("primary", names[0]).Str("secondary", names[1]).Msg("field extraction in merge mode")
		return NewMergeFieldService(services[0], services[1], log), nil
	case len(services) == 1:
		log.Info().Str("provider", names[0]).Msg("field extraction provider configured")
		return services[0], nil
	default:
		log.Info().Strs("providers", names).Msg("field extraction with fallback chain")
		return NewFallbackFieldService(services, names, log), nil
	}
}
