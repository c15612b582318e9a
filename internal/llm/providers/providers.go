// Package providers registers the built-in field extraction providers.
package providers

import (
	"sync"

	"docsense/internal/config"
	"docsense/internal/llm"
	"docsense/internal/llm/claude"
	"docsense/internal/llm/gemini"
	"docsense/internal/llm/openai"
	"docsense/internal/llm/openrouter"
	"docsense/internal/port"
)

var once sync.Once

// Register adds openrouter, openai, claude and gemini to the llm registry.
// It is safe to call more than once.
func Register() {
	once.Do(func() {
		llm.RegisterProvider("openrouter", func(cfg *config.ProviderConfig) (port.FieldService, error) {
			return openrouter.NewService(cfg), nil
		})
		llm.RegisterProvider("openai", func(cfg *config.ProviderConfig) (port.FieldService, error) {
			return openai.NewService(cfg), nil
		})
		llm.RegisterProvider("claude", func(cfg *config.ProviderConfig) (port.FieldService, error) {
			return claude.NewService(cfg), nil
		})
		llm.RegisterProvider("gemini", func(cfg *config.ProviderConfig) (port.FieldService, error) {
			return gemini.NewService(cfg), nil
		})
	})
}
