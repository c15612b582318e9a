// Package openrouter implements field extraction over the OpenRouter
// chat completions API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"docsense/internal/config"
	"docsense/internal/llm"
	"docsense/internal/port"
)

const (
	apiURL       = "https://openrouter.ai/api/v1/chat/completions"
	defaultModel = "deepseek/deepseek-r1:free"
)

// Service implements port.FieldService using OpenRouter.
type Service struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewService creates an OpenRouter field service from a provider config.
func NewService(cfg *config.ProviderConfig) *Service {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = apiURL
	}
	return newService(cfg, endpoint)
}

// NewServiceWithEndpoint creates a service pointing at a custom API endpoint (for testing).
func NewServiceWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Service {
	return newService(cfg, endpoint)
}

func newService(cfg *config.ProviderConfig, endpoint string) *Service {
	model := cfg.DefaultModel
	if model == "" {
		model = defaultModel
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Service{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *Service) ExtractFields(ctx context.Context, input port.FieldRequest) (*port.FieldOutput, error) {
	prompt := llm.BuildFieldPrompt(input.Category, input.Fields, input.Text)

	reqBody := map[string]interface{}{
		"model": s.model,
		"messages": []map[string]interface{}{
			{"role": "system", "content": llm.SystemPrompt},
			{"role": "user", "content": prompt},
		},
		"stream": false,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("X-Title", "docsense")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling openrouter API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, llm.APIError("openrouter", resp.StatusCode, respBody, resp.Header.Get("Retry-After"))
	}

	return parseResponse(respBody, s.model, prompt, input.Fields)
}

type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseResponse(body []byte, model, prompt string, fields []string) (*port.FieldOutput, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API: no choices")
	}

	values, err := llm.DecodeFieldValues(resp.Choices[0].Message.Content, fields)
	if err != nil {
		return nil, fmt.Errorf("parsing LLM JSON output: %w", err)
	}

	return &port.FieldOutput{
		Values:     values,
		ModelUsed:  model,
		PromptUsed: prompt,
	}, nil
}
