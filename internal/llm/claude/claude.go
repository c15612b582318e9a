// Package claude implements field extraction over the Anthropic Messages API.
package claude

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
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
)

// Service implements port.FieldService using the Anthropic Messages API.
type Service struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewService creates a Claude field service from a provider config.
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
		model = "claude-sonnet-4-20250514"
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
		"model":      s.model,
		"max_tokens": 2048,
		"system":     llm.SystemPrompt,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": prompt,
			},
		},
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
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling anthropic API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, llm.APIError("claude", resp.StatusCode, respBody, resp.Header.Get("Retry-After"))
	}

	return parseResponse(respBody, s.model, prompt, input.Fields)
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func parseResponse(body []byte, model, prompt string, fields []string) (*port.FieldOutput, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("empty response from API")
	}

	if resp.StopReason == "max_tokens" {
		return nil, fmt.Errorf("output truncated (stop_reason: max_tokens): response exceeded output token limit")
	}

	values, err := llm.DecodeFieldValues(resp.Content[0].Text, fields)
	if err != nil {
		return nil, fmt.Errorf("parsing LLM JSON output: %w", err)
	}

	return &port.FieldOutput{
		Values:     values,
		ModelUsed:  model,
		PromptUsed: prompt,
	}, nil
}
