// Package openai implements field extraction over the OpenAI Chat
// Completions API.
package openai

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
	apiURL = "https://api.openai.com/v1/chat/completions"
)

// Service implements port.FieldService using the OpenAI Chat Completions API.
type Service struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewService creates an OpenAI field service from a provider config.
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
		model = "gpt-4o-mini"
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
		"messages": []map[string]interface{}{
			{"role": "system", "content": llm.SystemPrompt},
			{"role": "user", "content": prompt},
		},
		"response_format": map[string]interface{}{"type": "json_object"},
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

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling openai API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, llm.APIError("openai", resp.StatusCode, respBody, resp.Header.Get("Retry-After"))
	}

	return parseResponse(respBody, s.model, prompt, input.Fields)
}

// apiResponse models the OpenAI Chat Completions response.
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

	if resp.Choices[0].FinishReason == "length" {
		return nil, fmt.Errorf("output truncated (finish_reason: length): response exceeded output token limit")
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
