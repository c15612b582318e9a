package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Remote is a classification model served over HTTP. The server exposes
// GET /metadata, POST /tokenize and POST /logits.
type Remote struct {
	endpoint  string
	client    *http.Client
	labels    []string
	maxLength int
}

type remoteMetadata struct {
	Labels    []string `json:"labels"`
	MaxLength int      `json:"max_length"`
}

// NewRemote connects to a model server and loads its label set.
func NewRemote(ctx context.Context, endpoint string, timeoutSecs int) (*Remote, error) {
	if endpoint == "" {
		return nil, errors.New("remote classifier endpoint is required")
	}
	timeout := time.Duration(timeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	r := &Remote{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}

	var meta remoteMetadata
	if err := r.do(ctx, http.MethodGet, "/metadata", nil, &meta); err != nil {
		return nil, fmt.Errorf("loading model metadata: %w", err)
	}
	if len(meta.Labels) == 0 {
		return nil, errors.New("model server declares no labels")
	}
	if meta.MaxLength <= 0 {
		meta.MaxLength = 512
	}
	r.labels = meta.Labels
	r.maxLength = meta.MaxLength
	return r, nil
}

// Labels returns the category names in model order.
func (r *Remote) Labels() []string {
	return r.labels
}

// MaxLength returns the model input length in tokens.
func (r *Remote) MaxLength() int {
	return r.maxLength
}

// Encode tokenizes text on the model server, without truncation.
func (r *Remote) Encode(text string) ([]int, error) {
	var resp struct {
		Tokens []int `json:"tokens"`
	}
	if err := r.do(context.Background(), http.MethodPost, "/tokenize", map[string]interface{}{"text": text}, &resp); err != nil {
		return nil, fmt.Errorf("tokenizing: %w", err)
	}
	return resp.Tokens, nil
}

// Logits runs one forward pass on the model server.
func (r *Remote) Logits(ctx context.Context, tokens []int) ([]float64, error) {
	var resp struct {
		Logits []float64 `json:"logits"`
	}
	if err := r.do(ctx, http.MethodPost, "/logits", map[string]interface{}{"tokens": tokens}, &resp); err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}
	return resp.Logits, nil
}

func (r *Remote) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling model server: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server error (status %d): %s", resp.StatusCode, truncate(string(respBody), 300))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshaling response: %w", err)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
