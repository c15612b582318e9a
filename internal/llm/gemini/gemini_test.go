package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsense/internal/config"
	"docsense/internal/llm/gemini"
	"docsense/internal/port"
)

func newTestService(serverURL string) *gemini.Service {
	return gemini.NewServiceWithEndpoint(&config.ProviderConfig{
		Provider:    "gemini",
		APIKey:      "test-gemini-key",
		TimeoutSecs: 30,
	}, serverURL)
}

func TestGemini_ExtractFields_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-gemini-key", r.Header.Get("x-goog-api-key"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		genCfg := reqBody["generationConfig"].(map[string]interface{})
		assert.Equal(t, "application/json", genCfg["responseMimeType"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]interface{}{{"text": `{"Titre": "Rapport annuel", "Date": 2024}`}}}},
			},
		})
	}))
	defer server.Close()

	out, err := newTestService(server.URL).ExtractFields(context.Background(), port.FieldRequest{Fields: []string{"Titre", "Date"}})

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Titre": "Rapport annuel", "Date": "2024"}, out.Values)
	assert.Equal(t, "gemini-2.0-flash", out.ModelUsed)
}

func TestGemini_ExtractFields_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	_, err := newTestService(server.URL).ExtractFields(context.Background(), port.FieldRequest{Fields: []string{"Titre"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}
