package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteChatCompletions(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": `{"ok":true}`}},
			},
		})
	}))
	defer srv.Close()

	c := New(Config{
		Provider:    ProviderCompatible,
		BaseURL:     srv.URL,
		Model:       "test-model",
		RequestMode: ModeChatCompletions,
	})
	out, err := c.Complete(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "test-model", gotBody["model"])
}

func TestCompleteResponsesMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"output": []map[string]any{
				{"content": []map[string]string{{"type": "output_text", "text": `{"items":[]}`}}},
			},
		})
	}))
	defer srv.Close()

	c := New(Config{
		Provider:    ProviderCompatible,
		BaseURL:     srv.URL,
		Model:       "test-model",
		RequestMode: ModeResponses,
	})
	out, err := c.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, out)
}

func TestCompleteNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(Config{Provider: ProviderCompatible, BaseURL: srv.URL, Model: "m"})
	_, err := c.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestConfigured(t *testing.T) {
	assert.False(t, New(Config{Provider: ProviderOpenAI, Model: "gpt"}).Configured())
	assert.True(t, New(Config{Provider: ProviderOpenAI, Model: "gpt", APIKey: "k"}).Configured())
	assert.True(t, New(Config{Provider: ProviderLMStudio, Model: "local"}).Configured())
	assert.False(t, New(Config{Provider: ProviderCompatible, Model: "m"}).Configured())
	assert.False(t, New(Config{Provider: ProviderOpenAI, APIKey: "k"}).Configured())
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences(`{"a":1}`))
}
