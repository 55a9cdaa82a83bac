// Package llm is a minimal JSON-completions client for the configured
// provider. The planner and the worker's extractor both talk through it;
// they only ever need "send a prompt, get one JSON document back".
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Providers understood by the client. All of them speak an
// OpenAI-compatible surface; gemini is reached through its
// OpenAI-compatibility endpoint.
const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderLMStudio   = "lmstudio"
	ProviderCompatible = "openai-compatible"
)

// Request modes.
const (
	ModeResponses       = "responses"
	ModeChatCompletions = "chat_completions"
)

// Config selects the provider endpoint and credentials.
type Config struct {
	Provider    string
	BaseURL     string // overrides the provider default when set
	APIKey      string
	Model       string
	RequestMode string // responses | chat_completions

	// OpenRouter attribution headers.
	SiteURL string // HTTP-Referer
	AppName string // X-Title

	Timeout time.Duration
}

// Client posts prompts and returns the model's text output.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// New builds a client. A zero timeout defaults to 25s.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 25 * time.Second
	}
	if cfg.RequestMode == "" {
		cfg.RequestMode = ModeChatCompletions
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

// Configured reports whether the client has enough configuration to
// reach a provider.
func (c *Client) Configured() bool {
	if c.cfg.Model == "" {
		return false
	}
	switch c.cfg.Provider {
	case ProviderLMStudio:
		return true // local server, key optional
	case ProviderCompatible:
		return c.cfg.BaseURL != ""
	case ProviderOpenAI, ProviderOpenRouter, ProviderGemini:
		return c.cfg.APIKey != ""
	default:
		return false
	}
}

func (c *Client) baseURL() string {
	if c.cfg.BaseURL != "" {
		return strings.TrimRight(c.cfg.BaseURL, "/")
	}
	switch c.cfg.Provider {
	case ProviderOpenAI:
		return "https://api.openai.com/v1"
	case ProviderOpenRouter:
		return "https://openrouter.ai/api/v1"
	case ProviderGemini:
		return "https://generativelanguage.googleapis.com/v1beta/openai"
	case ProviderLMStudio:
		return "http://localhost:1234/v1"
	default:
		return ""
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Complete sends a system+user prompt and returns the raw text of the
// model's reply. The context deadline bounds the whole round trip.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	base := c.baseURL()
	if base == "" {
		return "", fmt.Errorf("llm: no base URL for provider %q", c.cfg.Provider)
	}

	var path string
	var body any
	switch c.cfg.RequestMode {
	case ModeResponses:
		path = base + "/responses"
		body = map[string]any{
			"model":        c.cfg.Model,
			"instructions": system,
			"input":        user,
		}
	default:
		path = base + "/chat/completions"
		body = map[string]any{
			"model": c.cfg.Model,
			"messages": []chatMessage{
				{Role: "system", Content: system},
				{Role: "user", Content: user},
			},
			"temperature":     0.2,
			"response_format": map[string]string{"type": "json_object"},
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if c.cfg.Provider == ProviderOpenRouter {
		if c.cfg.SiteURL != "" {
			req.Header.Set("HTTP-Referer", c.cfg.SiteURL)
		}
		if c.cfg.AppName != "" {
			req.Header.Set("X-Title", c.cfg.AppName)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: provider returned %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	text, err := extractText(c.cfg.RequestMode, raw)
	if err != nil {
		return "", err
	}
	return text, nil
}

// extractText pulls the model's text out of either wire shape.
func extractText(mode string, raw []byte) (string, error) {
	if mode == ModeResponses {
		var r struct {
			OutputText string `json:"output_text"`
			Output     []struct {
				Content []struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"content"`
			} `json:"output"`
		}
		if err := json.Unmarshal(raw, &r); err != nil {
			return "", fmt.Errorf("llm: decode responses payload: %w", err)
		}
		if r.OutputText != "" {
			return r.OutputText, nil
		}
		for _, out := range r.Output {
			for _, c := range out.Content {
				if c.Type == "output_text" && c.Text != "" {
					return c.Text, nil
				}
			}
		}
		return "", fmt.Errorf("llm: responses payload had no output text")
	}

	var r struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", fmt.Errorf("llm: decode chat payload: %w", err)
	}
	if len(r.Choices) == 0 || r.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("llm: chat payload had no choices")
	}
	return r.Choices[0].Message.Content, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// StripFences removes a Markdown code fence around a JSON document, a
// habit several providers cannot unlearn.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
