package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, 8789, cfg.APIPort)
	assert.Equal(t, "http://localhost:8789", cfg.UploadOrigin)
	assert.Equal(t, "http://localhost:8789", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.WorkerPollInterval)
	assert.Equal(t, 3, cfg.MaxJobAttempts)
	assert.Equal(t, "memory", cfg.ArchiveBackend)
	assert.Equal(t, "chat_completions", cfg.LLM.RequestMode)
	assert.Equal(t, 0, cfg.RateLimitPerMinute)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HOME_INVENTORY_API_PORT", "9090")
	t.Setenv("HOME_INVENTORY_WORKER_TOKEN", "tok")
	t.Setenv("HOME_INVENTORY_WORKER_POLL_INTERVAL_MS", "500")
	t.Setenv("HOME_INVENTORY_JOB_MAX_ATTEMPTS", "5")
	t.Setenv("HOME_INVENTORY_ARCHIVE_BACKEND", "redis")
	t.Setenv("HOME_INVENTORY_RATE_LIMIT_PER_MINUTE", "120")

	cfg := FromEnv()
	assert.Equal(t, 9090, cfg.APIPort)
	assert.Equal(t, "tok", cfg.WorkerToken)
	assert.Equal(t, 500*time.Millisecond, cfg.WorkerPollInterval)
	assert.Equal(t, 5, cfg.MaxJobAttempts)
	assert.Equal(t, "redis", cfg.ArchiveBackend)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
}

func TestFromEnvBadIntFallsBack(t *testing.T) {
	t.Setenv("HOME_INVENTORY_API_PORT", "not-a-port")
	cfg := FromEnv()
	assert.Equal(t, 8789, cfg.APIPort)
}

func TestAPIKeyFollowsProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("OPENROUTER_API_KEY", "sk-router")
	t.Setenv("GEMINI_API_KEY", "sk-gemini")

	t.Setenv("HOME_INVENTORY_LLM_PROVIDER", ProviderOpenRouter)
	assert.Equal(t, "sk-router", FromEnv().LLM.APIKey)

	t.Setenv("HOME_INVENTORY_LLM_PROVIDER", ProviderGemini)
	assert.Equal(t, "sk-gemini", FromEnv().LLM.APIKey)

	t.Setenv("HOME_INVENTORY_LLM_PROVIDER", ProviderOpenAI)
	assert.Equal(t, "sk-openai", FromEnv().LLM.APIKey)
}

func TestLoadOverlayEmptyPathIsNoop(t *testing.T) {
	overlay, err := LoadOverlay("")
	require.NoError(t, err)
	assert.Empty(t, overlay.Webhooks)
}

func TestLoadOverlayMissingFileErrors(t *testing.T) {
	_, err := LoadOverlay(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadOverlayParsesTargets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.yaml")
	doc := `
webhooks:
  - url: https://hooks.example.com/pantry
    secret: s1
    events:
      - receipt.parsed
      - job.failed
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	overlay, err := LoadOverlay(path)
	require.NoError(t, err)
	require.Len(t, overlay.Webhooks, 1)
	hook := overlay.Webhooks[0]
	assert.Equal(t, "https://hooks.example.com/pantry", hook.URL)
	assert.Equal(t, "s1", hook.Secret)
	assert.Equal(t, []string{"receipt.parsed", "job.failed"}, hook.Events)
}

func TestTargetsMergesEnvWebhookFirst(t *testing.T) {
	cfg := Config{WebhookURL: "https://env.example.com/hook", WebhookSecret: "s0"}
	overlay := Overlay{Webhooks: []WebhookTarget{{URL: "https://file.example.com/hook"}}}

	targets := cfg.Targets(overlay)
	require.Len(t, targets, 2)
	assert.Equal(t, "https://env.example.com/hook", targets[0].URL)
	assert.Equal(t, "s0", targets[0].Secret)
	assert.Equal(t, "https://file.example.com/hook", targets[1].URL)
}
