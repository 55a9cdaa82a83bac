// Package config loads the service configuration from the environment,
// with an optional YAML overlay for webhook targets. Environment always
// wins over the overlay; every field has a workable default so a bare
// `go run ./cmd/api` starts a usable dev instance.
package config

import (
	"os"
	"strconv"
	"time"
)

// LLM provider switches accepted by HOME_INVENTORY_LLM_PROVIDER.
const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderLMStudio   = "lmstudio"
	ProviderCompatible = "openai-compatible"
)

// Config is the full runtime configuration for the API and the worker.
type Config struct {
	APIPort      int
	WorkerToken  string
	UploadOrigin string
	APIBaseURL   string

	WorkerPollInterval time.Duration
	MaxJobAttempts     int

	LLM LLMConfig

	// Supplemental infrastructure. All optional; empty disables.
	PubSubProject  string
	PubSubTopic    string
	WebhookURL     string
	WebhookSecret  string
	ArchiveBackend string // memory | redis | postgres
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	PostgresDSN    string

	// Public-API rate limit, requests per minute per client key.
	// Zero or negative disables the limiter.
	RateLimitPerMinute int
}

// LLMConfig selects the planner/extractor provider and credentials.
type LLMConfig struct {
	Provider       string
	BaseURL        string
	PlannerModel   string
	ExtractorModel string
	RequestMode    string // responses | chat_completions
	APIKey         string
	SiteURL        string // OpenRouter HTTP-Referer attribution
	AppName        string // OpenRouter X-Title attribution
}

// FromEnv builds the configuration from HOME_INVENTORY_* variables.
func FromEnv() Config {
	cfg := Config{
		APIPort:            envInt("HOME_INVENTORY_API_PORT", 8789),
		WorkerToken:        os.Getenv("HOME_INVENTORY_WORKER_TOKEN"),
		UploadOrigin:       envStr("HOME_INVENTORY_UPLOAD_ORIGIN", "http://localhost:8789"),
		APIBaseURL:         envStr("HOME_INVENTORY_API_BASE_URL", "http://localhost:8789"),
		WorkerPollInterval: time.Duration(envInt("HOME_INVENTORY_WORKER_POLL_INTERVAL_MS", 3000)) * time.Millisecond,
		MaxJobAttempts:     envInt("HOME_INVENTORY_JOB_MAX_ATTEMPTS", 3),
		PubSubProject:      os.Getenv("HOME_INVENTORY_PUBSUB_PROJECT"),
		PubSubTopic:        os.Getenv("HOME_INVENTORY_PUBSUB_TOPIC"),
		WebhookURL:         os.Getenv("HOME_INVENTORY_WEBHOOK_URL"),
		WebhookSecret:      os.Getenv("HOME_INVENTORY_WEBHOOK_SECRET"),
		ArchiveBackend:     envStr("HOME_INVENTORY_ARCHIVE_BACKEND", "memory"),
		RedisAddr:          envStr("HOME_INVENTORY_REDIS_ADDR", "localhost:6379"),
		RedisPassword:      os.Getenv("HOME_INVENTORY_REDIS_PASSWORD"),
		RedisDB:            envInt("HOME_INVENTORY_REDIS_DB", 0),
		PostgresDSN:        os.Getenv("HOME_INVENTORY_POSTGRES_DSN"),
		RateLimitPerMinute: envInt("HOME_INVENTORY_RATE_LIMIT_PER_MINUTE", 0),
	}

	provider := os.Getenv("HOME_INVENTORY_LLM_PROVIDER")
	cfg.LLM = LLMConfig{
		Provider:       provider,
		BaseURL:        os.Getenv("HOME_INVENTORY_LLM_BASE_URL"),
		PlannerModel:   os.Getenv("HOME_INVENTORY_PLANNER_MODEL"),
		ExtractorModel: os.Getenv("HOME_INVENTORY_EXTRACTOR_MODEL"),
		RequestMode:    envStr("HOME_INVENTORY_LLM_REQUEST_MODE", "chat_completions"),
		APIKey:         apiKeyFor(provider),
		SiteURL:        os.Getenv("HOME_INVENTORY_OPENROUTER_SITE_URL"),
		AppName:        os.Getenv("HOME_INVENTORY_OPENROUTER_APP_NAME"),
	}
	return cfg
}

// apiKeyFor resolves the provider-specific API key variable.
func apiKeyFor(provider string) string {
	switch provider {
	case ProviderOpenAI, ProviderCompatible:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderOpenRouter:
		return os.Getenv("OPENROUTER_API_KEY")
	case ProviderGemini:
		if k := os.Getenv("GEMINI_API_KEY"); k != "" {
			return k
		}
		return os.Getenv("GOOGLE_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
