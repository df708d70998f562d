package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/honeypot/internal/profile"
	"github.com/hrygo/honeypot/plugin/ai/timeout"
)

// Backend provider names.
const (
	ProviderGroq     = "groq"
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderGemini   = "gemini"
	ProviderOllama   = "ollama"
)

// ErrNoProvider is returned when no backend in the ranked list could be initialized.
var ErrNoProvider = errors.New("no generative backend available")

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider    string // groq, openai, deepseek, gemini, ollama
	Model       string // llama-3.1-8b-instant
	APIKey      string
	BaseURL     string
	MaxTokens   int           // default: 100
	Temperature float32       // default: 0.7
	Timeout     time.Duration // default: timeout.BackendRequestTimeout
}

func (c *LLMConfig) applyDefaults() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.MaxTokens <= 0 {
		c.MaxTokens = 100
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.7
	}
	if c.Timeout <= 0 {
		c.Timeout = timeout.BackendRequestTimeout
	}
}

// Validate validates the configuration.
func (c *LLMConfig) Validate() error {
	if c.Provider == "" {
		return errors.New("LLM provider is required")
	}
	if c.Model == "" {
		return errors.New("LLM model is required")
	}
	if c.Provider != ProviderOllama && c.APIKey == "" {
		return errors.New("LLM API key is required")
	}
	if c.Provider == ProviderOllama && c.BaseURL == "" {
		return errors.New("ollama base URL is required")
	}
	return nil
}

// CandidatesFromProfile returns the backend configs in the profile's ranked
// order, skipping backends without credentials.
func CandidatesFromProfile(p *profile.Profile) []LLMConfig {
	var candidates []LLMConfig
	for _, name := range p.Providers() {
		cfg := LLMConfig{Provider: name}
		switch name {
		case ProviderGroq:
			cfg.APIKey, cfg.BaseURL, cfg.Model = p.GroqAPIKey, p.GroqBaseURL, p.GroqModel
		case ProviderOpenAI:
			cfg.APIKey, cfg.BaseURL, cfg.Model = p.OpenAIAPIKey, p.OpenAIBaseURL, p.OpenAIModel
		case ProviderGemini:
			cfg.APIKey, cfg.Model = p.GeminiAPIKey, p.GeminiModel
		case ProviderOllama:
			cfg.BaseURL, cfg.Model = p.OllamaBaseURL, p.OllamaModel
		default:
			slog.Warn("unknown LLM provider in ranked list", "provider", name)
			continue
		}
		if cfg.APIKey == "" && cfg.BaseURL == "" {
			continue
		}
		if name != ProviderOllama && cfg.APIKey == "" {
			continue
		}
		candidates = append(candidates, cfg)
	}
	return candidates
}

// ServiceFactory builds a backend from its configuration.
type ServiceFactory func(cfg *LLMConfig) (LLMService, error)

// SelectProvider tries each candidate in order and returns the first backend
// that initializes. The result is meant to be held for the process lifetime.
func SelectProvider(ctx context.Context, candidates []LLMConfig, factory ServiceFactory) (LLMService, error) {
	if factory == nil {
		factory = NewLLMService
	}

	for i := range candidates {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		cfg := candidates[i]
		cfg.applyDefaults()
		if err := cfg.Validate(); err != nil {
			slog.Warn("skipping LLM provider", "provider", cfg.Provider, "error", err)
			continue
		}
		svc, err := factory(&cfg)
		if err != nil {
			slog.Error("failed to initialize LLM provider", "provider", cfg.Provider, "error", err)
			continue
		}
		slog.Info("using LLM provider", "provider", cfg.Provider, "model", cfg.Model)
		return svc, nil
	}

	return nil, ErrNoProvider
}
