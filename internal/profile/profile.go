package profile

import (
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultScamThreshold gates whether a fresh session is treated as a scam.
	DefaultScamThreshold = 0.7
	// DefaultMaxTurns is the turn ceiling that forces a report.
	DefaultMaxTurns = 15
	// DevAPIKey is the shared key assumed outside prod when none is configured.
	DevAPIKey = "test_key_123"
	// DefaultReportURL is the upstream endpoint receiving final session reports.
	DefaultReportURL = "https://hackathon.guvi.in/api/updateHoneyPotFinalResult"
)

// Profile is the configuration to start the honeypot server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Version is the current version of server
	Version string

	// APIKey is the shared key callers send in the x-api-key header.
	APIKey string

	// Engagement policy
	ScamThreshold float64 // HONEYPOT_SCAM_THRESHOLD (default: 0.7)
	MaxTurns      int     // HONEYPOT_MAX_TURNS (default: 15)
	TriggerExpr   string  // HONEYPOT_REPORT_TRIGGER (default: built-in rule)

	// Report delivery
	ReportURL     string        // HONEYPOT_REPORT_URL
	ReportTimeout time.Duration // HONEYPOT_REPORT_TIMEOUT (default: 10s)

	// Generative backends, tried in LLMProviders order.
	LLMProviders  string // HONEYPOT_LLM_PROVIDERS (default: groq,openai,gemini,ollama)
	GroqAPIKey    string // HONEYPOT_GROQ_API_KEY (legacy: GROQ_API_KEY)
	GroqBaseURL   string // HONEYPOT_GROQ_BASE_URL (default: https://api.groq.com/openai/v1)
	GroqModel     string // HONEYPOT_GROQ_MODEL (default: llama-3.1-8b-instant)
	OpenAIAPIKey  string // HONEYPOT_OPENAI_API_KEY (legacy: OPENAI_API_KEY)
	OpenAIBaseURL string // HONEYPOT_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	OpenAIModel   string // HONEYPOT_OPENAI_MODEL (default: gpt-3.5-turbo)
	GeminiAPIKey  string // HONEYPOT_GEMINI_API_KEY (legacy: GEMINI_API_KEY)
	GeminiModel   string // HONEYPOT_GEMINI_MODEL (default: gemini-2.0-flash)
	OllamaBaseURL string // HONEYPOT_OLLAMA_BASE_URL (empty disables ollama)
	OllamaModel   string // HONEYPOT_OLLAMA_MODEL (default: llama3.1)

	// Runtime limits
	ReplyDeadline        time.Duration // HONEYPOT_REPLY_DEADLINE (default: 8s)
	MaxConcurrentReplies int64         // HONEYPOT_MAX_CONCURRENT_REPLIES (default: 16)
	RateLimitPerSecond   float64       // HONEYPOT_RATE_LIMIT_RPS (default: 10)
	RateLimitBurst       int           // HONEYPOT_RATE_LIMIT_BURST (default: 20)
	SessionRetention     time.Duration // HONEYPOT_SESSION_RETENTION (default: 24h)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// HasLLMBackend returns true if at least one generative backend has credentials.
func (p *Profile) HasLLMBackend() bool {
	return p.GroqAPIKey != "" || p.OpenAIAPIKey != "" || p.GeminiAPIKey != "" || p.OllamaBaseURL != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads backend credentials and tuning knobs from environment variables.
// HONEYPOT_* keys win; bare provider keys (GROQ_API_KEY, OPENAI_API_KEY) are
// accepted as a fallback.
func (p *Profile) FromEnv() {
	getEnvWithFallback := func(newKey, legacyKey string) string {
		if val := os.Getenv(newKey); val != "" {
			return val
		}
		return os.Getenv(legacyKey)
	}

	getDurationEnv := func(key string, current, defaultValue time.Duration) time.Duration {
		if raw := os.Getenv(key); raw != "" {
			if d, err := time.ParseDuration(raw); err == nil {
				return d
			}
			slog.Warn("ignoring invalid duration", slog.String("key", key), slog.String("value", raw))
		}
		if current > 0 {
			return current
		}
		return defaultValue
	}

	getIntEnv := func(key string, current, defaultValue int) int {
		if raw := os.Getenv(key); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				return n
			}
			slog.Warn("ignoring invalid integer", slog.String("key", key), slog.String("value", raw))
		}
		if current > 0 {
			return current
		}
		return defaultValue
	}

	getFloatEnv := func(key string, current, defaultValue float64) float64 {
		if raw := os.Getenv(key); raw != "" {
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				return f
			}
			slog.Warn("ignoring invalid number", slog.String("key", key), slog.String("value", raw))
		}
		if current > 0 {
			return current
		}
		return defaultValue
	}

	if p.APIKey == "" {
		p.APIKey = os.Getenv("HONEYPOT_API_KEY")
	}
	if p.APIKey == "" && p.Mode != "prod" {
		p.APIKey = DevAPIKey
	}
	if p.ReportURL == "" {
		p.ReportURL = getEnvOrDefault("HONEYPOT_REPORT_URL", DefaultReportURL)
	}
	if p.TriggerExpr == "" {
		p.TriggerExpr = os.Getenv("HONEYPOT_REPORT_TRIGGER")
	}
	p.ScamThreshold = getFloatEnv("HONEYPOT_SCAM_THRESHOLD", p.ScamThreshold, DefaultScamThreshold)
	p.MaxTurns = getIntEnv("HONEYPOT_MAX_TURNS", p.MaxTurns, DefaultMaxTurns)
	p.ReportTimeout = getDurationEnv("HONEYPOT_REPORT_TIMEOUT", p.ReportTimeout, 10*time.Second)

	p.LLMProviders = getEnvOrDefault("HONEYPOT_LLM_PROVIDERS", "groq,openai,gemini,ollama")
	p.GroqAPIKey = getEnvWithFallback("HONEYPOT_GROQ_API_KEY", "GROQ_API_KEY")
	p.GroqBaseURL = getEnvOrDefault("HONEYPOT_GROQ_BASE_URL", "https://api.groq.com/openai/v1")
	p.GroqModel = getEnvOrDefault("HONEYPOT_GROQ_MODEL", "llama-3.1-8b-instant")
	p.OpenAIAPIKey = getEnvWithFallback("HONEYPOT_OPENAI_API_KEY", "OPENAI_API_KEY")
	p.OpenAIBaseURL = getEnvOrDefault("HONEYPOT_OPENAI_BASE_URL", "https://api.openai.com/v1")
	p.OpenAIModel = getEnvOrDefault("HONEYPOT_OPENAI_MODEL", "gpt-3.5-turbo")
	p.GeminiAPIKey = getEnvWithFallback("HONEYPOT_GEMINI_API_KEY", "GEMINI_API_KEY")
	p.GeminiModel = getEnvOrDefault("HONEYPOT_GEMINI_MODEL", "gemini-2.0-flash")
	p.OllamaBaseURL = os.Getenv("HONEYPOT_OLLAMA_BASE_URL")
	p.OllamaModel = getEnvOrDefault("HONEYPOT_OLLAMA_MODEL", "llama3.1")

	p.ReplyDeadline = getDurationEnv("HONEYPOT_REPLY_DEADLINE", p.ReplyDeadline, 8*time.Second)
	p.MaxConcurrentReplies = int64(getIntEnv("HONEYPOT_MAX_CONCURRENT_REPLIES", int(p.MaxConcurrentReplies), 16))
	p.RateLimitPerSecond = getFloatEnv("HONEYPOT_RATE_LIMIT_RPS", p.RateLimitPerSecond, 10)
	p.RateLimitBurst = getIntEnv("HONEYPOT_RATE_LIMIT_BURST", p.RateLimitBurst, 20)
	p.SessionRetention = getDurationEnv("HONEYPOT_SESSION_RETENTION", p.SessionRetention, 24*time.Hour)
}

// Providers returns the ranked backend names in lookup order.
func (p *Profile) Providers() []string {
	var names []string
	for _, name := range strings.Split(p.LLMProviders, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}

	if p.ScamThreshold <= 0 || p.ScamThreshold > 1 {
		return errors.Errorf("scam threshold must be within (0, 1], got %v", p.ScamThreshold)
	}

	if p.MaxTurns < 1 {
		return errors.Errorf("max turns must be positive, got %d", p.MaxTurns)
	}

	if p.APIKey == "" {
		return errors.New("api key is required")
	}
	if p.Mode == "prod" && p.APIKey == DevAPIKey {
		return errors.New("prod mode requires an explicit api key")
	}

	if p.ReportURL != "" {
		if _, err := url.ParseRequestURI(p.ReportURL); err != nil {
			return errors.Wrapf(err, "invalid report url %s", p.ReportURL)
		}
	}

	if !p.HasLLMBackend() {
		slog.Warn("no generative backend configured, persona replies will use fallback text")
	}

	return nil
}
