package ai

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// openAIService talks to any OpenAI-compatible chat completion API
// (OpenAI, Groq, DeepSeek, Ollama's /v1 endpoint).
type openAIService struct {
	client      *openai.Client
	provider    string
	model       string
	maxTokens   int
	temperature float32
}

func newOpenAIService(cfg *LLMConfig) (*openAIService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	apiKey := cfg.APIKey
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Provider == ProviderOllama {
		// Ollama ignores the key but the client insists on one.
		if apiKey == "" {
			apiKey = "ollama"
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL += "/v1"
		}
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &openAIService{
		client:      openai.NewClientWithConfig(clientConfig),
		provider:    cfg.Provider,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (s *openAIService) Provider() string {
	return s.provider
}

func (s *openAIService) Chat(ctx context.Context, messages []Message) (string, error) {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		llmMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    llmMessages,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", errors.Wrapf(err, "%s chat completion", s.provider)
	}
	if len(resp.Choices) == 0 {
		return "", errors.Errorf("%s returned an empty chat response", s.provider)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.Errorf("%s returned a blank message", s.provider)
	}
	return content, nil
}
