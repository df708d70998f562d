package ai

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"
)

// geminiService generates replies with Google's Gemini API.
type geminiService struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
}

func newGeminiService(cfg *LLMConfig) (*geminiService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GenAI client")
	}

	return &geminiService{
		client:      client,
		model:       cfg.Model,
		maxTokens:   int32(cfg.MaxTokens),
		temperature: cfg.Temperature,
	}, nil
}

func (s *geminiService) Provider() string {
	return ProviderGemini
}

func (s *geminiService) Chat(ctx context.Context, messages []Message) (string, error) {
	system, dialogue := splitSystem(messages)

	contents := make([]*genai.Content, 0, len(dialogue))
	for _, m := range dialogue {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(s.temperature),
		MaxOutputTokens: s.maxTokens,
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, config)
	if err != nil {
		return "", errors.Wrap(err, "GenAI generate failed")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("GenAI returned an empty response")
	}
	return text, nil
}
