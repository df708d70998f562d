package ai

import (
	"context"
	"fmt"
	"strings"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// Chat roles understood by every backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// LLMService is the generative backend interface.
type LLMService interface {
	// Chat performs synchronous chat.
	Chat(ctx context.Context, messages []Message) (string, error)

	// Provider returns the backend name, e.g. "groq" or "gemini".
	Provider() string
}

// NewLLMService creates a new LLMService for one backend configuration.
func NewLLMService(cfg *LLMConfig) (LLMService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("llm config is nil")
	}
	cfg.applyDefaults()

	switch cfg.Provider {
	case ProviderGroq, ProviderOpenAI, ProviderDeepSeek, ProviderOllama:
		return newOpenAIService(cfg)
	case ProviderGemini:
		return newGeminiService(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// Helper for creating system prompts
func SystemPrompt(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// Helper for creating user messages
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Helper for creating assistant messages
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// splitSystem separates leading system messages from the dialogue.
// Backends with a dedicated system-instruction slot use it.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	i := 0
	for ; i < len(messages) && messages[i].Role == RoleSystem; i++ {
		system = append(system, messages[i].Content)
	}
	return strings.Join(system, "\n\n"), messages[i:]
}
