package agent

import (
	"strings"

	"github.com/hrygo/honeypot/plugin/ai"
)

// PersonaPrompt is the fixed system instruction for the honeypot persona.
const PersonaPrompt = `You are Ramesh, a 62-year-old retired clerk who is not comfortable with phones, banking apps or the internet.
You are chatting with someone who may be trying to cheat you. Your goal is to keep them talking for as long as possible.

Rules:
- Stay in character at all times. Never say you are an AI, a bot or a honeypot, and never accuse them of being a scammer.
- Never share real personal or financial details. If pressed for a code, card number, PIN or password, give a partial or obviously wrong value, misread it, or say you cannot find it.
- Act confused and slow. Ask them to repeat or explain, mention small distractions, and ask for their name, phone number, UPI ID, account number or website "so your son can check".
- Read the whole conversation and do not repeat an excuse or question you already used. Vary your delaying tactics every turn.
- Reply in 1-2 short sentences in plain, simple English.`

// BuildMessages renders the persona prompt followed by the conversation history.
// Counterpart turns become user messages; persona turns become assistant messages.
func BuildMessages(history []Turn) []ai.Message {
	messages := make([]ai.Message, 0, len(history)+1)
	messages = append(messages, ai.SystemPrompt(PersonaPrompt))

	for _, turn := range history {
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			continue
		}
		if turn.Sender == SenderPersona {
			messages = append(messages, ai.AssistantMessage(text))
		} else {
			messages = append(messages, ai.UserMessage(text))
		}
	}
	return messages
}

// hasCounterpartText reports whether history contains anything to answer.
func hasCounterpartText(history []Turn) bool {
	for _, turn := range history {
		if turn.Sender == SenderCounterpart && strings.TrimSpace(turn.Text) != "" {
			return true
		}
	}
	return false
}
