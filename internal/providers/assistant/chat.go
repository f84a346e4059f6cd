package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const systemPrompt = `You are an expert AI coding assistant. You help developers with:
- Code explanations and debugging
- Best practices and architecture advice
- Writing clean, efficient code
- Troubleshooting errors
- Code reviews and optimizations

Always provide clear, practical answers. When showing code, use proper formatting with language-specific syntax.
Keep responses concise but comprehensive. Use code blocks with language specification when providing code examples.`

// Chat answers message given the earlier conversation. Only user and
// assistant turns are kept, and only the last MaxHistory of those.
func (c *Client) Chat(ctx context.Context, message string, history []Message) (*Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}

	text, err := c.generate(ctx, "chat", BuildChatPrompt(message, history), generateOptions{
		Temperature: 0.7,
		TopP:        0.9,
		NumPredict:  2048,
	})
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	if text == "" {
		return nil, ErrEmptyResponse
	}
	return &Reply{Response: text, Timestamp: time.Now().UTC()}, nil
}

// BuildChatPrompt flattens the system prompt, filtered history and the new
// message into "ROLE: content" blocks.
func BuildChatPrompt(message string, history []Message) string {
	turns := make([]Message, 0, len(history)+2)
	turns = append(turns, Message{Role: RoleSystem, Content: systemPrompt})
	turns = append(turns, FilterHistory(history)...)
	turns = append(turns, Message{Role: RoleUser, Content: message})

	parts := make([]string, len(turns))
	for i, m := range turns {
		parts[i] = strings.ToUpper(string(m.Role)) + ": " + m.Content
	}
	return strings.Join(parts, "\n\n")
}

// FilterHistory drops non-conversational roles and keeps the most recent
// MaxHistory turns.
func FilterHistory(history []Message) []Message {
	kept := make([]Message, 0, len(history))
	for _, m := range history {
		if m.Role == RoleUser || m.Role == RoleAssistant {
			kept = append(kept, m)
		}
	}
	if len(kept) > MaxHistory {
		kept = kept[len(kept)-MaxHistory:]
	}
	return kept
}

// Enhance rewrites a short prompt into a more detailed one. Any failure
// returns the prompt unchanged.
func (c *Client) Enhance(ctx context.Context, prompt string) string {
	if strings.TrimSpace(prompt) == "" {
		return prompt
	}
	req := "You are a prompt enhancement assistant. Take the following basic prompt and make it more detailed and effective for a coding assistant.\n\n" +
		fmt.Sprintf("Original prompt: %q\n\n", prompt) +
		"Return only the enhanced prompt text, no explanations."

	text, err := c.generate(ctx, "enhance", req, generateOptions{Temperature: 0.3, NumPredict: 500})
	if err != nil || text == "" {
		return prompt
	}
	return text
}
