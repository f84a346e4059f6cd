package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const cursorMarker = "|CURSOR|"

// OfflineHint is returned in place of a suggestion when the model server
// cannot be reached.
const OfflineHint = "// AI suggestions require Ollama running on localhost:11434\n" +
	"// Install: https://ollama.ai\n" +
	"// Run: ollama run qwen2.5-coder:1.5b"

const noSuggestion = "// No suggestion"

var codeFence = regexp.MustCompile("```[\\w]*\\n?|```")

// Suggest asks the model for code to insert at the cursor. Model server
// failures produce an offline hint rather than an error.
func (c *Client) Suggest(ctx context.Context, req SuggestionRequest) (*Suggestion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cc := AnalyzeContext(req.FileContent, req.CursorLine, req.CursorColumn, req.FileName)
	out := &Suggestion{Context: cc}

	text, err := c.generate(ctx, "suggest", BuildSuggestionPrompt(cc, req.SuggestionType), generateOptions{
		Temperature: 0.2,
		TopP:        0.9,
		NumPredict:  300,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		out.Text = OfflineHint
		out.Offline = true
	} else {
		out.Text = CleanSuggestion(text)
	}
	out.GeneratedAt = time.Now().UTC()
	return out, nil
}

// BuildSuggestionPrompt renders the completion prompt with the cursor
// marked inline.
func BuildSuggestionPrompt(cc CodeContext, suggestionType string) string {
	var b strings.Builder
	b.WriteString("You are an expert code completion assistant.\n")
	b.WriteString("Generate only the code snippet that should be inserted exactly at the " + cursorMarker + " marker.\n\n")
	fmt.Fprintf(&b, "Language: %s\nFramework: %s\n", cc.Language, cc.Framework)
	if suggestionType != "" {
		fmt.Fprintf(&b, "Suggestion type: %s\n", suggestionType)
	}
	b.WriteString("\nContext:\n")
	b.WriteString(cc.BeforeContext + "\n")
	col := cc.CursorPosition.Column
	b.WriteString(prefix(cc.CurrentLine, col) + cursorMarker + suffix(cc.CurrentLine, col) + "\n")
	b.WriteString(cc.AfterContext + "\n\n")
	b.WriteString("Instructions:\n")
	b.WriteString("1. Provide ONLY the code.\n")
	b.WriteString("2. No explanations, no markdown backticks, no comments.\n")
	b.WriteString("3. Match the existing indentation.")
	return b.String()
}

// CleanSuggestion strips markdown fences and echoed cursor markers.
func CleanSuggestion(s string) string {
	s = strings.TrimSpace(codeFence.ReplaceAllString(s, ""))
	s = strings.TrimSpace(strings.ReplaceAll(s, cursorMarker, ""))
	if s == "" {
		return noSuggestion
	}
	return s
}
