package assistant

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidRequest = errors.New("invalid assistant request")
	ErrEmptyResponse  = errors.New("model returned an empty response")
)

// MaxHistory is how many earlier messages are forwarded with a chat turn.
const MaxHistory = 10

// Config configures the model server client.
type Config struct {
	BaseURL      string
	Model        string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64
}

// DefaultConfig targets a local Ollama server.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "http://localhost:11434",
		Model:        "qwen2.5-coder:1.5b",
		Timeout:      60 * time.Second,
		RetryMax:     2,
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 5 * time.Second,
		RateLimit:    5,
	}
}

// SuggestionRequest asks for code to insert at the cursor.
type SuggestionRequest struct {
	FileContent    string `json:"fileContent"`
	CursorLine     int    `json:"cursorLine"`
	CursorColumn   int    `json:"cursorColumn"`
	SuggestionType string `json:"suggestionType"`
	FileName       string `json:"fileName,omitempty"`
}

// Validate mirrors the editor's contract: content and type are required
// and the cursor cannot be negative.
func (r SuggestionRequest) Validate() error {
	switch {
	case r.FileContent == "":
		return fmt.Errorf("%w: fileContent is required", ErrInvalidRequest)
	case r.SuggestionType == "":
		return fmt.Errorf("%w: suggestionType is required", ErrInvalidRequest)
	case r.CursorLine < 0 || r.CursorColumn < 0:
		return fmt.Errorf("%w: cursor position is negative", ErrInvalidRequest)
	}
	return nil
}

// Position is a cursor location.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Suggestion is the completion returned to the editor.
type Suggestion struct {
	Text        string      `json:"suggestion"`
	Context     CodeContext `json:"context"`
	Offline     bool        `json:"offline,omitempty"`
	GeneratedAt time.Time   `json:"generatedAt"`
}

// Role of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one chat turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Reply is a chat answer.
type Reply struct {
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p,omitempty"`
	NumPredict  int     `json:"num_predict"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// StatusError is a non-2xx answer from the model server.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("model server returned %s", e.Status)
}
