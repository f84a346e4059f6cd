package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshit-164/clio-agent-editor/internal/infrastructure/resilience"
)

type modelServer struct {
	mu       sync.Mutex
	requests []generateRequest
	status   int
	reply    string
}

func (m *modelServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	m.mu.Lock()
	m.requests = append(m.requests, req)
	status, reply := m.status, m.reply
	m.mu.Unlock()

	if status != 0 && status != http.StatusOK {
		http.Error(w, "boom", status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(generateResponse{Response: reply, Done: true})
}

func (m *modelServer) last(t *testing.T) generateRequest {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.requests)
	return m.requests[len(m.requests)-1]
}

func newTestClient(t *testing.T, m *modelServer) *Client {
	t.Helper()
	srv := httptest.NewServer(m)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, Model: "test-model", RetryMax: 0}, nil)
}

func TestSuggestStripsFencesAndMarker(t *testing.T) {
	m := &modelServer{reply: "```ts\nreturn a + b;|CURSOR|\n```"}
	c := newTestClient(t, m)

	got, err := c.Suggest(context.Background(), SuggestionRequest{
		FileContent:    "function add(a, b) {\n  \n}",
		CursorLine:     1,
		CursorColumn:   2,
		SuggestionType: "completion",
		FileName:       "math.ts",
	})
	require.NoError(t, err)
	assert.Equal(t, "return a + b;", got.Text)
	assert.False(t, got.Offline)
	assert.Equal(t, "TypeScript", got.Context.Language)
	assert.True(t, got.Context.IsInFunction)

	req := m.last(t)
	assert.Equal(t, "test-model", req.Model)
	assert.False(t, req.Stream)
	assert.Equal(t, 0.2, req.Options.Temperature)
	assert.Equal(t, 300, req.Options.NumPredict)
	assert.Contains(t, req.Prompt, "  |CURSOR|")
}

func TestSuggestOfflineHint(t *testing.T) {
	m := &modelServer{status: http.StatusServiceUnavailable}
	c := newTestClient(t, m)

	got, err := c.Suggest(context.Background(), SuggestionRequest{
		FileContent: "x", SuggestionType: "completion",
	})
	require.NoError(t, err)
	assert.True(t, got.Offline)
	assert.Equal(t, OfflineHint, got.Text)
}

func TestSuggestValidation(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1"}, nil)
	tests := []struct {
		name string
		req  SuggestionRequest
	}{
		{"empty content", SuggestionRequest{SuggestionType: "completion"}},
		{"missing type", SuggestionRequest{FileContent: "x"}},
		{"negative line", SuggestionRequest{FileContent: "x", SuggestionType: "c", CursorLine: -1}},
		{"negative column", SuggestionRequest{FileContent: "x", SuggestionType: "c", CursorColumn: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Suggest(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestChatFiltersHistory(t *testing.T) {
	m := &modelServer{reply: "  sure  "}
	c := newTestClient(t, m)

	history := []Message{{Role: RoleSystem, Content: "ignore me"}}
	for i := 0; i < 12; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		history = append(history, Message{Role: role, Content: "turn-" + string(rune('a'+i))})
	}

	reply, err := c.Chat(context.Background(), "hello", history)
	require.NoError(t, err)
	assert.Equal(t, "sure", reply.Response)

	prompt := m.last(t).Prompt
	assert.True(t, strings.HasPrefix(prompt, "SYSTEM: You are an expert AI coding assistant."))
	assert.NotContains(t, prompt, "ignore me")
	assert.NotContains(t, prompt, "turn-a")
	assert.NotContains(t, prompt, "turn-b")
	assert.Contains(t, prompt, "USER: turn-c")
	assert.True(t, strings.HasSuffix(prompt, "USER: hello"))
	assert.Equal(t, 0.7, m.last(t).Options.Temperature)
}

func TestChatErrors(t *testing.T) {
	m := &modelServer{status: http.StatusInternalServerError}
	c := newTestClient(t, m)

	_, err := c.Chat(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = c.Chat(context.Background(), "hi", nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
}

func TestEnhanceFallsBackToPrompt(t *testing.T) {
	m := &modelServer{status: http.StatusBadGateway}
	c := newTestClient(t, m)
	assert.Equal(t, "make a todo app", c.Enhance(context.Background(), "make a todo app"))

	m.mu.Lock()
	m.status, m.reply = 0, "Build a todo app with React and local storage."
	m.mu.Unlock()
	assert.Equal(t, "Build a todo app with React and local storage.", c.Enhance(context.Background(), "make a todo app"))
	assert.Equal(t, 500, m.last(t).Options.NumPredict)
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	m := &modelServer{status: http.StatusInternalServerError}
	c := newTestClient(t, m)

	for i := 0; i < 5; i++ {
		_, _ = c.Chat(context.Background(), "hi", nil)
	}
	assert.Equal(t, resilience.StateOpen, c.BreakerState())

	_, err := c.Chat(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestClientErrorsDoNotTrip(t *testing.T) {
	m := &modelServer{status: http.StatusNotFound}
	c := newTestClient(t, m)

	for i := 0; i < 6; i++ {
		_, _ = c.Chat(context.Background(), "hi", nil)
	}
	assert.Equal(t, resilience.StateClosed, c.BreakerState())
}

func TestAnalyzeContext(t *testing.T) {
	content := "class Box {\n  open() {\n    // call(\n  }\n}"
	cc := AnalyzeContext(content, 2, 12, "")

	assert.Equal(t, "JavaScript", cc.Language)
	assert.Equal(t, "None", cc.Framework)
	assert.Equal(t, "class Box {\n  open() {", cc.BeforeContext)
	assert.Equal(t, "  }\n}", cc.AfterContext)
	assert.True(t, cc.IsInClass)
	assert.True(t, cc.IsAfterComment)
	assert.Equal(t, []string{"params"}, cc.IncompletePatterns)

	beyond := AnalyzeContext("a", 5, 99, "main.go")
	assert.Equal(t, "Go", beyond.Language)
	assert.Empty(t, beyond.CurrentLine)
}

func TestDetectFramework(t *testing.T) {
	assert.Equal(t, "React", DetectFramework("const [a, setA] = useState(0)"))
	assert.Equal(t, "Next.js", DetectFramework(`import Link from "next/link"`))
	assert.Equal(t, "TypeScript", DetectLanguage("interface A {}", "notes.txt"))
}

func TestCleanSuggestionEmpty(t *testing.T) {
	assert.Equal(t, noSuggestion, CleanSuggestion("```\n```"))
}
