package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/harshit-164/clio-agent-editor/internal/autorun"
	"github.com/harshit-164/clio-agent-editor/internal/domain/playground"
	"github.com/harshit-164/clio-agent-editor/internal/domain/template"
	"github.com/harshit-164/clio-agent-editor/internal/engine"
	"github.com/harshit-164/clio-agent-editor/internal/engine/enginetest"
	"github.com/harshit-164/clio-agent-editor/internal/providers/assistant"
	"github.com/harshit-164/clio-agent-editor/internal/sandbox"
	"github.com/harshit-164/clio-agent-editor/internal/shared/clock"
	"github.com/harshit-164/clio-agent-editor/internal/terminal"
)

type mockAssistant struct {
	mock.Mock
}

func (m *mockAssistant) Suggest(ctx context.Context, req assistant.SuggestionRequest) (*assistant.Suggestion, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(*assistant.Suggestion)
	return s, args.Error(1)
}

func (m *mockAssistant) Chat(ctx context.Context, message string, history []assistant.Message) (*assistant.Reply, error) {
	args := m.Called(ctx, message, history)
	r, _ := args.Get(0).(*assistant.Reply)
	return r, args.Error(1)
}

func (m *mockAssistant) Enhance(ctx context.Context, prompt string) string {
	return m.Called(ctx, prompt).String(0)
}

type fixture struct {
	engine    *enginetest.Engine
	session   *playground.Session
	assistant *mockAssistant
	router    *gin.Engine
}

func newFixture(t *testing.T, withAssistant bool) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	starter := filepath.Join(root, "react-ts", "src")
	require.NoError(t, os.MkdirAll(starter, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(starter, "App.jsx"), []byte("export default 1\n"), 0o644))
	catalog, err := template.NewCatalog(root, nil)
	require.NoError(t, err)

	f := &fixture{engine: enginetest.New(), assistant: &mockAssistant{}}
	f.session = playground.NewSession(sandbox.NewManager(f.engine, nil), playground.Config{
		Shell:   terminal.Config{Command: "jsh", Size: engine.TerminalSize{Cols: 80, Rows: 24}},
		Autorun: autorun.Config{Command: "npm install && npm run dev", SettleDelay: time.Second},
	}, playground.WithClock(clock.NewFake(time.Unix(0, 0))))
	t.Cleanup(f.session.Close)

	var asst Assistant
	if withAssistant {
		asst = f.assistant
	}
	f.router = gin.New()
	NewHandlers(f.session, catalog, asst, nil).Register(f.router)
	return f
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) openMounted(t *testing.T, body any) {
	t.Helper()
	w := f.do(http.MethodPost, "/api/playground", body)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	require.Eventually(t, func() bool {
		st := f.session.State()
		return st.Mounted && !st.Loading
	}, time.Second, time.Millisecond)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["assistant"].(map[string]any)["configured"])

	w = f.do(http.MethodGet, "/", nil)
	assert.Equal(t, "online", decode(t, w)["status"])
}

func TestMetricsJSON(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(http.MethodGet, "/metrics/json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Contains(t, body, "summary")
	assert.NotContains(t, body, "assistant")
	assert.Equal(t, false, body["playground"].(map[string]any)["opened"])
	assert.EqualValues(t, 0, body["summary"].(map[string]any)["total_requests"])
}

func TestTemplates(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(http.MethodGet, "/api/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 6, decode(t, w)["count"])

	w = f.do(http.MethodGet, "/api/templates/REACT", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "export default 1")

	w = f.do(http.MethodGet, "/api/templates/SVELTE", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestOpenPlaygroundWithFiles(t *testing.T) {
	f := newFixture(t, false)
	f.openMounted(t, map[string]any{
		"template": "VUE",
		"files": map[string]any{
			"folderName": "app",
			"items": []any{
				map[string]any{"filename": "index", "fileExtension": "html", "content": "<div/>"},
			},
		},
	})

	mounts := f.engine.Instance().Mounts()
	require.Len(t, mounts, 1)
	assert.Equal(t, []string{"index.html"}, mounts[0].Paths())

	w := f.do(http.MethodGet, "/api/playground", nil)
	state := decode(t, w)["state"].(map[string]any)
	assert.Equal(t, "VUE", state["template"])
	assert.Equal(t, true, state["mounted"])

	w = f.do(http.MethodPost, "/api/playground", map[string]any{"template": "VUE"})
	assert.Equal(t, http.StatusAccepted, w.Code, "reopening the same template is a no-op")

	w = f.do(http.MethodPost, "/api/playground", map[string]any{"template": "ANGULAR"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Len(t, f.engine.Instance().Mounts(), 1)
}

func TestOpenPlaygroundLoadsStarter(t *testing.T) {
	f := newFixture(t, false)
	f.openMounted(t, map[string]any{"template": "REACT"})

	mounts := f.engine.Instance().Mounts()
	require.Len(t, mounts, 1)
	assert.Equal(t, []string{"src/App.jsx"}, mounts[0].Paths())
}

func TestOpenPlaygroundRejectsBadTree(t *testing.T) {
	f := newFixture(t, false)
	w := f.do(http.MethodPost, "/api/playground", map[string]any{
		"template": "REACT",
		"files":    map[string]any{"folderName": "app", "items": []any{map[string]any{"size": 1}}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreview(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(http.MethodGet, "/api/playground/preview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "placeholder", decode(t, w)["kind"])

	w = f.do(http.MethodGet, "/api/playground/preview?render=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))

	f.openMounted(t, map[string]any{"template": "REACT"})
	f.engine.Instance().EmitServerReady(5173, "http://localhost:5173")
	require.Eventually(t, func() bool { return f.session.State().ReadyURL != "" }, time.Second, time.Millisecond)

	w = f.do(http.MethodGet, "/api/playground/preview", nil)
	body := decode(t, w)
	assert.Equal(t, "url", body["kind"])
	assert.Equal(t, "http://localhost:5173", body["url"])

	w = f.do(http.MethodGet, "/api/playground/preview?render=1", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Location"))
}

func TestWriteFile(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(http.MethodPut, "/api/playground/files/src/App.jsx", map[string]any{"content": "x"})
	assert.Equal(t, http.StatusConflict, w.Code, "no sandbox yet")

	f.openMounted(t, map[string]any{"template": "REACT"})

	w = f.do(http.MethodPut, "/api/playground/files/src/App.jsx", map[string]any{"content": "export default 2\n"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	content, ok := f.engine.Instance().File("src/App.jsx")
	require.True(t, ok)
	assert.Equal(t, "export default 2\n", content)

	w = f.do(http.MethodPut, "/api/playground/files/src/App.jsx", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPut, "/api/playground/files/../etc/passwd", map[string]any{"content": "x"})
	assert.NotEqual(t, http.StatusOK, w.Code)
}

func TestTerminalRoutes(t *testing.T) {
	f := newFixture(t, false)

	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/api/playground/terminal/rerun", nil).Code)
	assert.Equal(t, http.StatusConflict, f.do(http.MethodGet, "/api/playground/terminal/log", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/playground/terminal/resize",
		map[string]int{"cols": 0, "rows": 10}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/playground/terminal/resize",
		map[string]int{"cols": 100000, "rows": 100000}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/playground/terminal/search", nil).Code)

	f.openMounted(t, map[string]any{"template": "REACT"})
	attach := f.session.Attach(context.Background())
	defer attach.Close()

	var proc *enginetest.Process
	require.Eventually(t, func() bool {
		procs := f.engine.Instance().Processes()
		if len(procs) == 0 {
			return false
		}
		proc = procs[0]
		return true
	}, time.Second, time.Millisecond)
	go func() { _ = proc.Emit("VITE ready in 300 ms\r\n") }()
	require.Eventually(t, func() bool {
		return strings.Contains(string(f.session.Download()), "VITE ready")
	}, time.Second, time.Millisecond)

	w := f.do(http.MethodGet, "/api/playground/terminal/search?q=vite", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = f.do(http.MethodGet, "/api/playground/terminal/log", nil)
	require.Equal(t, http.StatusOK, w.Code)
	plain := w.Body.String()
	assert.Contains(t, plain, "VITE ready in 300 ms")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "terminal-log.txt")

	w = f.do(http.MethodGet, "/api/playground/terminal/log?compress=gzip", nil)
	require.Equal(t, http.StatusOK, w.Code)
	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	unzipped, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, plain, string(unzipped))

	w = f.do(http.MethodGet, "/api/playground/terminal/log?compress=zstd", nil)
	require.Equal(t, http.StatusOK, w.Code)
	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	unz, err := dec.DecodeAll(w.Body.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, plain, string(unz))

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/playground/terminal/log?compress=rar", nil).Code)

	w = f.do(http.MethodPost, "/api/playground/terminal/resize", map[string]int{"cols": 100, "rows": 30})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, engine.TerminalSize{Cols: 100, Rows: 30}, proc.Sizes()[len(proc.Sizes())-1])

	w = f.do(http.MethodPost, "/api/playground/terminal/rerun", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, proc.Written(), "npm install && npm run dev\r")

	w = f.do(http.MethodPost, "/api/playground/terminal/clear", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCodeSuggestion(t *testing.T) {
	f := newFixture(t, false)
	assert.Equal(t, http.StatusServiceUnavailable,
		f.do(http.MethodPost, "/api/code-suggestion", map[string]any{"fileContent": "x"}).Code)

	f = newFixture(t, true)
	req := assistant.SuggestionRequest{FileContent: "const a = ", CursorColumn: 10, SuggestionType: "completion", FileName: "a.ts"}
	f.assistant.On("Suggest", mock.Anything, req).Return(&assistant.Suggestion{
		Text:    "1;",
		Context: assistant.AnalyzeContext(req.FileContent, 0, 10, req.FileName),
	}, nil)
	f.assistant.On("Suggest", mock.Anything, mock.Anything).Return(nil, assistant.ErrInvalidRequest)

	w := f.do(http.MethodPost, "/api/code-suggestion", req)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "1;", body["suggestion"])
	assert.Equal(t, "TypeScript", body["metadata"].(map[string]any)["language"])

	w = f.do(http.MethodPost, "/api/code-suggestion", map[string]any{"fileContent": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChat(t *testing.T) {
	f := newFixture(t, true)
	history := []assistant.Message{{Role: assistant.RoleUser, Content: "hi"}}
	f.assistant.On("Chat", mock.Anything, "explain closures", history).
		Return(&assistant.Reply{Response: "A closure captures..."}, nil)
	f.assistant.On("Enhance", mock.Anything, "todo app").Return("Build a todo app with React")

	w := f.do(http.MethodPost, "/api/chat", map[string]any{"message": "explain closures", "history": history})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "A closure captures...", decode(t, w)["response"])

	w = f.do(http.MethodPost, "/api/chat", map[string]any{"action": "enhance", "prompt": "todo app"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Build a todo app with React", decode(t, w)["enhancedPrompt"])

	w = f.do(http.MethodPost, "/api/chat", map[string]any{"message": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.assistant.AssertExpectations(t)
}
