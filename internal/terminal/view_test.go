package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshit-164/clio-agent-editor/internal/engine"
	"github.com/harshit-164/clio-agent-editor/internal/shared/id"
)

func newTestView() *View {
	return NewView(engine.TerminalSize{Cols: 40, Rows: 10}, 4096)
}

func TestViewSelection(t *testing.T) {
	v := newTestView()
	v.Write([]byte("hello world\r\nsecond line\r\n"))

	tests := []struct {
		name string
		r    Range
		want string
	}{
		{"first word", Range{StartRow: 0, StartCol: 0, EndRow: 0, EndCol: 5}, "hello"},
		{"across rows", Range{StartRow: 0, StartCol: 6, EndRow: 1, EndCol: 6}, "world\nsecond"},
		{"reversed", Range{StartRow: 1, StartCol: 6, EndRow: 0, EndCol: 6}, "world\nsecond"},
		{"empty", Range{StartRow: 0, StartCol: 3, EndRow: 0, EndCol: 3}, ""},
		{"off screen", Range{StartRow: 50, EndRow: 60}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Selection(tt.r))
		})
	}

	assert.Equal(t, "hello world\nsecond line", v.Screen())
}

func TestViewTextStripsEscapes(t *testing.T) {
	v := newTestView()
	v.Write([]byte("\x1b[32mgreen\x1b[0m text\r\n"))
	v.Write([]byte("progress 10%\rprogress 100%\r\n"))
	v.WriteLine("done")

	assert.Equal(t, []string{"green text", "progress 100%", "done"}, v.Lines())
	assert.Equal(t, "green text\nprogress 100%\ndone\n", string(v.Download()))
}

func TestViewFind(t *testing.T) {
	v := newTestView()
	v.WriteLine("npm install")
	v.WriteLine("added 120 packages")
	v.WriteLine("NPM notice: new version")

	matches := v.Find("npm")
	require.Len(t, matches, 2)
	assert.Equal(t, Match{Line: 0, Column: 0, Text: "npm install"}, matches[0])
	assert.Equal(t, 2, matches[1].Line)

	assert.Empty(t, v.Find(""))
	assert.Empty(t, v.Find("yarn"))
}

func TestViewClear(t *testing.T) {
	v := newTestView()
	out := v.subscribe(id.NewAttachmentID())
	v.WriteLine("something")
	<-out

	v.Clear()

	assert.Empty(t, v.Text())
	assert.Empty(t, v.Screen())
	assert.Equal(t, clearSequence, string(<-out))
}

func TestViewResize(t *testing.T) {
	v := newTestView()

	changed, err := v.Resize(engine.TerminalSize{Cols: 100, Rows: 30})
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = v.Resize(engine.TerminalSize{Cols: 100, Rows: 30})
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = v.Resize(engine.TerminalSize{Cols: 0, Rows: 30})
	assert.ErrorIs(t, err, engine.ErrInvalidSize)
	assert.Equal(t, engine.TerminalSize{Cols: 100, Rows: 30}, v.Size())
}

func TestViewSubscribeReplaysScrollback(t *testing.T) {
	v := newTestView()
	v.WriteLine("before")

	aid := id.NewAttachmentID()
	out := v.subscribe(aid)
	assert.Equal(t, "before\r\n", string(<-out))

	v.WriteLine("after")
	assert.Equal(t, "after\r\n", string(<-out))

	v.unsubscribe(aid)
	_, open := <-out
	assert.False(t, open)
	assert.Equal(t, 0, v.Subscribers())
}

func TestViewDropsSlowSubscriber(t *testing.T) {
	v := newTestView()
	out := v.subscribe(id.NewAttachmentID())

	for i := 0; i < subscriberQueue+1; i++ {
		v.Write([]byte("x"))
	}
	assert.Equal(t, 0, v.Subscribers())

	n := 0
	for range out {
		n++
	}
	assert.Equal(t, subscriberQueue, n)
}
