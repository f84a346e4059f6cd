package terminal

import (
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/hinshun/vt10x"

	"github.com/harshit-164/clio-agent-editor/internal/engine"
	"github.com/harshit-164/clio-agent-editor/internal/shared/id"
)

const (
	// DefaultScrollback is the number of bytes of raw output kept for
	// replay, search and download.
	DefaultScrollback = 1024 * 1024

	// LogFileName is the suggested name for downloaded logs.
	LogFileName = "terminal-log.txt"

	subscriberQueue = 256
	clearSequence   = "\x1b[H\x1b[2J\x1b[3J"
)

// DefaultSize matches a fresh xterm before the first fit.
var DefaultSize = engine.TerminalSize{Cols: 80, Rows: 24}

// View is the terminal surface shared by every attachment: a screen model
// for selections and a scrollback of raw output.
type View struct {
	mu     sync.Mutex
	vt     vt10x.Terminal
	size   engine.TerminalSize
	scroll *Buffer
	subs   map[id.AttachmentID]chan []byte
}

// NewView creates a view of the given size. Invalid sizes fall back to
// DefaultSize.
func NewView(size engine.TerminalSize, scrollback int) *View {
	if size.Validate() != nil {
		size = DefaultSize
	}
	if scrollback <= 0 {
		scrollback = DefaultScrollback
	}
	return &View{
		vt:     vt10x.New(vt10x.WithSize(size.Cols, size.Rows)),
		size:   size,
		scroll: NewBuffer(scrollback),
		subs:   make(map[id.AttachmentID]chan []byte),
	}
}

// Write feeds p to the screen model, the scrollback and every subscriber.
// A subscriber too slow to keep up is dropped; its channel is closed.
func (v *View) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	data := append([]byte(nil), p...)

	v.mu.Lock()
	defer v.mu.Unlock()

	v.vt.Write(data)
	v.scroll.Write(data)
	for aid, ch := range v.subs {
		select {
		case ch <- data:
		default:
			close(ch)
			delete(v.subs, aid)
		}
	}
	return len(p), nil
}

// WriteLine writes s followed by CRLF.
func (v *View) WriteLine(s string) {
	v.Write([]byte(s + "\r\n"))
}

func (v *View) subscribe(aid id.AttachmentID) <-chan []byte {
	v.mu.Lock()
	defer v.mu.Unlock()

	ch := make(chan []byte, subscriberQueue)
	if replay := v.scroll.Bytes(); len(replay) > 0 {
		ch <- replay
	}
	v.subs[aid] = ch
	return ch
}

func (v *View) unsubscribe(aid id.AttachmentID) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if ch, ok := v.subs[aid]; ok {
		close(ch)
		delete(v.subs, aid)
	}
}

// Subscribers returns the number of attached surfaces.
func (v *View) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

// Size returns the current dimensions.
func (v *View) Size() engine.TerminalSize {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.size
}

// Resize changes the screen model's dimensions and reports whether they
// changed.
func (v *View) Resize(size engine.TerminalSize) (bool, error) {
	if err := size.Validate(); err != nil {
		return false, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if size == v.size {
		return false, nil
	}
	v.vt.Resize(size.Cols, size.Rows)
	v.size = size
	return true, nil
}

// Clear empties the screen and the scrollback and tells every subscriber
// to do the same.
func (v *View) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.vt = vt10x.New(vt10x.WithSize(v.size.Cols, v.size.Rows))
	v.scroll.Reset()
	seq := []byte(clearSequence)
	for aid, ch := range v.subs {
		select {
		case ch <- seq:
		default:
			close(ch)
			delete(v.subs, aid)
		}
	}
}

// Range is a selection on the visible screen. Rows and columns are zero
// based; the end column is exclusive.
type Range struct {
	StartRow int `json:"start_row"`
	StartCol int `json:"start_col"`
	EndRow   int `json:"end_row"`
	EndCol   int `json:"end_col"`
}

func (r Range) normalized() Range {
	if r.EndRow < r.StartRow || (r.EndRow == r.StartRow && r.EndCol < r.StartCol) {
		r.StartRow, r.EndRow = r.EndRow, r.StartRow
		r.StartCol, r.EndCol = r.EndCol, r.StartCol
	}
	return r
}

// Selection returns the text inside r. Trailing blanks on each row are
// dropped; an empty selection yields "".
func (v *View) Selection(r Range) string {
	r = r.normalized()

	v.mu.Lock()
	defer v.mu.Unlock()

	cols, rows := v.vt.Size()
	if r.StartRow >= rows || r.EndRow < 0 {
		return ""
	}
	r.StartRow = clamp(r.StartRow, 0, rows-1)
	r.EndRow = clamp(r.EndRow, 0, rows-1)

	var lines []string
	for row := r.StartRow; row <= r.EndRow; row++ {
		from, to := 0, cols
		if row == r.StartRow {
			from = clamp(r.StartCol, 0, cols)
		}
		if row == r.EndRow {
			to = clamp(r.EndCol, 0, cols)
		}

		var sb strings.Builder
		for col := from; col < to; col++ {
			ch := v.vt.Cell(col, row).Char
			if ch == 0 {
				ch = ' '
			}
			sb.WriteRune(ch)
		}
		lines = append(lines, strings.TrimRight(sb.String(), " "))
	}
	return strings.Join(lines, "\n")
}

// Screen returns the visible screen as text.
func (v *View) Screen() string {
	size := v.Size()
	return strings.TrimRight(v.Selection(Range{EndRow: size.Rows - 1, EndCol: size.Cols}), "\n")
}

// Match is one search hit in the scrollback.
type Match struct {
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Text   string `json:"text"`
}

// Find searches the scrollback text case-insensitively and returns every
// hit in order.
func (v *View) Find(term string) []Match {
	if term == "" {
		return nil
	}
	needle := strings.ToLower(term)

	var matches []Match
	for i, line := range v.Lines() {
		haystack := strings.ToLower(line)
		offset := 0
		for {
			idx := strings.Index(haystack[offset:], needle)
			if idx < 0 {
				break
			}
			matches = append(matches, Match{Line: i, Column: offset + idx, Text: line})
			offset += idx + len(needle)
		}
	}
	return matches
}

// Lines returns the scrollback as plain text lines.
func (v *View) Lines() []string {
	text := v.Text()
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// Text returns the scrollback with escape sequences removed and carriage
// return overwrites resolved.
func (v *View) Text() string {
	plain := ansi.Strip(string(v.scroll.Bytes()))
	if plain == "" {
		return ""
	}

	lines := strings.Split(plain, "\n")
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if j := strings.LastIndexByte(line, '\r'); j >= 0 {
			line = line[j+1:]
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// Download returns the plain-text log.
func (v *View) Download() []byte {
	return []byte(v.Text())
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
