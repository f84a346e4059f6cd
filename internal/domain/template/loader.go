package template

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"

	"github.com/harshit-164/clio-agent-editor/internal/domain/filetree"
)

const DefaultMaxFileSize = 1 << 20

// DefaultIgnore skips dependency and build output folders.
var DefaultIgnore = []string{
	"**/node_modules",
	"**/.git",
	"**/.next",
	"**/dist",
	"**/build",
	"**/.DS_Store",
	"**/package-lock.json",
}

// Loader turns a starter directory into a file tree.
type Loader struct {
	Ignore      []string
	MaxFileSize int64
}

func DefaultLoader() Loader {
	return Loader{Ignore: DefaultIgnore, MaxFileSize: DefaultMaxFileSize}
}

// Load walks dir. Ignored paths, non-text files and files larger than
// MaxFileSize are left out. Entries are sorted by name.
func (l Loader) Load(ctx context.Context, dir string) (*filetree.Folder, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	root := filetree.NewFolder(filepath.Base(dir))
	var mu sync.Mutex

	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, dir, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil // Skip unreadable entries
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if l.ignored(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			mu.Lock()
			defer mu.Unlock()
			_, err := root.EnsureFolder(rel)
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		content, ok, err := l.readText(p)
		if err != nil || !ok {
			return nil
		}

		mu.Lock()
		defer mu.Unlock()
		_, err = root.AddFile(rel, content)
		return err
	})
	if err != nil {
		return nil, err
	}

	sortFolder(root)
	return root, nil
}

func (l Loader) ignored(rel string) bool {
	for _, pattern := range l.Ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (l Loader) readText(p string) (string, bool, error) {
	info, err := os.Stat(p)
	if err != nil {
		return "", false, err
	}
	if l.MaxFileSize > 0 && info.Size() > l.MaxFileSize {
		return "", false, nil
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return "", false, err
	}
	if !IsText(data) {
		return "", false, nil
	}
	return DecodeText(data), true, nil
}

// IsText reports whether data sniffs as a text format.
func IsText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// DecodeText returns data as UTF-8, converting from the detected charset
// when data is not already valid UTF-8.
func DecodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}

	label := "windows-1252"
	if result, err := chardet.NewTextDetector().DetectBest(data); err == nil && result != nil {
		label = strings.ToLower(result.Charset)
	}

	r, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return strings.ToValidUTF8(string(data), "\uFFFD")
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return strings.ToValidUTF8(string(data), "\uFFFD")
	}
	return string(out)
}

func sortFolder(f *filetree.Folder) {
	sort.Slice(f.Items, func(i, j int) bool {
		_, di := f.Items[i].(*filetree.Folder)
		_, dj := f.Items[j].(*filetree.Folder)
		if di != dj {
			return di
		}
		return f.Items[i].EntryName() < f.Items[j].EntryName()
	})
	for _, item := range f.Items {
		if sub, ok := item.(*filetree.Folder); ok {
			sortFolder(sub)
		}
	}
}
