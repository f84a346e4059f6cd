package filetree

import (
	"fmt"
	"path"
	"strings"
)

// SplitName splits a file name into base name and extension. Dotfiles and
// names without a dot have no extension.
func SplitName(name string) (base, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return name, ""
	}
	return name[:i], name[i+1:]
}

// EnsureFolder returns the folder at the slash-separated rel path below f,
// creating missing folders on the way.
func (f *Folder) EnsureFolder(rel string) (*Folder, error) {
	rel = strings.Trim(path.Clean("/"+rel), "/")
	if rel == "" {
		return f, nil
	}

	cur := f
	for _, seg := range strings.Split(rel, "/") {
		if err := checkName(seg); err != nil {
			return nil, fmt.Errorf("%q: %w", rel, err)
		}
		next, err := cur.child(seg)
		if err != nil {
			return nil, err
		}
		if next == nil {
			next = NewFolder(seg)
			cur.Items = append(cur.Items, next)
		}
		cur = next
	}
	return cur, nil
}

func (f *Folder) child(name string) (*Folder, error) {
	for _, item := range f.Items {
		if item.EntryName() != name {
			continue
		}
		sub, ok := item.(*Folder)
		if !ok {
			return nil, fmt.Errorf("%q is a file: %w", name, ErrDuplicateName)
		}
		return sub, nil
	}
	return nil, nil
}

// AddFile places a file at the slash-separated rel path below f.
func (f *Folder) AddFile(rel, content string) (*File, error) {
	dir, name := path.Split(strings.Trim(path.Clean("/"+rel), "/"))
	if err := checkName(name); err != nil {
		return nil, fmt.Errorf("%q: %w", rel, err)
	}

	parent, err := f.EnsureFolder(dir)
	if err != nil {
		return nil, err
	}
	for _, item := range parent.Items {
		if item.EntryName() == name {
			return nil, fmt.Errorf("%q: %w", rel, ErrDuplicateName)
		}
	}

	base, ext := SplitName(name)
	file := NewFile(base, ext, content)
	parent.Items = append(parent.Items, file)
	return file, nil
}
