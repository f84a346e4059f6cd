package engine

import (
	"path"
	"sort"
)

// Tree is the mount payload: entry name to node, nested for directories.
type Tree map[string]Node

// Node is either a directory or a file. Exactly one field is set.
type Node struct {
	Directory Tree          `json:"directory,omitempty"`
	File      *FileContents `json:"file,omitempty"`
}

// FileContents holds a file's text.
type FileContents struct {
	Contents string `json:"contents"`
}

// Dir builds a directory node. A nil tree becomes an empty directory.
func Dir(children Tree) Node {
	if children == nil {
		children = Tree{}
	}
	return Node{Directory: children}
}

// File builds a file node.
func File(contents string) Node {
	return Node{File: &FileContents{Contents: contents}}
}

// IsDir reports whether n is a directory.
func (n Node) IsDir() bool { return n.File == nil }

// Walk visits every entry depth-first in lexical order with its slash
// separated path relative to the tree root.
func (t Tree) Walk(fn func(p string, n Node)) {
	t.walk("", fn)
}

func (t Tree) walk(prefix string, fn func(string, Node)) {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		n := t[name]
		p := path.Join(prefix, name)
		fn(p, n)
		if n.IsDir() {
			n.Directory.walk(p, fn)
		}
	}
}

// Paths lists file paths in lexical order.
func (t Tree) Paths() []string {
	var paths []string
	t.Walk(func(p string, n Node) {
		if !n.IsDir() {
			paths = append(paths, p)
		}
	})
	return paths
}

// Count returns the number of entries, directories included.
func (t Tree) Count() int {
	n := 0
	t.Walk(func(string, Node) { n++ })
	return n
}
