package filetree

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateName = errors.New("duplicate entry name")
	ErrInvalidName   = errors.New("invalid entry name")
	ErrUnknownNode   = errors.New("node is neither a folder nor a file")
)

// Node is a Folder or a File.
type Node interface {
	// EntryName is the name the node takes inside its parent folder.
	EntryName() string
	isNode()
}

// Folder is a named directory.
type Folder struct {
	Name  string `json:"folderName"`
	Items []Node `json:"items"`
}

// File is a named text file. Its entry name is Name + "." + Extension.
type File struct {
	Name      string `json:"filename"`
	Extension string `json:"fileExtension"`
	Content   string `json:"content"`
}

// NewFolder builds a folder.
func NewFolder(name string, items ...Node) *Folder {
	if items == nil {
		items = []Node{}
	}
	return &Folder{Name: name, Items: items}
}

// NewFile builds a file.
func NewFile(name, extension, content string) *File {
	return &File{Name: name, Extension: extension, Content: content}
}

func (f *Folder) EntryName() string { return f.Name }

// EntryName joins base name and extension. An empty extension yields the
// bare name, so "Makefile" stays "Makefile".
func (f *File) EntryName() string {
	if f.Extension == "" {
		return f.Name
	}
	return f.Name + "." + f.Extension
}

func (*Folder) isNode() {}
func (*File) isNode()   {}

// FileCount returns the number of files below f.
func (f *Folder) FileCount() int {
	n := 0
	for _, item := range f.Items {
		switch v := item.(type) {
		case *Folder:
			n += v.FileCount()
		case *File:
			n++
		}
	}
	return n
}

// Validate checks that every entry name is usable as a path segment and
// unique within its folder. The root folder's own name is not checked.
func (f *Folder) Validate() error {
	return validateItems(f.Name, f.Items)
}

func validateItems(at string, items []Node) error {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item == nil {
			return fmt.Errorf("%w in %q", ErrUnknownNode, at)
		}
		name := item.EntryName()
		if err := checkName(name); err != nil {
			return fmt.Errorf("%q in %q: %w", name, at, err)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%q in %q: %w", name, at, ErrDuplicateName)
		}
		seen[name] = struct{}{}

		if sub, ok := item.(*Folder); ok {
			if err := validateItems(at+"/"+name, sub.Items); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return ErrInvalidName
	}
	return nil
}

type folderWire struct {
	Name  string            `json:"folderName"`
	Items []json.RawMessage `json:"items"`
}

type nodeProbe struct {
	FolderName *string `json:"folderName"`
	Filename   *string `json:"filename"`
}

// UnmarshalJSON decodes the editor's wire format, telling folders and files
// apart by their name keys.
func (f *Folder) UnmarshalJSON(data []byte) error {
	var wire folderWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	f.Name = wire.Name
	f.Items = make([]Node, 0, len(wire.Items))
	for _, raw := range wire.Items {
		item, err := decodeNode(raw)
		if err != nil {
			return err
		}
		f.Items = append(f.Items, item)
	}
	return nil
}

func decodeNode(raw json.RawMessage) (Node, error) {
	var probe nodeProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}

	switch {
	case probe.FolderName != nil:
		var sub Folder
		if err := json.Unmarshal(raw, &sub); err != nil {
			return nil, err
		}
		return &sub, nil
	case probe.Filename != nil:
		var file File
		if err := json.Unmarshal(raw, &file); err != nil {
			return nil, err
		}
		return &file, nil
	default:
		return nil, ErrUnknownNode
	}
}
