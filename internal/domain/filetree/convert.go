package filetree

import (
	"fmt"

	"github.com/harshit-164/clio-agent-editor/internal/engine"
)

// Convert translates nodes into a mount tree rooted at the nodes
// themselves. Every node appears exactly once at the same relative path.
// Colliding names fail with ErrDuplicateName rather than dropping data.
func Convert(nodes ...Node) (engine.Tree, error) {
	tree := make(engine.Tree, len(nodes))
	for _, n := range nodes {
		if n == nil {
			return nil, ErrUnknownNode
		}
		name := n.EntryName()
		if _, dup := tree[name]; dup {
			return nil, fmt.Errorf("%q: %w", name, ErrDuplicateName)
		}

		switch v := n.(type) {
		case *Folder:
			children, err := Convert(v.Items...)
			if err != nil {
				return nil, fmt.Errorf("%s/%w", name, err)
			}
			tree[name] = engine.Dir(children)
		case *File:
			tree[name] = engine.File(v.Content)
		default:
			return nil, ErrUnknownNode
		}
	}
	return tree, nil
}

// MountTree converts the folder's contents. The folder itself is the
// sandbox root and does not appear in the result.
func (f *Folder) MountTree() (engine.Tree, error) {
	return Convert(f.Items...)
}
