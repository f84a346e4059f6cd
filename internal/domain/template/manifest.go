package template

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// ManifestNames are looked up in order in the starters directory.
var ManifestNames = []string{"templates.yaml", "templates.yml", "templates.toml"}

// Template is one starter project.
type Template struct {
	Kind        Kind   `json:"template" yaml:"template" toml:"template"`
	Title       string `json:"title" yaml:"title" toml:"title"`
	Description string `json:"description" yaml:"description" toml:"description"`
	Folder      string `json:"folder" yaml:"folder" toml:"folder"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty" toml:"icon,omitempty"`
}

// Manifest is the on-disk catalog description.
type Manifest struct {
	Templates []Template `yaml:"templates" toml:"templates"`
}

// Defaults returns the built-in catalog.
func Defaults() []Template {
	return []Template{
		{Kind: React, Title: "React", Folder: "react-ts", Icon: "/react.svg",
			Description: "A JavaScript library for building user interfaces with component-based architecture"},
		{Kind: NextJS, Title: "Next.js", Folder: "nextjs", Icon: "/nextjs-icon.svg",
			Description: "The React Framework for the Web"},
		{Kind: Express, Title: "Express", Folder: "express", Icon: "/expressjs-icon.svg",
			Description: "Fast, unopinionated, minimalist web framework for Node.js"},
		{Kind: Vue, Title: "Vue", Folder: "vue", Icon: "/vuejs-icon.svg",
			Description: "The Progressive JavaScript Framework for building user interfaces"},
		{Kind: Hono, Title: "Hono", Folder: "hono", Icon: "/hono.svg",
			Description: "Ultrafast web framework for the Edges"},
		{Kind: Angular, Title: "Angular", Folder: "angular", Icon: "/angular.svg",
			Description: "The modern web developer's platform"},
	}
}

// ParseManifest decodes data as YAML or TOML depending on name's extension.
func ParseManifest(name string, data []byte) (*Manifest, error) {
	var m Manifest
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", name)
	}

	for i, t := range m.Templates {
		k, ok := ParseKind(string(t.Kind))
		if !ok {
			return nil, fmt.Errorf("%s: entry %d: %w: %q", name, i, ErrUnknownTemplate, t.Kind)
		}
		m.Templates[i].Kind = k
		if m.Templates[i].Folder == "" {
			return nil, fmt.Errorf("%s: entry %d: folder is required", name, i)
		}
	}
	return &m, nil
}

// findManifest returns the first manifest present in dir. A missing
// manifest is not an error.
func findManifest(dir string) (*Manifest, string, error) {
	if dir == "" {
		return nil, "", nil
	}
	for _, name := range ManifestNames {
		p := filepath.Join(dir, name)
		data, err := os.ReadFile(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, p, err
		}
		m, err := ParseManifest(name, data)
		return m, p, err
	}
	return nil, "", nil
}
