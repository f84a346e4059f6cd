package preview

import (
	tmpl "github.com/harshit-164/clio-agent-editor/internal/domain/template"
)

// Kind of preview decision.
type Kind string

const (
	KindURL         Kind = "url"
	KindLoading     Kind = "loading"
	KindPlaceholder Kind = "placeholder"
)

// Input is the state the decision is made from.
type Input struct {
	Booting  bool
	ReadyURL string
	Template tmpl.Kind
}

// Decision is what the preview pane shows.
type Decision struct {
	Kind     Kind   `json:"kind"`
	URL      string `json:"url,omitempty"`
	Document string `json:"document,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Selector picks between the live URL, a loading state and a placeholder.
type Selector struct {
	catalog *Catalog
}

func NewSelector(catalog *Catalog) *Selector {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Selector{catalog: catalog}
}

// Choose returns the decision for in. A known URL always wins, so a
// server that came up keeps showing while the UI reattaches.
func (s *Selector) Choose(in Input) Decision {
	switch {
	case in.ReadyURL != "":
		return Decision{Kind: KindURL, URL: in.ReadyURL}
	case in.Booting:
		return Decision{Kind: KindLoading, Message: "Booting server..."}
	default:
		return Decision{
			Kind:     KindPlaceholder,
			Document: s.catalog.Document(in.Template),
			Message:  "Server not ready",
		}
	}
}
