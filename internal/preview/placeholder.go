package preview

import (
	"bytes"
	"html/template"

	tmpl "github.com/harshit-164/clio-agent-editor/internal/domain/template"
)

// Placeholder describes the static card shown before a server is ready.
type Placeholder struct {
	Title  string
	Icon   string
	Accent string
}

var placeholderPage = template.Must(template.New("placeholder").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <style>
      body { font-family: sans-serif; display: flex; flex-direction: column; align-items: center; justify-content: center; height: 100vh; margin: 0; background: #fff; color: #333; }
      .card { padding: 20px; border-radius: 10px; box-shadow: 0 4px 10px rgba(0,0,0,0.1); background: #f8f9fa; text-align: center; }
      h1 { color: {{.Accent}}; }
    </style>
  </head>
  <body>
    <div class="card">
      <h1>{{.Icon}} {{.Title}} Preview Ready</h1>
      <p>Your {{.Title}} environment is pre-loaded and ready.</p>
      <p>Edit any file to see changes live!</p>
    </div>
  </body>
</html>
`))

var defaultPlaceholders = map[tmpl.Kind]Placeholder{
	tmpl.React:   {Title: "React", Icon: "⚛️", Accent: "#61dafb"},
	tmpl.Vue:     {Title: "Vue", Icon: "🟢", Accent: "#42b883"},
	tmpl.Angular: {Title: "Angular", Icon: "🅰️", Accent: "#dd0031"},
	tmpl.NextJS:  {Title: "Next.js", Icon: "▲", Accent: "#000"},
	tmpl.Express: {Title: "Express", Icon: "🚂", Accent: "#333"},
	tmpl.Hono:    {Title: "Hono", Icon: "🔥", Accent: "#E05D44"},
}

// Catalog holds one rendered placeholder document per kind.
type Catalog struct {
	docs map[tmpl.Kind]string
}

// NewCatalog renders every placeholder up front.
func NewCatalog(placeholders map[tmpl.Kind]Placeholder) (*Catalog, error) {
	c := &Catalog{docs: make(map[tmpl.Kind]string, len(placeholders))}
	for kind, p := range placeholders {
		var buf bytes.Buffer
		if err := placeholderPage.Execute(&buf, p); err != nil {
			return nil, err
		}
		c.docs[kind] = buf.String()
	}
	return c, nil
}

// DefaultCatalog returns the built-in placeholders.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultPlaceholders)
	if err != nil {
		panic(err)
	}
	return c
}

// Document returns the placeholder for k, or the fallback kind's.
func (c *Catalog) Document(k tmpl.Kind) string {
	if doc, ok := c.docs[k]; ok {
		return doc
	}
	return c.docs[tmpl.Fallback]
}
