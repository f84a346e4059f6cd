package activitylog

import (
	"fmt"
	"strings"

	"github.com/harshit-164/clio-agent-editor/internal/domain/template"
)

// Script is the transcript of one project kind.
type Script struct {
	Install []string `json:"install" yaml:"install" toml:"install"`
	Start   []string `json:"start" yaml:"start" toml:"start"`
}

// Len returns the total number of lines.
func (s Script) Len() int { return len(s.Install) + len(s.Start) }

// Catalog maps project kinds to scripts.
type Catalog struct {
	scripts map[template.Kind]Script
}

// NewCatalog builds a catalog from scripts. A kind without a script uses
// the fallback kind's script.
func NewCatalog(scripts map[template.Kind]Script) *Catalog {
	c := &Catalog{scripts: make(map[template.Kind]Script, len(scripts))}
	for k, s := range scripts {
		c.scripts[k] = s
	}
	return c
}

// Script returns the transcript for k, or the fallback kind's transcript.
func (c *Catalog) Script(k template.Kind) Script {
	if s, ok := c.scripts[k]; ok {
		return s
	}
	return c.scripts[template.Fallback]
}

const fillerCount = 50

var (
	devBanner = []string{
		"> vibecode-app@0.0.0 dev /home/vibecode/app",
		"> vite",
		"",
		"  VITE v5.0.0  ready in 350 ms",
		"",
		"  ➜  Local:   http://localhost:3000/",
		"  ➜  Network: use --host to expose",
		"  ➜  press h + enter to show help",
	}

	installSummary = []string{
		"added 1 package, and audited 2 packages in 3s",
		"found 0 vulnerabilities",
		"npm notice",
		"npm notice New major version of npm available! 10.2.3 -> 10.8.2",
		"npm notice Changelog: https://github.com/npm/cli/releases/tag/v10.8.2",
		"npm notice Run npm install -g npm@10.8.2 to update!",
		"npm notice",
	}

	packages = map[template.Kind][]string{
		template.React: {
			"react@18.2.0", "react-dom@18.2.0", "@vitejs/plugin-react@4.2.0", "vite@5.0.0",
			"autoprefixer@10.4.16", "postcss@8.4.31", "tailwindcss@3.3.5", "eslint@8.53.0",
			"eslint-plugin-react@7.33.2", "eslint-plugin-react-hooks@4.6.0",
			"eslint-plugin-react-refresh@0.4.4", "scheduler@0.23.0", "loose-envify@1.4.0",
			"js-tokens@4.0.0", "picocolors@1.0.0", "source-map-js@1.0.2",
			"vite-plugin-inspect@0.7.38", "rollup@3.29.4", "@esbuild/linux-x64@0.19.5",
			"@rollup/plugin-node-resolve@15.2.3",
		},
		template.Vue: {
			"vue@3.3.8", "@vitejs/plugin-vue@4.5.0", "vite@5.0.0", "@vue/compiler-sfc@3.3.8",
			"@vue/reactivity@3.3.8", "@vue/runtime-core@3.3.8", "@vue/runtime-dom@3.3.8",
			"@vue/shared@3.3.8", "estree-walker@2.0.2", "magic-string@0.30.5", "postcss@8.4.31",
			"source-map@0.6.1", "@babel/parser@7.23.3", "@vue/devtools-api@6.5.1",
		},
		template.Angular: {
			"@angular/core@17.0.0", "@angular/cli@17.0.0", "@angular/common@17.0.0",
			"@angular/compiler@17.0.0", "@angular/platform-browser@17.0.0",
			"@angular/platform-browser-dynamic@17.0.0", "rxjs@7.8.1", "tslib@2.6.2",
			"zone.js@0.14.2", "@angular-devkit/build-angular@17.0.0", "typescript@5.2.2",
		},
		template.Express: {
			"express@4.18.2", "nodemon@3.0.1", "body-parser@1.20.2", "cookie-parser@1.4.6",
			"debug@4.3.4", "depd@2.0.0", "encodeurl@1.0.2", "escape-html@1.0.3", "etag@1.8.1",
			"finalhandler@1.2.0", "fresh@0.5.2", "http-errors@2.0.0", "merge-descriptors@1.0.1",
			"methods@1.1.2", "on-finished@2.4.1", "parseurl@1.3.3", "path-to-regexp@0.1.7",
		},
		template.NextJS: {
			"next@14.0.2", "react@18.2.0", "react-dom@18.2.0", "eslint-config-next@14.0.2",
			"typescript@5.2.2", "@types/node@20.9.0", "@types/react@18.2.37",
			"@types/react-dom@18.2.15", "postcss@8.4.31", "tailwindcss@3.3.5",
			"styled-jsx@5.1.0", "client-only@0.0.1", "busboy@1.6.0", "caniuse-lite@1.0.30001561",
		},
		template.Hono: {
			"hono@3.10.0", "@hono/node-server@1.2.0", "esbuild@0.19.5", "tsx@4.1.0",
			"typescript@5.2.2",
		},
	}
)

// DefaultCatalog returns the built-in transcripts for every kind.
func DefaultCatalog() *Catalog {
	scripts := make(map[template.Kind]Script, len(packages))
	for kind, pkgs := range packages {
		scripts[kind] = buildScript(pkgs)
	}
	return NewCatalog(scripts)
}

func buildScript(pkgs []string) Script {
	install := make([]string, 0, 1+fillerCount+len(pkgs)+len(installSummary))
	install = append(install, "npm install")
	for i := 1; i <= fillerCount; i++ {
		install = append(install, fmt.Sprintf("[%d/%d] Resolving dependencies...", i, fillerCount))
	}
	for _, pkg := range pkgs {
		install = append(install, fmt.Sprintf("[GET] registry.npmjs.org/%s ... 200 OK", strings.TrimSpace(pkg)))
	}
	install = append(install, installSummary...)

	start := append([]string{"npm run dev"}, devBanner...)
	return Script{Install: install, Start: start}
}
