// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package web provides the HTTP surface of Inkpress.
package web

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"path"

	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/oops"
)

//go:embed templates/*.html
var templatesFS embed.FS

// ugcPolicy strips dangerous markup from user-authored article content
// before it is rendered as HTML.
var ugcPolicy = bluemonday.UGCPolicy()

var templateFuncs = template.FuncMap{
	"safeHTML": func(s string) template.HTML {
		return template.HTML(ugcPolicy.Sanitize(s)) //nolint:gosec // sanitized above
	},
}

// Renderer implements echo.Renderer over the embedded page templates.
// Each page is parsed together with the shared layout so pages can define
// their own content block without clashing.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	pages, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, oops.Code("TEMPLATE_GLOB_FAILED").Wrap(err)
	}

	r := &Renderer{templates: make(map[string]*template.Template)}
	for _, page := range pages {
		name := path.Base(page)
		if name == "layout.html" {
			continue
		}
		t, err := template.New("layout.html").
			Funcs(templateFuncs).
			ParseFS(templatesFS, "templates/layout.html", page)
		if err != nil {
			return nil, oops.Code("TEMPLATE_PARSE_FAILED").
				With("template", name).
				Wrap(err)
		}
		r.templates[name] = t
	}

	return r, nil
}

// Render renders a named page template into w.
func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.templates[name]
	if !ok {
		return oops.Code("TEMPLATE_UNKNOWN").Errorf("no template named %q", name)
	}
	if err := t.ExecuteTemplate(w, "layout.html", data); err != nil {
		return oops.Code("TEMPLATE_RENDER_FAILED").
			With("template", name).
			Wrap(err)
	}
	return nil
}
