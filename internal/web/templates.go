package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// TemplateRegistry holds parsed pages. It is read-only after construction.
type TemplateRegistry struct {
	cache map[string]*template.Template
}

func NewTemplateRegistry() (*TemplateRegistry, error) {
	funcMap := templateFuncMap()

	layout, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, err
	}

	tr := &TemplateRegistry{cache: make(map[string]*template.Template)}

	pages := []string{
		"templates/index.html",
		"templates/result.html",
		"templates/track.html",
	}
	for _, page := range pages {
		t, err := template.Must(layout.Clone()).ParseFS(templateFS, page)
		if err != nil {
			return nil, err
		}
		tr.cache[page] = t
	}

	// The interstitial is standalone: it must stay tiny and carry its own
	// meta tags for link previews.
	inter, err := template.New("interstitial.html").Funcs(funcMap).ParseFS(templateFS, "templates/interstitial.html")
	if err != nil {
		return nil, err
	}
	tr.cache["templates/interstitial.html"] = inter

	return tr, nil
}

func (tr *TemplateRegistry) Render(w http.ResponseWriter, name string, data any) {
	tr.RenderStatus(w, http.StatusOK, name, data)
}

func (tr *TemplateRegistry) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := tr.cache[name]
	if !ok {
		http.Error(w, "template not found: "+name, http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Execute renders name into w and returns the error instead of writing a
// response.
func (tr *TemplateRegistry) Execute(w io.Writer, name string, data any) error {
	t, ok := tr.cache[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}
	return t.Execute(w, data)
}
