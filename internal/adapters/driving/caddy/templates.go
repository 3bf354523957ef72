package caddy

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// ErrorData holds data for rendering the rejection page template.
type ErrorData struct {
	Title      string
	Message    string
	IncidentID string
}

// TemplateRenderer renders the HTML rejection page.
type TemplateRenderer struct {
	rejected *template.Template
}

// NewTemplateRenderer creates a renderer using the embedded template.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	tmpl, err := template.ParseFS(embeddedTemplates, "templates/rejected.html")
	if err != nil {
		return nil, fmt.Errorf("parse embedded rejected.html: %w", err)
	}
	return &TemplateRenderer{rejected: tmpl}, nil
}

// NewTemplateRendererWithFile creates a renderer from a custom template file.
func NewTemplateRendererWithFile(path string) (*TemplateRenderer, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("error template: %w", err)
	}
	tmpl, err := template.ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("parse custom %s: %w", path, err)
	}
	return &TemplateRenderer{rejected: tmpl}, nil
}

// RenderError renders the rejection page.
func (r *TemplateRenderer) RenderError(w io.Writer, data ErrorData) error {
	return r.rejected.Execute(w, data)
}
