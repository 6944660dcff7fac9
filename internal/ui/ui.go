// Package ui serves the single-page dashboard analyzer front end.
package ui

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templates embed.FS

var index = template.Must(template.ParseFS(templates, "templates/index.html"))

// Page configures the rendered page.
type Page struct {
	Title string
	// APIBase is the mount point of the REST API.
	APIBase string
	// AuthRequired makes the page prompt for a bearer token.
	AuthRequired bool
	Layouts      []string
}

// Handler renders the index page.
func Handler(p Page) http.Handler {
	if p.Title == "" {
		p.Title = "LookML Filter Link Analyzer"
	}
	if p.APIBase == "" {
		p.APIBase = "/api"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := index.Execute(&buf, p); err != nil {
			slog.Error("render index failed", slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	})
}
