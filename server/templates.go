package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFiles embed.FS

// pageTemplates is parsed once at startup; a broken template fails the process, not a request
var pageTemplates = template.Must(template.ParseFS(templateFiles, "templates/*.html"))

// renderPage executes the named template into a buffer so a failure never leaves a half-written page
func renderPage(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		zerolog.Ctx(r.Context()).Err(err).Str("template", name).Msg("failed to render page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}
