// Package render executes the embedded HTML pages.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/andrasnagy-data/gatehouse/internal/shared/flash"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	PageIndex     = "index.html"
	PageRegister  = "register.html"
	PageLogin     = "login.html"
	PageDashboard = "dashboard.html"
)

type (
	Renderer struct {
		pages   map[string]*template.Template
		flashes *flash.Store
	}

	pageData struct {
		Flashes []flash.Message
		Data    any
	}
)

// NewRenderer parses every page against the shared layout once at startup.
func NewRenderer(flashes *flash.Store) (*Renderer, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{PageIndex, PageRegister, PageLogin, PageDashboard} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages, flashes: flashes}, nil
}

// Page writes the named page with status. Pending flash messages are consumed
// and shown before msgs raised by the current request.
func (rd *Renderer) Page(w http.ResponseWriter, r *http.Request, status int, name string, data any, msgs ...flash.Message) {
	logger := hlog.FromRequest(r)

	tmpl, ok := rd.pages[name]
	if !ok {
		logger.Error().Str("page", name).Msg("Unknown page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	pd := pageData{
		Flashes: append(rd.flashes.Pop(w, r), msgs...),
		Data:    data,
	}

	// Render into a buffer so a template failure can still produce a clean 500.
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", pd); err != nil {
		logger.Error().Err(err).Str("page", name).Msg("Failed to execute template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Redirect queues msgs as flashes and sends a 303 to location.
func (rd *Renderer) Redirect(w http.ResponseWriter, r *http.Request, location string, msgs ...flash.Message) {
	if len(msgs) > 0 {
		if err := rd.flashes.Add(w, r, msgs...); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("Failed to store flash message")
		}
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
