// Package errorpages renders the built-in HTML error pages served by the
// static site (404) and the admin surface (403).
package errorpages

import (
	"bytes"
	"html/template"
	"net/http"
	"sync"

	"github.com/pandeptwidyaop/simple404/pkg/logger"
)

var (
	// Parsed templates, keyed by file name; filled once on first render
	templateCache = make(map[string]*template.Template)
	cacheMu       sync.RWMutex
	initOnce      sync.Once
)

// ErrorPageData holds dynamic data for error templates.
type ErrorPageData struct {
	Path string // requested path, shown on the 404 page
	Home string // link target, omitted when empty
}

// initTemplates parses every embedded page the first time one is needed.
// A page that fails to parse is logged and skipped; requests for it fall
// back to plain text.
func initTemplates() {
	initOnce.Do(func() {
		// One file per supported status
		templates := []string{"404.html", "403.html"}

		for _, tmplName := range templates {
			tmpl, err := template.ParseFS(templatesFS, "templates/"+tmplName)
			if err != nil {
				logger.ErrorEvent().
					Err(err).
					Str("template", tmplName).
					Msg("Failed to parse error template")
				continue
			}

			cacheMu.Lock()
			templateCache[tmplName] = tmpl
			cacheMu.Unlock()

			logger.DebugEvent().
				Str("template", tmplName).
				Msg("Error template loaded")
		}
	})
}

// RenderErrorPage writes the HTML page for statusCode. Statuses without a
// page get the plain-text status line. data may be nil.
func RenderErrorPage(w http.ResponseWriter, statusCode int, data *ErrorPageData) {
	// Parse on first call
	initTemplates()

	// Pick the page for this status
	var templateName string
	switch statusCode {
	case http.StatusNotFound:
		templateName = "404.html"
	case http.StatusForbidden:
		templateName = "403.html"
	default:
		// No page for this status; plain text
		http.Error(w, http.StatusText(statusCode), statusCode)
		return
	}

	// Look the page up in the cache
	cacheMu.RLock()
	tmpl, ok := templateCache[templateName]
	cacheMu.RUnlock()

	if !ok {
		logger.ErrorEvent().
			Str("template", templateName).
			Msg("Error template not found in cache")
		http.Error(w, http.StatusText(statusCode), statusCode)
		return
	}

	// Templates expect a non-nil value
	if data == nil {
		data = &ErrorPageData{}
	}

	// Render to a buffer so a template error never leaves a partial body
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		logger.ErrorEvent().
			Err(err).
			Str("template", templateName).
			Msg("Failed to execute error template")
		http.Error(w, http.StatusText(statusCode), statusCode)
		return
	}

	// Headers first, then the rendered body
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := buf.WriteTo(w); err != nil {
		logger.WarnEvent().
			Err(err).
			Msg("Failed to write error page to response")
	}
}

// NotFound renders the 404 page for a request path that matched no file.
// The path is HTML-escaped by the template.
func NotFound(w http.ResponseWriter, path string) {
	RenderErrorPage(w, http.StatusNotFound, &ErrorPageData{
		Path: path,
		Home: "/",
	})
}

// Forbidden renders the 403 page shown when a signed-in user lacks the
// capability a page requires.
func Forbidden(w http.ResponseWriter) {
	RenderErrorPage(w, http.StatusForbidden, nil)
}
