package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"spendly/internal/auth"
	"spendly/internal/core"
	"spendly/internal/log"
	"spendly/internal/pages"
)

// Page templates, each parsed on top of layout.html and partials.html.
var pageTemplates = []string{"home", "login", "dashboard", "budget", "goals", "transactions", "chat", "loading"}

const partialsSet = "partials"

var templateFuncs = template.FuncMap{
	"money":         func(m core.Money) string { return m.String() },
	"input":         func(m core.Money) string { return m.Input() },
	"pct":           func(f float64) string { return strconv.FormatFloat(f, 'f', 0, 64) },
	"categoryColor": core.CategoryColor,
	"add":           func(a, b int) int { return a + b },
	"list":          func(v ...string) []string { return v },
	"sub":           func(a, b int) int { return a - b },
	"notice":        func(n pages.Notice, page string) banner { return banner{Notice: n, Page: page} },
	"timeHM": func(m core.ChatMessage) string {
		if m.Timestamp.IsZero() {
			return ""
		}
		return m.Timestamp.Format("15:04")
	},
}

// banner is the dismissible error strip at the top of a page section.
type banner struct {
	Notice pages.Notice
	Page   string
}

func parseTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	base, err := template.New("").Funcs(templateFuncs).ParseFS(fsys, "templates/layout.html", "templates/partials.html")
	if err != nil {
		return nil, err
	}
	out := make(map[string]*template.Template, len(pageTemplates)+1)
	out[partialsSet] = base
	for _, name := range pageTemplates {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		t, err := clone.ParseFS(fsys, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// layoutData is what layout.html renders around every page.
type layoutData struct {
	Title    string
	Active   string
	Nav      []auth.NavItem
	LoggedIn bool
	User     core.Session
	Dark     bool
	// Refresh reloads the page after that many seconds when positive.
	Refresh int
	Page    any
}

func (s *Server) layout(r *http.Request, title, active string, page any) layoutData {
	st := s.auth.Status()
	d := layoutData{
		Title:    title,
		Active:   active,
		Nav:      auth.Nav(st.LoggedIn),
		LoggedIn: st.LoggedIn,
		User:     st.User,
		Dark:     true,
		Page:     page,
	}
	if s.prefs != nil {
		d.Dark = s.prefs.DarkMode(r.Context())
	}
	return d
}

// render writes a full page, or only its content block for HTMX requests
// that swap the main area.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data layoutData) {
	t, ok := s.templates[name]
	if !ok {
		s.logger.ErrorContext(r.Context(), "Unknown template", "template", name, log.FieldComponent, log.ComponentTemplate)
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	block := "layout"
	if isHTMX(r) && !isBoosted(r) {
		block = "content"
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err.Error(),
			"template", name,
			log.FieldComponent, log.ComponentTemplate)
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// partial executes one named block of partials.html into a string.
func (s *Server) partial(r *http.Request, block string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates[partialsSet].ExecuteTemplate(&buf, block, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Partial execution failed",
			log.FieldError, err.Error(),
			"template", block,
			log.FieldComponent, log.ComponentTemplate)
		return "", err
	}
	return buf.String(), nil
}

// writePartial renders block and sends it with the notification for n.
func (s *Server) writePartial(w http.ResponseWriter, r *http.Request, status int, block string, data any, n pages.Notice) {
	html, err := s.partial(r, block, data)
	if err != nil {
		InternalServerError("Error rendering page").Write(w)
		return
	}
	b := NewHTMXResponse().Status(status).BodyHTML(html)
	if !n.Empty() {
		b.TriggerNotice(n)
	}
	b.Write(w)
}
