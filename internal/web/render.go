package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/Rrens/fai-advisor/internal/i18n"
	"github.com/Rrens/fai-advisor/internal/security"
	"github.com/Rrens/fai-advisor/internal/websession"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"home", "about", "chat", "login", "signup", "forgot_password",
	"update_password", "contact", "faq", "help", "privacy", "not_found",
}

type templates map[string]*template.Template

var funcs = template.FuncMap{
	"lines": func(s string) []string { return strings.Split(s, "\n") },
}

func parseTemplates() (templates, error) {
	out := make(templates, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// Page is the data every template receives
type Page struct {
	T      *i18n.Translator
	User   *domain.Identity
	Path   string
	Flash  string
	Error  string
	Alerts []string
	Form   map[string]string
	Errors security.FieldErrors
	Data   any
}

// FieldError returns the translated validation message of field, if any
func (p *Page) FieldError(field string) string {
	key, ok := p.Errors[field]
	if !ok {
		return ""
	}
	return p.T.T(key)
}

func (h *Handler) page(r *http.Request) *Page {
	p := &Page{
		T:    i18n.FromContext(r.Context()),
		Path: r.URL.Path,
		Form: map[string]string{},
	}
	if s := websession.FromContext(r.Context()); s != nil {
		if s.SignedIn() {
			p.User = s.User
		}
		if p.Flash = s.PopFlash(); p.Flash != "" {
			h.save(r.Context(), s)
		}
	}
	return p
}

// render executes the named page into a buffer so a template failure
// never leaves a half-written response.
func (h *Handler) render(w http.ResponseWriter, status int, name string, p *Page) {
	t, ok := h.pages[name]
	if !ok {
		log.Error().Str("template", name).Msg("Unknown template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
