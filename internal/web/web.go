// Package web renders the site's pages and handles their form posts
package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Rrens/fai-advisor/internal/auth"
	"github.com/Rrens/fai-advisor/internal/chat"
	"github.com/Rrens/fai-advisor/internal/mailer"
	"github.com/Rrens/fai-advisor/internal/security"
	"github.com/Rrens/fai-advisor/internal/websession"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// maxFormBytes bounds every form post
const maxFormBytes = 1 << 20

// Options holds the collaborators of the page handlers
type Options struct {
	Auth     auth.Client
	Sessions *websession.Manager
	Registry *chat.Registry
	Mailer   mailer.Sender
	// PublicURL is the externally visible base URL, used for reset links
	PublicURL string
	ContactTo string
}

// Handler serves the HTML pages
type Handler struct {
	auth      auth.Client
	sessions  *websession.Manager
	registry  *chat.Registry
	mailer    mailer.Sender
	validator *security.FormValidator
	pages     templates
	publicURL string
	contactTo string
	now       func() time.Time

	unsubscribe func()
}

// New parses the page templates and subscribes to auth events
func New(opts Options) (*Handler, error) {
	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	h := &Handler{
		auth:      opts.Auth,
		sessions:  opts.Sessions,
		registry:  opts.Registry,
		mailer:    opts.Mailer,
		validator: security.NewFormValidator(),
		pages:     pages,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
		contactTo: opts.ContactTo,
		now:       time.Now,
	}
	h.unsubscribe = opts.Auth.Subscribe(h.onAuthEvent)
	return h, nil
}

// Close stops listening for auth events
func (h *Handler) Close() {
	h.unsubscribe()
}

// onAuthEvent drops chat controllers of users whose session ended elsewhere
func (h *Handler) onAuthEvent(e auth.Event) {
	log.Debug().Str("event", string(e.Type)).Str("user_id", e.UserID).Msg("Auth state changed")

	switch e.Type {
	case auth.SignedOut, auth.SessionExpired:
		if e.UserID != "" {
			h.registry.DropOwner(e.UserID)
		}
	}
}

// Routes registers every page and form route on r
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/about", h.About)
	r.Get("/faq", h.FAQ)
	r.Get("/help", h.Help)
	r.Get("/privacy", h.Privacy)
	r.Get("/contact", h.Contact)
	r.Post("/contact", h.SendContact)
	r.Post("/language", h.SetLanguage)

	r.Get("/login", h.Login)
	r.Post("/login", h.SignIn)
	r.Get("/signup", h.Signup)
	r.Post("/signup", h.SignUp)
	r.Post("/logout", h.SignOut)
	r.Get("/forgot-password", h.ForgotPassword)
	r.Post("/forgot-password", h.RequestPasswordReset)
	r.Get("/update-password", h.UpdatePasswordPage)
	r.Post("/update-password", h.UpdatePassword)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Get("/chat", h.Chat)
		r.Post("/chat/new", h.NewChat)
		r.Post("/chat/messages", h.SendMessage)
		r.Post("/chat/{id}/select", h.SelectChat)
		r.Post("/chat/{id}/rename", h.RenameChat)
		r.Post("/chat/{id}/delete", h.DeleteChat)
	})

	r.NotFound(h.NotFound)
}

// RequireAuth redirects anonymous visitors to the sign-in page
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !websession.FromContext(r.Context()).SignedIn() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// redirect saves the session, then answers a form post with a 303
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, to string) {
	h.save(r.Context(), websession.FromContext(r.Context()))
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (h *Handler) save(ctx context.Context, s *websession.Session) {
	if s == nil {
		return
	}
	if err := h.sessions.Save(ctx, s); err != nil {
		log.Error().Err(err).Str("session_id", s.ID).Msg("Failed to save browser session")
	}
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	return true
}

// localPath returns next when it is a path on this site, otherwise "/"
func localPath(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
