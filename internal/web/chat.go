package web

import (
	"errors"
	"net/http"

	"github.com/Rrens/fai-advisor/internal/chat"
	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/Rrens/fai-advisor/internal/i18n"
	"github.com/Rrens/fai-advisor/internal/websession"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type sessionItem struct {
	ID      string
	Title   string
	Preview string
	Date    string
	Active  bool
}

type chatView struct {
	Messages    []domain.Message
	Sessions    []sessionItem
	Suggestions []chat.Suggestion
	Pending     bool
	Prefill     string
}

func (h *Handler) controller(r *http.Request) *chat.Controller {
	s := websession.FromContext(r.Context())
	return h.registry.Get(r.Context(), s.ID, s.User.ID)
}

// Chat renders the transcript, the session sidebar and queued alerts
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	c := h.controller(r)
	p := h.page(r)
	now := h.now()

	view := chatView{
		Messages: c.Messages(),
		Pending:  c.Pending(),
		Prefill:  r.URL.Query().Get("q"),
	}
	activeID := c.ActiveID()
	for _, s := range c.Sessions() {
		view.Sessions = append(view.Sessions, sessionItem{
			ID:      s.ID,
			Title:   s.Title,
			Preview: chat.Preview(s, p.T),
			Date:    chat.RelativeDate(s.UpdatedAt, now, p.T),
			Active:  s.ID == activeID,
		})
	}
	if chat.ShowSuggestions(view.Messages) {
		view.Suggestions = chat.Suggestions(p.T)
	}

	p.Alerts = c.DrainAlerts()
	p.Data = view
	h.render(w, http.StatusOK, "chat", p)
}

func (h *Handler) NewChat(w http.ResponseWriter, r *http.Request) {
	// failures are queued as alerts for the next render
	h.controller(r).CreateSession(r.Context())
	h.redirect(w, r, "/chat")
}

// SendMessage waits for the reply before redirecting back to the transcript
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	c := h.controller(r)

	err := c.SendMessage(r.Context(), r.PostFormValue("message"))
	switch {
	case errors.Is(err, chat.ErrBusy):
		c.Prompter().Alert(r.Context(), i18n.FromContext(r.Context()).T("chat.busy"))
	case err != nil && !errors.Is(err, chat.ErrEmptyMessage):
		log.Debug().Err(err).Msg("Chat message kept without saving")
	}
	h.redirect(w, r, "/chat")
}

func (h *Handler) SelectChat(w http.ResponseWriter, r *http.Request) {
	h.controller(r).SelectSession(chi.URLParam(r, "id"))
	h.redirect(w, r, "/chat")
}

func (h *Handler) RenameChat(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	h.controller(r).RenameSession(r.Context(), chi.URLParam(r, "id"), r.PostFormValue("title"))
	h.redirect(w, r, "/chat")
}

// DeleteChat removes a chat when the form carries confirm=true
func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	ctx := chat.WithConfirmation(r.Context(), r.PostFormValue("confirm") == "true")
	h.controller(r).DeleteSession(ctx, chi.URLParam(r, "id"))
	h.redirect(w, r, "/chat")
}
