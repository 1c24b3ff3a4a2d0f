package web

import (
	"net/http"
	"strings"

	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/Rrens/fai-advisor/internal/mailer"
	"github.com/Rrens/fai-advisor/internal/security"
	"github.com/Rrens/fai-advisor/internal/websession"
	"github.com/rs/zerolog/log"
)

func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "contact", h.page(r))
}

// SendContact forwards a sanitized contact message to the faculty inbox
func (h *Handler) SendContact(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	p := h.page(r)

	msg := domain.ContactMessage{
		Name:    security.Sanitize(r.PostFormValue("name")),
		Email:   strings.TrimSpace(r.PostFormValue("email")),
		Subject: security.Sanitize(r.PostFormValue("subject")),
		Message: security.Sanitize(r.PostFormValue("message")),
	}
	p.Form["name"] = msg.Name
	p.Form["email"] = msg.Email
	p.Form["subject"] = msg.Subject
	p.Form["message"] = msg.Message

	if p.Errors = h.validator.Validate(msg); p.Errors != nil {
		h.render(w, http.StatusUnprocessableEntity, "contact", p)
		return
	}

	if err := h.mailer.Send(r.Context(), mailer.ContactMessage(h.contactTo, msg)); err != nil {
		log.Error().Err(err).Msg("Failed to deliver contact message")
		p.Error = p.T.T("contact.form.failed")
		h.render(w, http.StatusBadGateway, "contact", p)
		return
	}

	websession.FromContext(r.Context()).Flash = p.T.T("contact.form.sent")
	h.redirect(w, r, "/contact")
}
