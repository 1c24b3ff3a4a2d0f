package web

import (
	"net/http"
	"strings"

	"github.com/Rrens/fai-advisor/internal/auth"
	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/Rrens/fai-advisor/internal/security"
	"github.com/Rrens/fai-advisor/internal/websession"
	"github.com/rs/zerolog/log"
)

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if websession.FromContext(r.Context()).SignedIn() {
		http.Redirect(w, r, "/chat", http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, "login", h.page(r))
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	ctx := r.Context()
	p := h.page(r)

	form := domain.UserLogin{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	p.Form["email"] = form.Email

	if p.Errors = h.validator.Validate(form); p.Errors != nil {
		h.render(w, http.StatusUnprocessableEntity, "login", p)
		return
	}

	a, err := h.auth.SignIn(ctx, form.Email, form.Password)
	if err != nil {
		log.Info().Err(err).Str("email", form.Email).Msg("Sign in failed")
		p.Error = auth.Message(err)
		h.render(w, http.StatusUnauthorized, "login", p)
		return
	}

	s := websession.FromContext(ctx)
	s.SetAuth(a)
	s.Recovery = false
	s.Flash = p.T.T("auth.signIn.loginSuccess")
	h.redirect(w, r, "/chat")
}

type strengthView struct {
	security.PasswordStrength
	Label string
}

func strength(p *Page, password string) *strengthView {
	if password == "" {
		return nil
	}
	s := security.CheckPasswordStrength(password)
	return &strengthView{PasswordStrength: s, Label: p.T.T("auth.signUp.strength." + s.Strength)}
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if websession.FromContext(r.Context()).SignedIn() {
		http.Redirect(w, r, "/chat", http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, "signup", h.page(r))
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	ctx := r.Context()
	p := h.page(r)

	form := domain.UserCreate{
		FullName:        security.Sanitize(r.PostFormValue("fullName")),
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
		AgreeToTerms:    r.PostFormValue("agreeToTerms") != "",
	}
	p.Form["fullName"] = form.FullName
	p.Form["email"] = form.Email
	p.Data = strength(p, form.Password)

	if p.Errors = h.validator.Validate(form); p.Errors != nil {
		h.render(w, http.StatusUnprocessableEntity, "signup", p)
		return
	}

	a, err := h.auth.SignUp(ctx, form.Email, form.Password, form.FullName)
	if err != nil {
		log.Info().Err(err).Str("email", form.Email).Msg("Sign up failed")
		p.Error = auth.Message(err)
		h.render(w, http.StatusBadRequest, "signup", p)
		return
	}

	s := websession.FromContext(ctx)
	if a == nil {
		// confirmation e-mail pending
		s.Flash = p.T.T("auth.signUp.accountCreated")
		h.redirect(w, r, "/login")
		return
	}
	s.SetAuth(a)
	h.redirect(w, r, "/chat")
}

// SignOut ends the auth session everywhere this browser session knew about
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := websession.FromContext(ctx)
	if s == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.registry.Drop(s.ID)
	if s.SignedIn() {
		if err := h.auth.SignOut(ctx, s.AccessToken); err != nil {
			log.Warn().Err(err).Str("user_id", s.User.ID).Msg("Sign out failed")
		}
	}
	if err := h.sessions.Destroy(ctx, w, s); err != nil {
		log.Error().Err(err).Str("session_id", s.ID).Msg("Failed to destroy browser session")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "forgot_password", h.page(r))
}

func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	p := h.page(r)

	form := domain.PasswordResetRequest{Email: strings.TrimSpace(r.PostFormValue("email"))}
	p.Form["email"] = form.Email

	if p.Errors = h.validator.Validate(form); p.Errors != nil {
		h.render(w, http.StatusUnprocessableEntity, "forgot_password", p)
		return
	}

	if err := h.auth.RequestPasswordReset(r.Context(), form.Email, h.publicURL+"/update-password"); err != nil {
		log.Warn().Err(err).Str("email", form.Email).Msg("Password reset request failed")
		p.Error = auth.Message(err)
		h.render(w, http.StatusBadRequest, "forgot_password", p)
		return
	}

	p.Data = true
	h.render(w, http.StatusOK, "forgot_password", p)
}

type updateState struct {
	Invalid  bool
	Done     bool
	Strength *strengthView
}

// UpdatePasswordPage opens the recovery session carried by a reset link.
// Without a link it needs a signed-in session, else the link is reported invalid.
func (h *Handler) UpdatePasswordPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := websession.FromContext(ctx)
	q := r.URL.Query()

	if at := q.Get("access_token"); at != "" {
		a, err := h.auth.RecoverSession(ctx, at, q.Get("refresh_token"))
		if err != nil {
			log.Info().Err(err).Msg("Invalid password reset link")
			p := h.page(r)
			p.Data = updateState{Invalid: true}
			h.render(w, http.StatusOK, "update_password", p)
			return
		}
		s.SetAuth(a)
		s.Recovery = true
		h.redirect(w, r, "/update-password")
		return
	}

	p := h.page(r)
	p.Data = updateState{Invalid: !s.SignedIn()}
	h.render(w, http.StatusOK, "update_password", p)
}

func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	ctx := r.Context()
	s := websession.FromContext(ctx)
	p := h.page(r)

	if !s.SignedIn() {
		p.Data = updateState{Invalid: true}
		h.render(w, http.StatusUnauthorized, "update_password", p)
		return
	}

	form := domain.PasswordUpdate{
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}
	if p.Errors = h.validator.Validate(form); p.Errors != nil {
		p.Data = updateState{Strength: strength(p, form.Password)}
		h.render(w, http.StatusUnprocessableEntity, "update_password", p)
		return
	}

	if err := h.auth.UpdatePassword(ctx, s.AccessToken, form.Password); err != nil {
		log.Warn().Err(err).Str("user_id", s.User.ID).Msg("Password update failed")
		p.Error = auth.Message(err)
		p.Data = updateState{}
		h.render(w, http.StatusBadRequest, "update_password", p)
		return
	}

	// the new password is used from the next sign-in on
	h.registry.Drop(s.ID)
	if err := h.auth.SignOut(ctx, s.AccessToken); err != nil {
		log.Warn().Err(err).Msg("Sign out after password update failed")
	}
	s.ClearAuth()
	h.save(ctx, s)

	p.User = nil
	p.Data = updateState{Done: true}
	h.render(w, http.StatusOK, "update_password", p)
}
