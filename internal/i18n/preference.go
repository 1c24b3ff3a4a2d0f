package i18n

import (
	"net/http"
	"time"
)

// CookieName is the cookie holding the persisted language preference
const CookieName = "language"

// PreferenceStore persists the client's language choice
type PreferenceStore interface {
	Language() string
	SetLanguage(code string)
}

// CookiePreference stores the preference in the language cookie
type CookiePreference struct {
	w http.ResponseWriter
	r *http.Request
}

// NewCookiePreference binds the preference to one request/response pair
func NewCookiePreference(w http.ResponseWriter, r *http.Request) *CookiePreference {
	return &CookiePreference{w: w, r: r}
}

func (p *CookiePreference) Language() string {
	c, err := p.r.Cookie(CookieName)
	if err != nil {
		return DefaultLanguage
	}
	return c.Value
}

func (p *CookiePreference) SetLanguage(code string) {
	http.SetCookie(p.w, &http.Cookie{
		Name:     CookieName,
		Value:    code,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}
