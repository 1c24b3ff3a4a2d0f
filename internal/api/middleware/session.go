package middleware

import (
	"net/http"
	"time"

	"github.com/Rrens/fai-advisor/internal/auth"
	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/Rrens/fai-advisor/internal/i18n"
	"github.com/Rrens/fai-advisor/internal/websession"
	"github.com/rs/zerolog/log"
)

// refreshLeeway renews access tokens shortly before they expire
const refreshLeeway = 30 * time.Second

// SessionLoader attaches the browser session, and its identity when signed
// in, to every request. Expired access tokens are refreshed here.
type SessionLoader struct {
	manager *websession.Manager
	client  auth.Client
	now     func() time.Time
}

// NewSessionLoader creates a session loader
func NewSessionLoader(manager *websession.Manager, client auth.Client) *SessionLoader {
	return &SessionLoader{manager: manager, client: client, now: time.Now}
}

func (m *SessionLoader) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		s, err := m.manager.Load(w, r)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load browser session")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if s.SignedIn() && !s.ExpiresAt.IsZero() && !m.now().Add(refreshLeeway).Before(s.ExpiresAt) {
			refreshed, err := m.client.CurrentSession(ctx, s.AccessToken, s.RefreshToken)
			if err != nil {
				log.Info().Err(err).Str("user_id", s.User.ID).Msg("Session expired")
				s.ClearAuth()
			} else {
				s.SetAuth(refreshed)
			}
			if err := m.manager.Save(ctx, s); err != nil {
				log.Error().Err(err).Msg("Failed to save browser session")
			}
		}

		ctx = websession.WithSession(ctx, s)
		if s.SignedIn() {
			ctx = WithUser(ctx, *s.User)
			ctx = domain.WithAccessToken(ctx, s.AccessToken)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Language attaches a translator for the caller's preferred language
func Language(loader *i18n.Loader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := i18n.NewTranslator(r.Context(), loader, i18n.NewCookiePreference(w, r))
			next.ServeHTTP(w, r.WithContext(i18n.WithTranslator(r.Context(), t)))
		})
	}
}
