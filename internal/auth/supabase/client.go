// Package supabase implements auth.Client on the hosted GoTrue API
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Rrens/fai-advisor/internal/auth"
	"github.com/Rrens/fai-advisor/internal/config"
	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

// Client talks to the project's auth endpoint with the anon key
type Client struct {
	*auth.Bus
	gotrue gotrue.Client
	now    func() time.Time
}

// New creates a client. Without credentials every call fails with
// auth.Unavailable.
func New(cfg config.SupabaseConfig) *Client {
	c := &Client{Bus: auth.NewBus(), now: time.Now}
	if cfg.Configured() {
		url := strings.TrimRight(cfg.URL, "/")
		c.gotrue = gotrue.New("", cfg.AnonKey).WithCustomGoTrueURL(url + "/auth/v1")
	}
	return c
}

func (c *Client) ready() error {
	if c.gotrue == nil {
		return auth.Unavailable
	}
	return nil
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*domain.AuthSession, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	resp, err := c.gotrue.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
		Data:     map[string]interface{}{"full_name": displayName},
	})
	if err != nil {
		return nil, wrap(err)
	}

	// Confirmation pending: no session until the e-mail link is used
	if resp.Session.AccessToken == "" {
		return nil, nil
	}

	s := c.session(resp.Session)
	c.Publish(auth.Event{Type: auth.SignedIn, UserID: s.User.ID})
	return s, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	resp, err := c.gotrue.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, wrap(err)
	}

	s := c.session(resp.Session)
	c.Publish(auth.Event{Type: auth.SignedIn, UserID: s.User.ID})
	return s, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if err := c.ready(); err != nil {
		return err
	}

	userID := tokenSubject(accessToken)
	if err := c.gotrue.WithToken(accessToken).Logout(); err != nil {
		// The local session is dropped regardless
		log.Warn().Err(err).Msg("Supabase logout failed")
	}
	c.Publish(auth.Event{Type: auth.SignedOut, UserID: userID})
	return nil
}

func (c *Client) CurrentSession(ctx context.Context, accessToken, refreshToken string) (*domain.AuthSession, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	if accessToken != "" && c.now().Before(tokenExpiry(accessToken)) {
		user, err := c.gotrue.WithToken(accessToken).GetUser()
		if err == nil {
			return &domain.AuthSession{
				AccessToken:  accessToken,
				RefreshToken: refreshToken,
				ExpiresAt:    tokenExpiry(accessToken),
				User:         identity(user.User),
			}, nil
		}
	}

	if refreshToken == "" {
		c.Publish(auth.Event{Type: auth.SessionExpired, UserID: tokenSubject(accessToken)})
		return nil, auth.NewError("Session expired", domain.ErrInvalidToken)
	}

	resp, err := c.gotrue.RefreshToken(refreshToken)
	if err != nil {
		c.Publish(auth.Event{Type: auth.SessionExpired, UserID: tokenSubject(accessToken)})
		return nil, wrap(err)
	}

	s := c.session(resp.Session)
	c.Publish(auth.Event{Type: auth.TokenRefreshed, UserID: s.User.ID})
	return s, nil
}

// RecoverSession opens the session carried by a password reset link
func (c *Client) RecoverSession(ctx context.Context, accessToken, refreshToken string) (*domain.AuthSession, error) {
	if accessToken == "" {
		return nil, auth.NewError("Invalid or expired reset link", domain.ErrInvalidToken)
	}

	s, err := c.CurrentSession(ctx, accessToken, refreshToken)
	if err != nil {
		return nil, err
	}
	c.Publish(auth.Event{Type: auth.PasswordRecovery, UserID: s.User.ID})
	return s, nil
}

// RequestPasswordReset sends the recovery e-mail whose link opens
// redirectURL. The URL must be allow-listed on the project.
func (c *Client) RequestPasswordReset(ctx context.Context, email, redirectURL string) error {
	if err := c.ready(); err != nil {
		return err
	}

	client := c.gotrue
	if redirectURL != "" {
		client = client.WithClient(http.Client{
			Timeout:   10 * time.Second,
			Transport: redirectTo{base: http.DefaultTransport, url: redirectURL},
		})
	}
	if err := client.Recover(types.RecoverRequest{Email: email}); err != nil {
		return wrap(err)
	}
	return nil
}

// redirectTo adds redirect_to to recovery requests. RecoverRequest has no
// field for it.
type redirectTo struct {
	base http.RoundTripper
	url  string
}

func (t redirectTo) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodPost || !strings.HasSuffix(req.URL.Path, "/recover") {
		return t.base.RoundTrip(req)
	}
	out := req.Clone(req.Context())
	q := out.URL.Query()
	q.Set("redirect_to", t.url)
	out.URL.RawQuery = q.Encode()
	return t.base.RoundTrip(out)
}

func (c *Client) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	if err := c.ready(); err != nil {
		return err
	}

	resp, err := c.gotrue.WithToken(accessToken).UpdateUser(types.UpdateUserRequest{Password: &newPassword})
	if err != nil {
		return wrap(err)
	}
	c.Publish(auth.Event{Type: auth.UserUpdated, UserID: resp.User.ID.String()})
	return nil
}

func (c *Client) session(s types.Session) *domain.AuthSession {
	expiresAt := c.now().Add(time.Duration(s.ExpiresIn) * time.Second)
	if exp := tokenExpiry(s.AccessToken); !exp.IsZero() {
		expiresAt = exp
	}
	return &domain.AuthSession{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    expiresAt,
		User:         identity(s.User),
	}
}

func identity(u types.User) domain.Identity {
	id := domain.Identity{ID: u.ID.String(), Email: u.Email}
	if name, ok := u.UserMetadata["full_name"].(string); ok {
		id.DisplayName = name
	}
	return id
}

// tokenExpiry reads exp from a JWT without verifying it. The token is only
// trusted after the auth server accepts it.
func tokenExpiry(token string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func tokenSubject(token string) string {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return ""
	}
	return claims.Subject
}

// wrap turns a GoTrue error into an auth.Error with the server's message.
// GoTrue errors carry a JSON body after the status line.
func wrap(err error) error {
	return auth.NewError(errorMessage(err), err)
}

func errorMessage(err error) string {
	text := err.Error()
	start := strings.Index(text, "{")
	if start >= 0 {
		var body map[string]any
		if json.Unmarshal([]byte(text[start:]), &body) == nil {
			for _, key := range []string{"msg", "error_description", "message", "error"} {
				if msg, ok := body[key].(string); ok && msg != "" {
					return msg
				}
			}
		}
	}
	return fmt.Sprintf("Authentication failed: %s", text)
}
