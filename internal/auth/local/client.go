// Package local implements auth.Client on self-hosted accounts: users in
// Postgres, bcrypt hashes and HS256 tokens.
package local

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Rrens/fai-advisor/internal/auth"
	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/Rrens/fai-advisor/internal/mailer"
	"github.com/Rrens/fai-advisor/internal/repository/postgres"
	"github.com/Rrens/fai-advisor/internal/security"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the account storage the client needs
type UserStore interface {
	Create(ctx context.Context, u *postgres.User) error
	GetByEmail(ctx context.Context, email string) (*postgres.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*postgres.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

var (
	errInvalidCredentials = auth.NewError("Invalid login credentials", domain.ErrInvalidCredentials)
	errEmailTaken         = auth.NewError("User already registered", domain.ErrEmailTaken)
	errSessionExpired     = auth.NewError("Session expired", domain.ErrInvalidToken)
	errInvalidLink        = auth.NewError("Invalid or expired reset link", domain.ErrInvalidToken)
)

// Client is the self-hosted auth backend
type Client struct {
	*auth.Bus
	users   UserStore
	tokens  *security.JWTManager
	mail    mailer.Sender
	revoked *cache.Cache
	cost    int
}

// New creates a client. Signed-out tokens are remembered until they expire.
func New(users UserStore, tokens *security.JWTManager, mail mailer.Sender) *Client {
	return &Client{
		Bus:     auth.NewBus(),
		users:   users,
		tokens:  tokens,
		mail:    mail,
		revoked: cache.New(tokens.AccessTokenTTL(), 10*time.Minute),
		cost:    bcrypt.DefaultCost,
	}
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*domain.AuthSession, error) {
	existing, err := c.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, errEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &postgres.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		FullName:     displayName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := c.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, errEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s, err := c.issue(user.Identity())
	if err != nil {
		return nil, err
	}
	c.Publish(auth.Event{Type: auth.SignedIn, UserID: s.User.ID})
	return s, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	user, err := c.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}

	s, err := c.issue(user.Identity())
	if err != nil {
		return nil, err
	}
	c.Publish(auth.Event{Type: auth.SignedIn, UserID: s.User.ID})
	return s, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	var userID string
	if claims, err := c.tokens.ValidateAccessToken(accessToken); err == nil {
		userID = claims.Subject
		c.revoke(accessToken, claims.ExpiresAt.Time)
	}
	c.Publish(auth.Event{Type: auth.SignedOut, UserID: userID})
	return nil
}

func (c *Client) CurrentSession(ctx context.Context, accessToken, refreshToken string) (*domain.AuthSession, error) {
	if claims, err := c.validate(accessToken, security.PurposeAccess, security.PurposeRecovery); err == nil {
		return &domain.AuthSession{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    claims.ExpiresAt.Time,
			User:         claims.Identity(),
		}, nil
	}

	refresh, err := c.validate(refreshToken, security.PurposeRefresh)
	if err != nil {
		c.Publish(auth.Event{Type: auth.SessionExpired})
		return nil, errSessionExpired
	}

	id, err := uuid.Parse(refresh.Subject)
	if err != nil {
		return nil, errSessionExpired
	}
	user, err := c.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		c.Publish(auth.Event{Type: auth.SessionExpired, UserID: refresh.Subject})
		return nil, errSessionExpired
	}

	// Refresh tokens are single use
	c.revoke(refreshToken, refresh.ExpiresAt.Time)

	s, err := c.issue(user.Identity())
	if err != nil {
		return nil, err
	}
	c.Publish(auth.Event{Type: auth.TokenRefreshed, UserID: s.User.ID})
	return s, nil
}

// RecoverSession accepts only recovery tokens issued by RequestPasswordReset
func (c *Client) RecoverSession(ctx context.Context, accessToken, refreshToken string) (*domain.AuthSession, error) {
	claims, err := c.validate(accessToken, security.PurposeRecovery)
	if err != nil {
		return nil, errInvalidLink
	}

	c.Publish(auth.Event{Type: auth.PasswordRecovery, UserID: claims.Subject})
	return &domain.AuthSession{
		AccessToken: accessToken,
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        claims.Identity(),
	}, nil
}

// RequestPasswordReset mails a recovery link. Unknown addresses succeed
// silently so the form does not reveal which accounts exist.
func (c *Client) RequestPasswordReset(ctx context.Context, email, redirectURL string) error {
	user, err := c.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		log.Info().Msg("Password reset requested for unknown address")
		return nil
	}

	token, _, err := c.tokens.GenerateRecoveryToken(user.Identity())
	if err != nil {
		return fmt.Errorf("failed to generate recovery token: %w", err)
	}

	link, err := recoveryLink(redirectURL, token)
	if err != nil {
		return err
	}

	if err := c.mail.Send(ctx, mailer.PasswordReset(user.Email, link)); err != nil {
		return auth.NewError("Failed to send reset email", err)
	}
	return nil
}

func (c *Client) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	claims, err := c.validate(accessToken, security.PurposeAccess, security.PurposeRecovery)
	if err != nil {
		return errSessionExpired
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return errSessionExpired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), c.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := c.users.UpdatePassword(ctx, id, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if claims.Purpose == security.PurposeRecovery {
		c.revoke(accessToken, claims.ExpiresAt.Time)
	}
	c.Publish(auth.Event{Type: auth.UserUpdated, UserID: claims.Subject})
	return nil
}

func (c *Client) issue(id domain.Identity) (*domain.AuthSession, error) {
	access, refresh, expiresAt, err := c.tokens.GenerateTokenPair(id)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return &domain.AuthSession{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		User:         id,
	}, nil
}

func (c *Client) validate(token string, purposes ...string) (*security.Claims, error) {
	if token == "" || c.isRevoked(token) {
		return nil, domain.ErrInvalidToken
	}
	return c.tokens.Validate(token, purposes...)
}

func (c *Client) revoke(token string, until time.Time) {
	ttl := time.Until(until)
	if ttl <= 0 {
		return
	}
	c.revoked.Set(token, struct{}{}, ttl)
}

func (c *Client) isRevoked(token string) bool {
	_, found := c.revoked.Get(token)
	return found
}

func recoveryLink(redirectURL, token string) (string, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return "", fmt.Errorf("invalid redirect url: %w", err)
	}
	q := u.Query()
	q.Set("access_token", token)
	q.Set("type", "recovery")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
