package security

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token purposes
const (
	PurposeAccess   = "access"
	PurposeRefresh  = "refresh"
	PurposeRecovery = "recovery"
)

const issuer = "fai-advisor"

// Claims represents JWT claims
type Claims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Identity returns the identity carried by the claims
func (c *Claims) Identity() domain.Identity {
	return domain.Identity{ID: c.Subject, Email: c.Email, DisplayName: c.Name}
}

// JWTManager handles JWT token operations
type JWTManager struct {
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	recoveryTTL     time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret string, accessTTL, refreshTTL, recoveryTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:          []byte(secret),
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
		recoveryTTL:     recoveryTTL,
	}
}

func (m *JWTManager) issue(id domain.Identity, purpose string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		Email:   id.Email,
		Name:    id.DisplayName,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	if purpose == PurposeRefresh {
		claims.Email, claims.Name = "", ""
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// GenerateTokenPair generates both access and refresh tokens
func (m *JWTManager) GenerateTokenPair(id domain.Identity) (accessToken, refreshToken string, expiresAt time.Time, err error) {
	accessToken, expiresAt, err = m.issue(id, PurposeAccess, m.accessTokenTTL)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, _, err = m.issue(id, PurposeRefresh, m.refreshTokenTTL)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return accessToken, refreshToken, expiresAt, nil
}

// GenerateRecoveryToken generates a short-lived token for the password reset link
func (m *JWTManager) GenerateRecoveryToken(id domain.Identity) (string, time.Time, error) {
	token, expiresAt, err := m.issue(id, PurposeRecovery, m.recoveryTTL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate recovery token: %w", err)
	}
	return token, expiresAt, nil
}

// Validate parses a token and checks that its purpose is one of purposes
func (m *JWTManager) Validate(tokenString string, purposes ...string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if !slices.Contains(purposes, claims.Purpose) {
		return nil, fmt.Errorf("unexpected token purpose: %s", claims.Purpose)
	}

	return claims, nil
}

// ValidateAccessToken validates an access or recovery token
func (m *JWTManager) ValidateAccessToken(tokenString string) (*Claims, error) {
	return m.Validate(tokenString, PurposeAccess, PurposeRecovery)
}

// ValidateRefreshToken validates a refresh token and returns the user ID
func (m *JWTManager) ValidateRefreshToken(tokenString string) (string, error) {
	claims, err := m.Validate(tokenString, PurposeRefresh)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("invalid user ID in token")
	}
	return claims.Subject, nil
}

// AccessTokenTTL returns the access token TTL
func (m *JWTManager) AccessTokenTTL() time.Duration {
	return m.accessTokenTTL
}
