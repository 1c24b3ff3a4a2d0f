package domain

import "time"

// Identity is the reference this service holds to an authenticated user
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// Name returns the display name, falling back to the email address
func (i Identity) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Email
}

// AuthSession is the result of a successful sign-in or token refresh
type AuthSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         Identity  `json:"user"`
}

// Expired reports whether the access token has expired at now
func (s *AuthSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// UserLogin represents login credentials
type UserLogin struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

// UserCreate represents sign-up form data
type UserCreate struct {
	FullName        string `json:"full_name" form:"fullName" validate:"required,min=2,max=100"`
	Email           string `json:"email" form:"email" validate:"required,email,max=255"`
	Password        string `json:"password" form:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" form:"confirmPassword" validate:"required,eqfield=Password"`
	AgreeToTerms    bool   `json:"agree_to_terms" form:"agreeToTerms" validate:"required"`
}

// PasswordResetRequest represents the forgot-password form
type PasswordResetRequest struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

// PasswordUpdate represents the update-password form
type PasswordUpdate struct {
	Password        string `json:"password" form:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" form:"confirmPassword" validate:"required,eqfield=Password"`
}

// ContactMessage represents the contact form
type ContactMessage struct {
	Name    string `json:"name" form:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" form:"email" validate:"required,email"`
	Subject string `json:"subject" form:"subject" validate:"required,max=200"`
	Message string `json:"message" form:"message" validate:"required,max=5000"`
}
