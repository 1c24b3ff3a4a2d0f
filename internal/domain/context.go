package domain

import "context"

type contextKey string

const accessTokenKey contextKey = "accessToken"

// WithAccessToken attaches the caller's access token to ctx so storage
// drivers that enforce row-level security can act on the user's behalf.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey, token)
}

// AccessToken returns the access token stored in ctx
func AccessToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenKey).(string)
	return token, ok && token != ""
}
