package core

import (
	"context"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

type ctxKey int

const authTokenKey ctxKey = iota

// WithAuthToken returns a copy of ctx carrying the session's CMS token.
func WithAuthToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, authTokenKey, token)
}

// AuthToken returns the session's CMS token stored on ctx, if any.
func AuthToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(authTokenKey).(string)
	return token, ok && token != ""
}

func IntPtr(i int) *int { return &i }
