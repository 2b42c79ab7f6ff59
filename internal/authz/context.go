package authz

import (
	"context"
	"net/http"
)

type contextKey string

const (
	userSubKey   contextKey = "user_sub"
	userEmailKey contextKey = "user_email"
)

// WithIdentity stores the authenticated principal on the context. The email
// is the verified claim from the token, never a client-supplied value.
func WithIdentity(ctx context.Context, userSub, email string) context.Context {
	if userSub != "" {
		ctx = context.WithValue(ctx, userSubKey, userSub)
	}
	if email != "" {
		ctx = context.WithValue(ctx, userEmailKey, email)
	}
	return ctx
}

func UserSubFromRequest(r *http.Request) (string, bool) {
	sub, ok := r.Context().Value(userSubKey).(string)
	if !ok || sub == "" {
		return "", false
	}
	return sub, true
}

func EmailFromRequest(r *http.Request) (string, bool) {
	email, ok := r.Context().Value(userEmailKey).(string)
	if !ok || email == "" {
		return "", false
	}
	return email, true
}
