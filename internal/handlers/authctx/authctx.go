package authctx

import (
	"context"
)

// Principal is the authenticated identity carried through the request
// context. It comes from the access token claims, not from the database.
type Principal struct {
	UserID  int64
	IsAdmin bool
}

type ctxKey string

const principalKey ctxKey = "principal"

// Create a new context with the principal
func New(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// Extract the principal from the context
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
