package http

import (
	"context"

	"garage-backend/internal/domain"
)

type contextKey int

const identityKey contextKey = iota

func withIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller placed by the session gate. Requests
// without a valid session carry the zero (anonymous) identity.
func IdentityFromContext(ctx context.Context) domain.Identity {
	id, _ := ctx.Value(identityKey).(domain.Identity)
	return id
}
