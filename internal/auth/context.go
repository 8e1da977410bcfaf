package auth

import (
	"context"

	"github.com/ZertGraf/observ/internal/domain"
)

type actorContextKey struct{}

// ContextWithActor attaches the authenticated user to the context.
func ContextWithActor(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, actorContextKey{}, user)
}

// ActorFromContext returns the authenticated user, or nil for an
// anonymous request.
func ActorFromContext(ctx context.Context) *domain.User {
	if ctx == nil {
		return nil
	}
	user, _ := ctx.Value(actorContextKey{}).(*domain.User)
	return user
}
