package rbac

import "context"

// actorCtxKey is the context key for storing the acting identity.
type actorCtxKey struct{}

// WithActor stores the acting identity in the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, a)
}

// ActorFromContext retrieves the acting identity from the context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorCtxKey{}).(Actor)
	return a, ok
}
