package middleware

import (
	"context"
	"net/http"
)

// Identity issuance lives outside this service. The upstream gateway
// authenticates the caller and forwards the actor's id and role in trusted
// headers; this middleware only makes them available to handlers, which
// enforce ownership rules.
const (
	HeaderActorID   = "X-Actor-Id"
	HeaderActorRole = "X-Actor-Role"

	RoleClient   = "client"
	RoleProvider = "provider"
)

const actorKey contextKey = "actor"

type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsClient() bool {
	return a.Role == RoleClient
}

func (a Actor) IsProvider() bool {
	return a.Role == RoleProvider
}

func ActorContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := Actor{
				ID:   r.Header.Get(HeaderActorID),
				Role: r.Header.Get(HeaderActorRole),
			}

			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithActor attaches an actor to the context directly, bypassing the header
// extraction. Used where a request context is built by hand.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	if !ok || actor.ID == "" {
		return Actor{}, false
	}
	return actor, true
}
