package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// Actor identity comes from the session/auth collaborator in front of this
// service; it is trusted here, not re-authenticated.
const (
	ActorIDHeader   = "X-Actor-ID"
	ActorRoleHeader = "X-Actor-Role"
)

const (
	RoleBrand      = "brand"
	RoleInfluencer = "influencer"
	RoleAdmin      = "admin"
)

type actorKey struct{}

type Actor struct {
	ID   string
	Role string
}

// WithActor propagates the acting user's id and role into the request context.
func WithActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := Actor{
			ID:   c.GetHeader(ActorIDHeader),
			Role: c.GetHeader(ActorRoleHeader),
		}

		ctx := context.WithValue(c.Request.Context(), actorKey{}, actor)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ActorFrom returns the acting user recorded by WithActor.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok && actor.ID != ""
}
