package httpapi

import (
	"fmt"

	"creatorhub-controlplane/pkg/errutil"
	"creatorhub-controlplane/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// requireActor pulls the acting user from the request and enforces role
// membership when roles are given. Identity is asserted by the edge proxy;
// this layer only checks that it is present and allowed.
func requireActor(c *gin.Context, roles ...string) (middleware.Actor, error) {
	actor, ok := middleware.ActorFrom(c.Request.Context())
	if !ok {
		return middleware.Actor{}, errutil.Unauthorized("missing actor identity", nil)
	}
	if len(roles) == 0 {
		return actor, nil
	}
	for _, role := range roles {
		if actor.Role == role {
			return actor, nil
		}
	}
	return middleware.Actor{}, errutil.Forbidden(
		fmt.Sprintf("role %s cannot perform this action", actor.Role), nil)
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
