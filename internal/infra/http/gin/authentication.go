package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"babiloc/internal/domain/user"
)

const (
	principalContextKey = "babiloc.principal"
	userIDHeader        = "X-User-ID"
	userRoleHeader      = "X-User-Role"
)

// HeaderAuth trusts the identity headers set by the gateway in front of the service.
// Requests without them continue anonymously; handlers decide whether that is enough.
type HeaderAuth struct {
	Logger *slog.Logger
}

func (m HeaderAuth) Handle(c *gin.Context) {
	id := c.GetHeader(userIDHeader)
	if id == "" {
		c.Next()
		return
	}
	actor, err := user.NewActor(id, c.GetHeader(userRoleHeader))
	if err != nil || actor.IsSystem() {
		if m.Logger != nil {
			m.Logger.Debug("identity headers rejected", "user_id", id, "role", c.GetHeader(userRoleHeader))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"kind": "permission", "error": "invalid_identity", "detail": "identity headers are invalid"})
		return
	}
	setPrincipal(c, actor)
	c.Next()
}

func setPrincipal(c *gin.Context, a user.Actor) {
	c.Set(principalContextKey, a)
}

// currentActor returns the caller, or the zero Actor for anonymous requests.
func currentActor(c *gin.Context) user.Actor {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return user.Actor{}
	}
	a, _ := val.(user.Actor)
	return a
}

func requireActor(c *gin.Context) (user.Actor, bool) {
	a := currentActor(c)
	if a.ID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"kind": "permission", "error": "auth_required", "detail": "authentication required"})
		return user.Actor{}, false
	}
	return a, true
}
