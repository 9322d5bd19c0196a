package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/student-portal-service/internal/auth"
	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/services"
	"github.com/SAP-F-2025/student-portal-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// ActorMiddleware turns the verified identity into the stored user, syncing it
// on first sight. It must run after auth.RequireAuth.
func ActorMiddleware(identities services.IdentityService, logger utils.Logger) gin.HandlerFunc {
	base := NewBaseHandler(logger)
	return func(c *gin.Context) {
		identity, ok := auth.CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Error: "Unauthorized"})
			return
		}

		requestID := c.GetString(utils.RequestIDKey)
		ctx := services.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		user, err := identities.Resolve(ctx, *identity)
		if err != nil {
			base.respondError(c, err)
			c.Abort()
			return
		}
		if user.Status == models.StatusBlocked {
			c.AbortWithStatusJSON(http.StatusForbidden, Response{Error: "Account is blocked"})
			return
		}

		actor := services.ActorFromUser(user)
		actor.IPAddress = c.ClientIP()
		actor.UserAgent = c.Request.UserAgent()
		actor.RequestID = requestID

		c.Set(actorKey, actor)
		c.Set("user_id", actor.IDString())
		c.Next()
	}
}

// RequireRoles rejects actors outside roles with 403.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Error: "Unauthorized"})
			return
		}
		if !actor.Is(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, Response{Error: "Access denied"})
			return
		}
		c.Next()
	}
}

// SetActor stores actor on the context.
func SetActor(c *gin.Context, actor *services.Actor) {
	c.Set(actorKey, actor)
	c.Set("user_id", actor.IDString())
}

func CurrentActor(c *gin.Context) (*services.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil, false
	}
	actor, ok := v.(*services.Actor)
	return actor, ok && actor != nil
}

// actor returns the current actor or answers 401.
func (h *BaseHandler) actor(c *gin.Context) (*services.Actor, bool) {
	actor, ok := CurrentActor(c)
	if !ok {
		h.respondError(c, services.ErrUnauthorized)
		return nil, false
	}
	return actor, true
}
