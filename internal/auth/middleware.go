package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// RequireAuth verifies the bearer token and stores the Identity on the context.
func RequireAuth(verifier Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := ExtractBearer(c.GetHeader("Authorization"))
		if err != nil {
			abortUnauthorized(c, err)
			return
		}
		if verifier == nil {
			abortUnauthorized(c, ErrNoVerifier)
			return
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// SetIdentity stores identity on the context. Used by tests and internal callers.
func SetIdentity(c *gin.Context, identity *Identity) {
	c.Set(identityKey, identity)
}

func CurrentIdentity(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*Identity)
	return identity, ok && identity != nil
}

func abortUnauthorized(c *gin.Context, err error) {
	msg := "Unauthorized"
	switch {
	case errors.Is(err, ErrMissingToken):
		msg = "Authorization header is required"
	case errors.Is(err, ErrTokenExpired):
		msg = "Token expired"
	case errors.Is(err, ErrInvalidToken):
		msg = "Invalid token"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   msg,
	})
}
