package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/SAP-F-2025/learning-service/internal/auth"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	identityKey = "identity"
	userIDKey   = "user_id"
)

// IdentityResolver turns a bearer token into the calling identity
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*auth.Identity, error)
}

// AuthMiddleware resolves the bearer token and stores the identity on the
// context. Requests without a valid token are rejected with 401.
func AuthMiddleware(resolver IdentityResolver, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		identity, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrMissingToken) || errors.Is(err, auth.ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
					Message: "User not authenticated",
					Details: err.Error(),
					Code:    "unauthenticated",
				})
				return
			}
			utils.GetLoggerFromContext(c, logger).LogError(err, "Failed to resolve identity")
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
				Message: "Internal server error",
				Code:    "internal_error",
			})
			return
		}

		c.Set(identityKey, *identity)
		c.Set(userIDKey, identity.UserID)
		c.Next()
	}
}

// RequireAdmin rejects callers without an admin role
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, _ := c.Get(identityKey)
		identity, ok := value.(auth.Identity)
		if !ok || !identity.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Access denied",
				Details: "admin role required",
				Code:    "forbidden",
			})
			return
		}
		c.Next()
	}
}
