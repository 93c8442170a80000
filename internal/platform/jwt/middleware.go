package jwtmw

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dynamicpro_backend/internal/api"
	"dynamicpro_backend/internal/feature/auth/domain/entity"
	"dynamicpro_backend/internal/platform/metrics"
)

const (
	// ContextIdentity is the gin context key holding the entity.Identity of the caller.
	ContextIdentity = "identity"
	// ContextUser is the gin context key holding the *entity.User loaded by RequireRole.
	ContextUser = "user"

	bearerPrefix = "Bearer "
)

// TokenVerifier verifies a raw bearer token.
type TokenVerifier interface {
	Verify(token string) (entity.Identity, error)
}

// AuthRequired returns a Gin middleware function that validates JWT tokens
// and restricts access to authenticated users only.
// Every failure is answered with the same 401; the reason is only logged.
func AuthRequired(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get Authorization header
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, bearerPrefix) {
			metrics.TokenRejections.WithLabelValues("missing").Inc()
			slog.Warn("missing bearer token", "path", c.FullPath(), "remote_addr", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.NewError(api.CodeUnauthenticated, "missing bearer token"))
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, bearerPrefix))
		if tokenStr == "" {
			metrics.TokenRejections.WithLabelValues("missing").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.NewError(api.CodeUnauthenticated, "missing bearer token"))
			return
		}

		// 2. Verify signature and expiry
		identity, err := verifier.Verify(tokenStr)
		if err != nil {
			reason := Reason(err)
			metrics.TokenRejections.WithLabelValues(reason).Inc()
			slog.Warn("token rejected", "reason", reason, "error", err, "path", c.FullPath(), "remote_addr", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.NewError(api.CodeUnauthenticated, "invalid token"))
			return
		}

		// 3. Pass control to the next handler
		c.Set(ContextIdentity, identity)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by AuthRequired.
func IdentityFrom(c *gin.Context) (entity.Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return entity.Identity{}, false
	}
	id, ok := v.(entity.Identity)
	return id, ok
}

// UserFrom returns the user loaded by RequireRole.
func UserFrom(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*entity.User)
	return u, ok && u != nil
}
