package jwtmw

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"dynamicpro_backend/internal/api"
	"dynamicpro_backend/internal/feature/auth/domain/entity"
	"dynamicpro_backend/internal/feature/auth/usecase"
)

// UserLookup loads the authoritative user record.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
}

// RequireRole must run after AuthRequired. It reloads the caller from the store
// and checks the stored role, not the role claimed by the token.
// With no roles given any existing user passes.
// When users is a caching lookup, the result can lag the store by the cache TTL.
func RequireRole(users UserLookup, roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.NewError(api.CodeUnauthenticated, "missing bearer token"))
			return
		}

		user, err := users.FindByID(c.Request.Context(), identity.ID)
		if err != nil {
			if errors.Is(err, usecase.ErrUserNotFound) {
				slog.Warn("token subject no longer exists", "user_id", identity.ID, "remote_addr", c.ClientIP())
				c.AbortWithStatusJSON(http.StatusUnauthorized, api.NewError(api.CodeUnauthenticated, "invalid token"))
				return
			}
			slog.Error("failed to load user for authorization", "user_id", identity.ID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewError(api.CodeUnavailable, "service unavailable"))
			return
		}

		if len(roles) > 0 && !slices.Contains(roles, user.Role) {
			if user.Role != identity.Role {
				slog.Info("token role claim is stale", "user_id", user.ID, "claimed", identity.Role, "stored", user.Role)
			}
			c.AbortWithStatusJSON(http.StatusForbidden, api.NewError(api.CodeForbidden, "insufficient role"))
			return
		}

		c.Set(ContextUser, user)
		c.Next()
	}
}
