package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/focusstreak/utils"
)

// ContextUserIDKey is the key used to store the token's user id in the Gin context.
const ContextUserIDKey = "user_id"

// OptionalIdentity reads an optional bearer token. Requests without an
// Authorization header pass through anonymously; a malformed or invalid
// token is rejected. With an empty secret the middleware is a no-op.
func OptionalIdentity(secret string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if secret == "" {
			ctx.Next()
			return
		}
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			ctx.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			utils.Error(ctx, http.StatusUnauthorized, "invalid authorization header format")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(secret, strings.TrimSpace(parts[1]))
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, "invalid token")
			ctx.Abort()
			return
		}
		ctx.Set(ContextUserIDKey, claims.UserID())
		ctx.Next()
	}
}

// IdentityUserID returns the user id established by OptionalIdentity.
func IdentityUserID(ctx *gin.Context) (string, bool) {
	v, ok := ctx.Get(ContextUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
