package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codeby/softmarket/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
)

// ResolveIdentity extracts the caller's identity from the Authorization header.
// Any failure (missing header, wrong prefix, undecodable token) is swallowed
// and reported as anonymous, so malformed and absent tokens look the same.
func ResolveIdentity(ctx *gin.Context) (uint, string, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return 0, "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return 0, "", false
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return 0, "", false
	}

	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Debugf("token rejected: %v", err)
		}
		return 0, "", false
	}

	return claims.UserID, claims.Username, true
}

// Identity resolves the caller when possible and stores it in the context,
// letting anonymous requests pass through. Handlers doing their own
// authorization (the admin-only delete) decide what anonymous means.
func Identity() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if userID, username, ok := ResolveIdentity(ctx); ok {
			ctx.Set(ContextUserIDKey, userID)
			ctx.Set(ContextUsernameKey, username)
		}
		ctx.Next()
	}
}

// AuthRequired ensures the request carries a resolvable identity.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, username, ok := ResolveIdentity(ctx)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authentication required")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, userID)
		ctx.Set(ContextUsernameKey, username)
		ctx.Next()
	}
}
