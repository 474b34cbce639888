package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/auth"
)

// ClaimsKey is the gin context key carrying verified admin claims.
const ClaimsKey = "admin_claims"

// RequireAdmin rejects requests without a valid Bearer token.
func RequireAdmin(provider *auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := provider.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}
