package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/auth"
)

// ContextKeyAdminID is the gin context key holding the authenticated admin.
const ContextKeyAdminID = "admin_user_id"

// AdminAuthMiddleware requires a valid bearer token with admin rights.
func AdminAuthMiddleware(jwtService *auth.JWTService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			abort(c, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			log.Warn().Err(err).Str("path", c.FullPath()).Msg("admin token rejected")
			abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		if !claims.IsAdmin() {
			log.Warn().Str("user_id", claims.UserID).Str("path", c.FullPath()).Msg("non-admin access denied")
			abort(c, http.StatusForbidden, "admin access required")
			return
		}

		c.Set(ContextKeyAdminID, claims.UserID)
		c.Next()
	}
}

func abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}
