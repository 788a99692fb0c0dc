package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/kkuzmin/gabble/internal/auth"
)

// AuthRequired resolves the caller's bearer token and stores the
// identity in the request context. Tokens come from the Authorization
// header or, for WebSocket upgrades where browsers cannot set headers,
// a `token` query parameter.
func AuthRequired(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		identity, err := tokens.Resolve(tokenString)
		if err != nil {
			log.Warn().Str("module", "http").Str("path", c.FullPath()).Msg("unauthorized request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   true,
				"message": "Unauthorized",
			})
			return
		}
		c.Set("identity", identity)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}
