package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"waz-calendar/internal/auth"
)

const (
	UsernameKey = "username"
	SessionKey  = "session"
	TokenKey    = "token"
)

// TokenVerifier checks a session token without touching storage.
type TokenVerifier interface {
	Verify(token string) (*auth.Session, error)
}

// AuthMiddleware validates the bearer session token and stores the session on the context.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		session, err := verifier.Verify(parts[1])
		if errors.Is(err, auth.ErrSessionExpired) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(UsernameKey, session.Username)
		c.Set(SessionKey, session)
		c.Set(TokenKey, parts[1])
		c.Next()
	}
}
