package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docsense/internal/auth"
)

const (
	ContextKeySubject = "subject"
	ContextKeyClaims  = "claims"
)

// TokenValidator checks bearer tokens.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// AuthMiddleware returns Gin middleware that requires a valid bearer token.
// A nil validator lets every request through.
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validator == nil {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing or invalid authorization header"},
			})
			return
		}

		claims, err := validator.Validate(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			l := GetLogger(c)
			l.Info().Err(err).Msg("token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid or expired token"},
			})
			return
		}

		c.Set(ContextKeySubject, claims.Subject)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetSubject extracts the token subject from the Gin context.
func GetSubject(c *gin.Context) string {
	return c.GetString(ContextKeySubject)
}

// BodyLimit caps the request body size. Larger bodies fail while the
// multipart form is parsed.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
