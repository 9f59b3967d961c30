package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"projectboard/model"
	"projectboard/services"
)

const (
	identityKey     = "identity"
	userIDKey       = "userId"
	refreshTokenKey = "refreshToken"
)

type Authenticator interface {
	Authenticate(accessToken string) (model.Identity, error)
}

func bearer(c *gin.Context) (string, bool) {
	parts := strings.Fields(c.Request.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func AccessTokenMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Header.Get("Authorization") == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "Authorization header is missing"})
			return
		}
		token, ok := bearer(c)
		if !ok {
			c.AbortWithStatusJSON(401, gin.H{"error": "Invalid token format"})
			return
		}
		id, err := auth.Authenticate(token)
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{"error": services.ErrInvalidToken.Error()})
			return
		}
		c.Set(identityKey, id)
		c.Set(userIDKey, id.UserID)
		c.Next()
	}
}

// RefreshTokenMiddleware only extracts the bearer value. Validation happens
// in Session.Refresh against the stored hash.
func RefreshTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Header.Get("Authorization") == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "Refresh token is missing"})
			return
		}
		token, ok := bearer(c)
		if !ok {
			c.AbortWithStatusJSON(401, gin.H{"error": "Invalid token format"})
			return
		}
		c.Set(refreshTokenKey, token)
		c.Next()
	}
}

// CurrentIdentity returns the principal stored by AccessTokenMiddleware.
func CurrentIdentity(c *gin.Context) model.Identity {
	v, _ := c.Get(identityKey)
	id, _ := v.(model.Identity)
	return id
}

func RefreshToken(c *gin.Context) string {
	return c.GetString(refreshTokenKey)
}
