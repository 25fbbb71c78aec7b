package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/token"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/utils"
)

const (
	ContextUserID = "userID"
	ContextEmail  = "userEmail"
	ContextName   = "userName"
)

// Auth rejects requests without a valid bearer access token. Any token fault
// is answered with the same generic 401.
func Auth(issuer *token.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, issuer)
		if !ok {
			utils.Unauthorized(c, "Invalid or missing access token")
			c.Abort()
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth sets the caller's identity when a valid bearer token is
// present and lets the request through either way.
func OptionalAuth(issuer *token.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := bearerClaims(c, issuer); ok {
			setIdentity(c, claims)
		}
		c.Next()
	}
}

// UserID returns the authenticated user's ID from the request context.
func UserID(c *gin.Context) (string, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}

func bearerClaims(c *gin.Context, issuer *token.Issuer) (*token.Claims, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, false
	}
	claims, err := issuer.Validate(parts[1])
	if err != nil {
		return nil, false
	}
	return claims, true
}

func setIdentity(c *gin.Context, claims *token.Claims) {
	c.Set(ContextUserID, claims.Subject)
	c.Set(ContextEmail, claims.Email)
	c.Set(ContextName, claims.Name)
}
