package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "pharmacy-storefront/common/errors"
)

const UserContextKey = "userID"

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	ParseAccessToken(token string) (int64, error)
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return strings.TrimSpace(h)
}

// AuthMiddleware rejects requests without a valid access token and stores the
// caller's user id on the context.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(apperrors.ErrMissingAuthToken.Code, apperrors.ErrMissingAuthToken)
			return
		}
		userID, err := verifier.ParseAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(apperrors.ErrInvalidToken.Code, apperrors.ErrInvalidToken)
			return
		}
		c.Set(UserContextKey, userID)
		c.Next()
	}
}

// GetUserID extracts the user ID from the Gin context.
func GetUserID(c *gin.Context) (int64, error) {
	if val, ok := c.Get(UserContextKey); ok {
		if id, ok := val.(int64); ok && id > 0 {
			return id, nil
		}
	}
	return 0, errors.New("user ID not found in context")
}
