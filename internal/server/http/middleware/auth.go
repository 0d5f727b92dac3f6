package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/drobyshev/leadmart/internal/domain/model"
)

const (
	// ViewerContextKey is a gin context key for the authenticated viewer.
	ViewerContextKey = "viewer"
	authCookieName   = "leadmart_token"
)

// ViewerParser rebuilds a viewer from an auth token.
type ViewerParser interface {
	ParseToken(token string) (*model.Viewer, error)
}

// AuthRequired ensures a viewer is authenticated before accessing handler.
func AuthRequired(parser ViewerParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		viewer, err := parser.ParseToken(token)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(ViewerContextKey, viewer)
		c.Next()
	}
}

// OptionalAuth resolves the viewer when a valid token is present and treats
// everything else as anonymous browsing.
func OptionalAuth(parser ViewerParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if viewer, err := parser.ParseToken(token); err == nil {
				c.Set(ViewerContextKey, viewer)
			}
		}
		c.Next()
	}
}

// AdminRequired rejects non-admin viewers. Must follow AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		val, ok := c.Get(ViewerContextKey)
		viewer, _ := val.(*model.Viewer)
		if !ok || !viewer.IsAdmin() {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}

	if cookie, err := c.Cookie(authCookieName); err == nil {
		return cookie
	}
	return ""
}

// SetAuthCookie writes auth token cookie to response.
func SetAuthCookie(c *gin.Context, token string) {
	c.SetCookie(authCookieName, token, 0, "/", "", false, true)
	c.Header("Authorization", "Bearer "+token)
}
