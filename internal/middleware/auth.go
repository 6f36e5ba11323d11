package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/storefront-golang/internal/accounts"
	"github.com/01moynul/storefront-golang/internal/apperr"
	"github.com/01moynul/storefront-golang/internal/models"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	userKey = "user"
)

// accessToken prefers the cookie the browser client sends and falls back to a Bearer header.
func accessToken(c *gin.Context) string {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AuthMiddleware resolves the caller's access token to a user and stores it on the context.
func AuthMiddleware(acc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Find and validate the token ---
		user, err := acc.Authenticate(c.Request.Context(), accessToken(c))
		if err != nil {
			status := http.StatusUnauthorized
			if apperr.KindOf(err) == apperr.KindInternal {
				status = http.StatusInternalServerError
			}
			c.AbortWithStatusJSON(status, gin.H{"success": false, "message": apperr.MessageOf(err)})
			return
		}

		// 2. --- Success ---
		c.Set(userKey, user)
		c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Forbidden - Admin access required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user set by AuthMiddleware, or nil on public routes.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
