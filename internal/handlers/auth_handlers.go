package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/storefront-golang/internal/accounts"
	"github.com/01moynul/storefront-golang/internal/middleware"
	"github.com/01moynul/storefront-golang/internal/models"
)

//
// --- Auth Handlers ---
//

type SignupInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handlers) setCookie(c *gin.Context, name, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, value, int(ttl.Seconds()), "/", "", h.SecureCookies, true)
}

func (h *Handlers) setAuthCookies(c *gin.Context, sess *accounts.Session, accessTTL, refreshTTL time.Duration) {
	h.setCookie(c, middleware.AccessTokenCookie, sess.Tokens.AccessToken, accessTTL)
	h.setCookie(c, middleware.RefreshTokenCookie, sess.Tokens.RefreshToken, refreshTTL)
}

func (h *Handlers) clearAuthCookies(c *gin.Context) {
	h.setCookie(c, middleware.AccessTokenCookie, "", -time.Second)
	h.setCookie(c, middleware.RefreshTokenCookie, "", -time.Second)
}

func userBody(u *models.User, accessToken string) gin.H {
	return gin.H{
		"_id":         u.ID,
		"name":        u.Name,
		"email":       u.Email,
		"role":        u.Role,
		"accessToken": accessToken,
	}
}

// Signup is the handler for POST /api/auth/signup
func (h *Handlers) Signup(c *gin.Context) {
	// 1. --- Bind input ---
	var input SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	// 2. --- Create the account ---
	sess, err := h.Accounts.Signup(c.Request.Context(), accounts.SignupInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	// 3. --- Issue cookies ---
	h.setAuthCookies(c, sess, h.Accounts.AccessTTL(), h.Accounts.RefreshTTL())
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User created successfully",
		"user":    userBody(sess.User, sess.Tokens.AccessToken),
	})
}

// Login is the handler for POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	sess, err := h.Accounts.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setAuthCookies(c, sess, h.Accounts.AccessTTL(), h.Accounts.RefreshTTL())
	body := userBody(sess.User, sess.Tokens.AccessToken)
	body["success"] = true
	c.JSON(http.StatusOK, body)
}

// Logout is the handler for POST /api/auth/logout
func (h *Handlers) Logout(c *gin.Context) {
	h.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logout successful"})
}

// RefreshToken is the handler for POST /api/auth/refresh-token
func (h *Handlers) RefreshToken(c *gin.Context) {
	refresh, _ := c.Cookie(middleware.RefreshTokenCookie)

	access, err := h.Accounts.Refresh(c.Request.Context(), refresh)
	if err != nil {
		if refresh != "" {
			h.clearAuthCookies(c)
		}
		h.respondError(c, err)
		return
	}

	h.setCookie(c, middleware.AccessTokenCookie, access, h.Accounts.AccessTTL())
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Access token refreshed successfully", "accessToken": access})
}

// GetProfile is the handler for GET /api/auth/profile
func (h *Handlers) GetProfile(c *gin.Context) {
	user, err := h.Accounts.Profile(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
