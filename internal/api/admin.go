package api

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"thefinder/server/internal/auth"
	"thefinder/server/internal/session"
)

const adminSessionCookie = "admin_session"

type adminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// AdminLogin starts an admin session when the password matches ADMIN_PASSWORD.
func (h *Handler) AdminLogin(c *gin.Context) {
	if h.config.Auth.AdminPassword == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Admin access is not configured"})
		return
	}

	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Password is required", nil)
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.config.Auth.AdminPassword)) != 1 {
		h.logger.WithField("ip", c.ClientIP()).Warn("Failed admin login")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	token, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to create admin session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	ttl := h.config.Auth.AdminSessionTTL
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(adminSessionCookie, token, int(ttl.Seconds()), "/api/admin", "", h.config.IsProduction(), true)
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresIn": int(ttl.Seconds())})
}

// AdminLogout revokes the current admin session.
func (h *Handler) AdminLogout(c *gin.Context) {
	if token, ok := adminToken(c); ok {
		if err := h.sessions.Revoke(c.Request.Context(), token); err != nil {
			h.logger.WithError(err).Error("Failed to revoke admin session")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
			return
		}
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(adminSessionCookie, "", -1, "/api/admin", "", h.config.IsProduction(), true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// RequireAdmin rejects requests without a live admin session.
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := adminToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Admin session required"})
			return
		}
		err := h.sessions.Validate(c.Request.Context(), token)
		if errors.Is(err, session.ErrInvalidSession) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}
		if err != nil {
			h.logger.WithError(err).Error("Failed to validate admin session")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate session"})
			return
		}
		c.Next()
	}
}

func adminToken(c *gin.Context) (string, bool) {
	if token, ok := auth.BearerToken(c); ok {
		return token, true
	}
	if token, err := c.Cookie(adminSessionCookie); err == nil && token != "" {
		return token, true
	}
	return "", false
}

func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.db.GetAdminStats(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get admin stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
