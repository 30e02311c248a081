package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SetupRoutes registers every endpoint on router.
func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", handler.Health)
	router.GET("/listing/:postId", handler.ShareListing)

	api := router.Group("/api")
	{
		api.GET("/listings", handler.GetListings)
		api.GET("/listings/:postId", handler.GetListing)
		api.GET("/cities", handler.GetCities)
		api.POST("/contact", handler.Contact)

		chat := api.Group("/chat")
		chat.POST("/listing/recent", handler.ChatRecentListings)
		chat.POST("/listing/by-id", handler.ChatListingByID)

		tg := api.Group("/telegram")
		tg.POST("/webhook", handler.TelegramWebhook)
		tg.GET("/private-subscription", handler.GetTelegramSubscription)
		tg.POST("/private-subscription", handler.SaveTelegramSubscription)

		wa := api.Group("/whatsapp")
		wa.GET("/private-subscription", handler.GetWhatsappSubscription)
		wa.POST("/private-subscription", handler.SaveWhatsappSubscription)

		api.POST("/register", handler.Register)
		api.POST("/login", handler.Login)

		user := api.Group("/user", handler.auth.Middleware())
		{
			user.GET("", handler.GetUser)
			user.POST("/subscribe", handler.Subscribe)
			user.POST("/unsubscribe", handler.Unsubscribe)
			user.POST("/telegram", handler.LinkTelegram)
			user.GET("/filters", handler.GetUserFilters)
			user.POST("/filters", handler.CreateUserFilter)
			user.PUT("/filters/:id", handler.UpdateUserFilter)
			user.DELETE("/filters/:id", handler.DeleteUserFilter)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/login", handler.AdminLogin)
			admin.POST("/logout", handler.AdminLogout)
			admin.GET("/stats", handler.RequireAdmin(), handler.AdminStats)
		}
	}
}

// Health reports whether the database answers.
func (h *Handler) Health(c *gin.Context) {
	status, code := "ok", http.StatusOK
	if err := h.db.Ping(c.Request.Context()); err != nil {
		h.logger.WithError(err).Error("Health check failed")
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
