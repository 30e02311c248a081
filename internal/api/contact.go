package api

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type contactRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required,max=5000"`
}

// Contact stores a contact form message and forwards it to the admin chat.
func (h *Handler) Contact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid contact message", err.Error())
		return
	}
	req.Message = strings.TrimSpace(req.Message)

	if err := h.db.CreateContactMessage(c.Request.Context(), req.Email, req.Message); err != nil {
		h.logger.WithError(err).Error("Failed to store contact message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	if chatID := h.config.Telegram.AdminChatID; chatID != "" {
		text := fmt.Sprintf("📬 <b>New contact message</b>\nFrom: %s\n\n%s",
			html.EscapeString(req.Email), html.EscapeString(req.Message))
		if err := h.telegram.SendMessage(c.Request.Context(), chatID, text); err != nil {
			h.logger.WithError(err).Warn("Failed to forward contact message")
		}
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Message received"})
}
