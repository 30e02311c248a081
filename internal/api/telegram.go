package api

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	tele "gopkg.in/telebot.v3"

	"thefinder/server/internal/database"
	"thefinder/server/internal/filter"
	"thefinder/server/internal/models"
)

type telegramSubscriptionRequest struct {
	ChatID     string `json:"chatId"`
	Token      string `json:"token"`
	TargetType string `json:"targetType"`
	filter.Payload
}

// storedSubscription fills the filters of older rows with defaults. Stored
// subscriptions are answered in their snake_case column shape.
func storedSubscription(fields models.FilterFields) models.FilterFields {
	return filter.FromFields(fields).Fields()
}

// TelegramWebhook receives bot updates. Telegram retries anything but a 200,
// so failures are only logged.
func (h *Handler) TelegramWebhook(c *gin.Context) {
	var update tele.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.logger.WithError(err).Warn("Failed to decode Telegram update")
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	if err := h.telegram.HandleUpdate(c.Request.Context(), &update); err != nil {
		h.logger.WithError(err).WithField("update_id", update.ID).Error("Failed to handle Telegram update")
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GetTelegramSubscription returns the filters of the chat owning the link token.
func (h *Handler) GetTelegramSubscription(c *gin.Context) {
	chatID := c.Query("chat_id")
	if chatID == "" || h.telegram.Links().Verify(chatID, c.Query("token")) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing subscription token"})
		return
	}
	targetType := c.DefaultQuery("target_type", models.TargetUser)

	sub, err := h.db.GetTelegramSubscription(c.Request.Context(), chatID, targetType)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to get subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get subscription"})
		return
	}

	sub.FilterFields = storedSubscription(sub.FilterFields)
	c.JSON(http.StatusOK, sub)
}

// SaveTelegramSubscription stores the filters of a chat and confirms them in
// the chat.
func (h *Handler) SaveTelegramSubscription(c *gin.Context) {
	var req telegramSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid subscription payload", err.Error())
		return
	}
	req.ChatID = strings.TrimSpace(req.ChatID)
	if req.ChatID == "" {
		badRequest(c, "chatId is required", nil)
		return
	}
	if h.telegram.Links().Verify(req.ChatID, req.Token) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing subscription token"})
		return
	}
	if req.TargetType == "" {
		req.TargetType = models.TargetUser
	}
	if req.TargetType != models.TargetUser && req.TargetType != models.TargetGroup {
		badRequest(c, "Invalid targetType", nil)
		return
	}

	state := req.Payload.State()
	if err := filter.ValidateSubscription(state); err != nil {
		badRequest(c, "Invalid filters", selectionDetails(err))
		return
	}

	sub, err := h.db.UpsertTelegramSubscription(c.Request.Context(), &models.TelegramSubscription{
		ChatID:       req.ChatID,
		TargetType:   req.TargetType,
		FilterFields: state.Fields(),
		Active:       true,
	})
	if err != nil {
		h.logger.WithError(err).WithField("chat_id", req.ChatID).Error("Failed to save subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subscription"})
		return
	}

	if err := h.telegram.SendMessage(c.Request.Context(), req.ChatID, confirmationText(state, h.searchURL(state))); err != nil {
		h.logger.WithError(err).WithField("chat_id", req.ChatID).Error("Failed to send subscription confirmation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Subscription saved but the confirmation message could not be sent"})
		return
	}

	sub.FilterFields = storedSubscription(sub.FilterFields)
	c.JSON(http.StatusOK, sub)
}

// searchURL opens the search page on the listings a filter matches.
func (h *Handler) searchURL(s filter.State) string {
	return strings.TrimRight(h.config.AppURL, "/") + "/?" + s.APIQuery().Encode()
}

func confirmationText(s filter.State, searchURL string) string {
	var b strings.Builder
	b.WriteString("✅ <b>Your filters were saved</b>\n\n")
	fmt.Fprintf(&b, "💰 Price: %s-%s ₪\n", formatBound(s.MinPrice), formatBound(s.MaxPrice))
	fmt.Fprintf(&b, "📐 Size: %s-%s m²\n", formatBound(s.MinSize), formatBound(s.MaxSize))
	fmt.Fprintf(&b, "🚪 Rooms: %s-%s\n", formatBound(s.MinRooms), formatBound(s.MaxRooms))
	fmt.Fprintf(&b, "📍 Neighborhoods: %d selected\n\n", len(s.Neighborhoods))
	fmt.Fprintf(&b, "🔎 <a href=\"%s\">Browse matching listings</a>\n\n", html.EscapeString(searchURL))
	b.WriteString("New listings that match will be sent here.")
	return b.String()
}

func formatBound(v float64) string {
	return fmt.Sprintf("%g", v)
}
