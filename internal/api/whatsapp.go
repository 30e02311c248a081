package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"thefinder/server/internal/database"
	"thefinder/server/internal/filter"
	"thefinder/server/internal/models"
)

// whatsappLinkSubject keeps WhatsApp link tokens apart from Telegram ones.
const whatsappLinkSubject = "whatsapp:"

type whatsappSubscriptionRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Token       string `json:"token"`
	filter.Payload
}

func (h *Handler) verifyPhone(phone, token string) bool {
	return phone != "" && h.telegram.Links().Verify(whatsappLinkSubject+phone, token) == nil
}

// GetWhatsappSubscription returns the filters of a WhatsApp number.
func (h *Handler) GetWhatsappSubscription(c *gin.Context) {
	phone := strings.TrimSpace(c.Query("phone_number"))
	if !h.verifyPhone(phone, c.Query("token")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing subscription token"})
		return
	}

	sub, err := h.db.GetWhatsappSubscription(c.Request.Context(), phone)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get WhatsApp subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get subscription"})
		return
	}

	sub.FilterFields = storedSubscription(sub.FilterFields)
	c.JSON(http.StatusOK, sub)
}

// SaveWhatsappSubscription stores the filters of a WhatsApp number.
func (h *Handler) SaveWhatsappSubscription(c *gin.Context) {
	var req whatsappSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid subscription payload", err.Error())
		return
	}
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.PhoneNumber == "" {
		badRequest(c, "phoneNumber is required", nil)
		return
	}
	if !h.verifyPhone(req.PhoneNumber, req.Token) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing subscription token"})
		return
	}

	state := req.Payload.State()
	if err := filter.ValidateSubscription(state); err != nil {
		badRequest(c, "Invalid filters", selectionDetails(err))
		return
	}

	sub, err := h.db.UpsertWhatsappSubscription(c.Request.Context(), &models.WhatsappSubscription{
		PhoneNumber:  req.PhoneNumber,
		FilterFields: state.Fields(),
		Active:       true,
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to save WhatsApp subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subscription"})
		return
	}

	sub.FilterFields = storedSubscription(sub.FilterFields)
	c.JSON(http.StatusOK, sub)
}
