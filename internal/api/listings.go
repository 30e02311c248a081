package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"thefinder/server/internal/database"
	"thefinder/server/internal/filter"
)

// GetListings searches listings with the filters of the query string.
func (h *Handler) GetListings(c *gin.Context) {
	state := filter.Decode(c.Request.URL.Query())

	listings, err := h.db.GetListings(c.Request.Context(), state)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get listings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listings"})
		return
	}

	c.JSON(http.StatusOK, listings)
}

// GetListing returns one listing. A ci parameter marks a visit from a
// Telegram notification of that chat.
func (h *Handler) GetListing(c *gin.Context) {
	postID := c.Param("postId")

	listing, err := h.db.GetListingByPostID(c.Request.Context(), postID)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("post_id", postID).Error("Failed to get listing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listing"})
		return
	}

	if chatID := c.Query("ci"); chatID != "" {
		if err := h.db.RecordListingView(c.Request.Context(), postID, chatID); err != nil {
			h.logger.WithError(err).WithField("post_id", postID).Warn("Failed to record listing view")
		}
	}

	c.JSON(http.StatusOK, listing)
}
