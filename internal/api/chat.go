package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"thefinder/server/internal/database"
	"thefinder/server/internal/filter"
	"thefinder/server/internal/models"
)

// ChatListingLimit caps the listings returned to the chatbot.
const ChatListingLimit = 5

// ChatListing is the flattened listing shape consumed by the chatbot.
type ChatListing struct {
	PostID              string    `json:"post_id"`
	Price               float64   `json:"price"`
	Address             string    `json:"address"`
	Neighborhood        string    `json:"neighborhood"`
	NumRooms            float64   `json:"num_rooms"`
	Size                float64   `json:"size"`
	Agent               string    `json:"agent"`
	Balcony             string    `json:"balcony"`
	Parking             string    `json:"parking"`
	Furnished           string    `json:"furnished"`
	DetailedDescription string    `json:"detailed_description"`
	Description         string    `json:"description"`
	CreatedAt           time.Time `json:"created_at"`
	SourcePlatform      string    `json:"source_platform"`
	City                string    `json:"city"`
	URL                 string    `json:"url"`
}

type chatListingRequest struct {
	PostID string `json:"postId"`
}

func (h *Handler) listingURL(postID string) string {
	return strings.TrimRight(h.config.PublicURL, "/") + "/listing/" + postID
}

func (h *Handler) toChatListing(l *models.Listing) ChatListing {
	return ChatListing{
		PostID:              l.PostID,
		Price:               l.Price,
		Address:             address(l),
		Neighborhood:        l.Neighborhood,
		NumRooms:            l.NumRooms,
		Size:                l.Size,
		Agent:               l.Agent,
		Balcony:             l.Balcony,
		Parking:             l.Parking,
		Furnished:           l.Furnished,
		DetailedDescription: l.DetailedDescription,
		Description:         l.Description,
		CreatedAt:           l.CreatedAt,
		SourcePlatform:      l.SourcePlatform,
		City:                l.City,
		URL:                 h.listingURL(l.PostID),
	}
}

// address joins the street and house number, skipping unknown parts.
func address(l *models.Listing) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{l.Street, l.HouseNumber} {
		p = strings.TrimSpace(p)
		if p != "" && p != models.OptionNotMentioned {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// ChatRecentListings returns the newest listings matching the JSON filters.
func (h *Handler) ChatRecentListings(c *gin.Context) {
	var payload filter.Payload
	if err := bindFilters(c, &payload); err != nil {
		badRequest(c, "Invalid filters", err.Error())
		return
	}

	listings, err := h.db.GetRecentListings(c.Request.Context(), payload.State(), ChatListingLimit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch recent listings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recent listings"})
		return
	}

	result := make([]ChatListing, 0, len(listings))
	for i := range listings {
		result = append(result, h.toChatListing(&listings[i]))
	}
	c.JSON(http.StatusOK, result)
}

// ChatListingByID returns one listing in the chatbot shape.
func (h *Handler) ChatListingByID(c *gin.Context) {
	var req chatListingRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.PostID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing postId in request body"})
		return
	}

	listing, err := h.db.GetListingByPostID(c.Request.Context(), strings.TrimSpace(req.PostID))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch listing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listing"})
		return
	}

	c.JSON(http.StatusOK, h.toChatListing(listing))
}
