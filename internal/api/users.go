package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"thefinder/server/internal/auth"
	"thefinder/server/internal/database"
	"thefinder/server/internal/filter"
	"thefinder/server/internal/models"
)

type credentials struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

type linkTelegramRequest struct {
	ChatID string `json:"chatId" binding:"required"`
}

type userFilterResponse struct {
	ID int64 `json:"id"`
	filter.State
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newUserFilterResponse(f *models.UserFilter) userFilterResponse {
	return userFilterResponse{
		ID:        f.ID,
		State:     filter.FromFields(f.FilterFields),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Register creates an account and signs it in.
func (h *Handler) Register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid registration data", err.Error())
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	hash, err := h.auth.HashPassword(req.Password)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
		return
	}

	user, err := h.db.CreateUser(c.Request.Context(), req.Username, hash)
	if errors.Is(err, database.ErrDuplicate) {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

// Login exchanges a username and password for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid login data", err.Error())
		return
	}

	user, err := h.db.GetUserByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		h.logger.WithError(err).Error("Failed to get user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to login"})
		return
	}
	if user == nil || !h.auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

func (h *Handler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := h.auth.IssueToken(user.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}
	c.JSON(status, gin.H{"token": token, "user": user})
}

// GetUser returns the signed in account.
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.db.GetUserByID(c.Request.Context(), auth.UserID(c))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) Subscribe(c *gin.Context) {
	h.setSubscribed(c, true)
}

func (h *Handler) Unsubscribe(c *gin.Context) {
	h.setSubscribed(c, false)
}

func (h *Handler) setSubscribed(c *gin.Context, subscribed bool) {
	user, err := h.db.UpdateUserSubscription(c.Request.Context(), auth.UserID(c), subscribed)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to update subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update subscription"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// LinkTelegram attaches a Telegram chat to the signed in account.
func (h *Handler) LinkTelegram(c *gin.Context) {
	var req linkTelegramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "chatId is required", err.Error())
		return
	}

	user, err := h.db.UpdateUserTelegramChat(c.Request.Context(), auth.UserID(c), strings.TrimSpace(req.ChatID))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to link Telegram chat")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update Telegram chat"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) GetUserFilters(c *gin.Context) {
	filters, err := h.db.GetUserFilters(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get user filters")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get filters"})
		return
	}

	response := make([]userFilterResponse, 0, len(filters))
	for i := range filters {
		response = append(response, newUserFilterResponse(&filters[i]))
	}
	c.JSON(http.StatusOK, response)
}

func (h *Handler) CreateUserFilter(c *gin.Context) {
	var payload filter.Payload
	if err := bindFilters(c, &payload); err != nil {
		badRequest(c, "Invalid filters", err.Error())
		return
	}

	f := &models.UserFilter{
		UserID:       auth.UserID(c),
		FilterFields: payload.State().Fields(),
	}
	if err := h.db.CreateUserFilter(c.Request.Context(), f); err != nil {
		h.logger.WithError(err).Error("Failed to create user filter")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create filter"})
		return
	}
	c.JSON(http.StatusCreated, newUserFilterResponse(f))
}

// UpdateUserFilter applies the fields present in the body to a saved filter.
func (h *Handler) UpdateUserFilter(c *gin.Context) {
	id, ok := filterID(c)
	if !ok {
		return
	}
	var payload filter.Payload
	if err := bindFilters(c, &payload); err != nil {
		badRequest(c, "Invalid filters", err.Error())
		return
	}

	userID := auth.UserID(c)
	existing, err := h.db.GetUserFilter(c.Request.Context(), userID, id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Filter not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get user filter")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update filter"})
		return
	}

	existing.FilterFields = payload.ApplyTo(filter.FromFields(existing.FilterFields)).Fields()
	err = h.db.UpdateUserFilter(c.Request.Context(), existing)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Filter not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to update user filter")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update filter"})
		return
	}
	c.JSON(http.StatusOK, newUserFilterResponse(existing))
}

func (h *Handler) DeleteUserFilter(c *gin.Context) {
	id, ok := filterID(c)
	if !ok {
		return
	}

	err := h.db.DeleteUserFilter(c.Request.Context(), auth.UserID(c), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Filter not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to delete user filter")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete filter"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Filter deleted"})
}

func filterID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter id"})
		return 0, false
	}
	return id, true
}
