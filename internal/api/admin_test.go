package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"thefinder/server/internal/models"
	"thefinder/server/internal/session"
	"thefinder/server/internal/telegram"
)

type unavailableStore struct{}

func (unavailableStore) Create(context.Context) (string, error) {
	return "", errors.New("redis: connection refused")
}

func (unavailableStore) Validate(context.Context, string) error {
	return errors.New("redis: connection refused")
}

func (unavailableStore) Revoke(context.Context, string) error {
	return errors.New("redis: connection refused")
}

var _ session.Store = unavailableStore{}

func (s *APITestSuite) adminLogin() string {
	w := s.do(request{method: http.MethodPost, path: "/api/admin/login", body: map[string]string{"password": "admin-pass"}})
	s.Require().Equal(http.StatusOK, w.Code)
	var body struct {
		Token string `json:"token"`
	}
	s.decode(w, &body)
	s.Require().NotEmpty(body.Token)
	return body.Token
}

func (s *APITestSuite) TestAdminStats_RequiresSession() {
	w := s.do(request{method: http.MethodGet, path: "/api/admin/stats"})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(request{method: http.MethodGet, path: "/api/admin/stats", headers: bearer("made-up")})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(request{method: http.MethodPost, path: "/api/admin/login", body: map[string]string{"password": "guess"}})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestAdminSession() {
	token := s.adminLogin()

	w := s.do(request{method: http.MethodGet, path: "/api/admin/stats", headers: bearer(token)})
	s.Require().Equal(http.StatusOK, w.Code)
	var stats models.AdminStats
	s.decode(w, &stats)

	w = s.do(request{method: http.MethodGet, path: "/api/admin/stats", headers: map[string]string{
		"Cookie": adminSessionCookie + "=" + token,
	}})
	s.Equal(http.StatusOK, w.Code)

	w = s.do(request{method: http.MethodPost, path: "/api/admin/logout", headers: bearer(token)})
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(request{method: http.MethodGet, path: "/api/admin/stats", headers: bearer(token)})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestAdminStats_SessionStoreDown() {
	s.handler.sessions = unavailableStore{}

	w := s.do(request{method: http.MethodGet, path: "/api/admin/stats", headers: bearer("some-token")})
	s.Equal(http.StatusInternalServerError, w.Code)

	w = s.do(request{method: http.MethodGet, path: "/api/admin/stats"})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestAdminLogin_NotConfigured() {
	s.cfg.Auth.AdminPassword = ""
	w := s.do(request{method: http.MethodPost, path: "/api/admin/login", body: map[string]string{"password": ""}})
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *APITestSuite) TestContact() {
	s.messenger.On("Send", mock.Anything, mock.MatchedBy(func(msg telegram.Message) bool {
		return msg.ChatID == "999" && strings.Contains(msg.Text, "a@b.co") && strings.Contains(msg.Text, "&lt;hi&gt;")
	})).Return(nil).Once()

	w := s.do(request{method: http.MethodPost, path: "/api/contact", body: map[string]string{
		"email":   "a@b.co",
		"message": "<hi>",
	}})
	s.Require().Equal(http.StatusCreated, w.Code)
	s.messenger.AssertExpectations(s.T())

	var count int64
	s.Require().NoError(s.db.GetDB().Model(&models.ContactMessage{}).Count(&count).Error)
	s.Equal(int64(1), count)

	w = s.do(request{method: http.MethodPost, path: "/api/contact", body: map[string]string{"email": "nope"}})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APITestSuite) TestRateLimiter() {
	limiter := NewRateLimiter(0.001, 1)
	defer limiter.Close()

	router := gin.New()
	router.Use(limiter.Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(path string) int {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Code
	}
	s.Equal(http.StatusOK, get("/ping"))
	s.Equal(http.StatusTooManyRequests, get("/ping"))
	s.Equal(http.StatusOK, get("/health"))

	limiter.cleanup(time.Now().Add(time.Hour))
	s.Equal(http.StatusOK, get("/ping"), "idle buckets are dropped")
}
