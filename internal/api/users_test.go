package api

import (
	"fmt"
	"net/http"
)

func (s *APITestSuite) register(username string) string {
	w := s.do(request{method: http.MethodPost, path: "/api/register", body: map[string]string{
		"username": username,
		"password": "secret123",
	}})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	s.decode(w, &body)
	s.Require().NotEmpty(body.Token)
	return body.Token
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func (s *APITestSuite) TestRegisterAndLogin() {
	s.register("dana")

	w := s.do(request{method: http.MethodPost, path: "/api/register", body: map[string]string{
		"username": "dana",
		"password": "another1",
	}})
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(request{method: http.MethodPost, path: "/api/register", body: map[string]string{"username": "x"}})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(request{method: http.MethodPost, path: "/api/login", body: map[string]string{
		"username": "dana",
		"password": "wrong-password",
	}})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(request{method: http.MethodPost, path: "/api/login", body: map[string]string{
		"username": "nobody",
		"password": "secret123",
	}})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(request{method: http.MethodPost, path: "/api/login", body: map[string]string{
		"username": "dana",
		"password": "secret123",
	}})
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotContains(w.Body.String(), "secret123")
}

func (s *APITestSuite) TestUserEndpointsRequireToken() {
	for _, r := range []request{
		{method: http.MethodGet, path: "/api/user"},
		{method: http.MethodGet, path: "/api/user/filters"},
		{method: http.MethodPost, path: "/api/user/filters", body: map[string]string{}},
		{method: http.MethodPut, path: "/api/user/filters/1", body: map[string]string{}},
		{method: http.MethodDelete, path: "/api/user/filters/1"},
		{method: http.MethodGet, path: "/api/user", headers: bearer("not-a-token")},
	} {
		w := s.do(r)
		s.Equal(http.StatusUnauthorized, w.Code, "%s %s", r.method, r.path)
	}
}

func (s *APITestSuite) TestUserProfile() {
	token := s.register("noa")

	w := s.do(request{method: http.MethodPost, path: "/api/user/subscribe", headers: bearer(token)})
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(request{method: http.MethodPost, path: "/api/user/telegram", headers: bearer(token), body: map[string]string{"chatId": "555"}})
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(request{method: http.MethodGet, path: "/api/user", headers: bearer(token)})
	s.Require().Equal(http.StatusOK, w.Code)
	var user struct {
		Username       string  `json:"username"`
		IsSubscribed   bool    `json:"is_subscribed"`
		TelegramChatID *string `json:"telegram_chat_id"`
	}
	s.decode(w, &user)
	s.Equal("noa", user.Username)
	s.True(user.IsSubscribed)
	s.Require().NotNil(user.TelegramChatID)
	s.Equal("555", *user.TelegramChatID)

	w = s.do(request{method: http.MethodPost, path: "/api/user/unsubscribe", headers: bearer(token)})
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &user)
	s.False(user.IsSubscribed)
}

func (s *APITestSuite) TestUserFilters() {
	token := s.register("yael")
	other := s.register("omer")

	w := s.do(request{method: http.MethodPost, path: "/api/user/filters", headers: bearer(token), body: map[string]interface{}{
		"maxPrice":      6000,
		"neighborhoods": []string{"יפו"},
	}})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created userFilterResponse
	s.decode(w, &created)
	s.Equal(6000.0, created.MaxPrice)
	path := fmt.Sprintf("/api/user/filters/%d", created.ID)

	// partial update keeps the other fields
	w = s.do(request{method: http.MethodPut, path: path, headers: bearer(token), body: map[string]interface{}{
		"minRooms": 2,
	}})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated userFilterResponse
	s.decode(w, &updated)
	s.Equal(2.0, updated.MinRooms)
	s.Equal(6000.0, updated.MaxPrice)
	s.Equal([]string{"יפו"}, updated.Neighborhoods)

	w = s.do(request{method: http.MethodPut, path: path, headers: bearer(other), body: map[string]interface{}{"minRooms": 1}})
	s.Equal(http.StatusNotFound, w.Code)
	w = s.do(request{method: http.MethodDelete, path: path, headers: bearer(other)})
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(request{method: http.MethodGet, path: "/api/user/filters", headers: bearer(token)})
	s.Require().Equal(http.StatusOK, w.Code)
	var list []userFilterResponse
	s.decode(w, &list)
	s.Len(list, 1)

	w = s.do(request{method: http.MethodDelete, path: path, headers: bearer(token)})
	s.Equal(http.StatusOK, w.Code)
	w = s.do(request{method: http.MethodDelete, path: path, headers: bearer(token)})
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(request{method: http.MethodDelete, path: "/api/user/filters/abc", headers: bearer(token)})
	s.Equal(http.StatusBadRequest, w.Code)
}
