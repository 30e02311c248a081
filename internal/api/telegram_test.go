package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/stretchr/testify/mock"

	"thefinder/server/internal/models"
	"thefinder/server/internal/telegram"
)

func (s *APITestSuite) token(chatID string) string {
	token, err := s.links.Sign(chatID)
	s.Require().NoError(err)
	return token
}

func (s *APITestSuite) TestTelegramSubscription_RequiresToken() {
	w := s.do(request{method: http.MethodGet, path: "/api/telegram/private-subscription?chat_id=123"})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(request{method: http.MethodGet, path: "/api/telegram/private-subscription?chat_id=123&token=" + s.token("456")})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(request{method: http.MethodPost, path: "/api/telegram/private-subscription", body: map[string]interface{}{
		"chatId":        "123",
		"token":         "forged",
		"neighborhoods": []string{"יפו"},
	}})
	s.Equal(http.StatusUnauthorized, w.Code)
	s.messenger.AssertNotCalled(s.T(), "Send", mock.Anything, mock.Anything)
}

func (s *APITestSuite) TestTelegramSubscription_NotFound() {
	w := s.do(request{method: http.MethodGet, path: "/api/telegram/private-subscription?chat_id=123&token=" + s.token("123")})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestTelegramSubscription_EmptyNeighborhoods() {
	w := s.do(request{method: http.MethodPost, path: "/api/telegram/private-subscription", body: map[string]interface{}{
		"chatId":        "123",
		"token":         s.token("123"),
		"neighborhoods": []string{},
	}})
	s.Require().Equal(http.StatusBadRequest, w.Code)

	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	s.decode(w, &body)
	s.Contains(body.Details, "neighborhoods")

	_, err := s.db.GetTelegramSubscription(s.ctx(), "123", models.TargetUser)
	s.Error(err)
	s.messenger.AssertNotCalled(s.T(), "Send", mock.Anything, mock.Anything)
}

func (s *APITestSuite) TestTelegramSubscription_SaveAndGet() {
	s.messenger.On("Send", mock.Anything, mock.MatchedBy(func(msg telegram.Message) bool {
		return msg.ChatID == "123" && strings.Contains(msg.Text, "saved") &&
			strings.Contains(msg.Text, `href="https://app.test/?`) &&
			strings.Contains(msg.Text, "balcony=yes") &&
			strings.Contains(msg.Text, "minPrice=3000") &&
			!strings.Contains(msg.Text, "parking=")
	})).Return(nil).Once()

	w := s.do(request{method: http.MethodPost, path: "/api/telegram/private-subscription", body: map[string]interface{}{
		"chatId":           "123",
		"token":            s.token("123"),
		"minPrice":         3000,
		"maxPrice":         "7000",
		"neighborhoods":    []string{"יפו", "פלורנטין"},
		"balcony":          []string{"yes"},
		"includeZeroPrice": false,
	}})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.messenger.AssertExpectations(s.T())

	query := url.Values{"chat_id": {"123"}, "token": {s.token("123")}}
	w = s.do(request{method: http.MethodGet, path: "/api/telegram/private-subscription?" + query.Encode()})
	s.Require().Equal(http.StatusOK, w.Code)

	var raw map[string]interface{}
	s.decode(w, &raw)
	for _, key := range []string{"chat_id", "target_type", "min_price", "max_price", "include_zero_price", "include_zero_rooms", "neighborhoods"} {
		s.Contains(raw, key)
	}
	s.NotContains(raw, "minPrice")
	s.NotContains(raw, "includeZeroPrice")

	var got models.TelegramSubscription
	s.decode(w, &got)
	s.Equal("123", got.ChatID)
	s.Equal(models.TargetUser, got.TargetType)
	s.True(got.Active)
	s.Equal(3000.0, got.MinPrice)
	s.Equal(7000.0, got.MaxPrice)
	s.Equal(500.0, got.MaxSize)
	s.False(got.IncludeZeroPrice)
	s.ElementsMatch([]string{"יפו", "פלורנטין"}, []string(got.Neighborhoods))
	s.Equal([]string{"yes"}, []string(got.Balcony))
	s.Len(got.Parking, 3)

	var logged int64
	s.Require().NoError(s.db.GetDB().Model(&models.MessageLog{}).Where("recipient = ?", "123").Count(&logged).Error)
	s.Equal(int64(1), logged)
}

func (s *APITestSuite) TestTelegramSubscription_ConfirmationFailure() {
	s.messenger.On("Send", mock.Anything, mock.Anything).Return(errors.New("bot blocked")).Once()

	w := s.do(request{method: http.MethodPost, path: "/api/telegram/private-subscription", body: map[string]interface{}{
		"chatId":        "123",
		"token":         s.token("123"),
		"neighborhoods": []string{"יפו"},
	}})
	s.Equal(http.StatusInternalServerError, w.Code)

	sub, err := s.db.GetTelegramSubscription(s.ctx(), "123", models.TargetUser)
	s.Require().NoError(err)
	s.Equal([]string{"יפו"}, []string(sub.Neighborhoods))
}

func (s *APITestSuite) TestTelegramSubscription_InvalidTargetType() {
	w := s.do(request{method: http.MethodPost, path: "/api/telegram/private-subscription", body: map[string]interface{}{
		"chatId":        "123",
		"token":         s.token("123"),
		"targetType":    "channel",
		"neighborhoods": []string{"יפו"},
	}})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APITestSuite) TestTelegramWebhook() {
	w := s.do(request{method: http.MethodPost, path: "/api/telegram/webhook", body: "not json"})
	s.Equal(http.StatusOK, w.Code)

	s.messenger.On("Send", mock.Anything, mock.MatchedBy(func(msg telegram.Message) bool {
		return msg.ChatID == "77" && strings.Contains(msg.Text, telegram.SubscriptionPath)
	})).Return(nil).Once()

	w = s.do(request{method: http.MethodPost, path: "/api/telegram/webhook", body: map[string]interface{}{
		"update_id": 1,
		"message": map[string]interface{}{
			"message_id": 10,
			"date":       1700000000,
			"text":       "/start",
			"chat":       map[string]interface{}{"id": 77, "type": "private"},
		},
	}})
	s.Equal(http.StatusOK, w.Code)
	s.messenger.AssertExpectations(s.T())

	sub, err := s.db.GetTelegramSubscription(s.ctx(), "77", models.TargetUser)
	s.Require().NoError(err)
	s.True(sub.Active)
}

func (s *APITestSuite) TestTelegramWebhook_FailureStillOK() {
	s.messenger.On("Send", mock.Anything, mock.Anything).Return(errors.New("telegram down")).Once()

	w := s.do(request{method: http.MethodPost, path: "/api/telegram/webhook", body: map[string]interface{}{
		"update_id": 2,
		"message": map[string]interface{}{
			"message_id": 11,
			"date":       1700000000,
			"text":       "hello",
			"chat":       map[string]interface{}{"id": 78, "type": "private"},
		},
	}})
	s.Equal(http.StatusOK, w.Code)
}

func (s *APITestSuite) TestWhatsappSubscription() {
	token := s.token(whatsappLinkSubject + "+972500000000")

	w := s.do(request{method: http.MethodPost, path: "/api/whatsapp/private-subscription", body: map[string]interface{}{
		"phoneNumber":   "+972500000000",
		"token":         s.token("+972500000000"),
		"neighborhoods": []string{"יפו"},
	}})
	s.Equal(http.StatusUnauthorized, w.Code, "a token for the bare number is not a WhatsApp token")

	w = s.do(request{method: http.MethodPost, path: "/api/whatsapp/private-subscription", body: map[string]interface{}{
		"phoneNumber":   "+972500000000",
		"token":         token,
		"neighborhoods": []string{},
	}})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(request{method: http.MethodPost, path: "/api/whatsapp/private-subscription", body: map[string]interface{}{
		"phoneNumber":   "+972500000000",
		"token":         token,
		"neighborhoods": []string{"יפו"},
		"maxRooms":      4,
	}})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	query := url.Values{"phone_number": {"+972500000000"}, "token": {token}}
	w = s.do(request{method: http.MethodGet, path: "/api/whatsapp/private-subscription?" + query.Encode()})
	s.Require().Equal(http.StatusOK, w.Code)
	var raw map[string]interface{}
	s.decode(w, &raw)
	s.Equal("+972500000000", raw["phone_number"])
	s.Equal(4.0, raw["max_rooms"])
	var got models.WhatsappSubscription
	s.decode(w, &got)
	s.Equal(4.0, got.MaxRooms)
	s.True(got.Active)
}
