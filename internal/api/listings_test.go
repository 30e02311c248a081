package api

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"thefinder/server/internal/models"
)

func (s *APITestSuite) TestGetListings() {
	s.seed(
		listing("in-range", nil),
		listing("zero-price", func(l *models.Listing) { l.Price = 0 }),
		listing("too-expensive", func(l *models.Listing) { l.Price = 9000 }),
		listing("old", func(l *models.Listing) { l.CreatedAt = time.Now().UTC().AddDate(0, 0, -20) }),
		listing("sold", func(l *models.Listing) { l.IsForRent = false }),
	)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"defaults", "", []string{"in-range", "zero-price", "too-expensive"}},
		{"price range keeps unknown prices", "?minPrice=1000&maxPrice=6000", []string{"in-range", "zero-price"}},
		{"price range without unknown prices", "?minPrice=1000&maxPrice=6000&includeZeroPrice=false", []string{"in-range"}},
		{"full categorical set is no filter", "?balcony=yes&balcony=no&balcony=not+mentioned", []string{"in-range", "zero-price", "too-expensive"}},
		{"categorical subset", "?balcony=no", []string{}},
		{"other neighborhood", "?neighborhoods=" + url.QueryEscape("יפו"), []string{}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.do(request{method: http.MethodGet, path: "/api/listings" + tt.query})
			s.Require().Equal(http.StatusOK, w.Code)

			var got []models.Listing
			s.decode(w, &got)
			s.NotNil(got)
			ids := make([]string, 0, len(got))
			for _, l := range got {
				ids = append(ids, l.PostID)
			}
			s.ElementsMatch(tt.want, ids)
		})
	}
}

func (s *APITestSuite) TestGetListings_EmptyArray() {
	w := s.do(request{method: http.MethodGet, path: "/api/listings"})
	s.Equal(http.StatusOK, w.Code)
	s.Equal("[]", strings.TrimSpace(w.Body.String()))
}

func (s *APITestSuite) TestGetListing() {
	s.seed(listing("old", func(l *models.Listing) {
		l.CreatedAt = time.Now().UTC().AddDate(0, -2, 0)
		l.IsForRent = false
	}))

	w := s.do(request{method: http.MethodGet, path: "/api/listings/old?ci=42"})
	s.Require().Equal(http.StatusOK, w.Code)
	var got models.Listing
	s.decode(w, &got)
	s.Equal("old", got.PostID)

	var views int64
	s.Require().NoError(s.db.GetDB().Model(&models.ListingView{}).Where("telegram_chat_id = ?", "42").Count(&views).Error)
	s.Equal(int64(1), views)

	w = s.do(request{method: http.MethodGet, path: "/api/listings/missing"})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestShareListing() {
	s.seed(listing("fb-1", func(l *models.Listing) {
		l.SourcePlatform = models.PlatformFacebook
		l.URL = "https://www.facebook.com/groups/1/posts/2"
		l.Description = "3 rooms with balcony"
		l.DetailedDescription = "Quiet street"
		l.Attachments = models.StringList{"https://img.test/avatar.jpg", "https://img.test/main.jpg"}
	}))

	w := s.do(request{method: http.MethodGet, path: "/listing/fb-1"})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	s.Contains(body, `og:title" content="3 rooms with balcony"`)
	s.Contains(body, "https://img.test/main.jpg")
	s.NotContains(body, "avatar.jpg")
	s.Contains(body, "https://thefinder.co.il/listing/fb-1")

	w = s.do(request{method: http.MethodGet, path: "/listing/missing"})
	s.Equal(http.StatusNotFound, w.Code)
	s.Contains(w.Body.String(), "og:title")
}

func (s *APITestSuite) TestChatRecentListings() {
	for i := 0; i < 7; i++ {
		id := string(rune('a' + i))
		s.seed(listing(id, func(l *models.Listing) {
			l.CreatedAt = time.Now().UTC().Add(-time.Duration(i) * time.Hour)
		}))
	}

	w := s.do(request{method: http.MethodPost, path: "/api/chat/listing/recent", body: map[string]interface{}{
		"minPrice": "1000",
		"balcony":  []string{"yes"},
	}})
	s.Require().Equal(http.StatusOK, w.Code)

	var got []ChatListing
	s.decode(w, &got)
	s.Require().Len(got, ChatListingLimit)
	s.Equal("a", got[0].PostID)
	s.Equal("https://thefinder.co.il/listing/a", got[0].URL)
	s.Equal("דיזנגוף 100", got[0].Address)

	w = s.do(request{method: http.MethodPost, path: "/api/chat/listing/recent"})
	s.Equal(http.StatusOK, w.Code)

	w = s.do(request{method: http.MethodPost, path: "/api/chat/listing/recent", body: `{"balcony": "yes"}`})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APITestSuite) TestChatListingByID() {
	s.seed(listing("p1", func(l *models.Listing) { l.Street = models.OptionNotMentioned }))

	w := s.do(request{method: http.MethodPost, path: "/api/chat/listing/by-id", body: map[string]string{"postId": "p1"}})
	s.Require().Equal(http.StatusOK, w.Code)
	var got ChatListing
	s.decode(w, &got)
	s.Equal("100", got.Address)

	w = s.do(request{method: http.MethodPost, path: "/api/chat/listing/by-id", body: map[string]string{}})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(request{method: http.MethodPost, path: "/api/chat/listing/by-id", body: map[string]string{"postId": "nope"}})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestGetCities() {
	w := s.do(request{method: http.MethodGet, path: "/api/cities?neighborhoods=" + url.QueryEscape("יפו")})
	s.Require().Equal(http.StatusOK, w.Code)

	var got []CityResponse
	s.decode(w, &got)
	s.Require().NotEmpty(got)
	states := map[string]string{}
	for _, c := range got {
		states[c.Name] = c.State.String()
	}
	s.Equal("indeterminate", states["תל אביב"])
	s.Equal("unchecked", states["רמת גן"])
}
