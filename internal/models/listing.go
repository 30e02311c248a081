package models

import (
	"strings"
	"time"
)

// Categorical values used by balcony/parking/furnished/agent.
const (
	OptionYes          = "yes"
	OptionNo           = "no"
	OptionNotMentioned = "not mentioned"
)

// CategoricalOptions is the full option set of every categorical listing attribute.
var CategoricalOptions = []string{OptionYes, OptionNo, OptionNotMentioned}

// Source platforms a listing can be ingested from.
const (
	PlatformFacebook = "facebook"
	PlatformYad2     = "yad2"
)

// SourcePlatforms lists the known ingestion sources.
var SourcePlatforms = []string{PlatformFacebook, PlatformYad2}

// Listing is one processed rental post. A price, size or room count of 0 means
// the value is unknown, not that it is literally zero. Older rows store unknown
// values as NULL, which reads back as 0.
type Listing struct {
	ID                  int64      `json:"id" gorm:"primaryKey"`
	PostID              string     `json:"post_id" gorm:"column:post_id;uniqueIndex;not null"`
	URL                 string     `json:"url" gorm:"not null"`
	SourcePlatform      string     `json:"source_platform" gorm:"index"`
	Description         string     `json:"description"`
	DetailedDescription string     `json:"detailed_description"`
	Price               float64    `json:"price"`
	Size                float64    `json:"size"`
	NumRooms            float64    `json:"num_rooms"`
	Balcony             string     `json:"balcony"`
	Parking             string     `json:"parking"`
	Furnished           string     `json:"furnished"`
	Agent               string     `json:"agent"`
	Street              string     `json:"street"`
	HouseNumber         string     `json:"house_number"`
	Neighborhood        string     `json:"neighborhood" gorm:"index"`
	City                string     `json:"city"`
	Attachments         StringList `json:"attachments"`
	IsForRent           bool       `json:"is_for_rent" gorm:"index:idx_processed_posts_search,priority:1"`
	CreatedAt           time.Time  `json:"created_at" gorm:"index:idx_processed_posts_search,priority:2"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (Listing) TableName() string {
	return "processed_posts"
}

// MainImage returns the image used for link previews. Facebook posts carry the
// poster's avatar as the first attachment, so the second one is used instead.
func (l *Listing) MainImage() string {
	idx := 0
	if l.SourcePlatform == PlatformFacebook || strings.Contains(l.URL, "facebook.com") {
		idx = 1
	}
	if idx < len(l.Attachments) {
		return l.Attachments[idx]
	}
	return ""
}

// ListingView records a listing opened from a Telegram notification link.
type ListingView struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	PostID         string    `json:"post_id" gorm:"index"`
	TelegramChatID string    `json:"telegram_chat_id" gorm:"index"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
}

func (ListingView) TableName() string {
	return "listing_views"
}
