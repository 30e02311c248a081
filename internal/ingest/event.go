package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"thefinder/server/internal/models"
)

// ListingEvent is the message published by the listing processing pipeline.
type ListingEvent struct {
	PostID              string     `json:"post_id"`
	URL                 string     `json:"url"`
	SourcePlatform      string     `json:"source_platform"`
	Description         *string    `json:"description"`
	DetailedDescription *string    `json:"detailed_description"`
	Price               *float64   `json:"price"`
	Size                *float64   `json:"size"`
	NumRooms            *float64   `json:"num_rooms"`
	Balcony             *string    `json:"balcony"`
	Parking             *string    `json:"parking"`
	Furnished           *string    `json:"furnished"`
	Agent               *string    `json:"agent"`
	Street              *string    `json:"street"`
	HouseNumber         *string    `json:"house_number"`
	Neighborhood        *string    `json:"neighborhood"`
	City                *string    `json:"city"`
	Attachments         []string   `json:"attachments"`
	IsForRent           bool       `json:"is_for_rent"`
	CreatedAt           *time.Time `json:"created_at"`
}

// CityResolver finds the city of a known neighborhood.
type CityResolver interface {
	CityOf(neighborhood string) (string, bool)
}

// Decoder validates and decodes event bodies.
type Decoder struct {
	validator *Validator
	cities    CityResolver
	now       func() time.Time
}

// NewDecoder returns a decoder. With a non-nil resolver, events that name a
// neighborhood but no city get the city from the catalog.
func NewDecoder(validator *Validator, cities CityResolver) *Decoder {
	return &Decoder{validator: validator, cities: cities, now: time.Now}
}

// Decode turns a message body into a listing ready to be stored.
func (d *Decoder) Decode(body []byte) (*models.Listing, error) {
	if err := d.validator.Validate(body); err != nil {
		return nil, err
	}
	var event ListingEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to decode listing event: %w", err)
	}
	listing := event.toListing(d.now().UTC())
	if listing.PostID == "" {
		return nil, errors.New("listing event has a blank post_id")
	}
	if listing.City == "" && listing.Neighborhood != "" && d.cities != nil {
		if city, ok := d.cities.CityOf(listing.Neighborhood); ok {
			listing.City = city
		}
	}
	return listing, nil
}

func (e *ListingEvent) toListing(now time.Time) *models.Listing {
	listing := &models.Listing{
		PostID:              strings.TrimSpace(e.PostID),
		URL:                 e.URL,
		SourcePlatform:      e.SourcePlatform,
		Description:         str(e.Description, ""),
		DetailedDescription: str(e.DetailedDescription, ""),
		Price:               num(e.Price),
		Size:                num(e.Size),
		NumRooms:            num(e.NumRooms),
		Balcony:             str(e.Balcony, models.OptionNotMentioned),
		Parking:             str(e.Parking, models.OptionNotMentioned),
		Furnished:           str(e.Furnished, models.OptionNotMentioned),
		Agent:               str(e.Agent, models.OptionNotMentioned),
		Street:              str(e.Street, models.OptionNotMentioned),
		HouseNumber:         str(e.HouseNumber, models.OptionNotMentioned),
		Neighborhood:        strings.TrimSpace(str(e.Neighborhood, "")),
		City:                strings.TrimSpace(str(e.City, "")),
		Attachments:         models.StringList(e.Attachments),
		IsForRent:           e.IsForRent,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if listing.Attachments == nil {
		listing.Attachments = models.StringList{}
	}
	if e.CreatedAt != nil && !e.CreatedAt.IsZero() {
		listing.CreatedAt = e.CreatedAt.UTC()
	}
	return listing
}

// Missing numbers become 0, the "unknown" sentinel.
func num(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func str(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}
