package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"thefinder/server/internal/filter"
	"thefinder/server/internal/models"
)

// listingUpdateColumns are overwritten when an ingested listing already exists.
var listingUpdateColumns = []string{
	"url", "source_platform", "description", "detailed_description",
	"price", "size", "num_rooms",
	"balcony", "parking", "furnished", "agent",
	"street", "house_number", "neighborhood", "city",
	"attachments", "is_for_rent", "updated_at",
}

// GetListings returns the newest for-rent listings of the last two weeks that
// match the filter state.
func (d *Database) GetListings(ctx context.Context, state filter.State) ([]models.Listing, error) {
	return d.searchListings(ctx, state, SearchLimit)
}

// GetRecentListings is GetListings with a caller chosen limit.
func (d *Database) GetRecentListings(ctx context.Context, state filter.State, limit int) ([]models.Listing, error) {
	if limit <= 0 || limit > SearchLimit {
		limit = SearchLimit
	}
	return d.searchListings(ctx, state, limit)
}

func (d *Database) searchListings(ctx context.Context, state filter.State, limit int) ([]models.Listing, error) {
	query := NewListingQuery(state, time.Now().UTC())

	listings := make([]models.Listing, 0)
	err := query.Apply(d.db.WithContext(ctx)).Limit(limit).Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	return listings, nil
}

// GetListingByPostID looks a listing up by its external id, regardless of age
// or rental status.
func (d *Database) GetListingByPostID(ctx context.Context, postID string) (*models.Listing, error) {
	var listing models.Listing
	err := d.db.WithContext(ctx).Where("post_id = ?", postID).Take(&listing).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &listing, nil
}

// UpsertListings inserts a batch of listings or refreshes the ones whose post_id
// already exists. It runs on the caller's transaction.
func UpsertListings(tx *gorm.DB, listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns(listingUpdateColumns),
	}).Create(listings).Error
	if err != nil {
		return fmt.Errorf("failed to upsert listings: %w", err)
	}
	return nil
}

// RecordListingView stores that a chat opened a listing from a notification.
func (d *Database) RecordListingView(ctx context.Context, postID, chatID string) error {
	view := &models.ListingView{PostID: postID, TelegramChatID: chatID}
	if err := d.db.WithContext(ctx).Create(view).Error; err != nil {
		return fmt.Errorf("failed to record listing view: %w", err)
	}
	return nil
}
