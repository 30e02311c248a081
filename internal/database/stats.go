package database

import (
	"context"
	"fmt"
	"time"

	"thefinder/server/internal/models"
)

// StatsWindow limits every per-day series of the dashboard. The user total is
// not windowed.
const StatsWindow = 30 * 24 * time.Hour

// GetAdminStats aggregates the dashboard figures.
func (d *Database) GetAdminStats(ctx context.Context) (*models.AdminStats, error) {
	db := d.db.WithContext(ctx)
	stats := &models.AdminStats{
		ListingViews:        make([]models.ListingViewStat, 0),
		Subscriptions:       make([]models.SubscriptionStat, 0),
		DailyUserStats:      make([]models.DailyUserStat, 0),
		DailySentMessages:   make([]models.DailySentStat, 0),
		SourcePlatformStats: make([]models.SourcePlatformStat, 0),
	}

	since := time.Now().UTC().Add(-StatsWindow)

	err := db.Raw(`
		SELECT
			CAST(DATE(created_at) AS TEXT) AS date_created,
			telegram_chat_id,
			COUNT(*) AS entry_count
		FROM listing_views
		WHERE created_at >= ?
		GROUP BY DATE(created_at), telegram_chat_id
		ORDER BY date_created DESC, entry_count DESC
	`, since).Scan(&stats.ListingViews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query listing views: %w", err)
	}

	err = db.Raw(`
		SELECT
			CAST(DATE(created_at) AS TEXT) AS date_created,
			COUNT(*) AS subscription_count
		FROM telegram_subscriptions
		WHERE created_at >= ?
		GROUP BY DATE(created_at)
		ORDER BY date_created DESC
	`, since).Scan(&stats.Subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}

	err = db.Model(&models.TelegramSubscription{}).Distinct("chat_id").Count(&stats.TotalUsers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	err = db.Raw(`
		SELECT
			CAST(DATE(created_at) AS TEXT) AS date_created,
			COUNT(DISTINCT telegram_chat_id) AS daily_active_users,
			CAST(COUNT(*) AS FLOAT) / COUNT(DISTINCT telegram_chat_id) AS daily_views_per_user
		FROM listing_views
		WHERE created_at >= ?
		GROUP BY DATE(created_at)
		ORDER BY date_created DESC
	`, since).Scan(&stats.DailyUserStats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query daily user stats: %w", err)
	}

	err = db.Raw(`
		SELECT
			CAST(DATE(sent_at) AS TEXT) AS date_sent,
			COUNT(*) AS daily_sent
		FROM message_log
		WHERE sent_at >= ?
		GROUP BY DATE(sent_at)
		ORDER BY date_sent DESC
	`, since).Scan(&stats.DailySentMessages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query sent messages: %w", err)
	}

	err = db.Raw(`
		SELECT
			CAST(DATE(created_at) AS TEXT) AS date_in,
			source_platform,
			COUNT(*) AS count
		FROM processed_posts
		WHERE created_at >= ?
		GROUP BY DATE(created_at), source_platform
		ORDER BY date_in DESC, source_platform
	`, since).Scan(&stats.SourcePlatformStats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query source platforms: %w", err)
	}

	return stats, nil
}
