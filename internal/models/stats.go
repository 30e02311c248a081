package models

type ListingViewStat struct {
	DateCreated    string `json:"date_created"`
	TelegramChatID string `json:"telegram_chat_id"`
	EntryCount     int64  `json:"entry_count"`
}

type SubscriptionStat struct {
	DateCreated       string `json:"date_created"`
	SubscriptionCount int64  `json:"subscription_count"`
}

type DailyUserStat struct {
	DateCreated       string  `json:"date_created"`
	DailyActiveUsers  int64   `json:"daily_active_users"`
	DailyViewsPerUser float64 `json:"daily_views_per_user"`
}

type DailySentStat struct {
	DateSent  string `json:"date_sent"`
	DailySent int64  `json:"daily_sent"`
}

type SourcePlatformStat struct {
	DateIn         string `json:"date_in"`
	SourcePlatform string `json:"source_platform"`
	Count          int64  `json:"count"`
}

// AdminStats is the payload of the admin dashboard.
type AdminStats struct {
	ListingViews        []ListingViewStat    `json:"listingViews"`
	Subscriptions       []SubscriptionStat   `json:"subscriptions"`
	TotalUsers          int64                `json:"totalUsers"`
	DailyUserStats      []DailyUserStat      `json:"dailyUserStats"`
	DailySentMessages   []DailySentStat      `json:"dailySentMessages"`
	SourcePlatformStats []SourcePlatformStat `json:"sourcePlatformStats"`
}
