package models

import "time"

// Target types of a Telegram subscription.
const (
	TargetUser  = "user"
	TargetGroup = "group"
)

// FilterFields is a persisted filter state shared by every subscription variant.
type FilterFields struct {
	MinPrice         float64    `json:"min_price"`
	MaxPrice         float64    `json:"max_price"`
	MinSize          float64    `json:"min_size"`
	MaxSize          float64    `json:"max_size"`
	MinRooms         float64    `json:"min_rooms"`
	MaxRooms         float64    `json:"max_rooms"`
	Neighborhoods    StringList `json:"neighborhoods"`
	Balcony          StringList `json:"balcony"`
	Agent            StringList `json:"agent"`
	Parking          StringList `json:"parking"`
	Furnished        StringList `json:"furnished"`
	IncludeZeroPrice bool       `json:"include_zero_price"`
	IncludeZeroSize  bool       `json:"include_zero_size"`
	IncludeZeroRooms bool       `json:"include_zero_rooms"`
}

// FilterColumns are the columns written by every subscription upsert.
var FilterColumns = []string{
	"min_price", "max_price",
	"min_size", "max_size",
	"min_rooms", "max_rooms",
	"neighborhoods",
	"balcony", "agent", "parking", "furnished",
	"include_zero_price", "include_zero_size", "include_zero_rooms",
}

// TelegramSubscription stores the filter preferences of one Telegram chat.
type TelegramSubscription struct {
	ID           int64  `json:"id" gorm:"primaryKey"`
	ChatID       string `json:"chat_id" gorm:"uniqueIndex:idx_telegram_chat_target;not null"`
	TargetType   string `json:"target_type" gorm:"uniqueIndex:idx_telegram_chat_target;not null"`
	FilterFields `gorm:"embedded"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (TelegramSubscription) TableName() string {
	return "telegram_subscriptions"
}

// WhatsappSubscription stores the filter preferences of one WhatsApp number.
type WhatsappSubscription struct {
	ID           int64  `json:"id" gorm:"primaryKey"`
	PhoneNumber  string `json:"phone_number" gorm:"uniqueIndex;not null"`
	FilterFields `gorm:"embedded"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (WhatsappSubscription) TableName() string {
	return "whatsapp_subscriptions"
}

// Outbound message channels.
const (
	ChannelTelegram = "telegram"
	ChannelWhatsapp = "whatsapp"
)

// MessageLog is one outbound notification.
type MessageLog struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Channel   string    `json:"channel" gorm:"index"`
	Recipient string    `json:"recipient"`
	PostID    *string   `json:"post_id"`
	SentAt    time.Time `json:"sent_at" gorm:"index"`
}

func (MessageLog) TableName() string {
	return "message_log"
}
