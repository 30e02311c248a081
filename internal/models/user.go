package models

import "time"

type User struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash   string    `json:"-" gorm:"column:password;not null"`
	IsSubscribed   bool      `json:"is_subscribed"`
	TelegramChatID *string   `json:"telegram_chat_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

// UserFilter is a filter saved by an authenticated account.
type UserFilter struct {
	ID           int64 `json:"id" gorm:"primaryKey"`
	UserID       int64 `json:"user_id" gorm:"index;not null"`
	FilterFields `gorm:"embedded"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (UserFilter) TableName() string {
	return "user_filters"
}

// ContactMessage is a message left through the landing page contact form.
type ContactMessage struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"not null"`
	Message   string    `json:"message" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (ContactMessage) TableName() string {
	return "contact_messages"
}
