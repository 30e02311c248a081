package database

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"thefinder/server/internal/filter"
	"thefinder/server/internal/models"
)

func subscriptionUpdateColumns() []string {
	return append(append([]string{}, models.FilterColumns...), "active", "updated_at")
}

// GetTelegramSubscription returns the subscription of a chat.
func (d *Database) GetTelegramSubscription(ctx context.Context, chatID, targetType string) (*models.TelegramSubscription, error) {
	var sub models.TelegramSubscription
	err := d.db.WithContext(ctx).
		Where("chat_id = ? AND target_type = ?", chatID, targetType).
		Take(&sub).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &sub, nil
}

// UpsertTelegramSubscription stores every filter field of the subscription in a
// single statement, so concurrent saves for one chat leave exactly one row.
func (d *Database) UpsertTelegramSubscription(ctx context.Context, sub *models.TelegramSubscription) (*models.TelegramSubscription, error) {
	if sub.TargetType == "" {
		sub.TargetType = models.TargetUser
	}
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "target_type"}},
		DoUpdates: clause.AssignmentColumns(subscriptionUpdateColumns()),
	}).Create(sub).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save telegram subscription: %w", err)
	}
	return d.GetTelegramSubscription(ctx, sub.ChatID, sub.TargetType)
}

// SetTelegramSubscriptionActive pauses or resumes a private chat's
// notifications. A chat without a subscription gets one with default filters.
func (d *Database) SetTelegramSubscriptionActive(ctx context.Context, chatID string, active bool) error {
	sub := &models.TelegramSubscription{
		ChatID:       chatID,
		TargetType:   models.TargetUser,
		FilterFields: filter.Default().Fields(),
		Active:       active,
	}
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "target_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"active", "updated_at"}),
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("failed to update telegram subscription status: %w", err)
	}
	return nil
}

// GetWhatsappSubscription returns the subscription of a phone number.
func (d *Database) GetWhatsappSubscription(ctx context.Context, phoneNumber string) (*models.WhatsappSubscription, error) {
	var sub models.WhatsappSubscription
	err := d.db.WithContext(ctx).Where("phone_number = ?", phoneNumber).Take(&sub).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &sub, nil
}

// UpsertWhatsappSubscription is the WhatsApp counterpart of UpsertTelegramSubscription.
func (d *Database) UpsertWhatsappSubscription(ctx context.Context, sub *models.WhatsappSubscription) (*models.WhatsappSubscription, error) {
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone_number"}},
		DoUpdates: clause.AssignmentColumns(subscriptionUpdateColumns()),
	}).Create(sub).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save whatsapp subscription: %w", err)
	}
	return d.GetWhatsappSubscription(ctx, sub.PhoneNumber)
}

// LogMessage records an outbound notification.
func (d *Database) LogMessage(ctx context.Context, channel, recipient string, postID *string) error {
	entry := &models.MessageLog{Channel: channel, Recipient: recipient, PostID: postID, SentAt: d.db.NowFunc()}
	if err := d.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to log message: %w", err)
	}
	return nil
}
