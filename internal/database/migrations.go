package database

import (
	"fmt"

	"thefinder/server/internal/models"
)

func (d *Database) RunMigrations() error {
	tables := []interface{}{
		&models.Listing{},
		&models.ListingView{},
		&models.TelegramSubscription{},
		&models.WhatsappSubscription{},
		&models.MessageLog{},
		&models.User{},
		&models.UserFilter{},
		&models.ContactMessage{},
	}
	for _, table := range tables {
		if err := d.db.AutoMigrate(table); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", table, err)
		}
	}

	// Rows written before target types existed belong to private chats
	if err := d.db.Model(&models.TelegramSubscription{}).
		Where("target_type = ? OR target_type IS NULL", "").
		Update("target_type", models.TargetUser).Error; err != nil {
		return fmt.Errorf("failed to backfill subscription target types: %w", err)
	}

	return nil
}
