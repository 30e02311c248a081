package database

import (
	"context"
	"fmt"

	"thefinder/server/internal/models"
)

// CreateUser stores a new account. It returns ErrDuplicate when the username is taken.
func (d *Database) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	user := &models.User{Username: username, PasswordHash: passwordHash}
	if err := d.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, translateError(err)
	}
	return user, nil
}

func (d *Database) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).Take(&user, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (d *Database) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (d *Database) UpdateUserSubscription(ctx context.Context, id int64, subscribed bool) (*models.User, error) {
	return d.updateUser(ctx, id, "is_subscribed", subscribed)
}

func (d *Database) UpdateUserTelegramChat(ctx context.Context, id int64, chatID string) (*models.User, error) {
	return d.updateUser(ctx, id, "telegram_chat_id", chatID)
}

func (d *Database) updateUser(ctx context.Context, id int64, column string, value interface{}) (*models.User, error) {
	result := d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return d.GetUserByID(ctx, id)
}

// GetUserFilters lists the saved filters of an account, oldest first.
func (d *Database) GetUserFilters(ctx context.Context, userID int64) ([]models.UserFilter, error) {
	filters := make([]models.UserFilter, 0)
	err := d.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&filters).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query user filters: %w", err)
	}
	return filters, nil
}

// GetUserFilter returns one filter owned by the account.
func (d *Database) GetUserFilter(ctx context.Context, userID, id int64) (*models.UserFilter, error) {
	var f models.UserFilter
	err := d.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Take(&f).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &f, nil
}

func (d *Database) CreateUserFilter(ctx context.Context, f *models.UserFilter) error {
	if err := d.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("failed to create user filter: %w", err)
	}
	return nil
}

// UpdateUserFilter overwrites the filter fields of an owned filter.
func (d *Database) UpdateUserFilter(ctx context.Context, f *models.UserFilter) error {
	columns := append(append([]string{}, models.FilterColumns...), "updated_at")
	result := d.db.WithContext(ctx).
		Model(f).
		Where("user_id = ?", f.UserID).
		Select(columns).
		Updates(f)
	if result.Error != nil {
		return fmt.Errorf("failed to update user filter: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) DeleteUserFilter(ctx context.Context, userID, id int64) error {
	result := d.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.UserFilter{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete user filter: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateContactMessage stores a contact form submission.
func (d *Database) CreateContactMessage(ctx context.Context, email, message string) error {
	msg := &models.ContactMessage{Email: email, Message: message}
	if err := d.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to store contact message: %w", err)
	}
	return nil
}
