package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thefinder/server/internal/filter"
	"thefinder/server/internal/models"
)

func TestUsers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user, err := db.CreateUser(ctx, "dana", "hash")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	_, err = db.CreateUser(ctx, "dana", "other")
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := db.GetUserByUsername(ctx, "dana")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "hash", found.PasswordHash)

	updated, err := db.UpdateUserSubscription(ctx, user.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsSubscribed)

	updated, err = db.UpdateUserTelegramChat(ctx, user.ID, "4004")
	require.NoError(t, err)
	require.NotNil(t, updated.TelegramChatID)
	assert.Equal(t, "4004", *updated.TelegramChatID)

	_, err = db.UpdateUserSubscription(ctx, 999, true)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.GetUserByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner, err := db.CreateUser(ctx, "owner", "hash")
	require.NoError(t, err)
	other, err := db.CreateUser(ctx, "other", "hash")
	require.NoError(t, err)

	s := filter.Default()
	s.Neighborhoods = []string{"רמת אביב"}
	f := &models.UserFilter{UserID: owner.ID, FilterFields: s.Fields()}
	require.NoError(t, db.CreateUserFilter(ctx, f))

	filters, err := db.GetUserFilters(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, filters, 1)
	assert.Equal(t, models.StringList{"רמת אביב"}, filters[0].Neighborhoods)

	filters, err = db.GetUserFilters(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, filters)

	_, err = db.GetUserFilter(ctx, other.ID, f.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	s.IncludeZeroPrice = false
	s.Parking = []string{models.OptionYes}
	f.FilterFields = s.Fields()
	require.NoError(t, db.UpdateUserFilter(ctx, f))

	stored, err := db.GetUserFilter(ctx, owner.ID, f.ID)
	require.NoError(t, err)
	assert.False(t, stored.IncludeZeroPrice)
	assert.Equal(t, models.StringList{models.OptionYes}, stored.Parking)

	stolen := *f
	stolen.UserID = other.ID
	assert.ErrorIs(t, db.UpdateUserFilter(ctx, &stolen), ErrNotFound)

	assert.ErrorIs(t, db.DeleteUserFilter(ctx, other.ID, f.ID), ErrNotFound)
	require.NoError(t, db.DeleteUserFilter(ctx, owner.ID, f.ID))
	assert.ErrorIs(t, db.DeleteUserFilter(ctx, owner.ID, f.ID), ErrNotFound)
}
