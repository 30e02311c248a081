package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return now }

	token, err := s.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NoError(t, s.Validate(ctx, token))
	assert.ErrorIs(t, s.Validate(ctx, "unknown"), ErrInvalidSession)

	now = now.Add(time.Hour)
	assert.ErrorIs(t, s.Validate(ctx, token), ErrInvalidSession)
}

func TestMemoryStore_Revoke(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	token, err := s.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Revoke(ctx, token))
	assert.ErrorIs(t, s.Validate(ctx, token), ErrInvalidSession)
}

func TestMemoryStore_SweepsExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Minute)
	s.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, err := s.Create(ctx)
		require.NoError(t, err)
	}
	now = now.Add(2 * time.Minute)
	_, err := s.Create(ctx)
	require.NoError(t, err)
	assert.Len(t, s.sessions, 1)
}

func TestNewRedisStore_BadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not a url", time.Hour)
	assert.Error(t, err)
}
