package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/gymsession/internal/domain"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	_, err := s.Get(ctx, KeyCheckInTime)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, KeyCheckInTime, "a"))
	require.NoError(t, s.Set(ctx, KeyCheckInTime, "b"))

	value, err := s.Get(ctx, KeyCheckInTime)
	require.NoError(t, err)
	require.Equal(t, "b", value, "last write wins")

	require.NoError(t, s.Delete(ctx, KeyCheckInTime))
	_, err = s.Get(ctx, KeyCheckInTime)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := NewFile(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, KeyUserData, `{"id":1}`))

	reopened, err := NewFile(path)
	require.NoError(t, err)

	value, err := reopened.Get(ctx, KeyUserData)
	require.NoError(t, err)
	require.Equal(t, `{"id":1}`, value)

	require.NoError(t, reopened.Delete(ctx, KeyUserData))
	_, err = reopened.Get(ctx, KeyUserData)
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is not an error.
	require.NoError(t, reopened.Delete(ctx, "missing"))
}

func TestUserHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	_, err := LoadUser(ctx, s)
	require.ErrorIs(t, err, ErrNotFound)

	user := domain.User{ID: 9, Username: "kim", Name: "Kim", WeightKG: 72.5}
	require.NoError(t, SaveUser(ctx, s, user))

	loaded, err := LoadUser(ctx, s)
	require.NoError(t, err)
	require.Equal(t, user, loaded)

	require.NoError(t, ClearUser(ctx, s))
	_, err = LoadUser(ctx, s)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCheckInHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	at := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, SaveCheckIn(ctx, s, at))

	loaded, err := LoadCheckIn(ctx, s)
	require.NoError(t, err)
	require.True(t, loaded.Equal(at))

	// Raw value stays a plain ISO-8601 string shared with the mobile client.
	raw, err := s.Get(ctx, KeyCheckInTime)
	require.NoError(t, err)
	require.Equal(t, "2025-06-01T09:30:00Z", raw)

	require.NoError(t, ClearCheckIn(ctx, s))
	_, err = LoadCheckIn(ctx, s)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoadCheckInRejectsCorruptValue(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Set(ctx, KeyCheckInTime, "not-a-timestamp"))

	_, err := LoadCheckIn(ctx, s)
	require.Error(t, err)
}
