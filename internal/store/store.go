// Package store provides the persistent session store: a flat key-value map
// holding the serialized user record and the check-in timestamp.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"example.com/gymsession/internal/domain"
)

// Fixed keys shared with the mobile client; values are overwritten in place,
// never namespaced per user.
const (
	KeyUserData    = "userData"
	KeyCheckInTime = "checkInTime"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("store: key not found")

// Store is the minimal key-value contract the session logic depends on.
// Semantics are last-write-wins with no transactions.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SaveUser serializes and stores the session user.
func SaveUser(ctx context.Context, s Store, user domain.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.Set(ctx, KeyUserData, string(raw))
}

// LoadUser returns the stored session user, or ErrNotFound.
func LoadUser(ctx context.Context, s Store) (domain.User, error) {
	raw, err := s.Get(ctx, KeyUserData)
	if err != nil {
		return domain.User{}, err
	}
	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// ClearUser removes the stored session user.
func ClearUser(ctx context.Context, s Store) error {
	return s.Delete(ctx, KeyUserData)
}

// SaveCheckIn stores the check-in timestamp as an ISO-8601 string.
func SaveCheckIn(ctx context.Context, s Store, at time.Time) error {
	return s.Set(ctx, KeyCheckInTime, at.UTC().Format(time.RFC3339))
}

// LoadCheckIn returns the stored check-in time, or ErrNotFound when no
// session is open.
func LoadCheckIn(ctx context.Context, s Store) (time.Time, error) {
	raw, err := s.Get(ctx, KeyCheckInTime)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, raw)
}

// ClearCheckIn removes the stored check-in timestamp.
func ClearCheckIn(ctx context.Context, s Store) error {
	return s.Delete(ctx, KeyCheckInTime)
}
