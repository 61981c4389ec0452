// Package repository defines the flat key-value storage the core persists to.
//
// The core never stores rows: each collection is one serialized blob under a
// fixed key, replaced whole on every write. Any backend that can get, put and
// delete opaque values by key can hold the entire application state.
package repository

import (
	"context"
	"errors"
)

// Persisted key layout.
const (
	KeyAccounts         = "accounts"
	KeyJobs             = "jobs"
	KeyLoggedInUser     = "loggedInUser"
	KeyAccountIDCounter = "accountIdCounter"

	// NotificationsKeyPrefix is followed by the owner's username.
	NotificationsKeyPrefix = "notifications_"
)

// NotificationsKey returns the key holding username's notification list.
func NotificationsKey(username string) string {
	return NotificationsKeyPrefix + username
}

// ErrKeyNotFound is returned by Get for an absent key. Absence is a normal
// state (first run, logged out) and callers treat it as "use the default".
var ErrKeyNotFound = errors.New("repository: key not found")

// Store is a flat key-value store.
//
// Put replaces the value atomically: a reader sees either the old blob or the
// new one, never a mix. Delete of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
