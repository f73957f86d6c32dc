// Package storage provides abstractions for persistent data storage.
package storage

import "context"

// Keys for the client-side local store. These are the only keys the
// sync engine and roster model touch.
const (
	KeyStudents   = "students"   // JSON array of students
	KeyConfig     = "config"     // JSON config (legacy shape accepted on read)
	KeyLastSynced = "lastSynced" // epoch milliseconds as a decimal string
	KeyAuthToken  = "authToken"  // sync-server JWT, when signed in
)

// Local defines the client-side key-value store holding the roster,
// the config, and the last-sync timestamp, string-serialized. This
// abstraction allows swapping backends (SQLite on devices, in-memory
// in tests) without changing the roster or sync code.
type Local interface {
	// Get returns the value for key. The boolean reports presence so
	// an empty stored string is distinguishable from an absent key.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
