// Package remote defines the per-user snapshot document store a device
// synchronizes against, plus the HTTP client for the cuaderno sync
// server. One document per user; the document is always written whole.
package remote

import (
	"context"

	"github.com/jortega/cuaderno/internal/models"
)

// Store is the remote document store holding one synchronized snapshot
// per user.
type Store interface {
	// Fetch returns the user's snapshot, or (nil, nil) when the user
	// has never uploaded one.
	Fetch(ctx context.Context, userID string) (*models.Snapshot, error)

	// Upsert stores the snapshot for the user. Writes carry a complete
	// snapshot; the server preserves stored top-level fields that a
	// partial write leaves unset.
	Upsert(ctx context.Context, userID string, snap *models.Snapshot) error
}
