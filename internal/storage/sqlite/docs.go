package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jortega/cuaderno/internal/models"
)

// Fetch returns the user's snapshot document, or (nil, nil) when the
// user has never uploaded one.
func (s *Store) Fetch(ctx context.Context, userID string) (*models.Snapshot, error) {
	var document string
	err := s.db.QueryRowContext(ctx,
		"SELECT document FROM snapshots WHERE user_id = ?", userID,
	).Scan(&document)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(document), &snap); err != nil {
		return nil, fmt.Errorf("failed to decode stored snapshot: %w", err)
	}
	return &snap, nil
}

// Upsert stores the snapshot document for the user, replacing any
// previous document.
func (s *Store) Upsert(ctx context.Context, userID string, snap *models.Snapshot) error {
	document, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (user_id, document, last_updated, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			document = excluded.document,
			last_updated = excluded.last_updated,
			updated_at = excluded.updated_at`,
		userID, string(document), snap.LastUpdated, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}
