package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"dealhound/internal/common"
	"dealhound/internal/model"
)

// SaveSnapshot persists an extraction attempt. On success the snapshot's ID
// is populated with the assigned row id.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snapshot *model.Snapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if snapshot == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}

	deals, err := json.Marshal(snapshot.Deals)
	if err != nil {
		return fmt.Errorf("failed to encode deals: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (fetched_at, successful, error_message, deals)
		VALUES (?, ?, ?, ?)
	`,
		snapshot.FetchedAt,
		snapshot.Successful,
		snapshot.ErrorMessage,
		string(deals),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get snapshot id: %w", err)
	}
	snapshot.ID = id
	return nil
}

// GetLatestSuccessfulSnapshot returns the most recent successful snapshot,
// or common.ErrNotFound when none exists.
func (s *SQLiteStorage) GetLatestSuccessfulSnapshot(ctx context.Context) (*model.Snapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		snapshot model.Snapshot
		deals    string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, fetched_at, successful, error_message, deals
		FROM snapshots
		WHERE successful = 1
		ORDER BY fetched_at DESC
		LIMIT 1
	`).Scan(&snapshot.ID, &snapshot.FetchedAt, &snapshot.Successful, &snapshot.ErrorMessage, &deals)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(deals), &snapshot.Deals); err != nil {
		return nil, fmt.Errorf("failed to decode deals: %w", err)
	}
	return &snapshot, nil
}
