package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"dealhound/internal/model"
)

// SaveMatches replaces the stored match set for one user and snapshot. The
// whole set is written in one transaction so readers never observe a partial
// result.
func (s *SQLiteStorage) SaveMatches(ctx context.Context, snapshotID int64, userID string, matches []model.MatchResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM matched_deals WHERE snapshot_id = ? AND user_id = ?
	`, snapshotID, userID); err != nil {
		return fmt.Errorf("failed to clear previous matches: %w", err)
	}

	for _, match := range matches {
		deal, err := json.Marshal(match.Deal)
		if err != nil {
			return fmt.Errorf("failed to encode deal: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO matched_deals (snapshot_id, user_id, deal_index, deal, confidence, explanation)
			VALUES (?, ?, ?, ?, ?, ?)
		`, snapshotID, userID, match.DealIndex, string(deal), match.Confidence, match.Explanation); err != nil {
			return fmt.Errorf("failed to save match: %w", err)
		}
	}

	return tx.Commit()
}

// ListMatches returns a user's most recently stored matches, newest snapshot
// first, then by deal position. limit <= 0 means no limit.
func (s *SQLiteStorage) ListMatches(ctx context.Context, userID string, limit int) ([]model.MatchResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1 // SQLite treats negative LIMIT as unlimited
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT deal_index, deal, confidence, explanation
		FROM matched_deals
		WHERE user_id = ?
		ORDER BY snapshot_id DESC, deal_index
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []model.MatchResult
	for rows.Next() {
		var (
			match model.MatchResult
			deal  string
		)
		if err := rows.Scan(&match.DealIndex, &deal, &match.Confidence, &match.Explanation); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		if err := json.Unmarshal([]byte(deal), &match.Deal); err != nil {
			return nil, fmt.Errorf("failed to decode deal: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matches: %w", err)
	}
	return matches, nil
}
