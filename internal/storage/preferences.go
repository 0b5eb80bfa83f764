package storage

import (
	"context"
	"fmt"
	"strings"

	"dealhound/internal/common"
	"dealhound/internal/model"
)

// SavePreference stores one preference string for a user. Saving the same
// text twice for a user returns common.ErrDuplicateEntry.
func (s *SQLiteStorage) SavePreference(ctx context.Context, userID, text string) (*model.Preference, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	text = strings.TrimSpace(text)
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}
	if text == "" {
		return nil, fmt.Errorf("preference text cannot be empty")
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (user_id, text) VALUES (?, ?)
	`, userID, text)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, common.ErrDuplicateEntry
		}
		return nil, fmt.Errorf("failed to save preference: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get preference id: %w", err)
	}

	return &model.Preference{ID: id, UserID: userID, Text: text}, nil
}

// ListPreferences returns a user's preferences in insertion order.
func (s *SQLiteStorage) ListPreferences(ctx context.Context, userID string) ([]model.Preference, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, text, created_at
		FROM preferences
		WHERE user_id = ?
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var prefs []model.Preference
	for rows.Next() {
		var p model.Preference
		if err := rows.Scan(&p.ID, &p.UserID, &p.Text, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs = append(prefs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate preferences: %w", err)
	}
	return prefs, nil
}

// DeletePreference removes one preference by id. Returns common.ErrNotFound
// when the id does not belong to the user.
func (s *SQLiteStorage) DeletePreference(ctx context.Context, userID string, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM preferences WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete preference: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// ListUsersWithPreferences returns the distinct users that have at least one
// stored preference, ordered for stable iteration.
func (s *SQLiteStorage) ListUsersWithPreferences(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM preferences ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []string
	for rows.Next() {
		var user string
		if err := rows.Scan(&user); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}
