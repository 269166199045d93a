package store

import (
	"context"
	"database/sql"
	"errors"
)

// LoadSettings returns the stored preference document of a user, or nil
// when nothing was saved yet.
func (db *DB) LoadSettings(ctx context.Context, userID int) ([]byte, error) {
	var doc []byte
	err := db.QueryRowContext(ctx, "SELECT settings FROM user_settings WHERE user_id = $1", userID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return doc, err
}

func (db *DB) SaveSettings(ctx context.Context, userID int, doc []byte) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, settings, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET settings = EXCLUDED.settings, updated_at = now()`,
		userID, doc)
	return mapErr(err)
}
