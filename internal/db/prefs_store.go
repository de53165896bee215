package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Preference keys. Dark mode is global, not per-user, mirroring the web
// client's single localStorage flag.
const (
	PrefDarkMode   = "dark_mode"
	PrefLastUserID = "last_user_id"
)

// PrefsStore handles persistent key/value preferences
type PrefsStore struct {
	db *sql.DB
}

// NewPrefsStore creates a new prefs store from a base store
func NewPrefsStore(store *Store) *PrefsStore {
	if store == nil {
		return nil
	}
	return &PrefsStore{db: store.DB()}
}

// Set upserts a preference value
func (ps *PrefsStore) Set(ctx context.Context, key, value string) error {
	if ps == nil || ps.db == nil {
		return fmt.Errorf("prefs store not initialized")
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("empty preference key")
	}
	_, err := ps.db.ExecContext(ctx, `INSERT INTO prefs(key, value) VALUES(?,?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value;
`, key, value)
	return err
}

// Get returns a preference value if present
func (ps *PrefsStore) Get(ctx context.Context, key string) (string, bool, error) {
	if ps == nil || ps.db == nil {
		return "", false, fmt.Errorf("prefs store not initialized")
	}
	var out string
	err := ps.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key=?`, key).Scan(&out)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return out, true, nil
}

// GetBool returns a boolean preference, defaulting to false when unset
func (ps *PrefsStore) GetBool(ctx context.Context, key string) (bool, error) {
	val, found, err := ps.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return found && val == "true", nil
}

// SetBool stores a boolean preference
func (ps *PrefsStore) SetBool(ctx context.Context, key string, value bool) error {
	if value {
		return ps.Set(ctx, key, "true")
	}
	return ps.Set(ctx, key, "false")
}

// Delete removes a preference
func (ps *PrefsStore) Delete(ctx context.Context, key string) error {
	if ps == nil || ps.db == nil {
		return fmt.Errorf("prefs store not initialized")
	}
	_, err := ps.db.ExecContext(ctx, `DELETE FROM prefs WHERE key=?`, key)
	return err
}
