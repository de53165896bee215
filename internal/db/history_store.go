package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mhidalgo/inboxq/internal/gateway"
)

// HistoryStore caches the last successfully fetched chat history per user so
// the client can show something when the backend is unreachable
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore creates a new history store from a base store
func NewHistoryStore(store *Store) *HistoryStore {
	if store == nil {
		return nil
	}
	return &HistoryStore{db: store.DB()}
}

// Replace swaps the cached history for a user with the given records.
// Position preserves the publish order (already sorted by date descending).
func (hs *HistoryStore) Replace(ctx context.Context, userID string, records []gateway.ChatRecord) error {
	if hs == nil || hs.db == nil {
		return fmt.Errorf("history store not initialized")
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("empty user id")
	}

	tx, err := hs.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM history_cache WHERE user_id=?`, userID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear history cache: %w", err)
	}
	for i, r := range records {
		_, err := tx.ExecContext(ctx, `INSERT INTO history_cache(user_id, position, query, response, date)
VALUES(?,?,?,?,?)`, userID, i, r.Query, r.Response, r.Date.Unix())
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("write history cache: %w", err)
		}
	}
	return tx.Commit()
}

// Load returns the cached history for a user in stored order
func (hs *HistoryStore) Load(ctx context.Context, userID string) ([]gateway.ChatRecord, error) {
	if hs == nil || hs.db == nil {
		return nil, fmt.Errorf("history store not initialized")
	}
	rows, err := hs.db.QueryContext(ctx, `SELECT query, response, date FROM history_cache
WHERE user_id=? ORDER BY position ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("read history cache: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []gateway.ChatRecord
	for rows.Next() {
		var r gateway.ChatRecord
		var unix int64
		if err := rows.Scan(&r.Query, &r.Response, &unix); err != nil {
			return nil, err
		}
		r.Date = time.Unix(unix, 0)
		r.OwnerID = userID
		records = append(records, r)
	}
	return records, rows.Err()
}
