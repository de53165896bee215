package services

import (
	"context"
	"log"
	"strings"

	"github.com/mhidalgo/inboxq/internal/db"
)

// PrefsServiceImpl implements PrefsService over the SQLite prefs store.
// Read failures fall back to zero values; the session must work without a
// usable store.
type PrefsServiceImpl struct {
	store  *db.PrefsStore
	logger *log.Logger
}

// NewPrefsService creates a new preferences service; store may be nil
func NewPrefsService(store *db.PrefsStore, logger *log.Logger) *PrefsServiceImpl {
	return &PrefsServiceImpl{
		store:  store,
		logger: logger,
	}
}

// DarkMode returns the persisted dark-mode flag, false when unset
func (s *PrefsServiceImpl) DarkMode(ctx context.Context) bool {
	if s.store == nil {
		return false
	}
	enabled, err := s.store.GetBool(ctx, db.PrefDarkMode)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("prefs: dark-mode read failed: %v", err)
		}
		return false
	}
	return enabled
}

// SetDarkMode persists the dark-mode flag
func (s *PrefsServiceImpl) SetDarkMode(ctx context.Context, enabled bool) error {
	if s.store == nil {
		return nil
	}
	return s.store.SetBool(ctx, db.PrefDarkMode, enabled)
}

// LastUserID returns the previously established user identity, "" when unset
func (s *PrefsServiceImpl) LastUserID(ctx context.Context) string {
	if s.store == nil {
		return ""
	}
	id, _, err := s.store.Get(ctx, db.PrefLastUserID)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("prefs: user-id read failed: %v", err)
		}
		return ""
	}
	return id
}

// SetLastUserID persists the user identity for the next session
func (s *PrefsServiceImpl) SetLastUserID(ctx context.Context, userID string) error {
	if s.store == nil {
		return nil
	}
	if strings.TrimSpace(userID) == "" {
		return s.store.Delete(ctx, db.PrefLastUserID)
	}
	return s.store.Set(ctx, db.PrefLastUserID, userID)
}
