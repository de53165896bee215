package services

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/mhidalgo/inboxq/internal/db"
	"github.com/mhidalgo/inboxq/internal/gateway"
)

// HistoryServiceImpl implements HistoryService. Fetch failures never surface
// to the user; the previously published history stays in place. When several
// refreshes race, each completed fetch overwrites the published history, so
// the last completion wins regardless of dispatch order.
type HistoryServiceImpl struct {
	gateway Gateway
	cache   *db.HistoryStore
	logger  *log.Logger

	mu        sync.RWMutex
	records   []gateway.ChatRecord
	observers []func([]gateway.ChatRecord)
}

// NewHistoryService creates a new history service; cache may be nil
func NewHistoryService(gw Gateway, cache *db.HistoryStore, logger *log.Logger) *HistoryServiceImpl {
	return &HistoryServiceImpl{
		gateway: gw,
		cache:   cache,
		logger:  logger,
	}
}

// Refresh fetches the user's history, sorts it newest-first and publishes it
func (s *HistoryServiceImpl) Refresh(ctx context.Context, userID string) {
	if s.gateway == nil {
		return
	}

	records, err := s.gateway.FetchHistory(ctx, userID)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("history: refresh failed, keeping cached history: %v", err)
		}
		return
	}

	sortRecordsByDateDesc(records)
	s.publish(records)

	if s.cache != nil {
		if err := s.cache.Replace(ctx, userID, records); err != nil && s.logger != nil {
			s.logger.Printf("history: offline cache write failed: %v", err)
		}
	}
}

// LoadCached publishes the offline cached history, if any. Used at bootstrap
// so the panel is populated before the first fetch completes (or when it
// never does).
func (s *HistoryServiceImpl) LoadCached(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	records, err := s.cache.Load(ctx, userID)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("history: offline cache read failed: %v", err)
		}
		return
	}
	if len(records) == 0 {
		return
	}
	sortRecordsByDateDesc(records)

	// Never clobber a fetch that already completed
	s.mu.Lock()
	if s.records != nil {
		s.mu.Unlock()
		return
	}
	s.records = records
	observers := append([]func([]gateway.ChatRecord){}, s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(records)
	}
}

// Records returns the currently published history, newest first
func (s *HistoryServiceImpl) Records() []gateway.ChatRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]gateway.ChatRecord, len(s.records))
	copy(out, s.records)
	return out
}

// OnUpdate registers an observer for history publications
func (s *HistoryServiceImpl) OnUpdate(fn func([]gateway.ChatRecord)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *HistoryServiceImpl) publish(records []gateway.ChatRecord) {
	s.mu.Lock()
	s.records = records
	observers := append([]func([]gateway.ChatRecord){}, s.observers...)
	s.mu.Unlock()

	snapshot := make([]gateway.ChatRecord, len(records))
	copy(snapshot, records)
	for _, fn := range observers {
		fn(snapshot)
	}
}

func sortRecordsByDateDesc(records []gateway.ChatRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
}
