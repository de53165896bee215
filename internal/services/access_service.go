package services

import (
	"context"
	"log"
	"sync"
)

// AccessServiceImpl implements AccessService. Block status is fetched once at
// session bootstrap and cached with no TTL; an account blocked mid-session
// keeps acting as unblocked until the next session start.
type AccessServiceImpl struct {
	gateway Gateway
	logger  *log.Logger

	mu      sync.RWMutex
	blocked bool
}

// NewAccessService creates a new access service
func NewAccessService(gw Gateway, logger *log.Logger) *AccessServiceImpl {
	return &AccessServiceImpl{
		gateway: gw,
		logger:  logger,
	}
}

// Bootstrap fetches the block list and caches whether userID appears on it.
// A transport failure retains the previous cached state.
func (s *AccessServiceImpl) Bootstrap(ctx context.Context, userID string) error {
	if s.gateway == nil {
		return ErrServiceUnavailable
	}

	users, err := s.gateway.FetchBlockStatus(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("access: block-status fetch failed, keeping cached state: %v", err)
		}
		return nil
	}

	blocked := false
	for _, u := range users {
		if u.UserID == userID {
			blocked = true
			break
		}
	}

	s.mu.Lock()
	s.blocked = blocked
	s.mu.Unlock()
	return nil
}

// Blocked returns the cached block state
func (s *AccessServiceImpl) Blocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blocked
}

// Guard runs action unless the account is blocked
func (s *AccessServiceImpl) Guard(action func() error) error {
	if s.Blocked() {
		return ErrAccessDenied
	}
	if action == nil {
		return nil
	}
	return action()
}
