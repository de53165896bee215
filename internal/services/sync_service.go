package services

import (
	"context"
	"log"
	"sync"
	"time"
)

// Sync progress shape: jump to 30 on start, creep toward 90 while the call is
// in flight, snap to 100 on resolution, reset to 0 after a short delay. The
// ramp is simulated, not a transfer measurement.
const (
	syncStartProgress = 30
	syncMaxRamp       = 90
	syncRampStep      = 5
	syncRampInterval  = 400 * time.Millisecond
	syncResetDelay    = 1 * time.Second
)

// SyncServiceImpl implements SyncService. Every publication passes through a
// single mutex with a generation check, so a ramp tick scheduled before the
// call resolved can never land after the terminal snap.
type SyncServiceImpl struct {
	gateway Gateway
	clock   Clock
	logger  *log.Logger

	mu        sync.Mutex
	running   bool
	gen       uint64
	observers []func(int)

	pubMu sync.Mutex
}

// NewSyncService creates a new email-sync service
func NewSyncService(gw Gateway, clock Clock, logger *log.Logger) *SyncServiceImpl {
	if clock == nil {
		clock = RealClock{}
	}
	return &SyncServiceImpl{
		gateway: gw,
		clock:   clock,
		logger:  logger,
	}
}

// OnProgress registers a progress observer; values are 0-100, 0 meaning idle
func (s *SyncServiceImpl) OnProgress(fn func(int)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Run triggers a mailbox re-index and blocks until the backend call resolves.
// A second Run while one is in flight is a no-op.
func (s *SyncServiceImpl) Run(ctx context.Context) error {
	if s.gateway == nil {
		return ErrServiceUnavailable
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.gen++
	myGen := s.gen
	s.mu.Unlock()

	s.emitIfCurrent(myGen, syncStartProgress)

	done := make(chan struct{})
	go s.ramp(myGen, done)

	err := s.gateway.TriggerEmailSync(ctx)
	close(done)

	// Invalidate the ramp before publishing the terminal value
	s.mu.Lock()
	s.gen++
	doneGen := s.gen
	s.mu.Unlock()

	if err != nil {
		if s.logger != nil {
			s.logger.Printf("sync: email sync failed: %v", err)
		}
		s.finish(doneGen, 0)
		return err
	}

	s.emitIfCurrent(doneGen, 100)
	go func() {
		<-s.clock.After(syncResetDelay)
		s.finish(doneGen, 0)
	}()
	return nil
}

// ramp publishes a simulated progress climb while the request is in flight
func (s *SyncServiceImpl) ramp(myGen uint64, done <-chan struct{}) {
	progress := syncStartProgress
	for {
		select {
		case <-done:
			return
		case <-s.clock.After(syncRampInterval):
			if progress < syncMaxRamp {
				progress += syncRampStep
				if !s.emitIfCurrent(myGen, progress) {
					return
				}
			}
		}
	}
}

func (s *SyncServiceImpl) finish(myGen uint64, progress int) {
	s.mu.Lock()
	if s.gen != myGen {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()
	s.emitIfCurrent(myGen, progress)
}

// emitIfCurrent publishes progress unless the generation has moved on.
// pubMu serializes publications so observers see values in emit order.
func (s *SyncServiceImpl) emitIfCurrent(myGen uint64, progress int) bool {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	current := s.gen == myGen
	observers := append([]func(int){}, s.observers...)
	s.mu.Unlock()
	if !current {
		return false
	}
	for _, fn := range observers {
		fn(progress)
	}
	return true
}
