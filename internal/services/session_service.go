package services

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// User-visible fallback texts, kept verbatim from the web client
const (
	fallbackNoAnswer    = "Sorry, I couldn't find that in your emails."
	fallbackNetworkDown = "Network error. Try again later."

	// AccessDeniedNotice is shown when the blocked-account gate trips
	AccessDeniedNotice = "You have violated our policy and are blocked from accessing chat details."
)

// SessionServiceImpl implements SessionService. The timeline is a
// single-owner resource: every mutation happens under mu, and reveal ticks
// carry the epoch current when their exchange started, so callbacks from a
// superseded reveal or a late-resolving request can never touch a timeline
// they no longer own.
type SessionServiceImpl struct {
	gateway Gateway
	access  AccessService
	history HistoryService
	reveal  RevealEngine
	logger  *log.Logger

	mu       sync.Mutex
	ctx      context.Context
	userID   string
	started  bool
	epoch    uint64
	timeline []Message
	inFlight bool
	typing   bool
	rate     TypingRate

	timelineObs []func([]Message)
	typingObs   []func(bool)
	rateObs     []func(TypingRate)
	noticeObs   []func(string)
}

// NewSessionService creates a new session controller
func NewSessionService(gw Gateway, access AccessService, history HistoryService, reveal RevealEngine, logger *log.Logger) *SessionServiceImpl {
	return &SessionServiceImpl{
		gateway: gw,
		access:  access,
		history: history,
		reveal:  reveal,
		logger:  logger,
	}
}

// Start initializes the session for a user. The access-gate bootstrap and the
// first history refresh run concurrently; Start returns when both finish.
func (s *SessionServiceImpl) Start(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	s.ctx = ctx
	s.userID = userID
	s.started = true
	s.timeline = nil
	s.rate = TypingRate{}
	s.mu.Unlock()
	s.publishTimeline()

	var wg sync.WaitGroup
	if s.access != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.access.Bootstrap(ctx, userID); err != nil && s.logger != nil {
				s.logger.Printf("session: access bootstrap failed: %v", err)
			}
		}()
	}
	if s.history != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.history.LoadCached(ctx, userID)
			s.history.Refresh(ctx, userID)
		}()
	}
	wg.Wait()
	return nil
}

// SendQuery runs one exchange. Blank input and gate trips never reach the
// network; transport failures degrade to a fallback assistant message and a
// nil error. A second send while a request is outstanding is refused.
func (s *SessionServiceImpl) SendQuery(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrSessionNotReady
	}
	if s.gateway == nil {
		s.mu.Unlock()
		return ErrServiceUnavailable
	}
	if s.access != nil && s.access.Blocked() {
		s.mu.Unlock()
		s.notify(AccessDeniedNotice)
		return ErrAccessDenied
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrRequestInFlight
	}

	// A fresh send supersedes any reveal still running
	s.epoch++
	myEpoch := s.epoch
	if s.reveal != nil {
		s.reveal.Cancel()
	}

	contextText := s.lastAssistantTextLocked()
	userID := s.userID
	s.timeline = append(s.timeline, Message{
		ID:        uuid.NewString(),
		Sender:    SenderUser,
		Text:      text,
		Timestamp: time.Now(),
	})
	s.inFlight = true
	s.typing = true
	s.mu.Unlock()

	s.publishTimeline()
	s.publishTyping(true)

	answer, err := s.gateway.SubmitQuery(ctx, text, userID, contextText)

	s.mu.Lock()
	s.inFlight = false
	if s.epoch != myEpoch {
		// newChat cleared the timeline while the request was in flight
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("session: submit query failed: %v", err)
		}
		s.timeline = append(s.timeline, Message{
			ID:        uuid.NewString(),
			Sender:    SenderAssistant,
			Text:      fallbackNetworkDown,
			Timestamp: time.Now(),
		})
		s.typing = false
		s.mu.Unlock()
		s.publishTimeline()
		s.publishTyping(false)
		return nil
	}

	if answer == "" {
		answer = fallbackNoAnswer
	}
	// Empty placeholder the reveal grows in place
	s.timeline = append(s.timeline, Message{
		ID:        uuid.NewString(),
		Sender:    SenderAssistant,
		Text:      "",
		Timestamp: time.Now(),
	})
	s.mu.Unlock()
	s.publishTimeline()

	if s.reveal == nil {
		s.applyPrefix(myEpoch, answer)
		s.onRevealComplete(myEpoch, len([]rune(answer)), 0)
		return nil
	}

	s.reveal.Start(answer,
		func(prefix string) { s.applyPrefix(myEpoch, prefix) },
		func(chars int, elapsed time.Duration) { s.onRevealComplete(myEpoch, chars, elapsed) },
	)
	return nil
}

// NewChat cancels any active reveal, clears the timeline and resets the rate
func (s *SessionServiceImpl) NewChat() {
	s.mu.Lock()
	// Invalidate outstanding ticks before the timeline goes away
	s.epoch++
	if s.reveal != nil {
		s.reveal.Cancel()
	}
	s.timeline = nil
	s.rate = TypingRate{}
	s.typing = false
	s.mu.Unlock()

	s.publishTimeline()
	s.publishTyping(false)
	s.publishRate(TypingRate{})
}

// Messages returns a snapshot of the timeline
func (s *SessionServiceImpl) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.timeline))
	copy(out, s.timeline)
	return out
}

// Rate returns the typing rate of the last completed reveal
func (s *SessionServiceImpl) Rate() TypingRate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// IsTyping reports whether an exchange is awaiting or revealing a response
func (s *SessionServiceImpl) IsTyping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing
}

// UserID returns the session's account identity
func (s *SessionServiceImpl) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// OnTimeline registers a timeline observer
func (s *SessionServiceImpl) OnTimeline(fn func([]Message)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.timelineObs = append(s.timelineObs, fn)
	s.mu.Unlock()
}

// OnTyping registers a typing-indicator observer
func (s *SessionServiceImpl) OnTyping(fn func(bool)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.typingObs = append(s.typingObs, fn)
	s.mu.Unlock()
}

// OnRate registers a typing-rate observer
func (s *SessionServiceImpl) OnRate(fn func(TypingRate)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.rateObs = append(s.rateObs, fn)
	s.mu.Unlock()
}

// OnNotice registers an observer for user-facing notices (access denied)
func (s *SessionServiceImpl) OnNotice(fn func(string)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.noticeObs = append(s.noticeObs, fn)
	s.mu.Unlock()
}

// applyPrefix replaces the text of the trailing assistant message, provided
// the exchange that scheduled the tick still owns the timeline
func (s *SessionServiceImpl) applyPrefix(myEpoch uint64, prefix string) {
	s.mu.Lock()
	if s.epoch != myEpoch || len(s.timeline) == 0 {
		s.mu.Unlock()
		return
	}
	last := &s.timeline[len(s.timeline)-1]
	if last.Sender != SenderAssistant {
		s.mu.Unlock()
		return
	}
	last.Text = prefix
	s.mu.Unlock()
	s.publishTimeline()
}

// onRevealComplete records the typing rate and refreshes history so the
// analytics observers recompute from the new exchange
func (s *SessionServiceImpl) onRevealComplete(myEpoch uint64, chars int, elapsed time.Duration) {
	s.mu.Lock()
	if s.epoch != myEpoch {
		s.mu.Unlock()
		return
	}
	rate := TypingRate{}
	if elapsed > 0 {
		rate = TypingRate{CharsPerSec: float64(chars) / elapsed.Seconds(), Measured: true}
	}
	s.rate = rate
	s.typing = false
	userID := s.userID
	ctx := s.ctx
	s.mu.Unlock()

	s.publishTyping(false)
	s.publishRate(rate)

	if s.history != nil {
		if ctx == nil {
			ctx = context.Background()
		}
		s.history.Refresh(ctx, userID)
	}
}

// lastAssistantTextLocked returns the newest assistant message's text; callers
// hold mu
func (s *SessionServiceImpl) lastAssistantTextLocked() string {
	for i := len(s.timeline) - 1; i >= 0; i-- {
		if s.timeline[i].Sender == SenderAssistant {
			return s.timeline[i].Text
		}
	}
	return ""
}

func (s *SessionServiceImpl) publishTimeline() {
	s.mu.Lock()
	snapshot := make([]Message, len(s.timeline))
	copy(snapshot, s.timeline)
	observers := append([]func([]Message){}, s.timelineObs...)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(snapshot)
	}
}

func (s *SessionServiceImpl) publishTyping(typing bool) {
	s.mu.Lock()
	observers := append([]func(bool){}, s.typingObs...)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(typing)
	}
}

func (s *SessionServiceImpl) publishRate(rate TypingRate) {
	s.mu.Lock()
	observers := append([]func(TypingRate){}, s.rateObs...)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(rate)
	}
}

func (s *SessionServiceImpl) notify(text string) {
	s.mu.Lock()
	observers := append([]func(string){}, s.noticeObs...)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(text)
	}
}
