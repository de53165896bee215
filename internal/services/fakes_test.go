package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mhidalgo/inboxq/internal/gateway"
)

// fakeGateway is a scriptable Gateway double
type fakeGateway struct {
	mu sync.Mutex

	submitResp    string
	submitErr     error
	submitBlock   chan struct{}
	submitCalls   int
	lastQuestion  string
	lastUserID    string
	lastContext   string
	historyResp   []gateway.ChatRecord
	historyErr    error
	historyCalls  int
	blockListResp []gateway.BlockedUser
	blockListErr  error
	syncErr       error
	syncBlock     chan struct{}
	syncCalls     int
}

func (f *fakeGateway) SubmitQuery(ctx context.Context, question, userID, contextText string) (string, error) {
	f.mu.Lock()
	f.submitCalls++
	f.lastQuestion = question
	f.lastUserID = userID
	f.lastContext = contextText
	block := f.submitBlock
	resp, err := f.submitResp, f.submitErr
	f.mu.Unlock()
	if block != nil {
		<-block
		f.mu.Lock()
		resp, err = f.submitResp, f.submitErr
		f.mu.Unlock()
	}
	return resp, err
}

func (f *fakeGateway) FetchHistory(ctx context.Context, userID string) ([]gateway.ChatRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	out := make([]gateway.ChatRecord, len(f.historyResp))
	copy(out, f.historyResp)
	return out, nil
}

func (f *fakeGateway) FetchBlockStatus(ctx context.Context) ([]gateway.BlockedUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.blockListErr != nil {
		return nil, f.blockListErr
	}
	return f.blockListResp, nil
}

func (f *fakeGateway) TriggerEmailSync(ctx context.Context) error {
	f.mu.Lock()
	f.syncCalls++
	block := f.syncBlock
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.syncErr
}

func (f *fakeGateway) calls() (submit, history, sync int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitCalls, f.historyCalls, f.syncCalls
}

// fakeAccess is an AccessService double with a fixed blocked state
type fakeAccess struct {
	mu             sync.Mutex
	blocked        bool
	bootstrapped   []string
	bootstrapError error
}

func (f *fakeAccess) Bootstrap(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bootstrapped = append(f.bootstrapped, userID)
	return f.bootstrapError
}

func (f *fakeAccess) Blocked() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blocked
}

func (f *fakeAccess) Guard(action func() error) error {
	if f.Blocked() {
		return ErrAccessDenied
	}
	if action == nil {
		return nil
	}
	return action()
}

// fakeHistory is a HistoryService double that records calls
type fakeHistory struct {
	mu          sync.Mutex
	refreshed   []string
	loadedCache []string
}

func (f *fakeHistory) Refresh(ctx context.Context, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, userID)
}

func (f *fakeHistory) LoadCached(ctx context.Context, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadedCache = append(f.loadedCache, userID)
}

func (f *fakeHistory) Records() []gateway.ChatRecord { return nil }

func (f *fakeHistory) OnUpdate(fn func([]gateway.ChatRecord)) {}

func (f *fakeHistory) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.refreshed)
}

// instantClock fires every timer immediately while advancing simulated time,
// so reveals complete at full speed with a deterministic elapsed duration
type instantClock struct {
	mu  sync.Mutex
	now time.Time
}

func newInstantClock() *instantClock {
	return &instantClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *instantClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *instantClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// gateClock parks every timer until the test releases it, giving tests
// tick-by-tick control over clock-driven goroutines
type gateClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []chan time.Time
}

func newGateClock() *gateClock {
	return &gateClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *gateClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *gateClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.pending = append(c.pending, ch)
	c.mu.Unlock()
	return ch
}

// tick releases the oldest parked timer, waiting for one to appear
func (c *gateClock) tick(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		if len(c.pending) > 0 {
			ch := c.pending[0]
			c.pending = c.pending[1:]
			now := c.now
			c.mu.Unlock()
			ch <- now
			return
		}
		c.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no pending timer to release")
}

// flush releases every parked timer so blocked goroutines can observe their
// stale generation and exit
func (c *gateClock) flush() {
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		pending := c.pending
		c.pending = nil
		now := c.now
		c.mu.Unlock()
		for _, ch := range pending {
			ch <- now
		}
		time.Sleep(5 * time.Millisecond)
	}
}
