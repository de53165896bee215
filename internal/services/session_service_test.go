package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(gw *fakeGateway, access *fakeAccess, clock Clock) (*SessionServiceImpl, *fakeHistory) {
	history := &fakeHistory{}
	reveal := NewRevealEngine(clock, 50*time.Millisecond)
	session := NewSessionService(gw, access, history, reveal, nil)
	return session, history
}

func startSession(t *testing.T, s *SessionServiceImpl, userID string) {
	t.Helper()
	require.NoError(t, s.Start(context.Background(), userID))
}

func TestSessionServiceImpl_Start(t *testing.T) {
	gw := &fakeGateway{}
	access := &fakeAccess{}
	session, history := newTestSession(gw, access, newInstantClock())

	require.NoError(t, session.Start(context.Background(), "alice"))

	assert.Equal(t, "alice", session.UserID())
	assert.Empty(t, session.Messages())
	assert.Equal(t, []string{"alice"}, access.bootstrapped)
	assert.Equal(t, []string{"alice"}, history.refreshed)
	assert.Equal(t, []string{"alice"}, history.loadedCache)
}

func TestSessionServiceImpl_Start_EmptyUser(t *testing.T) {
	session, _ := newTestSession(&fakeGateway{}, &fakeAccess{}, newInstantClock())
	assert.ErrorIs(t, session.Start(context.Background(), "  "), ErrInvalidInput)
}

func TestSessionServiceImpl_SendQuery_EmptyInput(t *testing.T) {
	gw := &fakeGateway{}
	session, _ := newTestSession(gw, &fakeAccess{}, newInstantClock())
	startSession(t, session, "alice")

	for _, input := range []string{"", "   ", "\t\n"} {
		err := session.SendQuery(context.Background(), input)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}

	submits, _, _ := gw.calls()
	assert.Zero(t, submits)
	assert.Empty(t, session.Messages())
}

func TestSessionServiceImpl_SendQuery_BlockedAccount(t *testing.T) {
	gw := &fakeGateway{}
	access := &fakeAccess{blocked: true}
	session, _ := newTestSession(gw, access, newInstantClock())
	startSession(t, session, "alice")

	var notices []string
	var mu sync.Mutex
	session.OnNotice(func(text string) {
		mu.Lock()
		notices = append(notices, text)
		mu.Unlock()
	})

	err := session.SendQuery(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrAccessDenied)

	// Gate trips before the network: timeline unchanged, no call recorded
	submits, _, _ := gw.calls()
	assert.Zero(t, submits)
	assert.Empty(t, session.Messages())
	mu.Lock()
	assert.Equal(t, []string{AccessDeniedNotice}, notices)
	mu.Unlock()
}

func TestSessionServiceImpl_SendQuery_RevealsAnswer(t *testing.T) {
	gw := &fakeGateway{submitResp: "Found 2 invoices"}
	session, history := newTestSession(gw, &fakeAccess{}, newInstantClock())
	startSession(t, session, "alice")
	refreshesBefore := history.refreshCount()

	require.NoError(t, session.SendQuery(context.Background(), "find my invoice"))

	require.Eventually(t, func() bool {
		msgs := session.Messages()
		return len(msgs) == 2 && msgs[1].Text == "Found 2 invoices" && !session.IsTyping()
	}, 2*time.Second, time.Millisecond)

	msgs := session.Messages()
	assert.Equal(t, SenderUser, msgs[0].Sender)
	assert.Equal(t, "find my invoice", msgs[0].Text)
	assert.Equal(t, SenderAssistant, msgs[1].Sender)

	rate := session.Rate()
	assert.True(t, rate.Measured)
	assert.InDelta(t, float64(16)/0.8, rate.CharsPerSec, 0.01) // 16 chars at 50ms each

	// Completion refreshes the history once more
	require.Eventually(t, func() bool {
		return history.refreshCount() == refreshesBefore+1
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, "alice", gw.lastUserID)
	assert.Equal(t, "", gw.lastContext)
}

func TestSessionServiceImpl_SendQuery_ContextCarriesLastAnswer(t *testing.T) {
	gw := &fakeGateway{submitResp: "Answer one"}
	session, _ := newTestSession(gw, &fakeAccess{}, newInstantClock())
	startSession(t, session, "alice")

	require.NoError(t, session.SendQuery(context.Background(), "first"))
	require.Eventually(t, func() bool { return !session.IsTyping() }, 2*time.Second, time.Millisecond)

	require.NoError(t, session.SendQuery(context.Background(), "second"))
	require.Eventually(t, func() bool { return !session.IsTyping() }, 2*time.Second, time.Millisecond)

	gw.mu.Lock()
	defer gw.mu.Unlock()
	assert.Equal(t, "Answer one", gw.lastContext)
}

func TestSessionServiceImpl_SendQuery_TransportFailure(t *testing.T) {
	gw := &fakeGateway{submitErr: errors.New("connection refused")}
	session, _ := newTestSession(gw, &fakeAccess{}, newInstantClock())
	startSession(t, session, "alice")

	// Transport failures degrade to a fallback message, not an error
	require.NoError(t, session.SendQuery(context.Background(), "hello"))

	msgs := session.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, SenderUser, msgs[0].Sender)
	assert.Equal(t, SenderAssistant, msgs[1].Sender)
	assert.Equal(t, fallbackNetworkDown, msgs[1].Text)
	assert.False(t, session.IsTyping())
	assert.False(t, session.Rate().Measured)
}

func TestSessionServiceImpl_SendQuery_EmptyAnswerFallback(t *testing.T) {
	gw := &fakeGateway{submitResp: ""}
	session, _ := newTestSession(gw, &fakeAccess{}, newInstantClock())
	startSession(t, session, "alice")

	require.NoError(t, session.SendQuery(context.Background(), "hello"))

	require.Eventually(t, func() bool {
		msgs := session.Messages()
		return len(msgs) == 2 && msgs[1].Text == fallbackNoAnswer
	}, 2*time.Second, time.Millisecond)
}

func TestSessionServiceImpl_SendQuery_RefusedWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	gw := &fakeGateway{submitResp: "done", submitBlock: release}
	session, _ := newTestSession(gw, &fakeAccess{}, newInstantClock())
	startSession(t, session, "alice")

	firstDone := make(chan error, 1)
	go func() { firstDone <- session.SendQuery(context.Background(), "first") }()

	require.Eventually(t, func() bool {
		submits, _, _ := gw.calls()
		return submits == 1
	}, 2*time.Second, time.Millisecond)

	err := session.SendQuery(context.Background(), "second")
	assert.ErrorIs(t, err, ErrRequestInFlight)

	close(release)
	require.NoError(t, <-firstDone)
	require.Eventually(t, func() bool { return !session.IsTyping() }, 2*time.Second, time.Millisecond)
}

func TestSessionServiceImpl_NewChat_CancelsRevealAndClears(t *testing.T) {
	clock := newGateClock()
	gw := &fakeGateway{submitResp: "a long answer being revealed"}
	session, _ := newTestSession(gw, &fakeAccess{}, clock)
	startSession(t, session, "alice")

	require.NoError(t, session.SendQuery(context.Background(), "hello"))
	clock.tick(t)
	clock.tick(t)
	require.Eventually(t, func() bool {
		msgs := session.Messages()
		return len(msgs) == 2 && len(msgs[1].Text) == 2
	}, 2*time.Second, time.Millisecond)

	session.NewChat()
	assert.Empty(t, session.Messages())
	assert.False(t, session.IsTyping())
	assert.False(t, session.Rate().Measured)

	// Stray ticks scheduled before the cancel must not repopulate the
	// cleared timeline
	clock.flush()
	assert.Empty(t, session.Messages())
}

func TestSessionServiceImpl_LateResponseAfterNewChat(t *testing.T) {
	release := make(chan struct{})
	gw := &fakeGateway{submitResp: "late answer", submitBlock: release}
	session, _ := newTestSession(gw, &fakeAccess{}, newInstantClock())
	startSession(t, session, "alice")

	done := make(chan error, 1)
	go func() { done <- session.SendQuery(context.Background(), "hello") }()

	require.Eventually(t, func() bool {
		submits, _, _ := gw.calls()
		return submits == 1
	}, 2*time.Second, time.Millisecond)

	session.NewChat()
	close(release)
	require.NoError(t, <-done)

	// The superseded exchange resolves into the void
	assert.Empty(t, session.Messages())
	assert.False(t, session.IsTyping())
}

func TestSessionServiceImpl_SendQuery_BeforeStart(t *testing.T) {
	session, _ := newTestSession(&fakeGateway{}, &fakeAccess{}, newInstantClock())
	err := session.SendQuery(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrSessionNotReady)
}

func TestSessionServiceImpl_TimelineObserverSeesSnapshots(t *testing.T) {
	gw := &fakeGateway{submitResp: "ok"}
	session, _ := newTestSession(gw, &fakeAccess{}, newInstantClock())

	var mu sync.Mutex
	var lengths []int
	session.OnTimeline(func(msgs []Message) {
		mu.Lock()
		lengths = append(lengths, len(msgs))
		mu.Unlock()
	})

	startSession(t, session, "alice")
	require.NoError(t, session.SendQuery(context.Background(), "hi"))
	require.Eventually(t, func() bool { return !session.IsTyping() }, 2*time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, lengths)
	// Timeline only ever grows within an exchange
	for i := 1; i < len(lengths); i++ {
		assert.GreaterOrEqual(t, lengths[i], lengths[i-1])
	}
}
