package services

import (
	"context"
	"time"

	"github.com/mhidalgo/inboxq/internal/gateway"
)

// Sender identifies who authored a timeline message
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one entry of the session timeline
type Message struct {
	ID        string
	Sender    Sender
	Text      string
	Timestamp time.Time
}

// KeywordStat is one keyword-frequency pair derived from history
type KeywordStat struct {
	Keyword string
	Count   int
}

// TimeBucket is a per-calendar-day activity count derived from history
type TimeBucket struct {
	Day   string
	Count int
}

// Insights are quick facts about the history shown on the suggestions panel
type Insights struct {
	LongestQuery string
	LastQuery    string
}

// TypingRate is the measured reveal speed of the last completed response
type TypingRate struct {
	CharsPerSec float64
	// Measured is false when the reveal finished in zero elapsed time
	Measured bool
}

// Gateway is the network boundary to the email-assistant backend
type Gateway interface {
	SubmitQuery(ctx context.Context, question, userID, contextText string) (string, error)
	FetchHistory(ctx context.Context, userID string) ([]gateway.ChatRecord, error)
	FetchBlockStatus(ctx context.Context) ([]gateway.BlockedUser, error)
	TriggerEmailSync(ctx context.Context) error
}

// SessionService owns the message timeline and orchestrates a chat session
type SessionService interface {
	// Start initializes the session for a user and runs the access-gate
	// bootstrap and first history refresh concurrently
	Start(ctx context.Context, userID string) error

	// SendQuery runs one exchange: optimistic user message, gateway call,
	// assistant reveal. Returns ErrEmptyInput, ErrAccessDenied or
	// ErrRequestInFlight without touching the network; transport failures
	// degrade to a fallback message and a nil error.
	SendQuery(ctx context.Context, text string) error

	// NewChat cancels any active reveal, clears the timeline and resets the
	// typing-rate display
	NewChat()

	Messages() []Message
	Rate() TypingRate
	IsTyping() bool
	UserID() string

	// Observers; all callbacks may fire from background goroutines
	OnTimeline(fn func([]Message))
	OnTyping(fn func(bool))
	OnRate(fn func(TypingRate))
	OnNotice(fn func(string))
}

// RevealEngine turns a complete response string into a timed sequence of
// growing prefixes
type RevealEngine interface {
	// Start cancels any active reveal and begins a new one. onPrefix receives
	// each successive prefix; onComplete fires once with the revealed rune
	// count and elapsed time when the full text has been emitted.
	Start(fullText string, onPrefix func(string), onComplete func(chars int, elapsed time.Duration))

	// Cancel stops the active reveal; already revealed text is left as-is
	Cancel()

	Active() bool
}

// HistoryService fetches, orders and republishes persisted chat history
type HistoryService interface {
	// Refresh fetches the user's history, sorts it by date descending and
	// publishes it. On failure the previously published history is retained.
	Refresh(ctx context.Context, userID string)

	// LoadCached publishes the offline cached history, if any
	LoadCached(ctx context.Context, userID string)

	Records() []gateway.ChatRecord
	OnUpdate(fn func([]gateway.ChatRecord))
}

// AnalyticsService derives statistics from chat history; pure and stateless
type AnalyticsService interface {
	Compute(history []gateway.ChatRecord) ([]KeywordStat, []TimeBucket)
	ComputeInsights(history []gateway.ChatRecord) Insights
}

// AccessService caches the account's blocked status for the session
type AccessService interface {
	// Bootstrap fetches the block list once and caches whether userID is on
	// it. A transport failure retains the previous cached state.
	Bootstrap(ctx context.Context, userID string) error

	Blocked() bool

	// Guard runs action unless the account is blocked
	Guard(action func() error) error
}

// SyncService triggers a backend mailbox re-index with simulated progress
type SyncService interface {
	// Run triggers the sync and blocks until the backend call resolves.
	// Progress callbacks fire with values in [0,100]; 0 means idle/hidden.
	Run(ctx context.Context) error

	OnProgress(fn func(int))
}

// PrefsService owns the persisted session preferences
type PrefsService interface {
	DarkMode(ctx context.Context) bool
	SetDarkMode(ctx context.Context, enabled bool) error
	LastUserID(ctx context.Context) string
	SetLastUserID(ctx context.Context, userID string) error
}
