package services

import (
	"sync"
	"time"
)

// RevealEngineImpl implements RevealEngine with a fixed per-character delay.
// A generation counter is checked before every emission so ticks scheduled by
// a superseded or cancelled reveal never reach the timeline.
type RevealEngineImpl struct {
	clock    Clock
	interval time.Duration

	mu     sync.Mutex
	gen    uint64
	active bool
}

// NewRevealEngine creates a reveal engine; interval is the delay between
// revealed characters
func NewRevealEngine(clock Clock, interval time.Duration) *RevealEngineImpl {
	if clock == nil {
		clock = RealClock{}
	}
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &RevealEngineImpl{
		clock:    clock,
		interval: interval,
	}
}

// Start cancels any active reveal and begins revealing fullText
func (e *RevealEngineImpl) Start(fullText string, onPrefix func(string), onComplete func(chars int, elapsed time.Duration)) {
	e.mu.Lock()
	e.gen++
	myGen := e.gen
	e.active = true
	e.mu.Unlock()

	started := e.clock.Now()
	go e.run(myGen, started, fullText, onPrefix, onComplete)
}

// Cancel deactivates the current reveal; partially revealed text stays
func (e *RevealEngineImpl) Cancel() {
	e.mu.Lock()
	e.gen++
	e.active = false
	e.mu.Unlock()
}

// Active reports whether a reveal is in progress
func (e *RevealEngineImpl) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

func (e *RevealEngineImpl) run(myGen uint64, started time.Time, fullText string, onPrefix func(string), onComplete func(int, time.Duration)) {
	runes := []rune(fullText)

	for i := 1; i <= len(runes); i++ {
		<-e.clock.After(e.interval)
		if !e.current(myGen) {
			return
		}
		if onPrefix != nil {
			onPrefix(string(runes[:i]))
		}
	}

	e.mu.Lock()
	if e.gen != myGen {
		e.mu.Unlock()
		return
	}
	e.active = false
	e.mu.Unlock()

	if onComplete != nil {
		onComplete(len(runes), e.clock.Now().Sub(started))
	}
}

func (e *RevealEngineImpl) current(myGen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen == myGen
}
