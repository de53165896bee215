package services

import "time"

// Clock abstracts wall-clock reads and timer scheduling so timing-sensitive
// services (typing reveal, sync progress) can be driven deterministically in
// tests
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// RealClock is the production Clock backed by the time package
type RealClock struct{}

// Now returns the current time
func (RealClock) Now() time.Time { return time.Now() }

// After waits for the duration to elapse
func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
