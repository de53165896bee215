package services

import "errors"

// Standard service errors
var (
	// Network and connectivity errors
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrServiceUnavailable = errors.New("service unavailable")

	// Input errors
	ErrEmptyInput   = errors.New("empty input")
	ErrInvalidInput = errors.New("invalid input provided")

	// Gate errors
	ErrAccessDenied = errors.New("access denied")

	// Session errors
	ErrRequestInFlight = errors.New("request already in flight")
	ErrSessionNotReady = errors.New("session not started")
)

// IsUserFacing reports whether an error maps to a notice shown to the user
// rather than a silent no-op
func IsUserFacing(err error) bool {
	return errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrRequestInFlight)
}
