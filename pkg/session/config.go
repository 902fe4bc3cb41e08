package session

import "time"

// Config holds the lifecycle timing knobs.
type Config struct {
	// RetryDelay is the pause before the single opaque fallback attempt
	// after a failed passthrough request.
	RetryDelay time.Duration

	// TeardownGrace is the pause after a teardown completes before the
	// next session request, letting the platform fully release the old
	// session.
	TeardownGrace time.Duration

	// RequestTimeout bounds one session request or end round trip.
	RequestTimeout time.Duration
}

// DefaultConfig returns the standard lifecycle timing.
func DefaultConfig() Config {
	return Config{
		RetryDelay:     500 * time.Millisecond,
		TeardownGrace:  300 * time.Millisecond,
		RequestTimeout: 15 * time.Second,
	}
}
