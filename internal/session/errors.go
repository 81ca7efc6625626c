package session

import (
	"fmt"
	"time"
)

// UnavailableError: the backend could not be reached after bounded
// connection retries. Raised only by Start.
type UnavailableError struct {
	Addr     string
	Attempts int
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("backend unavailable at %s after %d attempts: %v", e.Addr, e.Attempts, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// TimeoutError: the backend did not acknowledge a tick within the
// deadline. Never retried; repeating a game command against an unknown
// post-timeout state is unsafe.
type TimeoutError struct {
	Tick uint64
	Wait time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("backend timeout: no tick ack for tick %d within %s", e.Tick, e.Wait)
}

// CrashError: the connection dropped or the backend reported a fatal
// condition mid-session.
type CrashError struct {
	Err error
}

func (e *CrashError) Error() string {
	return fmt.Sprintf("backend crashed: %v", e.Err)
}

func (e *CrashError) Unwrap() error { return e.Err }
