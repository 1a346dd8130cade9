package poll

import (
	"fmt"
	"time"
)

// Policy bounds a retry loop: at most MaxAttempts rounds, Interval apart.
type Policy struct {
	MaxAttempts int
	Interval    time.Duration
}

// Validate rejects policies that could never run or would sleep backwards.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry policy: max attempts must be >= 1, got %d", p.MaxAttempts)
	}
	if p.Interval < 0 {
		return fmt.Errorf("retry policy: interval must be >= 0, got %s", p.Interval)
	}
	return nil
}

// Window is the worst-case wall time spent sleeping: no sleep follows the
// final attempt, so a 12-attempt 50s policy waits ~9 minutes, not 10.
func (p Policy) Window() time.Duration {
	if p.MaxAttempts <= 1 {
		return 0
	}
	return time.Duration(p.MaxAttempts-1) * p.Interval
}
