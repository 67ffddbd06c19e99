// Package clock abstracts wall-clock time and sleeping so pacing
// behavior can be tested without real delays.
package clock

import "time"

// Clock provides the current time and a blocking sleep.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// System implements Clock using the time package.
type System struct{}

// NewSystem creates a real clock.
func NewSystem() *System {
	return &System{}
}

// Now returns the current time in UTC.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Sleep pauses the calling goroutine for the given duration.
func (System) Sleep(d time.Duration) {
	time.Sleep(d)
}
