// Package timeutil provides the clocks used to stamp tracking sessions.
package timeutil

import (
	"sync"
	"time"
)

// Clock reports the wall time a session started at.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock is a Clock for tests. It only moves when told to.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a new MockClock set to the given time.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// Now returns the mocked current time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the mock clock forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FrameMillis returns the synthetic timestamp of frame seq in a stream
// sampled every interval, in milliseconds from the first frame.
func FrameMillis(seq int, interval time.Duration) int64 {
	return int64(seq) * interval.Milliseconds()
}
