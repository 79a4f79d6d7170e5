package clock

import (
	"sync"
	"time"
)

// Clock abstracts time so callers can replace real time in tests.
type Clock interface {
	Now() time.Time
}

// Real reads the current system time.
type Real struct{}

// New returns the system clock.
func New() Real {
	return Real{}
}

// Now returns the current system time.
func (Real) Now() time.Time {
	return time.Now()
}

// Fake is a manually advanced clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake returns a Fake frozen at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the frozen time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
