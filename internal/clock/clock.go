// Package clock provides the time capability injected into the trading core.
// Live trading composes the wall clock; backtests compose a deterministically
// advanceable one. Nothing in the core reads time any other way.
package clock

import (
	"sync"
	"time"
)

// Clock supplies a monotonic notion of "now".
type Clock interface {
	Now() time.Time
}

// Realtime reads the wall clock.
type Realtime struct{}

// NewRealtime returns a wall-clock Clock.
func NewRealtime() *Realtime { return &Realtime{} }

// Now returns the current UTC wall-clock time.
func (*Realtime) Now() time.Time { return time.Now().UTC() }

// Simulated is a controllable clock for simulation and tests. It only moves
// when Advance or Set is called.
type Simulated struct {
	mu  sync.Mutex
	now time.Time
}

// NewSimulated returns a Simulated clock starting at the given instant.
func NewSimulated(start time.Time) *Simulated {
	return &Simulated{now: start}
}

// Now returns the simulated current time.
func (s *Simulated) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Advance moves the simulated time forward by d.
func (s *Simulated) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

// Set jumps the simulated time to t.
func (s *Simulated) Set(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = t
}
