// Package arena hosts a headless fixed-step world in which built characters
// fight: it owns their bodies, projectiles, hazards and pickups and ticks them
// in a fixed order.
package arena

import "time"

// Clock is a fixed-step simulation clock.
type Clock struct {
	now   time.Duration
	delta time.Duration
}

// NewClock returns a clock at zero advancing by delta per step.
//
// Precondition: delta must be > 0.
func NewClock(delta time.Duration) *Clock {
	if delta <= 0 {
		panic("arena.NewClock: delta must be > 0")
	}
	return &Clock{delta: delta}
}

// Now returns the simulated time.
func (c *Clock) Now() time.Duration { return c.now }

// Delta returns the fixed step.
func (c *Clock) Delta() time.Duration { return c.delta }

// Advance moves the clock forward one step.
func (c *Clock) Advance() { c.now += c.delta }
