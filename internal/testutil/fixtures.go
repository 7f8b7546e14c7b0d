// Package testutil provides test helpers: a manually advanced clock, static
// bodies, and recording presentation hooks.
package testutil

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// ManualClock is a clock advanced explicitly by the test.
type ManualClock struct {
	T time.Duration
}

// Now returns the current simulated time.
func (c *ManualClock) Now() time.Duration { return c.T }

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) { c.T += d }

// Body is a static position and facing. Locked records the last
// LockForward call.
type Body struct {
	Pos    mgl64.Vec3
	Fwd    mgl64.Vec3
	Locked bool
}

// NewBody returns a body at pos facing +Z.
func NewBody(pos mgl64.Vec3) *Body {
	return &Body{Pos: pos, Fwd: mgl64.Vec3{0, 0, 1}}
}

func (b *Body) Position() mgl64.Vec3 { return b.Pos }
func (b *Body) Forward() mgl64.Vec3  { return b.Fwd }

func (b *Body) LockForward(locked bool) { b.Locked = locked }

// Recorder implements the presentation hooks and records every call as a
// short string such as "trigger:Swing" or "lasthit:blocked".
type Recorder struct {
	Calls []string
	Bools map[string]bool
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{Bools: make(map[string]bool)}
}

func (r *Recorder) SetTrigger(name string)   { r.Calls = append(r.Calls, "trigger:"+name) }
func (r *Recorder) ResetTrigger(name string) { r.Calls = append(r.Calls, "reset:"+name) }

func (r *Recorder) SetBool(name string, value bool) {
	r.Bools[name] = value
}

func (r *Recorder) EnableBlockIndicator(angle float64) {
	r.Calls = append(r.Calls, fmt.Sprintf("indicator:on:%g", angle))
}

func (r *Recorder) DisableBlockIndicator() { r.Calls = append(r.Calls, "indicator:off") }
func (r *Recorder) FadeOutBlockIndicator() { r.Calls = append(r.Calls, "indicator:fade") }

func (r *Recorder) SetLastHit(_ mgl64.Vec3, blocked bool) {
	if blocked {
		r.Calls = append(r.Calls, "lasthit:blocked")
		return
	}
	r.Calls = append(r.Calls, "lasthit:landed")
}

func (r *Recorder) Flicker()     { r.Calls = append(r.Calls, "flicker:on") }
func (r *Recorder) StopFlicker() { r.Calls = append(r.Calls, "flicker:off") }

// Count returns how many recorded calls equal call.
func (r *Recorder) Count(call string) int {
	n := 0
	for _, c := range r.Calls {
		if c == call {
			n++
		}
	}
	return n
}

// Reset forgets every recorded call.
func (r *Recorder) Reset() {
	r.Calls = nil
	clear(r.Bools)
}
