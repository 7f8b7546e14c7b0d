// Package effect implements timed status effects that modulate a character's
// attributes and resource limits.
package effect

import (
	"time"

	"github.com/cory-johannsen/ricochet/internal/game/stat"
)

// Target receives the attribute and resource deltas of an applied effect.
type Target interface {
	IncreaseAttribute(a stat.Attribute, delta int)
	IncreaseResourceMax(r stat.Resource, delta int)
	IncreaseResourceRegen(r stat.Resource, delta int)
}

// ResourceReader exposes current resource values.
type ResourceReader interface {
	GetResource(r stat.Resource) int
}

// Applied is the live instance of a Def on one target.
// It records the exact deltas it contributed so that Remove reverses them.
// It is not safe for concurrent use; the caller must serialise access.
type Applied struct {
	Def          *Def
	DurationLeft time.Duration // Infinite = never expires

	target     Target
	attributes stat.AttributeGroup
	maxes      stat.ResourceGroup
	regens     stat.ResourceGroup
	removed    bool
}

// Create applies def to target with the def's default duration.
//
// Precondition: def and target must not be nil.
// Postcondition: The def's deltas have been added to target.
func Create(def *Def, target Target) *Applied {
	return CreateWithDuration(def, target, def.DefaultDuration())
}

// CreateWithDuration applies def and its children to target with an explicit
// duration. Any negative duration is stored as Infinite.
//
// Precondition: def and target must not be nil.
// Postcondition: The def's deltas have been added to target.
func CreateWithDuration(def *Def, target Target, d time.Duration) *Applied {
	if d < 0 {
		d = Infinite
	}
	a := &Applied{
		Def:          def,
		DurationLeft: d,
		target:       target,
	}
	a.attributes, a.maxes, a.regens = def.Totals()
	a.apply(1)
	return a
}

func (a *Applied) apply(sign int) {
	for i, v := range a.attributes {
		if v != 0 {
			a.target.IncreaseAttribute(stat.Attribute(i), sign*v)
		}
	}
	for i, v := range a.maxes {
		if v != 0 {
			a.target.IncreaseResourceMax(stat.Resource(i), sign*v)
		}
	}
	for i, v := range a.regens {
		if v != 0 {
			a.target.IncreaseResourceRegen(stat.Resource(i), sign*v)
		}
	}
}

// Stack refreshes the remaining duration after the same def is re-added.
// The deltas are never applied twice.
//
// Postcondition: An infinite duration stays infinite; a finite one becomes
// infinite when newDuration is negative, else max(DurationLeft, newDuration).
func (a *Applied) Stack(newDuration time.Duration) {
	if a.DurationLeft == Infinite {
		return
	}
	if newDuration < 0 {
		a.DurationLeft = Infinite
		return
	}
	a.DurationLeft = max(a.DurationLeft, newDuration)
}

// Remove subtracts exactly the deltas recorded at creation.
//
// Postcondition: Subsequent calls are no-ops.
func (a *Applied) Remove() {
	if a.removed {
		return
	}
	a.removed = true
	a.apply(-1)
}

// Removed reports whether Remove has run.
func (a *Applied) Removed() bool { return a.removed }

// IsInfinite reports whether the effect never expires.
func (a *Applied) IsInfinite() bool { return a.DurationLeft == Infinite }

// Tick consumes dt from the remaining duration.
//
// Postcondition: Returns true when a finite duration has reached zero.
// Infinite effects are unchanged and never report expiry.
func (a *Applied) Tick(dt time.Duration) bool {
	if a.DurationLeft == Infinite {
		return false
	}
	a.DurationLeft -= dt
	if a.DurationLeft <= 0 {
		a.DurationLeft = 0
		return true
	}
	return false
}
