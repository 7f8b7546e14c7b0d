package sheet

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/cory-johannsen/ricochet/internal/game/stat"
)

// Hit is one incoming attack as seen by the defender.
type Hit struct {
	Damage int
	// Origin is the world-space contact point.
	Origin mgl64.Vec3
	// Attacker is nil for environmental sources.
	Attacker *Sheet
	Heft     int
}

// DefenceFeedback is one listener's response to a Hit, and also the
// aggregate over all listeners.
type DefenceFeedback struct {
	Ricochet    int
	Reduction   int
	Poise       int
	CanRicochet bool
}

// AttackListener reacts to attacks landing on the sheet it is registered with.
// OnAttacked must only report its own feedback; it must not register or
// unregister listeners.
type AttackListener interface {
	OnAttacked(hit Hit) DefenceFeedback
}

// AddAttackListener registers l. Registering the same listener twice logs an
// error and keeps the existing registration.
func (s *Sheet) AddAttackListener(l AttackListener) {
	for _, existing := range s.listeners {
		if existing == l {
			s.logger.Error("attack listener already registered")
			return
		}
	}
	s.listeners = append(s.listeners, l)
}

// RemoveAttackListener unregisters l. Removing an unknown listener is a no-op.
func (s *Sheet) RemoveAttackListener(l AttackListener) {
	for i, existing := range s.listeners {
		if existing == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
	s.logger.Debug("attack listener to remove not found")
}

// AttackListenerCount returns the number of registered listeners.
func (s *Sheet) AttackListenerCount() int { return len(s.listeners) }

// LandAttack resolves hit against this sheet and returns the summed ricochet
// for the attacker to evaluate.
//
// Listeners are consulted in registration order and their feedback summed.
// When the summed poise is below the hit's heft the defence breaks: a
// ricochet stagger if any listener allowed it, otherwise a damaged stagger
// when damage gets through. Only positive net damage is applied.
//
// Postcondition: A disabled sheet is untouched and 0 is returned.
func (s *Sheet) LandAttack(hit Hit) int {
	if !s.enabled {
		return 0
	}
	var fb DefenceFeedback
	for _, l := range s.listeners {
		f := l.OnAttacked(hit)
		fb.Ricochet += f.Ricochet
		fb.Reduction += f.Reduction
		fb.Poise += f.Poise
		fb.CanRicochet = fb.CanRicochet || f.CanRicochet
	}
	damage := hit.Damage - fb.Reduction
	if fb.Poise < hit.Heft && s.stagger != nil {
		if fb.CanRicochet {
			if s.stagger.RicochetStagger() {
				s.logger.Debug("defence broken", zap.Int("heft", hit.Heft), zap.Int("poise", fb.Poise))
			}
		} else if damage > 0 {
			s.stagger.DamagedStagger()
		}
	}
	if damage > 0 {
		s.IncreaseResource(stat.Health, -damage)
	}
	return fb.Ricochet
}
