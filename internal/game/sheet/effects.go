package sheet

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/ricochet/internal/game/effect"
	"github.com/cory-johannsen/ricochet/internal/game/stat"
)

// AddEffect applies def with its default duration, or stacks it when already
// applied.
//
// Precondition: def must not be nil.
func (s *Sheet) AddEffect(def *effect.Def) {
	s.AddEffectWithDuration(def, def.DefaultDuration())
}

// AddEffectWithDuration applies def with duration d, or stacks it when already
// applied. A negative d means infinite.
//
// Precondition: def must not be nil.
// Postcondition: Exactly one Applied exists for def.ID; its deltas were added
// once; its remaining duration never shrinks.
func (s *Sheet) AddEffectWithDuration(def *effect.Def, d time.Duration) {
	if i := s.effectIndex(def.ID); i >= 0 {
		s.effects[i].Stack(d)
		return
	}
	s.effects = append(s.effects, effect.CreateWithDuration(def, s, d))
}

// RemoveEffect removes the applied instance of def and reverses its deltas.
// Removing an effect that is not applied is a no-op.
func (s *Sheet) RemoveEffect(def *effect.Def) {
	i := s.effectIndex(def.ID)
	if i < 0 {
		s.logger.Debug("effect to remove not found", zap.String("effect", def.ID))
		return
	}
	s.removeEffectAt(i)
}

// HasEffect reports whether def is currently applied.
func (s *Sheet) HasEffect(def *effect.Def) bool {
	return s.effectIndex(def.ID) >= 0
}

// EffectDurationLeft returns the remaining duration of def, or false when it
// is not applied.
func (s *Sheet) EffectDurationLeft(def *effect.Def) (time.Duration, bool) {
	i := s.effectIndex(def.ID)
	if i < 0 {
		return 0, false
	}
	return s.effects[i].DurationLeft, true
}

// Effects returns the applied effects in the order they were added.
// The pointed-to values are shared; callers must not modify them.
func (s *Sheet) Effects() []*effect.Applied {
	out := make([]*effect.Applied, len(s.effects))
	copy(out, s.effects)
	return out
}

func (s *Sheet) effectIndex(id string) int {
	for i, a := range s.effects {
		if a.Def.ID == id {
			return i
		}
	}
	return -1
}

func (s *Sheet) removeEffectAt(i int) {
	a := s.effects[i]
	s.effects = append(s.effects[:i], s.effects[i+1:]...)
	a.Remove()
}

// FixedTick advances the sheet by one fixed step of dt: regeneration first,
// then effect expiry. A disabled sheet does not tick.
//
// Precondition: dt > 0.
func (s *Sheet) FixedTick(dt time.Duration) {
	if !s.enabled {
		return
	}
	s.regenerate(dt)
	s.expireEffects(dt)
}

// regenerate moves whole units once the accumulated regeneration reaches one
// unit in either direction. Integer division truncates toward zero, so
// positive remainders floor and negative remainders ceil.
func (s *Sheet) regenerate(dt time.Duration) {
	const unit = int64(time.Second)
	for r := stat.Resource(0); r < stat.ResourceCount; r++ {
		s.regenAcc[r] += int64(s.GetResourceRegen(r)) * int64(dt)
		if s.regenAcc[r] < unit && s.regenAcc[r] > -unit {
			continue
		}
		inc := s.regenAcc[r] / unit
		s.regenAcc[r] -= inc * unit
		s.IncreaseResource(r, int(inc))
	}
}

func (s *Sheet) expireEffects(dt time.Duration) {
	for i := 0; i < len(s.effects); i++ {
		a := s.effects[i]
		if !a.Tick(dt) {
			continue
		}
		s.logger.Debug("effect expired", zap.String("effect", a.Def.ID))
		s.removeEffectAt(i)
		i--
	}
}

// RegenRemainder returns the sub-unit regeneration carried for r, in units.
func (s *Sheet) RegenRemainder(r stat.Resource) float64 {
	return float64(s.regenAcc[r]) / float64(time.Second)
}
