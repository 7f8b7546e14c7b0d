package fighter

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/ricochet/internal/game/effect"
	"github.com/cory-johannsen/ricochet/internal/game/presentation"
)

// IsStaggered reports whether input is currently vetoed.
func (f *Fighter) IsStaggered() bool { return f.staggered }

// IsPoised reports whether damaged staggers are currently ignored.
func (f *Fighter) IsPoised() bool { return f.poised }

// PoiseDuration returns the length of the next or current poise window.
func (f *Fighter) PoiseDuration() time.Duration { return f.poiseDuration }

// DamagedStagger staggers the fighter for a hurt reaction unless it is
// poised, and opens a poise window. A hit landing shortly after the previous
// window lengthens the next one.
func (f *Fighter) DamagedStagger() {
	if f.poised {
		return
	}
	if !f.staggered {
		f.startStagger(presentation.TriggerDamagedStagger, f.cfg.StaggerDuration)
	}
	f.startPoise()
}

// RicochetStagger staggers the fighter when its last ability was still
// mid-action.
//
// Postcondition: Returns true when the fighter was staggered.
func (f *Fighter) RicochetStagger() bool {
	if f.HasLastAbilityEnded() {
		return false
	}
	f.startStagger(presentation.TriggerRicochetStagger, f.cfg.RicochetDuration)
	return true
}

func (f *Fighter) startStagger(trigger string, d time.Duration) {
	if f.last != nil {
		f.last.ForceEndUse()
	}
	f.animator.SetTrigger(trigger)
	if f.cfg.StaggerEffect != nil {
		f.sheet.AddEffectWithDuration(f.cfg.StaggerEffect, effect.Infinite)
	}
	f.staggered = true
	f.staggerUntil = f.clock.Now() + d
	f.logger.Debug("staggered", zap.String("reaction", trigger), zap.Duration("duration", d))
}

func (f *Fighter) resetStagger() {
	if f.staggered && f.cfg.StaggerEffect != nil {
		f.sheet.RemoveEffect(f.cfg.StaggerEffect)
	}
	f.staggered = false
}

func (f *Fighter) startPoise() {
	if !f.poiseResetted {
		f.poiseDuration += f.cfg.PoiseGrowth
	}
	f.poised = true
	f.poiseResetted = false
	f.poiseRunning = true
	f.flicker.Flicker()
	f.poiseUntil = f.clock.Now() + f.poiseDuration
	f.poiseResetAt = f.poiseUntil + f.cfg.PoiseReset
}

func (f *Fighter) resetPoise() {
	f.poised = false
	f.poiseRunning = false
	f.poiseDuration = f.cfg.BasePoise
	f.poiseResetted = true
}
