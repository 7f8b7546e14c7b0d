package ability

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/ricochet/internal/game/combat"
	"github.com/cory-johannsen/ricochet/internal/game/effect"
	"github.com/cory-johannsen/ricochet/internal/game/sheet"
)

// block defends for as long as its button is held, ending early when its use
// effect has drained the resource it consumes.
type block struct {
	core
	listening bool
}

func (b *block) CanUse(phase InputPhase) bool {
	switch phase {
	case Down, Hold:
		return b.HasEnded() && b.affordable() && !b.drained()
	case Up:
		return !b.HasEnded()
	}
	return false
}

func (b *block) Use(phase InputPhase) {
	switch phase {
	case Down, Hold:
		a := b.owner.Animator
		if b.def.EnableTrigger != "" {
			a.SetTrigger(b.def.EnableTrigger)
		}
		if b.def.DisableTrigger != "" {
			a.ResetTrigger(b.def.DisableTrigger)
		}
		b.addEffect(effect.Infinite)
		b.owner.Sheet.AddAttackListener(b)
		b.listening = true
		b.owner.Sheet.ExpendResources(b.def.Cost)
		b.owner.Indicator.EnableBlockIndicator(b.def.Block.BlockAngle)
		b.using = true
		b.used = true
		b.lastUse = b.now()
		b.seq.phase = Active
		b.log().Debug("block raised")
	case Up:
		b.endUse(false)
	}
}

// TryEndUse lowers the block; a block can always stop.
func (b *block) TryEndUse() error {
	if b.using {
		b.endUse(false)
	}
	return nil
}

func (b *block) ForceEndUse() {
	if b.using {
		b.endUse(true)
	}
}

func (b *block) HasEnded() bool { return !b.using }

func (b *block) Update(time.Duration) {
	if b.using && b.drained() {
		b.log().Debug("block drained")
		b.endUse(true)
	}
}

func (b *block) OnStage(int) {}

func (b *block) OnAttacked(hit sheet.Hit) sheet.DefenceFeedback {
	return combat.BlockAttack(b.owner.Body, b.owner.Indicator, b.def.Block, hit)
}

func (b *block) drained() bool {
	e := b.def.Effect()
	return e != nil && e.IsResourcesDrained(b.owner.Sheet)
}

func (b *block) endUse(fade bool) {
	a := b.owner.Animator
	if b.def.EnableTrigger != "" {
		a.ResetTrigger(b.def.EnableTrigger)
	}
	if b.def.DisableTrigger != "" {
		a.SetTrigger(b.def.DisableTrigger)
	}
	b.removeEffect()
	if b.listening {
		b.owner.Sheet.RemoveAttackListener(b)
		b.listening = false
	}
	if fade {
		b.owner.Indicator.FadeOutBlockIndicator()
	} else {
		b.owner.Indicator.DisableBlockIndicator()
	}
	b.using = false
	b.seq.cancel()
	b.log().Debug("block lowered", zap.Bool("interrupted", fade))
}
