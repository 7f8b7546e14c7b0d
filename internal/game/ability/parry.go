package ability

import (
	"time"

	"github.com/cory-johannsen/ricochet/internal/game/combat"
	"github.com/cory-johannsen/ricochet/internal/game/sheet"
)

// parry defends only during its active window.
type parry struct {
	core
	listening bool
}

func (p *parry) CanUse(phase InputPhase) bool {
	return phase == Down && p.HasEnded() && p.cooledDown() && p.affordable()
}

func (p *parry) Use(phase InputPhase) {
	if phase != Down {
		return
	}
	p.start()
	p.log().Debug("parry started")
}

func (p *parry) TryEndUse() error {
	if !p.HasEnded() {
		return ErrCannotStop
	}
	return nil
}

// ForceEndUse closes the window with a fading indicator and ends the use.
func (p *parry) ForceEndUse() {
	if !p.using {
		return
	}
	if p.listening {
		p.owner.Sheet.RemoveAttackListener(p)
		p.listening = false
		p.owner.Indicator.FadeOutBlockIndicator()
	}
	p.finish()
}

func (p *parry) HasEnded() bool { return !p.using }

func (p *parry) Update(now time.Duration) {
	for st := p.seq.due(now); st != 0; st = p.seq.due(now) {
		p.stage(st)
	}
}

func (p *parry) OnStage(stage int) {
	if p.def.EventDriven && p.seq.running() {
		p.stage(stage)
	}
}

func (p *parry) OnAttacked(hit sheet.Hit) sheet.DefenceFeedback {
	return combat.BlockAttack(p.owner.Body, p.owner.Indicator, p.def.Block, hit)
}

func (p *parry) stage(st int) {
	if !p.seq.enter(st) {
		return
	}
	switch st {
	case 1:
		p.addEffect(p.effectDuration())
		p.owner.Sheet.AddAttackListener(p)
		p.listening = true
		p.owner.Indicator.EnableBlockIndicator(p.def.Block.BlockAngle)
	case 2:
		p.owner.Sheet.RemoveAttackListener(p)
		p.listening = false
		p.owner.Indicator.DisableBlockIndicator()
	case 3:
		p.finish()
	}
}

func (p *parry) finish() {
	p.removeEffect()
	p.using = false
	p.seq.cancel()
}
