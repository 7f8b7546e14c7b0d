package ability

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/cory-johannsen/ricochet/internal/game/combat"
	"github.com/cory-johannsen/ricochet/internal/game/effect"
	"github.com/cory-johannsen/ricochet/internal/game/sheet"
)

// ChargeTarget is a character a charge can run into.
type ChargeTarget interface {
	Sheet() *sheet.Sheet
	Position() mgl64.Vec3
	// Knock sets the target moving at velocity.
	Knock(velocity mgl64.Vec3)
}

// Charger is implemented by instances that hit on body contact.
type Charger interface {
	// Charging reports whether the lunge is under way.
	Charging() bool
	// Contact resolves running into target. It reports whether an attack
	// was landed.
	Contact(target ChargeTarget) bool
}

// charge lunges along the owner's facing after its windup, guarding its
// front, and lands one hit on the first character it runs into inside the
// guarded arc. Stage 1 starts the lunge and stage 2 ends it.
type charge struct {
	core
	listening bool
	locked    bool
}

func (c *charge) CanUse(phase InputPhase) bool {
	return phase == Down && c.HasEnded() && c.cooledDown() && c.affordable()
}

func (c *charge) Use(phase InputPhase) {
	if phase != Down {
		return
	}
	c.start()
	if c.def.EnableTrigger != "" {
		c.owner.Animator.SetTrigger(c.def.EnableTrigger)
	}
	if c.def.DisableTrigger != "" {
		c.owner.Animator.ResetTrigger(c.def.DisableTrigger)
	}
	c.log().Debug("charge started")
}

func (c *charge) TryEndUse() error {
	if !c.HasEnded() {
		return ErrCannotStop
	}
	return nil
}

func (c *charge) ForceEndUse() {
	if c.using {
		c.end(true)
	}
}

func (c *charge) HasEnded() bool { return !c.using }

func (c *charge) Charging() bool { return c.using && c.seq.phase == Active }

func (c *charge) Update(now time.Duration) {
	for st := c.seq.due(now); st != 0 && c.using; st = c.seq.due(now) {
		c.stage(st)
	}
}

func (c *charge) OnStage(stage int) {
	if c.def.EventDriven && c.seq.running() {
		c.stage(stage)
	}
}

func (c *charge) OnAttacked(hit sheet.Hit) sheet.DefenceFeedback {
	return combat.BlockAttack(c.owner.Body, c.owner.Indicator, c.def.Block, hit)
}

func (c *charge) Contact(target ChargeTarget) bool {
	if !c.Charging() || target == nil || target.Sheet() == c.owner.Sheet {
		return false
	}
	origin := c.owner.Body.Position()
	dir := target.Position().Sub(origin)
	if dir.Len() < 1e-9 {
		dir = c.owner.Body.Forward()
	}
	dir = dir.Normalize()
	if dir.Dot(c.owner.Body.Forward()) < math.Cos(mgl64.DegToRad(c.def.Block.BlockAngle)) {
		return false
	}
	dmg := c.owner.Sheet.CalculateAttackDamage(c.def.Damage)
	ricochet := target.Sheet().LandAttack(sheet.Hit{
		Damage:   dmg,
		Origin:   origin,
		Attacker: c.owner.Sheet,
		Heft:     c.def.Heft,
	})
	logger := c.log().With(zap.String("target", target.Sheet().ID()), zap.Int("damage", dmg))
	if c.def.Heft < ricochet {
		logger.Debug("charge rebuffed", zap.Int("ricochet", ricochet))
		if c.owner.Attacker != nil {
			c.owner.Attacker.RicochetStagger()
		}
		if c.using {
			c.end(true)
		}
		return true
	}
	target.Knock(dir.Mul(c.def.ImpactVelocity))
	logger.Debug("charge landed")
	c.end(false)
	return true
}

func (c *charge) stage(st int) {
	if !c.seq.enter(st) {
		return
	}
	switch st {
	case 1:
		c.addEffect(effect.Infinite)
		c.owner.Sheet.AddAttackListener(c)
		c.listening = true
		c.owner.Indicator.EnableBlockIndicator(c.def.Block.BlockAngle)
		if c.owner.Lunger != nil {
			c.owner.Lunger.LockForward(true)
			c.locked = true
		}
	case 2, 3:
		c.end(false)
	}
}

// end stops the lunge. An interrupted charge fades its indicator out.
func (c *charge) end(interrupt bool) {
	c.using = false
	c.seq.cancel()
	if c.def.EnableTrigger != "" {
		c.owner.Animator.ResetTrigger(c.def.EnableTrigger)
	}
	if c.def.DisableTrigger != "" {
		c.owner.Animator.SetTrigger(c.def.DisableTrigger)
	}
	c.removeEffect()
	if c.listening {
		c.owner.Sheet.RemoveAttackListener(c)
		c.listening = false
		if interrupt {
			c.owner.Indicator.FadeOutBlockIndicator()
		} else {
			c.owner.Indicator.DisableBlockIndicator()
		}
	}
	if c.locked {
		c.owner.Lunger.LockForward(false)
		c.locked = false
	}
}
