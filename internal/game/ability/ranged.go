package ability

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/ricochet/internal/game/combat"
)

// ranged launches a projectile when its active window opens. The action ends
// at stage 2; the ability cannot be reused until stage 3 and its cooldown.
type ranged struct {
	core
}

func (r *ranged) CanUse(phase InputPhase) bool {
	return phase == Down &&
		!r.using &&
		!r.seq.running() &&
		r.cooledDown() &&
		r.affordable()
}

func (r *ranged) Use(phase InputPhase) {
	if phase != Down {
		return
	}
	r.start()
	r.log().Debug("ranged started")
}

func (r *ranged) TryEndUse() error {
	if !r.HasEnded() {
		return ErrCannotStop
	}
	return nil
}

func (r *ranged) ForceEndUse() {
	if !r.using {
		return
	}
	r.removeEffect()
	r.using = false
	r.seq.cancel()
}

func (r *ranged) HasEnded() bool { return !r.using }

func (r *ranged) Update(now time.Duration) {
	for st := r.seq.due(now); st != 0; st = r.seq.due(now) {
		r.stage(st)
	}
}

func (r *ranged) OnStage(stage int) {
	if r.def.EventDriven && r.seq.running() {
		r.stage(stage)
	}
}

func (r *ranged) stage(st int) {
	if !r.seq.enter(st) {
		return
	}
	switch st {
	case 1:
		r.addEffect(r.effectDuration())
		r.shoot()
	case 2:
		r.removeEffect()
		r.using = false
	}
}

func (r *ranged) shoot() {
	if r.owner.Spawner == nil || r.owner.Body == nil {
		r.log().Warn("ranged ability has no spawner or body")
		return
	}
	dmg := r.owner.Sheet.CalculateAttackDamage(r.def.Damage)
	p := combat.NewProjectile(r.def.Projectile,
		r.owner.Body.Position(),
		r.owner.Body.Forward(),
		dmg, r.def.Heft, r.owner.Sheet)
	r.owner.Spawner.SpawnProjectile(p)
	r.log().Debug("projectile spawned", zap.String("projectile", p.ID), zap.Int("damage", dmg))
}
