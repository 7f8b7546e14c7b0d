package ability

import (
	"time"

	"go.uber.org/zap"
)

// melee swings the owner's damage boxes during its active window and can
// chain into a second ability when the button is held.
type melee struct {
	core
	chain Instance
}

func (m *melee) CanUse(phase InputPhase) bool {
	switch phase {
	case Down:
		return m.HasEnded() && m.cooledDown() && m.affordable()
	case Hold:
		if !m.using || m.chain == nil {
			return false
		}
		late := m.now() - m.lastUse - m.owner.HoldDelay
		return late < m.owner.MaxHoldDifference && m.chain.CanUse(Down)
	}
	return false
}

func (m *melee) Use(phase InputPhase) {
	switch phase {
	case Down:
		if m.seq.running() {
			m.stage(3)
		}
		m.start()
		m.log().Debug("melee started")
	case Hold:
		if m.chain == nil {
			return
		}
		m.chain.Use(Down)
		if m.chain.IsUsing() {
			m.endDamage()
			m.endAbility()
		}
	}
}

func (m *melee) TryEndUse() error {
	if !m.HasEnded() {
		return ErrCannotStop
	}
	if m.seq.running() {
		m.stage(3)
	}
	if m.chain != nil {
		return m.chain.TryEndUse()
	}
	return nil
}

func (m *melee) ForceEndUse() {
	if m.using {
		m.endDamage()
		m.endAbility()
	}
	if m.chain != nil {
		m.chain.ForceEndUse()
	}
}

// HasEnded is true once the swing is past its damage window and any chained
// ability has ended too.
func (m *melee) HasEnded() bool {
	self := m.seq.phase == Idle || m.seq.phase == Recovery
	return self && (m.chain == nil || m.chain.HasEnded())
}

func (m *melee) Update(now time.Duration) {
	for st := m.seq.due(now); st != 0; st = m.seq.due(now) {
		m.stage(st)
	}
	if m.chain != nil {
		m.chain.Update(now)
	}
}

func (m *melee) OnStage(stage int) {
	if m.def.EventDriven && m.seq.running() {
		m.stage(stage)
		return
	}
	if m.chain != nil && m.chain.IsUsing() {
		m.chain.OnStage(stage)
	}
}

func (m *melee) stage(st int) {
	if !m.seq.enter(st) {
		return
	}
	switch st {
	case 1:
		m.addEffect(m.effectDuration())
		dmg := m.owner.Sheet.CalculateAttackDamage(m.def.Damage)
		for _, box := range m.owner.DamageBoxes {
			box.StartAttack(m.owner.Attacker, dmg, m.def.Heft)
		}
		m.log().Debug("melee damage window open", zap.Int("damage", dmg))
	case 2:
		m.endDamage()
	case 3:
		m.removeEffect()
		m.using = false
	}
}

func (m *melee) endDamage() {
	for _, box := range m.owner.DamageBoxes {
		box.StopAttack()
	}
}

func (m *melee) endAbility() {
	m.removeEffect()
	m.using = false
	m.seq.cancel()
}
