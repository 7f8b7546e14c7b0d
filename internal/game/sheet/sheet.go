// Package sheet implements the character sheet: the attribute and resource
// ledger of one character, its applied status effects, and the defender side
// of attack resolution.
package sheet

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/ricochet/internal/game/effect"
	"github.com/cory-johannsen/ricochet/internal/game/stat"
)

// LifeToggler is notified whenever the character's liveness changes.
type LifeToggler interface {
	SetAlive(alive bool)
}

// Mover receives the derived movement and rotation speeds.
type Mover interface {
	SetMoveSpeed(speed float64)
	SetRotateSpeed(speed float64)
}

// StaggerReceiver reacts to a defence broken by an incoming attack.
type StaggerReceiver interface {
	DamagedStagger()
	RicochetStagger() bool
}

// ResourceSpec is the starting maximum and regeneration rate of a resource.
// Regen is expressed in units per second and may be negative.
type ResourceSpec struct {
	Max   int `yaml:"max"`
	Regen int `yaml:"regen"`
}

// Options configures a new Sheet.
type Options struct {
	Name            string
	Team            string
	BaseMoveSpeed   float64
	BaseRotateSpeed float64
	Attributes      stat.AttributeGroup
	Resources       [stat.ResourceCount]ResourceSpec
	Logger          *zap.Logger
}

type attributeRecord struct {
	current    int
	additional int
}

type resourceRecord struct {
	current         int
	max             int
	additionalMax   int
	regen           int
	additionalRegen int
}

// Sheet is the resource and attribute ledger of one character.
// It is not safe for concurrent use; the caller must serialise access.
type Sheet struct {
	id   string
	name string
	team string

	baseMoveSpeed   float64
	baseRotateSpeed float64

	attributes [stat.AttributeCount]attributeRecord
	resources  [stat.ResourceCount]resourceRecord
	// regenAcc holds sub-unit regeneration in resource-nanoseconds.
	regenAcc [stat.ResourceCount]int64

	effects   []*effect.Applied
	listeners []AttackListener

	enabled bool
	alive   bool

	toggler LifeToggler
	mover   Mover
	stagger StaggerReceiver
	logger  *zap.Logger
}

// New creates a Sheet with every resource filled to its maximum.
//
// Postcondition: Returns an enabled sheet whose liveness reflects its health.
func New(opts Options) *Sheet {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sheet{
		id:              uuid.New().String(),
		name:            opts.Name,
		team:            opts.Team,
		baseMoveSpeed:   opts.BaseMoveSpeed,
		baseRotateSpeed: opts.BaseRotateSpeed,
		enabled:         true,
	}
	s.logger = logger.With(zap.String("character", s.name), zap.String("character_id", s.id))
	for i, v := range opts.Attributes {
		s.attributes[i].current = v
	}
	for i, spec := range opts.Resources {
		s.resources[i] = resourceRecord{current: spec.Max, max: spec.Max, regen: spec.Regen}
	}
	s.alive = s.resources[stat.Health].current > 0
	return s
}

// ID returns the unique identifier of the character.
func (s *Sheet) ID() string { return s.id }

// Name returns the display name of the character.
func (s *Sheet) Name() string { return s.name }

// Team returns the team the character fights for.
func (s *Sheet) Team() string { return s.team }

// Logger returns the sheet's character-scoped logger.
func (s *Sheet) Logger() *zap.Logger { return s.logger }

// SetLifeToggler installs t and immediately reports the current liveness.
func (s *Sheet) SetLifeToggler(t LifeToggler) {
	s.toggler = t
	if t != nil {
		t.SetAlive(s.alive)
	}
}

// SetMover installs m and pushes the current derived speeds to it.
func (s *Sheet) SetMover(m Mover) {
	s.mover = m
	for a := stat.Attribute(0); a < stat.AttributeCount; a++ {
		s.updateAttribute(a)
	}
}

// SetStaggerReceiver installs the component that handles broken defences.
func (s *Sheet) SetStaggerReceiver(r StaggerReceiver) { s.stagger = r }

// Enabled reports whether the sheet takes part in the simulation.
func (s *Sheet) Enabled() bool { return s.enabled }

// Enable resumes ticking and attack resolution.
func (s *Sheet) Enable() { s.enabled = true }

// Disable suspends ticking; LandAttack becomes a no-op.
func (s *Sheet) Disable() { s.enabled = false }

// Alive reports whether health is above zero.
func (s *Sheet) Alive() bool { return s.alive }

// GetAttribute returns the live sum of base and additional values.
func (s *Sheet) GetAttribute(a stat.Attribute) int {
	return s.attributes[a].current + s.attributes[a].additional
}

// AttributeParts returns the base and additional parts of a separately.
func (s *Sheet) AttributeParts(a stat.Attribute) (current, additional int) {
	return s.attributes[a].current, s.attributes[a].additional
}

// SetAttribute replaces the base value of a.
func (s *Sheet) SetAttribute(a stat.Attribute, current int) {
	s.attributes[a].current = current
	s.updateAttribute(a)
}

// IncreaseAttribute adds delta to the additional part of a.
func (s *Sheet) IncreaseAttribute(a stat.Attribute, delta int) {
	s.attributes[a].additional += delta
	s.updateAttribute(a)
}

// updateAttribute pushes the derived speed for a to the mover.
// Speeds scale by (100 + attribute)% of base and never go negative.
func (s *Sheet) updateAttribute(a stat.Attribute) {
	if s.mover == nil {
		return
	}
	pct := float64(100+s.GetAttribute(a)) / 100
	switch a {
	case stat.MoveSpeed:
		s.mover.SetMoveSpeed(max(0, s.baseMoveSpeed*pct))
	case stat.RotateSpeed:
		s.mover.SetRotateSpeed(max(0, s.baseRotateSpeed*pct))
	}
}

// GetResource returns the current value of r.
func (s *Sheet) GetResource(r stat.Resource) int { return s.resources[r].current }

// GetResourceMax returns the effective maximum of r.
func (s *Sheet) GetResourceMax(r stat.Resource) int {
	return s.resources[r].max + s.resources[r].additionalMax
}

// GetResourceRegen returns the effective regeneration rate of r per second.
func (s *Sheet) GetResourceRegen(r stat.Resource) int {
	return s.resources[r].regen + s.resources[r].additionalRegen
}

// SetResource sets the current value of r, clamped to [0, max].
func (s *Sheet) SetResource(r stat.Resource, v int) {
	s.resources[r].current = v
	s.clampResource(r)
}

// IncreaseResource adds delta to r, clamped to [0, max].
func (s *Sheet) IncreaseResource(r stat.Resource, delta int) {
	s.resources[r].current += delta
	s.clampResource(r)
}

// SetResourceMax replaces the base maximum of r and re-clamps.
func (s *Sheet) SetResourceMax(r stat.Resource, v int) {
	s.resources[r].max = v
	s.clampResource(r)
}

// IncreaseResourceMax adds delta to the additional maximum of r and re-clamps.
func (s *Sheet) IncreaseResourceMax(r stat.Resource, delta int) {
	s.resources[r].additionalMax += delta
	s.clampResource(r)
}

// SetResourceRegen replaces the base regeneration rate of r.
func (s *Sheet) SetResourceRegen(r stat.Resource, v int) { s.resources[r].regen = v }

// IncreaseResourceRegen adds delta to the additional regeneration rate of r.
func (s *Sheet) IncreaseResourceRegen(r stat.Resource, delta int) {
	s.resources[r].additionalRegen += delta
}

// HasResources reports whether every entry of cost can be paid right now.
// It never mutates the sheet.
func (s *Sheet) HasResources(cost stat.ResourceGroup) bool {
	for i, c := range cost {
		if s.resources[i].current-c < 0 {
			return false
		}
	}
	return true
}

// IncreaseResources applies every entry of delta, or none of them.
//
// Postcondition: Returns false and leaves the sheet unchanged when any
// resource would drop below zero; otherwise all deltas are committed.
func (s *Sheet) IncreaseResources(delta stat.ResourceGroup) bool {
	for i, d := range delta {
		if s.resources[i].current+d < 0 {
			return false
		}
	}
	for i, d := range delta {
		if d != 0 {
			s.IncreaseResource(stat.Resource(i), d)
		}
	}
	return true
}

// ExpendResources pays cost atomically.
func (s *Sheet) ExpendResources(cost stat.ResourceGroup) bool {
	return s.IncreaseResources(cost.Neg())
}

// ExpendResource pays cost from a single resource.
func (s *Sheet) ExpendResource(r stat.Resource, cost int) bool {
	if s.resources[r].current-cost < 0 {
		return false
	}
	s.IncreaseResource(r, -cost)
	return true
}

// Recharge re-derives every attribute and fills every resource to its maximum.
func (s *Sheet) Recharge() {
	for a := stat.Attribute(0); a < stat.AttributeCount; a++ {
		s.updateAttribute(a)
	}
	for r := stat.Resource(0); r < stat.ResourceCount; r++ {
		s.SetResource(r, s.GetResourceMax(r))
	}
}

// CalculateAttackDamage evaluates scaler against the live attributes.
func (s *Sheet) CalculateAttackDamage(scaler stat.Scaler) int {
	return scaler.Value(s)
}

func (s *Sheet) clampResource(r stat.Resource) {
	rec := &s.resources[r]
	rec.current = max(min(rec.current, s.GetResourceMax(r)), 0)
	if r == stat.Health {
		s.checkAlive()
	}
}

func (s *Sheet) checkAlive() {
	alive := s.resources[stat.Health].current > 0
	if alive == s.alive {
		return
	}
	s.alive = alive
	if alive {
		s.logger.Debug("character revived")
		s.enabled = true
	} else {
		s.logger.Debug("character died")
		s.enabled = false
	}
	if s.toggler != nil {
		s.toggler.SetAlive(alive)
	}
}
