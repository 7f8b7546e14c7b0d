// Package ability implements the per-character runtime of melee, ranged,
// block, parry and charge abilities as explicit phase machines driven by a
// simulation clock or by animation events.
package ability

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/ricochet/internal/game/combat"
	"github.com/cory-johannsen/ricochet/internal/game/presentation"
	"github.com/cory-johannsen/ricochet/internal/game/sheet"
)

// ErrCannotStop is returned by TryEndUse when the ability is mid-action.
var ErrCannotStop = errors.New("ability cannot stop now")

// Clock reports simulated time since the start of the simulation.
type Clock interface {
	Now() time.Duration
}

// InputPhase is the state of the button bound to an ability.
type InputPhase int

const (
	Up InputPhase = iota
	Down
	Hold
)

func (p InputPhase) String() string {
	switch p {
	case Up:
		return "up"
	case Down:
		return "down"
	case Hold:
		return "hold"
	}
	return fmt.Sprintf("InputPhase(%d)", int(p))
}

// Phase is the lifecycle position of an ability use.
type Phase int

const (
	Idle Phase = iota
	Windup
	Active
	Recovery
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Windup:
		return "windup"
	case Active:
		return "active"
	case Recovery:
		return "recovery"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Lunger is a body that can be driven straight along its facing.
type Lunger interface {
	// LockForward makes the body walk forward without turning until unlocked.
	LockForward(locked bool)
}

// Owner bundles the collaborators of the character an ability belongs to.
type Owner struct {
	Sheet     *sheet.Sheet
	Clock     Clock
	Body      combat.Body
	Attacker  combat.Attacker
	Animator  presentation.Animator
	Indicator presentation.Indicator
	Spawner   combat.Spawner
	// Lunger is optional; without it a charge guards and hits in place.
	Lunger Lunger
	// DamageBoxes are armed by melee abilities during their damage window.
	DamageBoxes []*combat.DamageBox
	Logger      *zap.Logger
	// HoldDelay is how long a button must be held before it reports Hold.
	HoldDelay time.Duration
	// MaxHoldDifference is the tolerance around HoldDelay for hold chains.
	MaxHoldDifference time.Duration
}

// Instance is one character's live copy of an ability.
//
// It is not safe for concurrent use; the caller must serialise access.
type Instance interface {
	Def() *Def
	CanUse(phase InputPhase) bool
	Use(phase InputPhase)
	// TryEndUse ends the ability cooperatively, or returns ErrCannotStop.
	TryEndUse() error
	// ForceEndUse reverses everything applied so far. It is idempotent.
	ForceEndUse()
	HasEnded() bool
	IsUsing() bool
	Phase() Phase
	// Update advances timed stages whose deadline has passed.
	Update(now time.Duration)
	// OnStage advances an event-driven ability on an animation event.
	OnStage(stage int)
	Mirror() bool
	SetMirror(mirror bool)
}

// New creates the instance for def bound to owner.
//
// Precondition: def must not be nil; owner.Sheet and owner.Clock must not be nil.
// Postcondition: Returns an error for an unknown kind or a failing chain.
func New(def *Def, owner Owner) (Instance, error) {
	if owner.Sheet == nil {
		panic("ability.New: owner.Sheet must not be nil")
	}
	if owner.Clock == nil {
		panic("ability.New: owner.Clock must not be nil")
	}
	if owner.Logger == nil {
		owner.Logger = zap.NewNop()
	}
	if owner.Animator == nil {
		owner.Animator = presentation.Nop{}
	}
	if owner.Indicator == nil {
		owner.Indicator = presentation.Nop{}
	}
	if def.UseEffect != "" && def.Effect() == nil {
		owner.Logger.Warn("ability use effect unresolved",
			zap.String("ability", def.ID),
			zap.String("effect", def.UseEffect),
		)
	}
	if (def.Kind == KindBlock || def.Kind == KindParry || def.Kind == KindCharge) && owner.Body == nil {
		return nil, fmt.Errorf("ability %q: %s needs an owner body", def.ID, def.Kind)
	}
	c := core{def: def, owner: owner, seq: sequence{ts: def.Timestamps, eventDriven: def.EventDriven}}
	switch def.Kind {
	case KindMelee:
		m := &melee{core: c}
		if chain := def.Chain(); chain != nil {
			inst, err := New(chain, owner)
			if err != nil {
				return nil, fmt.Errorf("ability %q chain: %w", def.ID, err)
			}
			m.chain = inst
		}
		return m, nil
	case KindRanged:
		return &ranged{core: c}, nil
	case KindBlock:
		return &block{core: c}, nil
	case KindParry:
		return &parry{core: c}, nil
	case KindCharge:
		return &charge{core: c}, nil
	}
	owner.Logger.Warn("unknown ability kind", zap.String("ability", def.ID), zap.String("kind", string(def.Kind)))
	return nil, fmt.Errorf("ability %q: unknown kind %q", def.ID, def.Kind)
}

// sequence tracks the stage boundaries of one use. Stage 1 opens the
// active window, stage 2 enters recovery and stage 3 returns to idle.
type sequence struct {
	phase       Phase
	start       time.Duration
	ts          Timestamps
	eventDriven bool
}

func (s *sequence) begin(now time.Duration) {
	s.phase = Windup
	s.start = now
}

func (s *sequence) running() bool { return s.phase != Idle }

// due returns the next stage whose deadline has passed, or 0.
func (s *sequence) due(now time.Duration) int {
	if s.eventDriven || s.phase == Idle {
		return 0
	}
	next := int(s.phase)
	if now-s.start >= s.ts[next-1] {
		return next
	}
	return 0
}

// enter moves to the phase following stage. It reports false when stage is
// not the next one.
func (s *sequence) enter(stage int) bool {
	if s.phase == Idle || stage != int(s.phase) {
		return false
	}
	if stage == 3 {
		s.phase = Idle
	} else {
		s.phase = Phase(stage + 1)
	}
	return true
}

func (s *sequence) cancel() { s.phase = Idle }

// core holds state shared by every ability kind.
type core struct {
	def     *Def
	owner   Owner
	seq     sequence
	using   bool
	used    bool
	lastUse time.Duration
	mirror  bool
	// effectOn records whether the use effect is currently applied by us.
	effectOn bool
}

func (c *core) Def() *Def { return c.def }

func (c *core) Phase() Phase { return c.seq.phase }

func (c *core) IsUsing() bool { return c.using }

func (c *core) Mirror() bool { return c.mirror }

func (c *core) SetMirror(mirror bool) { c.mirror = mirror }

func (c *core) now() time.Duration { return c.owner.Clock.Now() }

// cooledDown reports whether the cooldown has elapsed; the boundary is usable.
func (c *core) cooledDown() bool {
	return !c.used || c.now()-c.lastUse >= c.def.Cooldown
}

func (c *core) affordable() bool {
	return c.owner.Sheet.HasResources(c.def.Cost)
}

// start commits the cost and begins the stage sequence.
func (c *core) start() {
	c.owner.Sheet.ExpendResources(c.def.Cost)
	now := c.now()
	c.used = true
	c.lastUse = now
	c.using = true
	c.seq.begin(now)
	if c.def.Trigger != "" {
		c.owner.Animator.SetTrigger(c.def.Trigger)
	}
}

// effectDuration is the use effect's own duration, or 0 without one.
func (c *core) effectDuration() time.Duration {
	if e := c.def.Effect(); e != nil {
		return e.DefaultDuration()
	}
	return 0
}

func (c *core) addEffect(d time.Duration) {
	e := c.def.Effect()
	if e == nil {
		return
	}
	c.owner.Sheet.AddEffectWithDuration(e, d)
	c.effectOn = true
}

func (c *core) removeEffect() {
	if !c.effectOn {
		return
	}
	c.owner.Sheet.RemoveEffect(c.def.Effect())
	c.effectOn = false
}

func (c *core) log() *zap.Logger {
	return c.owner.Logger.With(zap.String("ability", c.def.ID), zap.String("character", c.owner.Sheet.ID()))
}
