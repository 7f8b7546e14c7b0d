// Package fighter dispatches ability input for one character and owns its
// stagger and poise state.
package fighter

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/cory-johannsen/ricochet/internal/game/ability"
	"github.com/cory-johannsen/ricochet/internal/game/combat"
	"github.com/cory-johannsen/ricochet/internal/game/effect"
	"github.com/cory-johannsen/ricochet/internal/game/presentation"
	"github.com/cory-johannsen/ricochet/internal/game/sheet"
)

// Rejections returned by the input operations. None of them change state.
var (
	ErrStaggered   = errors.New("fighter is staggered")
	ErrEmptySlot   = errors.New("ability slot is empty")
	ErrAbilityBusy = errors.New("last ability cannot be stopped")
	ErrCannotUse   = errors.New("ability cannot be used now")
)

// Slot indexes the four ability bindings.
type Slot int

const (
	L1 Slot = iota
	L2
	R1
	R2
	SlotCount
)

func (s Slot) String() string {
	switch s {
	case L1:
		return "L1"
	case L2:
		return "L2"
	case R1:
		return "R1"
	case R2:
		return "R2"
	}
	return fmt.Sprintf("Slot(%d)", int(s))
}

// Valid reports whether s is one of the four slots.
func (s Slot) Valid() bool { return s >= L1 && s < SlotCount }

// Config holds stagger, poise and hold timings.
type Config struct {
	StaggerDuration   time.Duration
	RicochetDuration  time.Duration
	HoldDelay         time.Duration
	MaxHoldDifference time.Duration
	BasePoise         time.Duration
	PoiseGrowth       time.Duration
	PoiseReset        time.Duration
	// StaggerEffect is applied for as long as the fighter is staggered.
	StaggerEffect *effect.Def
}

// DefaultConfig returns the stock timings.
func DefaultConfig() Config {
	return Config{
		StaggerDuration:   time.Second,
		RicochetDuration:  1500 * time.Millisecond,
		HoldDelay:         200 * time.Millisecond,
		MaxHoldDifference: 100 * time.Millisecond,
		BasePoise:         time.Second,
		PoiseGrowth:       time.Second,
		PoiseReset:        500 * time.Millisecond,
	}
}

// Arms is an equipped item that supplies abilities to some of the slots.
type Arms interface {
	// MappedAbilities returns the instance bound to each slot, nil where the
	// item does not bind one.
	MappedAbilities() [SlotCount]ability.Instance
}

// Options configures a Fighter.
type Options struct {
	Sheet     *sheet.Sheet
	Clock     ability.Clock
	Body      combat.Body
	Animator  presentation.Animator
	Indicator presentation.Indicator
	Flicker   presentation.Flicker
	Spawner   combat.Spawner
	Logger    *zap.Logger
	Config    Config
}

type binding struct {
	inst ability.Instance
	src  any
}

// Fighter routes button input to the abilities in its slots.
//
// It is not safe for concurrent use; the caller must serialise access.
type Fighter struct {
	sheet     *sheet.Sheet
	clock     ability.Clock
	body      combat.Body
	animator  presentation.Animator
	indicator presentation.Indicator
	flicker   presentation.Flicker
	spawner   combat.Spawner
	logger    *zap.Logger
	cfg       Config

	current     [SlotCount]binding
	defaults    [SlotCount]ability.Instance
	inputs      [SlotCount]ability.InputPhase
	holdPending [SlotCount]bool
	holdAt      [SlotCount]time.Duration
	last        ability.Instance

	staggered    bool
	staggerUntil time.Duration

	poised        bool
	poiseRunning  bool
	poiseResetted bool
	poiseDuration time.Duration
	poiseUntil    time.Duration
	poiseResetAt  time.Duration
}

// New creates a Fighter and registers it as the sheet's stagger receiver.
//
// Precondition: opts.Sheet and opts.Clock must not be nil.
func New(opts Options) *Fighter {
	if opts.Sheet == nil {
		panic("fighter.New: opts.Sheet must not be nil")
	}
	if opts.Clock == nil {
		panic("fighter.New: opts.Clock must not be nil")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Animator == nil {
		opts.Animator = presentation.Nop{}
	}
	if opts.Indicator == nil {
		opts.Indicator = presentation.Nop{}
	}
	if opts.Flicker == nil {
		opts.Flicker = presentation.Nop{}
	}
	f := &Fighter{
		sheet:         opts.Sheet,
		clock:         opts.Clock,
		body:          opts.Body,
		animator:      opts.Animator,
		indicator:     opts.Indicator,
		flicker:       opts.Flicker,
		spawner:       opts.Spawner,
		logger:        opts.Logger.With(zap.String("character", opts.Sheet.ID())),
		cfg:           opts.Config,
		poiseDuration: opts.Config.BasePoise,
		poiseResetted: true,
	}
	opts.Sheet.SetStaggerReceiver(f)
	return f
}

// Sheet returns the fighter's character sheet.
func (f *Fighter) Sheet() *sheet.Sheet { return f.sheet }

// Position returns the body position, or the origin without a body.
func (f *Fighter) Position() mgl64.Vec3 {
	if f.body == nil {
		return mgl64.Vec3{}
	}
	return f.body.Position()
}

// AbilityOwner returns the collaborator bundle for abilities created for
// this fighter, arming boxes during melee swings.
func (f *Fighter) AbilityOwner(boxes []*combat.DamageBox) ability.Owner {
	lunger, _ := f.body.(ability.Lunger)
	return ability.Owner{
		Sheet:             f.sheet,
		Clock:             f.clock,
		Body:              f.body,
		Attacker:          f,
		Animator:          f.animator,
		Indicator:         f.indicator,
		Spawner:           f.spawner,
		Lunger:            lunger,
		DamageBoxes:       boxes,
		Logger:            f.logger,
		HoldDelay:         f.cfg.HoldDelay,
		MaxHoldDifference: f.cfg.MaxHoldDifference,
	}
}

// SetDefault sets the ability a slot falls back to when nothing else is
// bound. An unbound slot takes it immediately.
func (f *Fighter) SetDefault(i Slot, inst ability.Instance) {
	f.defaults[i] = inst
	if f.current[i].inst == nil || f.current[i].src == nil {
		f.current[i] = binding{inst: inst}
	}
}

// AddAbility binds inst to slot i on behalf of src. A nil inst restores the
// default.
func (f *Fighter) AddAbility(i Slot, inst ability.Instance, src any) {
	if inst == nil {
		f.RemoveAbility(i)
		return
	}
	f.current[i] = binding{inst: inst, src: src}
}

// RemoveAbility restores slot i to its default.
func (f *Fighter) RemoveAbility(i Slot) {
	f.current[i] = binding{inst: f.defaults[i]}
}

// Ability returns the instance bound to slot i, or nil.
func (f *Fighter) Ability(i Slot) ability.Instance { return f.current[i].inst }

// LastAbility returns the most recently used instance, or nil.
func (f *Fighter) LastAbility() ability.Instance { return f.last }

// Input returns the recorded input phase of slot i.
func (f *Fighter) Input(i Slot) ability.InputPhase { return f.inputs[i] }

// EquipArmament binds every ability a supplies.
func (f *Fighter) EquipArmament(a Arms) {
	for i, inst := range a.MappedAbilities() {
		if inst != nil {
			f.AddAbility(Slot(i), inst, a)
		}
	}
}

// UnequipArmament restores every slot bound by a to its default.
func (f *Fighter) UnequipArmament(a Arms) {
	for i := range f.current {
		if f.current[i].src == a {
			f.RemoveAbility(Slot(i))
		}
	}
}

// TryStopArms stops the last ability if src supplied it.
//
// Postcondition: Returns ErrAbilityBusy when that ability cannot stop.
func (f *Fighter) TryStopArms(src any) error {
	if f.last == nil {
		return nil
	}
	for _, b := range f.current {
		if b.src == src && b.inst == f.last {
			return f.TryStopLastAbility()
		}
	}
	return nil
}

// UseAbility records a button press or release on slot i and triggers the
// bound ability. A press becomes a hold after HoldDelay unless released.
func (f *Fighter) UseAbility(i Slot, down bool) error {
	if !i.Valid() {
		return fmt.Errorf("%w: %s", ErrEmptySlot, i)
	}
	if down {
		if f.inputs[i] != ability.Hold {
			f.holdPending[i] = true
			f.holdAt[i] = f.clock.Now() + f.cfg.HoldDelay
		}
	} else {
		f.holdPending[i] = false
	}
	f.inputs[i] = phaseOf(down)
	return f.TriggerAbility(i, f.inputs[i])
}

// UseAbilityNoHold is UseAbility without the switch to hold.
func (f *Fighter) UseAbilityNoHold(i Slot, down bool) error {
	if !i.Valid() {
		return fmt.Errorf("%w: %s", ErrEmptySlot, i)
	}
	if !down {
		f.holdPending[i] = false
	}
	f.inputs[i] = phaseOf(down)
	return f.TriggerAbility(i, f.inputs[i])
}

func phaseOf(down bool) ability.InputPhase {
	if down {
		return ability.Down
	}
	return ability.Up
}

// TriggerAbility dispatches phase to the ability in slot i.
//
// Postcondition: Returns nil when the ability was used. Switching away from
// a different last ability requires it to have ended for a hold, or to stop
// cooperatively for a press or release.
func (f *Fighter) TriggerAbility(i Slot, phase ability.InputPhase) error {
	if f.staggered {
		return ErrStaggered
	}
	if !i.Valid() || f.current[i].inst == nil {
		f.logger.Warn("ability slot is empty", zap.Stringer("slot", i))
		return fmt.Errorf("%w: %s", ErrEmptySlot, i)
	}
	inst := f.current[i].inst
	checked := false
	if f.last != inst {
		if phase == ability.Hold {
			if !f.HasLastAbilityEnded() {
				return ErrAbilityBusy
			}
		} else {
			if !inst.CanUse(phase) {
				return ErrCannotUse
			}
			if err := f.TryStopLastAbility(); err != nil {
				return err
			}
			checked = true
		}
	}
	if !checked && !inst.CanUse(phase) {
		return ErrCannotUse
	}
	f.last = inst
	f.animator.SetBool(presentation.BoolMirror, inst.Mirror())
	inst.Use(phase)
	return nil
}

// HasLastAbilityEnded reports whether there is no last ability or it ended.
func (f *Fighter) HasLastAbilityEnded() bool {
	return f.last == nil || f.last.HasEnded()
}

// TryStopLastAbility ends the last ability cooperatively.
func (f *Fighter) TryStopLastAbility() error {
	if f.last == nil {
		return nil
	}
	if err := f.last.TryEndUse(); err != nil {
		return fmt.Errorf("%w: %w", ErrAbilityBusy, err)
	}
	return nil
}

// AnimationEvent forwards an ability stage event to the last ability.
func (f *Fighter) AnimationEvent(stage int) {
	if f.last != nil {
		f.last.OnStage(stage)
	}
}

// FixedTick advances the fighter to now: stagger and poise deadlines, hold
// switching, ability stages, and finally re-firing every held slot.
func (f *Fighter) FixedTick(now time.Duration) {
	if f.staggered && now >= f.staggerUntil {
		f.resetStagger()
	}
	if f.poiseRunning {
		if f.poised && now >= f.poiseUntil {
			f.poised = false
			f.flicker.StopFlicker()
		}
		if !f.poised && now >= f.poiseResetAt {
			f.resetPoise()
		}
	}
	for i := range SlotCount {
		if f.holdPending[i] && now >= f.holdAt[i] {
			f.holdPending[i] = false
			f.inputs[i] = ability.Hold
		}
	}
	f.updateAbilities(now)
	for i := range SlotCount {
		if f.inputs[i] == ability.Hold {
			_ = f.TriggerAbility(i, ability.Hold)
		}
	}
}

func (f *Fighter) updateAbilities(now time.Duration) {
	seen := make(map[ability.Instance]struct{}, SlotCount+1)
	update := func(inst ability.Instance) {
		if inst == nil {
			return
		}
		if _, ok := seen[inst]; ok {
			return
		}
		seen[inst] = struct{}{}
		inst.Update(now)
	}
	for _, b := range f.current {
		update(b.inst)
	}
	update(f.last)
}

// Disable force-ends the last ability and clears stagger, poise and held
// input.
func (f *Fighter) Disable() {
	if f.last != nil {
		f.last.ForceEndUse()
	}
	f.resetStagger()
	if f.poised {
		f.flicker.StopFlicker()
	}
	f.resetPoise()
	for i := range SlotCount {
		f.holdPending[i] = false
		f.inputs[i] = ability.Up
	}
}
