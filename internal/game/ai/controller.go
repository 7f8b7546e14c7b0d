// Package ai drives a fighter the way a player would: it picks an ability,
// closes to that ability's engage range and presses the button.
package ai

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/ricochet/internal/game/ability"
	"github.com/cory-johannsen/ricochet/internal/game/dice"
	"github.com/cory-johannsen/ricochet/internal/game/fighter"
	"github.com/cory-johannsen/ricochet/internal/game/sheet"
	"github.com/cory-johannsen/ricochet/internal/game/stat"
	"github.com/cory-johannsen/ricochet/internal/scripting"
)

const (
	// PredictAhead is how far into the future the target's position is extrapolated.
	PredictAhead = 150 * time.Millisecond
	// RangeVariation is the fractional spread applied to each engage range.
	RangeVariation = 0.15
	// StrafeAngle is the bearing offset in degrees when circling the target.
	StrafeAngle = 10.0
	// HoldChance is the probability an ability is pressed with hold enabled.
	HoldChance = 0.5
	// ChooseHook is the optional Lua function consulted for each choice.
	ChooseHook = "choose_ability"

	neutral     = -1
	nothing     = -2
	maxAttempts = 999
)

// DefaultNeutral is the stand-off manoeuvre chosen alongside abilities.
var DefaultNeutral = ability.Manual{
	ChoiceWeighting: 1,
	EngageRange:     4,
	HoldDuration:    time.Second,
}

// Mover steers the controlled body.
type Mover interface {
	Position() mgl64.Vec3
	SetDestination(dest mgl64.Vec3)
	LookAt(dir mgl64.Vec3)
	Stop()
}

// Combatant is anything the controller can target.
type Combatant interface {
	Sheet() *sheet.Sheet
	Position() mgl64.Vec3
	Velocity() mgl64.Vec3
}

// ScriptCaller is the interface required to consult Lua choice hooks.
type ScriptCaller interface {
	// CallHookFunc calls a named Lua function with arguments built in its VM.
	// Returns (LNil, nil) if the function is not defined.
	CallHookFunc(key, hook string, build func(L *lua.LState) []lua.LValue) (lua.LValue, error)
}

// Options configures a Controller.
type Options struct {
	Fighter *fighter.Fighter
	Mover   Mover
	// Resolve maps an attacking sheet to a targetable combatant, or nil.
	Resolve func(*sheet.Sheet) Combatant
	Roller  *dice.Roller
	// Scripts and ScriptKey enable the choose_ability hook when both are set.
	Scripts   ScriptCaller
	ScriptKey string
	// Neutral overrides DefaultNeutral when its weighting is positive.
	Neutral ability.Manual
	Logger  *zap.Logger
}

// Controller is a peer of the input layer: it only uses the fighter's
// public ability API.
//
// It is not safe for concurrent use; the caller must serialise access.
type Controller struct {
	f         *fighter.Fighter
	mover     Mover
	resolve   func(*sheet.Sheet) Combatant
	roller    *dice.Roller
	scripts   ScriptCaller
	scriptKey string
	neutral   ability.Manual
	logger    *zap.Logger

	target  Combatant
	enabled bool

	active     bool
	chosen     int
	lastChosen int
	manual     ability.Manual
	rotate     int
	variance   float64
	used       bool
	usedAt     time.Duration
}

// New creates a disabled Controller; call Enable to start sensing attacks.
//
// Precondition: Fighter, Mover and Roller must not be nil.
func New(opts Options) *Controller {
	if opts.Fighter == nil || opts.Mover == nil || opts.Roller == nil {
		panic("ai.New: fighter, mover and roller must not be nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	neutralMove := DefaultNeutral
	if opts.Neutral.ChoiceWeighting > 0 {
		neutralMove = opts.Neutral
	}
	resolve := opts.Resolve
	if resolve == nil {
		resolve = func(*sheet.Sheet) Combatant { return nil }
	}
	return &Controller{
		f:          opts.Fighter,
		mover:      opts.Mover,
		resolve:    resolve,
		roller:     opts.Roller,
		scripts:    opts.Scripts,
		scriptKey:  opts.ScriptKey,
		neutral:    neutralMove,
		logger:     logger,
		chosen:     nothing,
		lastChosen: nothing,
		rotate:     nothing,
	}
}

// Target returns the current target, or nil.
func (c *Controller) Target() Combatant { return c.target }

// Chosen returns the slot of the current choice, -1 for the neutral move,
// and ok=false when no action is in progress.
func (c *Controller) Chosen() (slot int, ok bool) { return c.chosen, c.active }

// Enable registers the controller as an attack listener on its own sheet.
func (c *Controller) Enable() {
	if c.enabled {
		return
	}
	c.enabled = true
	c.f.Sheet().AddAttackListener(c)
}

// Disable stops movement, abandons the current action and stops listening.
func (c *Controller) Disable() {
	if !c.enabled {
		return
	}
	c.enabled = false
	c.f.Sheet().RemoveAttackListener(c)
	c.mover.Stop()
	c.active = false
}

// OnAttacked senses the attacker and never defends.
func (c *Controller) OnAttacked(hit sheet.Hit) sheet.DefenceFeedback {
	c.SenseThreat(hit.Attacker)
	return sheet.DefenceFeedback{}
}

// SenseThreat considers attacker as a target. Teammates are ignored; a new
// attacker replaces a live target only when it is closer.
func (c *Controller) SenseThreat(attacker *sheet.Sheet) {
	own := c.f.Sheet()
	if attacker == nil || attacker == own {
		return
	}
	if own.Team() != "" && attacker.Team() == own.Team() {
		return
	}
	candidate := c.resolve(attacker)
	if candidate == nil {
		return
	}
	if c.targetAlive() {
		pos := c.mover.Position()
		if pos.Sub(candidate.Position()).LenSqr() >= pos.Sub(c.target.Position()).LenSqr() {
			return
		}
	}
	c.target = candidate
	c.logger.Debug("target acquired", zap.String("target", attacker.Name()))
}

func (c *Controller) targetAlive() bool {
	if c.target == nil {
		return false
	}
	s := c.target.Sheet()
	return s.Enabled() && s.Alive()
}

// Update advances the current action by one tick.
func (c *Controller) Update(now time.Duration) {
	if !c.enabled {
		return
	}
	if !c.targetAlive() {
		if c.active {
			c.mover.Stop()
			c.active = false
		}
		return
	}
	if !c.active {
		c.choose()
	}
	c.pursue(now)
}

type candidate struct {
	slot   int
	manual ability.Manual
	id     string
}

func (c *Controller) candidates() []candidate {
	out := []candidate{{slot: neutral, manual: c.neutral, id: "neutral"}}
	for i := fighter.L1; i < fighter.SlotCount; i++ {
		if inst := c.f.Ability(i); inst != nil {
			def := inst.Def()
			out = append(out, candidate{slot: int(i), manual: def.Manual, id: def.ID})
		}
	}
	return out
}

func (c *Controller) choose() {
	cands := c.candidates()
	pick, ok := c.scriptedChoice(cands)
	if !ok {
		weights := make([]float64, len(cands))
		for i, cd := range cands {
			weights[i] = cd.manual.ChoiceWeighting
		}
		for attempt := 0; attempt < maxAttempts; attempt++ {
			pick = c.roller.Weighted("ability", weights)
			if pick < 0 {
				pick = 0
				break
			}
			if cands[pick].manual.Repeatable || cands[pick].slot != c.lastChosen {
				break
			}
		}
	}

	chosen := cands[pick]
	c.chosen = chosen.slot
	c.lastChosen = chosen.slot
	c.manual = chosen.manual

	dir := c.rotate
	for dir == c.rotate {
		dir = c.roller.Source().Intn(3) - 1
	}
	c.rotate = dir
	c.variance = c.roller.Spread(1, RangeVariation)
	c.used = false
	c.active = true
	c.logger.Debug("action chosen",
		zap.String("ability", chosen.id),
		zap.Int("slot", chosen.slot),
		zap.Int("strafe", c.rotate),
		zap.Float64("range", c.manual.EngageRange*c.variance),
	)
}

// scriptedChoice asks the Lua hook for a slot. The hook receives the
// candidate list and the target, and returns a slot number or nil.
func (c *Controller) scriptedChoice(cands []candidate) (int, bool) {
	if c.scripts == nil || c.scriptKey == "" {
		return 0, false
	}
	target := c.target.Sheet()
	ret, err := c.scripts.CallHookFunc(c.scriptKey, ChooseHook, func(L *lua.LState) []lua.LValue {
		list := L.NewTable()
		for _, cd := range cands {
			t := L.NewTable()
			L.SetField(t, "slot", lua.LNumber(cd.slot))
			L.SetField(t, "ability", lua.LString(cd.id))
			L.SetField(t, "weight", lua.LNumber(cd.manual.ChoiceWeighting))
			L.SetField(t, "range", lua.LNumber(cd.manual.EngageRange))
			list.Append(t)
		}
		info := scripting.CombatantTable(L, &scripting.CombatantInfo{
			ID:        target.ID(),
			Name:      target.Name(),
			Team:      target.Team(),
			Health:    target.GetResource(stat.Health),
			MaxHealth: target.GetResourceMax(stat.Health),
			Distance:  c.mover.Position().Sub(c.target.Position()).Len(),
		})
		return []lua.LValue{list, info}
	})
	if err != nil || ret == lua.LNil {
		return 0, false
	}
	n, ok := ret.(lua.LNumber)
	if !ok {
		c.logger.Warn("choose_ability returned a non-number", zap.String("type", ret.Type().String()))
		return 0, false
	}
	for i, cd := range cands {
		if cd.slot == int(n) {
			return i, true
		}
	}
	c.logger.Warn("choose_ability returned an unknown slot", zap.Int("slot", int(n)))
	return 0, false
}

func (c *Controller) pursue(now time.Duration) {
	predicted := c.target.Position().Add(c.target.Velocity().Mul(PredictAhead.Seconds()))
	self := c.mover.Position()
	diff := self.Sub(predicted)
	reach := c.manual.EngageRange * c.variance

	away := diff
	if away.LenSqr() > 0 {
		away = away.Normalize()
	}
	if c.rotate != 0 {
		rad := float64(c.rotate) * StrafeAngle * math.Pi / 180
		away = mgl64.Rotate3DY(rad).Mul3x1(away)
	}
	dest := predicted.Add(away.Mul(reach))
	dest[1] = predicted[1]
	c.mover.SetDestination(dest)
	c.mover.LookAt(diff.Mul(-1))

	switch {
	case !c.used && diff.LenSqr() <= reach*reach && !c.f.IsStaggered():
		if err := c.f.TryStopLastAbility(); err != nil {
			return
		}
		c.used = true
		c.usedAt = now
		if c.chosen == neutral {
			return
		}
		slot := fighter.Slot(c.chosen)
		var err error
		if c.roller.Chance("hold", HoldChance) {
			err = c.f.UseAbility(slot, true)
		} else {
			err = c.f.UseAbilityNoHold(slot, true)
		}
		if err != nil {
			c.logger.Debug("ability rejected", zap.Int("slot", c.chosen), zap.Error(err))
			c.finish()
		}
	case c.used && now-c.usedAt > c.manual.HoldDuration:
		if c.chosen != neutral {
			_ = c.f.UseAbility(fighter.Slot(c.chosen), false)
		}
		c.finish()
	}
}

func (c *Controller) finish() {
	c.active = false
}
