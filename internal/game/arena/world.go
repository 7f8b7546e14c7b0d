package arena

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/cory-johannsen/ricochet/internal/config"
	"github.com/cory-johannsen/ricochet/internal/game/ability"
	"github.com/cory-johannsen/ricochet/internal/game/ai"
	"github.com/cory-johannsen/ricochet/internal/game/character"
	"github.com/cory-johannsen/ricochet/internal/game/combat"
	"github.com/cory-johannsen/ricochet/internal/game/dice"
	"github.com/cory-johannsen/ricochet/internal/game/fighter"
	"github.com/cory-johannsen/ricochet/internal/game/presentation"
	"github.com/cory-johannsen/ricochet/internal/game/sheet"
	"github.com/cory-johannsen/ricochet/internal/game/stat"
	"github.com/cory-johannsen/ricochet/internal/observability"
)

// Actor is a character placed in the world.
type Actor struct {
	Character  *character.Character
	Body       *Body
	Controller *ai.Controller

	spawn  mgl64.Vec3
	facing mgl64.Vec3
	logger *zap.Logger
}

func (a *Actor) Sheet() *sheet.Sheet { return a.Character.Sheet }

func (a *Actor) Position() mgl64.Vec3 { return a.Body.Position() }

func (a *Actor) Velocity() mgl64.Vec3 { return a.Body.Velocity() }

// Knock sends the actor's body sliding.
func (a *Actor) Knock(velocity mgl64.Vec3) { a.Body.Knock(velocity) }

// SetAlive keeps the body and controller in step with the sheet's liveness.
func (a *Actor) SetAlive(alive bool) {
	a.Body.SetAlive(alive)
	if alive {
		if a.Controller != nil {
			a.Controller.Enable()
		}
		return
	}
	if a.Controller != nil {
		a.Controller.Disable()
	}
	a.Character.Fighter.Disable()
	for _, box := range a.Character.DamageBoxes() {
		if box.Armed() {
			box.StopAttack()
		}
	}
	a.logger.Info("character down")
}

// Options configures a World.
type Options struct {
	Simulation config.SimulationConfig
	Combat     config.CombatConfig
	Arena      config.ArenaConfig
	Content    character.Content
	// Fighter carries the combat timings with the stagger effect resolved.
	Fighter fighter.Config
	Roller  *dice.Roller
	// Scripts enables Lua choice hooks for templates naming a script.
	Scripts ai.ScriptCaller
	Logger  *zap.Logger
}

// World owns every actor, projectile, hazard and pickup of one arena.
//
// It is not safe for concurrent use; the caller must serialise access.
type World struct {
	clock   *Clock
	started time.Duration
	opts    Options
	logger  *zap.Logger
	actors  []*Actor
	bySheet map[*sheet.Sheet]*Actor

	projectiles []*combat.Projectile
	hazards     []*combat.Hazard
	pickups     []*combat.HealthPickup
}

// New creates an empty world.
//
// Precondition: opts.Roller must not be nil; opts.Simulation.FixedDelta > 0.
func New(opts Options) *World {
	if opts.Roller == nil {
		panic("arena.New: roller must not be nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Logger = logger
	return &World{
		clock:   NewClock(opts.Simulation.FixedDelta),
		opts:    opts,
		logger:  logger,
		bySheet: make(map[*sheet.Sheet]*Actor),
	}
}

// Clock returns the world's simulation clock.
func (w *World) Clock() *Clock { return w.clock }

// Elapsed returns the simulated time since the current round started.
func (w *World) Elapsed() time.Duration { return w.clock.Now() - w.started }

// Actors returns every spawned actor in spawn order.
func (w *World) Actors() []*Actor { return w.actors }

// Projectiles returns the projectiles still in flight.
func (w *World) Projectiles() []*combat.Projectile { return w.projectiles }

// Spawn builds a character from tmpl at pos facing forward. Templates with
// the ai controller get a controller that starts enabled.
//
// Postcondition: Returns the placed actor or a non-nil error from building it.
func (w *World) Spawn(tmpl *character.Template, pos, forward mgl64.Vec3) (*Actor, error) {
	if tmpl == nil {
		return nil, errors.New("arena.Spawn: template must not be nil")
	}
	body := NewBody(pos, forward)
	present := presentation.NewLogged(w.logger.With(zap.String("character", tmpl.Name)))
	ch, err := character.Build(tmpl, w.opts.Content, character.BuildOptions{
		Clock:           w.clock,
		Body:            body,
		Animator:        present,
		Indicator:       present,
		Flicker:         present,
		Spawner:         w,
		Logger:          w.logger,
		Fighter:         w.opts.Fighter,
		BaseMoveSpeed:   w.opts.Combat.BaseMoveSpeed,
		BaseRotateSpeed: w.opts.Combat.BaseRotateSpeed,
	})
	if err != nil {
		return nil, fmt.Errorf("arena.Spawn: %w", err)
	}
	sh := ch.Sheet
	a := &Actor{
		Character: ch,
		Body:      body,
		spawn:     pos,
		facing:    body.Forward(),
		logger:    observability.ForCharacter(w.logger, sh.ID(), sh.Name(), sh.Team()),
	}
	if tmpl.Controller == character.ControllerAI {
		ctrlOpts := ai.Options{
			Fighter: ch.Fighter,
			Mover:   body,
			Resolve: w.resolve,
			Roller:  w.opts.Roller,
			Logger:  a.logger,
		}
		if w.opts.Scripts != nil && tmpl.Script != "" {
			ctrlOpts.Scripts = w.opts.Scripts
			ctrlOpts.ScriptKey = tmpl.Script
		}
		a.Controller = ai.New(ctrlOpts)
	}
	sh.SetMover(body)
	sh.SetLifeToggler(a)

	w.actors = append(w.actors, a)
	w.bySheet[sh] = a
	a.logger.Info("character spawned", zap.Float64("x", pos.X()), zap.Float64("z", pos.Z()))
	return a, nil
}

// SpawnProjectile puts p into flight from the next contact pass.
func (w *World) SpawnProjectile(p *combat.Projectile) {
	w.projectiles = append(w.projectiles, p)
	w.logger.Debug("projectile spawned", zap.String("projectile_id", p.ID), observability.SimTime(w.clock.Now()))
}

// AddHazard places h in the world.
func (w *World) AddHazard(h *combat.Hazard) { w.hazards = append(w.hazards, h) }

// AddPickup places p in the world.
func (w *World) AddPickup(p *combat.HealthPickup) { w.pickups = append(w.pickups, p) }

// Reset recharges every actor and returns it to its spawn point, clearing
// projectiles and starting a new round. The clock keeps running so cooldowns
// stay consistent.
func (w *World) Reset() {
	w.started = w.clock.Now()
	w.projectiles = nil
	for _, a := range w.actors {
		a.Body.Place(a.spawn, a.facing)
		a.Character.Sheet.Recharge()
		a.Character.Fighter.Disable()
		for _, h := range w.hazards {
			h.Exit(a.Sheet())
		}
	}
}

func (w *World) resolve(s *sheet.Sheet) ai.Combatant {
	if a, ok := w.bySheet[s]; ok {
		return a
	}
	return nil
}

// Step runs one fixed tick: sheets regenerate and expire effects, controllers
// decide, fighters tick and bodies move, contacts resolve, and the clock
// advances.
func (w *World) Step() {
	dt, now := w.clock.Delta(), w.clock.Now()
	for _, a := range w.actors {
		a.Character.Sheet.FixedTick(dt)
	}
	for _, a := range w.actors {
		if a.Controller == nil || !a.Sheet().Alive() {
			continue
		}
		if enemy := w.nearestEnemy(a); enemy != nil {
			a.Controller.SenseThreat(enemy.Sheet())
		}
		a.Controller.Update(now)
	}
	for _, a := range w.actors {
		a.Character.Fighter.FixedTick(now)
		a.Body.Step(dt)
	}
	w.meleeContacts()
	w.chargeContacts()
	w.projectileContacts(dt)
	w.environmentContacts()
	w.clock.Advance()
}

func (w *World) nearestEnemy(a *Actor) *Actor {
	var best *Actor
	bestDist := w.opts.Arena.SensorRange
	for _, b := range w.actors {
		if b == a || !hostile(a, b) || !b.Sheet().Alive() {
			continue
		}
		if d := a.Position().Sub(b.Position()).Len(); d <= bestDist {
			best, bestDist = b, d
		}
	}
	return best
}

func (w *World) meleeContacts() {
	reach := w.opts.Arena.Reach
	for _, a := range w.actors {
		for _, box := range a.Character.DamageBoxes() {
			if !box.Armed() {
				continue
			}
			for _, b := range w.actors {
				if b == a || !hostile(a, b) || !b.Sheet().Alive() {
					continue
				}
				if a.Position().Sub(b.Position()).Len() <= reach {
					box.Contact(b.Sheet())
				}
			}
		}
	}
}

// chargeContacts lets every charging ability run into the hostile bodies it
// touches, nearest first.
func (w *World) chargeContacts() {
	touch := 2 * w.opts.Arena.BodyRadius
	for _, a := range w.actors {
		if !a.Sheet().Alive() {
			continue
		}
		for i := fighter.L1; i < fighter.SlotCount; i++ {
			ch, ok := a.Character.Fighter.Ability(i).(ability.Charger)
			if !ok || !ch.Charging() {
				continue
			}
			for _, b := range w.byDistance(a) {
				if a.Position().Sub(b.Position()).Len() > touch {
					break
				}
				if ch.Contact(b) {
					break
				}
			}
		}
	}
}

// byDistance returns a's living hostiles, nearest first.
func (w *World) byDistance(a *Actor) []*Actor {
	var out []*Actor
	for _, b := range w.actors {
		if b != a && hostile(a, b) && b.Sheet().Alive() {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, func(x, y *Actor) int {
		return cmp.Compare(a.Position().Sub(x.Position()).Len(), a.Position().Sub(y.Position()).Len())
	})
	return out
}

func (w *World) projectileContacts(dt time.Duration) {
	radius := w.opts.Arena.HitRadius
	live := w.projectiles[:0]
	for _, p := range w.projectiles {
		p.Advance(dt)
		for _, b := range w.actors {
			if !p.Active() {
				break
			}
			if !b.Sheet().Alive() {
				continue
			}
			d := p.Position.Sub(b.Position()).Len()
			if b.Sheet() == p.Shooter {
				if d > radius {
					p.ExitShooter()
				}
				continue
			}
			if d <= radius && p.Impact(b.Sheet(), p.Position) {
				w.logger.Debug("projectile hit",
					zap.String("projectile_id", p.ID),
					zap.String("target", b.Sheet().Name()),
					observability.SimTime(w.clock.Now()),
				)
			}
		}
		if p.Active() {
			live = append(live, p)
		}
	}
	clear(w.projectiles[len(live):])
	w.projectiles = live
}

func (w *World) environmentContacts() {
	for _, h := range w.hazards {
		for _, a := range w.actors {
			inside := a.Sheet().Alive() && h.Contains(a.Position())
			switch {
			case inside && !h.Inside(a.Sheet()):
				h.Enter(a.Sheet(), a.Position())
			case inside:
				h.Stay(a.Sheet())
			case h.Inside(a.Sheet()):
				h.Exit(a.Sheet())
			}
		}
	}
	for _, p := range w.pickups {
		if p.Consumed() {
			continue
		}
		for _, a := range w.actors {
			s := a.Sheet()
			if !s.Alive() || s.GetResource(stat.Health) >= s.GetResourceMax(stat.Health) {
				continue
			}
			if a.Position().Sub(p.Position).Len() <= p.Radius && p.Consume(s) {
				a.logger.Debug("health pickup consumed", zap.Int("amount", p.Amount))
				break
			}
		}
	}
}

// hostile reports whether a and b are on different sides. Characters without
// a team are hostile to everyone.
func hostile(a, b *Actor) bool {
	ta, tb := a.Sheet().Team(), b.Sheet().Team()
	return ta == "" || ta != tb
}

// SpawnDuel places a and b spawn_distance apart on the X axis, facing each
// other.
func (w *World) SpawnDuel(a, b *character.Template) (*Actor, *Actor, error) {
	half := w.opts.Arena.SpawnDistance / 2
	left, err := w.Spawn(a, mgl64.Vec3{-half, 0, 0}, mgl64.Vec3{1, 0, 0})
	if err != nil {
		return nil, nil, err
	}
	right, err := w.Spawn(b, mgl64.Vec3{half, 0, 0}, mgl64.Vec3{-1, 0, 0})
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}
