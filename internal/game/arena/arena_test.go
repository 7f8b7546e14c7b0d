package arena_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/ricochet/internal/config"
	"github.com/cory-johannsen/ricochet/internal/game/ability"
	"github.com/cory-johannsen/ricochet/internal/game/arena"
	"github.com/cory-johannsen/ricochet/internal/game/character"
	"github.com/cory-johannsen/ricochet/internal/game/combat"
	"github.com/cory-johannsen/ricochet/internal/game/dice"
	"github.com/cory-johannsen/ricochet/internal/game/fighter"
	"github.com/cory-johannsen/ricochet/internal/game/inventory"
	"github.com/cory-johannsen/ricochet/internal/game/sheet"
	"github.com/cory-johannsen/ricochet/internal/game/stat"
)

const ms = time.Millisecond

func content() character.Content {
	abilities := ability.NewRegistry()
	abilities.Register(&ability.Def{
		ID:         "punch",
		Kind:       ability.KindMelee,
		Damage:     stat.Scaler{Base: 10},
		Timestamps: ability.Timestamps{50 * ms, 100 * ms, 150 * ms},
		Manual:     ability.Manual{ChoiceWeighting: 10, EngageRange: 1, HoldDuration: 100 * ms},
	})
	abilities.Register(&ability.Def{
		ID:         "bolt",
		Kind:       ability.KindRanged,
		Damage:     stat.Scaler{Base: 7},
		Timestamps: ability.Timestamps{20 * ms, 40 * ms, 60 * ms},
		Projectile: combat.ProjectileSpec{Speed: 10, Range: 20},
	})
	abilities.Register(&ability.Def{
		ID:             "rush",
		Kind:           ability.KindCharge,
		Damage:         stat.Scaler{Base: 15},
		Heft:           1,
		Timestamps:     ability.Timestamps{40 * ms, 400 * ms, 400 * ms},
		Block:          combat.BlockConfig{BlockAngle: 45, DamageReduction: 0.5, Ricochet: 1, Poise: 1},
		ImpactVelocity: 6,
	})
	return character.Content{Abilities: abilities, Armaments: inventory.NewRegistry()}
}

func template(id, team string, ctrl character.Controller) *character.Template {
	return &character.Template{
		ID:         id,
		Name:       id,
		Team:       team,
		Controller: ctrl,
		Resources: map[string]sheet.ResourceSpec{
			"health":  {Max: 100},
			"stamina": {Max: 100},
		},
		Defaults: [4]string{"punch", "bolt", "punch", "punch"},
	}
}

func newWorld(t *testing.T, mutate ...func(*arena.Options)) *arena.World {
	t.Helper()
	opts := arena.Options{
		Simulation: config.SimulationConfig{FixedDelta: 20 * ms, Duration: time.Minute},
		Combat:     config.CombatConfig{BaseMoveSpeed: 3.5, BaseRotateSpeed: 200},
		Arena:      config.ArenaConfig{Reach: 1.5, HitRadius: 0.5, BodyRadius: 0.5, SpawnDistance: 6, SensorRange: 10},
		Content:    content(),
		Fighter:    fighter.DefaultConfig(),
		Roller:     dice.NewLoggedRoller(dice.NewSeededSource(1), nil),
	}
	for _, m := range mutate {
		m(&opts)
	}
	return arena.New(opts)
}

func stepFor(w *arena.World, d time.Duration) {
	for end := w.Clock().Now() + d; w.Clock().Now() < end; {
		w.Step()
	}
}

func health(a *arena.Actor) int { return a.Sheet().GetResource(stat.Health) }

func TestClock_AdvancesByDelta(t *testing.T) {
	c := arena.NewClock(20 * ms)
	c.Advance()
	c.Advance()
	assert.Equal(t, 40*ms, c.Now())
	assert.Panics(t, func() { arena.NewClock(0) })
}

func TestBody_WalksAtMoveSpeedAndStops(t *testing.T) {
	b := arena.NewBody(mgl64.Vec3{}, mgl64.Vec3{0, 0, 1})
	b.SetMoveSpeed(2)
	b.SetDestination(mgl64.Vec3{5, 0, 0})
	for i := 0; i < 10; i++ {
		b.Step(100 * ms)
	}
	assert.InDelta(t, 2.0, b.Position().X(), 1e-9)
	assert.InDelta(t, 2.0, b.Velocity().Len(), 1e-9)

	for i := 0; i < 30; i++ {
		b.Step(100 * ms)
	}
	assert.InDelta(t, 5.0, b.Position().X(), 1e-9, "never overshoots")
	assert.Zero(t, b.Velocity().Len())
}

func TestBody_TurnsAtBoundedRate(t *testing.T) {
	b := arena.NewBody(mgl64.Vec3{}, mgl64.Vec3{0, 0, 1})
	b.SetRotateSpeed(90)
	b.LookAt(mgl64.Vec3{1, 0, 0})
	for i := 0; i < 5; i++ {
		b.Step(100 * ms)
	}
	assert.InDelta(t, math.Sqrt2/2, b.Forward().X(), 1e-9)
	assert.InDelta(t, math.Sqrt2/2, b.Forward().Z(), 1e-9)

	for i := 0; i < 10; i++ {
		b.Step(100 * ms)
	}
	assert.InDelta(t, 1.0, b.Forward().X(), 1e-9)
}

func TestBody_DeadBodyDoesNotMove(t *testing.T) {
	b := arena.NewBody(mgl64.Vec3{}, mgl64.Vec3{0, 0, 1})
	b.SetMoveSpeed(2)
	b.SetDestination(mgl64.Vec3{5, 0, 0})
	b.SetAlive(false)
	b.Step(time.Second)
	assert.Equal(t, mgl64.Vec3{}, b.Position())
}

func TestBody_LockedBodyLungesAlongForward(t *testing.T) {
	b := arena.NewBody(mgl64.Vec3{}, mgl64.Vec3{0, 0, 1})
	b.SetMoveSpeed(2)
	b.SetDestination(mgl64.Vec3{5, 0, 0})
	b.LockForward(true)
	for i := 0; i < 10; i++ {
		b.Step(100 * ms)
	}
	assert.True(t, b.Locked())
	assert.InDelta(t, 2.0, b.Position().Z(), 1e-9)
	assert.InDelta(t, 0.0, b.Position().X(), 1e-9)
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, b.Forward())

	b.LockForward(false)
	b.Step(100 * ms)
	assert.False(t, b.Locked())
	assert.InDelta(t, 2.0, b.Position().Z(), 1e-9, "unlocking stops the body")
	assert.Zero(t, b.Velocity().Len())
}

func TestBody_KnockSlidesAndDecays(t *testing.T) {
	b := arena.NewBody(mgl64.Vec3{}, mgl64.Vec3{0, 0, 1})
	b.Knock(mgl64.Vec3{6, 1, 0})
	b.Step(100 * ms)
	assert.InDelta(t, 0.6, b.Position().X(), 1e-9)
	assert.Zero(t, b.Position().Y())

	for i := 0; i < 10; i++ {
		b.Step(100 * ms)
	}
	assert.InDelta(t, 1.8, b.Position().X(), 1e-9)
}

func TestWorld_ChargeHitsAndKnocksBack(t *testing.T) {
	w := newWorld(t)
	tmpl := template("red", "red", character.ControllerIdle)
	tmpl.Defaults[0] = "rush"
	red, err := w.Spawn(tmpl, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0})
	require.NoError(t, err)
	blue, err := w.Spawn(template("blue", "blue", character.ControllerIdle), mgl64.Vec3{1.5, 0, 0}, mgl64.Vec3{-1, 0, 0})
	require.NoError(t, err)

	require.NoError(t, red.Character.Fighter.UseAbilityNoHold(fighter.L1, true))
	stepFor(w, 800*ms)
	assert.Equal(t, 85, health(blue), "one hit per lunge")
	assert.Equal(t, 100, health(red))
	assert.False(t, red.Body.Locked())
	assert.Greater(t, blue.Body.Position().X(), 2.5)
	assert.Less(t, red.Body.Position().X(), 1.0)
}

func TestWorld_MeleeLandsOncePerSwingWithinReach(t *testing.T) {
	w := newWorld(t)
	red, err := w.Spawn(template("red", "red", character.ControllerIdle), mgl64.Vec3{}, mgl64.Vec3{1, 0, 0})
	require.NoError(t, err)
	blue, err := w.Spawn(template("blue", "blue", character.ControllerIdle), mgl64.Vec3{1, 0, 0}, mgl64.Vec3{-1, 0, 0})
	require.NoError(t, err)

	require.NoError(t, red.Character.Fighter.UseAbilityNoHold(fighter.L1, true))
	stepFor(w, 200*ms)
	assert.Equal(t, 90, health(blue))
	assert.Equal(t, 100, health(red))
}

func TestWorld_MeleeOutOfReachOrSameTeamMisses(t *testing.T) {
	w := newWorld(t)
	red, err := w.Spawn(template("red", "red", character.ControllerIdle), mgl64.Vec3{}, mgl64.Vec3{1, 0, 0})
	require.NoError(t, err)
	far, err := w.Spawn(template("far", "blue", character.ControllerIdle), mgl64.Vec3{3, 0, 0}, mgl64.Vec3{-1, 0, 0})
	require.NoError(t, err)
	ally, err := w.Spawn(template("ally", "red", character.ControllerIdle), mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 0, 0})
	require.NoError(t, err)

	require.NoError(t, red.Character.Fighter.UseAbilityNoHold(fighter.L1, true))
	stepFor(w, 200*ms)
	assert.Equal(t, 100, health(far))
	assert.Equal(t, 100, health(ally))
}

func TestWorld_ProjectileFliesAndHits(t *testing.T) {
	w := newWorld(t)
	red, blue, err := w.SpawnDuel(
		template("red", "red", character.ControllerIdle),
		template("blue", "blue", character.ControllerIdle),
	)
	require.NoError(t, err)

	require.NoError(t, red.Character.Fighter.UseAbilityNoHold(fighter.L2, true))
	stepFor(w, 40*ms)
	require.Len(t, w.Projectiles(), 1)

	stepFor(w, time.Second)
	assert.Equal(t, 93, health(blue))
	assert.Equal(t, 100, health(red), "shooter is never hit by its own projectile")
	assert.Empty(t, w.Projectiles())
}

func TestWorld_HazardAndPickup(t *testing.T) {
	w := newWorld(t)
	a, err := w.Spawn(template("red", "red", character.ControllerIdle), mgl64.Vec3{}, mgl64.Vec3{1, 0, 0})
	require.NoError(t, err)

	hazard := &combat.Hazard{Center: mgl64.Vec3{}, Radius: 1, Damage: 10}
	w.AddHazard(hazard)
	w.Step()
	w.Step()
	assert.Equal(t, 90, health(a), "entry damage lands once")
	assert.True(t, hazard.Inside(a.Sheet()))

	pickup := &combat.HealthPickup{Position: mgl64.Vec3{}, Radius: 1, Amount: 5}
	w.AddPickup(pickup)
	w.Step()
	assert.Equal(t, 95, health(a))
	assert.True(t, pickup.Consumed())

	a.Body.Place(mgl64.Vec3{5, 0, 0}, mgl64.Vec3{1, 0, 0})
	w.Step()
	assert.False(t, hazard.Inside(a.Sheet()))
}

func TestWorld_DeathEndsRun(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	w := newWorld(t, func(o *arena.Options) { o.Logger = zap.New(core) })
	red, blue, err := w.SpawnDuel(
		template("red", "red", character.ControllerAI),
		template("blue", "blue", character.ControllerIdle),
	)
	require.NoError(t, err)

	blue.Sheet().SetResource(stat.Health, 0)
	assert.Equal(t, 1, logs.FilterMessage("character down").Len())
	assert.Equal(t, []string{"red"}, w.Teams())
	assert.True(t, w.Done())

	out, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "red", out.Winner)
	assert.Equal(t, 0, out.Steps)
	assert.Equal(t, map[string]int{"red": 100}, out.Survivors)
	assert.True(t, red.Sheet().Alive())
	assert.Zero(t, blue.Body.Velocity().Len())
}

func TestWorld_RunTimesOut(t *testing.T) {
	w := newWorld(t, func(o *arena.Options) { o.Simulation.Duration = 200 * ms })
	_, _, err := w.SpawnDuel(
		template("red", "red", character.ControllerIdle),
		template("blue", "blue", character.ControllerIdle),
	)
	require.NoError(t, err)

	out, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out.Winner)
	assert.Equal(t, 10, out.Steps)
	assert.Equal(t, 200*ms, out.Elapsed)
	assert.Len(t, out.Survivors, 2)
}

func TestWorld_RunStopsOnCancel(t *testing.T) {
	w := newWorld(t, func(o *arena.Options) { o.Simulation.Realtime = true })
	_, _, err := w.SpawnDuel(
		template("red", "red", character.ControllerIdle),
		template("blue", "blue", character.ControllerIdle),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*ms)
	defer cancel()
	out, err := w.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, out.Elapsed, time.Minute)
}

func TestWorld_AIDuelTradesBlows(t *testing.T) {
	w := newWorld(t, func(o *arena.Options) { o.Simulation.Duration = 30 * time.Second })
	red, blue, err := w.SpawnDuel(
		template("red", "red", character.ControllerAI),
		template("blue", "blue", character.ControllerAI),
	)
	require.NoError(t, err)

	_, err = w.Run(context.Background())
	require.NoError(t, err)
	assert.Less(t, health(red)+health(blue), 200)
	assert.Same(t, blue, red.Controller.Target())
}

func TestWorld_ResetRestoresActors(t *testing.T) {
	w := newWorld(t)
	red, blue, err := w.SpawnDuel(
		template("red", "red", character.ControllerIdle),
		template("blue", "blue", character.ControllerIdle),
	)
	require.NoError(t, err)
	blue.Sheet().SetResource(stat.Health, 0)
	red.Body.Place(mgl64.Vec3{9, 0, 9}, mgl64.Vec3{1, 0, 0})
	w.Step()

	w.Reset()
	assert.Equal(t, time.Duration(0), w.Elapsed())
	assert.Equal(t, 20*ms, w.Clock().Now())
	assert.True(t, blue.Sheet().Alive())
	assert.Equal(t, 100, health(blue))
	assert.Equal(t, mgl64.Vec3{-3, 0, 0}, red.Position())
	assert.Len(t, w.Teams(), 2)
}

func TestPropertyBodyNeverOvershootsDestination(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		speed := rapid.Float64Range(0.1, 20).Draw(rt, "speed")
		dest := mgl64.Vec3{
			rapid.Float64Range(-50, 50).Draw(rt, "x"),
			0,
			rapid.Float64Range(-50, 50).Draw(rt, "z"),
		}
		b := arena.NewBody(mgl64.Vec3{}, mgl64.Vec3{0, 0, 1})
		b.SetMoveSpeed(speed)
		b.SetDestination(dest)
		start := dest.Len()
		for i := 0; i < 50; i++ {
			b.Step(20 * ms)
			if left := dest.Sub(b.Position()).Len(); left > start+1e-9 {
				rt.Fatalf("moved away from destination: %v > %v", left, start)
			}
			if b.Velocity().Len() > speed+1e-9 {
				rt.Fatalf("velocity %v exceeds speed %v", b.Velocity().Len(), speed)
			}
		}
	})
}
