package combat_test

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/ricochet/internal/game/combat"
	"github.com/cory-johannsen/ricochet/internal/game/effect"
	"github.com/cory-johannsen/ricochet/internal/game/sheet"
	"github.com/cory-johannsen/ricochet/internal/game/stat"
	"github.com/cory-johannsen/ricochet/internal/testutil"
)

func newSheet(name string) *sheet.Sheet {
	return sheet.New(sheet.Options{
		Name: name,
		Resources: [stat.ResourceCount]sheet.ResourceSpec{
			stat.Health:  {Max: 100},
			stat.Stamina: {Max: 100},
		},
	})
}

type attacker struct {
	s        *sheet.Sheet
	pos      mgl64.Vec3
	staggers int
}

func (a *attacker) Sheet() *sheet.Sheet  { return a.s }
func (a *attacker) Position() mgl64.Vec3 { return a.pos }

func (a *attacker) RicochetStagger() bool {
	a.staggers++
	return true
}

type blocker struct {
	body *testutil.Body
	rec  *testutil.Recorder
	cfg  combat.BlockConfig
}

func (b *blocker) OnAttacked(hit sheet.Hit) sheet.DefenceFeedback {
	return combat.BlockAttack(b.body, b.rec, b.cfg, hit)
}

type staggerSpy struct{ damaged, ricochet int }

func (s *staggerSpy) DamagedStagger() { s.damaged++ }

func (s *staggerSpy) RicochetStagger() bool {
	s.ricochet++
	return true
}

func TestAngle(t *testing.T) {
	assert.InDelta(t, 0, combat.Angle(mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, 5}), 1e-9)
	assert.InDelta(t, 90, combat.Angle(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 1}), 1e-9)
	assert.InDelta(t, 180, combat.Angle(mgl64.Vec3{0, 0, -1}, mgl64.Vec3{0, 0, 1}), 1e-9)
	assert.InDelta(t, 45, combat.Angle(mgl64.Vec3{1, 0, 1}, mgl64.Vec3{0, 0, 1}), 1e-9)
	assert.Equal(t, 0.0, combat.Angle(mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}))
}

func TestBlockAttack_WithinArc(t *testing.T) {
	rec := testutil.NewRecorder()
	body := testutil.NewBody(mgl64.Vec3{})
	cfg := combat.BlockConfig{BlockAngle: 45, DamageReduction: 0.5, Ricochet: 1, Poise: 1}

	fb := combat.BlockAttack(body, rec, cfg, sheet.Hit{Damage: 31, Origin: mgl64.Vec3{0, 0, 2}})
	assert.Equal(t, sheet.DefenceFeedback{Ricochet: 1, Reduction: 15, Poise: 1, CanRicochet: true}, fb)
	assert.Equal(t, []string{"lasthit:blocked"}, rec.Calls)
}

func TestBlockAttack_BoundaryIsBlocked(t *testing.T) {
	rec := testutil.NewRecorder()
	body := testutil.NewBody(mgl64.Vec3{})
	cfg := combat.BlockConfig{BlockAngle: 0, DamageReduction: 1}
	fb := combat.BlockAttack(body, rec, cfg, sheet.Hit{Damage: 10, Origin: mgl64.Vec3{0, 0, 3}})
	assert.True(t, fb.CanRicochet)
	assert.Equal(t, 10, fb.Reduction)
}

func TestBlockAttack_OutsideArc(t *testing.T) {
	rec := testutil.NewRecorder()
	body := testutil.NewBody(mgl64.Vec3{})
	cfg := combat.BlockConfig{BlockAngle: 45, DamageReduction: 0.5, Ricochet: 1, Poise: 1}

	fb := combat.BlockAttack(body, rec, cfg, sheet.Hit{Damage: 30, Origin: mgl64.Vec3{0, 0, -2}})
	assert.Equal(t, sheet.DefenceFeedback{}, fb)
	assert.Equal(t, []string{"lasthit:landed"}, rec.Calls)
}

// The worked example: 30 damage at heft 2 into a 0.5/1/1/45 block.
func TestResolution_BrokenBlockExample(t *testing.T) {
	defender := newSheet("defender")
	spy := &staggerSpy{}
	defender.SetStaggerReceiver(spy)
	defender.AddAttackListener(&blocker{
		body: testutil.NewBody(mgl64.Vec3{}),
		rec:  testutil.NewRecorder(),
		cfg:  combat.BlockConfig{BlockAngle: 45, DamageReduction: 0.5, Ricochet: 1, Poise: 1},
	})
	att := &attacker{s: newSheet("attacker"), pos: mgl64.Vec3{0, 0, 1.2}}

	box := combat.NewDamageBox()
	box.StartAttack(att, 30, 2)
	require.True(t, box.Contact(defender))

	assert.Equal(t, 85, defender.GetResource(stat.Health))
	assert.Equal(t, 1, spy.ricochet)
	assert.Equal(t, 0, spy.damaged)
	// heft 2 is not below ricochet 1
	assert.Equal(t, 0, att.staggers)
}

func TestDamageBox_RicochetStaggersOwner(t *testing.T) {
	defender := newSheet("defender")
	defender.AddAttackListener(&blocker{
		body: testutil.NewBody(mgl64.Vec3{}),
		rec:  testutil.NewRecorder(),
		cfg:  combat.BlockConfig{BlockAngle: 45, DamageReduction: 1, Ricochet: 3, Poise: 5},
	})
	att := &attacker{s: newSheet("attacker"), pos: mgl64.Vec3{0, 0, 1}}
	box := combat.NewDamageBox()
	box.StartAttack(att, 20, 2)
	box.Contact(defender)
	assert.Equal(t, 1, att.staggers)
	assert.Equal(t, 100, defender.GetResource(stat.Health))
}

func TestDamageBox_OncePerTargetPerSwing(t *testing.T) {
	defender := newSheet("defender")
	att := &attacker{s: newSheet("attacker")}
	box := combat.NewDamageBox()

	assert.False(t, box.Contact(defender), "disarmed box must not hit")
	box.StartAttack(att, 10, 1)
	assert.True(t, box.Contact(defender))
	assert.False(t, box.Contact(defender))
	assert.False(t, box.Contact(att.s), "owner is never hit")
	assert.Equal(t, 90, defender.GetResource(stat.Health))

	box.StartAttack(att, 10, 1)
	assert.True(t, box.Contact(defender))
	box.StopAttack()
	assert.False(t, box.Armed())
	assert.False(t, box.Contact(defender))
	assert.Equal(t, 80, defender.GetResource(stat.Health))
}

func TestProjectile_FlightAndRange(t *testing.T) {
	spec := combat.ProjectileSpec{Speed: 10, Range: 1}
	p := combat.NewProjectile(spec, mgl64.Vec3{}, mgl64.Vec3{0, 0, 2}, 5, 1, nil)
	p.Advance(50 * time.Millisecond)
	assert.InDelta(t, 0.5, p.Position.Z(), 1e-9)
	assert.True(t, p.Active())
	p.Advance(50 * time.Millisecond)
	assert.False(t, p.Active())
}

func TestProjectile_GravityBendsPath(t *testing.T) {
	spec := combat.ProjectileSpec{Speed: 10, GravityModifier: 1, Range: 100}
	p := combat.NewProjectile(spec, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}, 5, 1, nil)
	for range 10 {
		p.Advance(20 * time.Millisecond)
	}
	assert.Less(t, p.Position.Y(), 0.0)
	assert.Less(t, p.Velocity.Y(), 0.0)
}

func TestProjectile_IgnoresShooterUntilExit(t *testing.T) {
	shooter := newSheet("shooter")
	target := newSheet("target")
	p := combat.NewProjectile(combat.ProjectileSpec{Speed: 10, Range: 10}, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}, 7, 1, shooter)

	assert.False(t, p.Impact(shooter, mgl64.Vec3{}))
	p.ExitShooter()
	assert.True(t, p.Impact(shooter, mgl64.Vec3{}))
	assert.Equal(t, 93, shooter.GetResource(stat.Health))

	assert.False(t, p.Impact(target, mgl64.Vec3{}), "spent projectile must not hit again")
	assert.Equal(t, 100, target.GetResource(stat.Health))
}

func TestHazard_EnterAndExit(t *testing.T) {
	slow := &effect.Def{ID: "mud", DurationType: effect.DurationPermanent, Attributes: stat.AttributeGroup{-30, 0}}
	h := &combat.Hazard{Radius: 2, Damage: 10, Heft: 0, StayEffect: slow}
	s := newSheet("walker")

	assert.True(t, h.Contains(mgl64.Vec3{1, 0, 1}))
	assert.False(t, h.Contains(mgl64.Vec3{3, 0, 0}))

	h.Enter(s, mgl64.Vec3{})
	h.Enter(s, mgl64.Vec3{})
	assert.Equal(t, 90, s.GetResource(stat.Health))
	assert.True(t, s.HasEffect(slow))
	assert.True(t, h.Inside(s))

	h.Exit(s)
	assert.False(t, s.HasEffect(slow))
	assert.Equal(t, 0, s.GetAttribute(stat.MoveSpeed))
}

func TestHazard_TimedStayEffectRefreshedWhileInside(t *testing.T) {
	burn := &effect.Def{ID: "burn", DurationType: effect.DurationTimed, Duration: 500 * time.Millisecond, Attributes: stat.AttributeGroup{-10, 0}}
	h := &combat.Hazard{Radius: 1, StayEffect: burn}
	s := newSheet("walker")

	h.Enter(s, mgl64.Vec3{})
	left, ok := s.EffectDurationLeft(burn)
	require.True(t, ok)
	assert.Equal(t, 500*time.Millisecond, left)

	s.FixedTick(300 * time.Millisecond)
	h.Stay(s)
	left, _ = s.EffectDurationLeft(burn)
	assert.Equal(t, 500*time.Millisecond, left)

	s.FixedTick(600 * time.Millisecond)
	assert.False(t, s.HasEffect(burn), "unrefreshed effect runs out")
	assert.Equal(t, 0, s.GetAttribute(stat.MoveSpeed))
	h.Exit(s)
	assert.False(t, h.Inside(s))

	outsider := newSheet("outsider")
	h.Stay(outsider)
	assert.False(t, outsider.HasEffect(burn))
}

func TestHealthPickup_SingleUse(t *testing.T) {
	s := newSheet("x")
	s.IncreaseResource(stat.Health, -50)
	hp := &combat.HealthPickup{Amount: 30}
	assert.True(t, hp.Consume(s))
	assert.False(t, hp.Consume(s))
	assert.True(t, hp.Consumed())
	assert.Equal(t, 80, s.GetResource(stat.Health))
}

func TestPropertyBlockReduction_IsFloored(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		dmg := rapid.IntRange(0, 1000).Draw(rt, "damage")
		pct := rapid.IntRange(0, 100).Draw(rt, "pct")
		cfg := combat.BlockConfig{BlockAngle: 180, DamageReduction: float64(pct) / 100}
		fb := combat.BlockAttack(testutil.NewBody(mgl64.Vec3{}), testutil.NewRecorder(), cfg,
			sheet.Hit{Damage: dmg, Origin: mgl64.Vec3{0, 0, 1}})
		assert.LessOrEqual(rt, fb.Reduction, dmg)
		assert.GreaterOrEqual(rt, fb.Reduction, 0)
		assert.LessOrEqual(rt, float64(fb.Reduction), float64(dmg)*cfg.DamageReduction)
	})
}
