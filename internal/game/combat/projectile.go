package combat

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/cory-johannsen/ricochet/internal/game/sheet"
)

// Gravity is the world acceleration applied to projectiles, scaled by their
// gravity modifier.
var Gravity = mgl64.Vec3{0, -9.81, 0}

// ProjectileSpec is the flight model of a projectile type.
type ProjectileSpec struct {
	Speed           float64 `yaml:"speed"`
	GravityModifier float64 `yaml:"gravity_modifier"`
	Range           float64 `yaml:"range"`
}

// Spawner places projectiles into the world.
type Spawner interface {
	SpawnProjectile(p *Projectile)
}

// Projectile is a ballistic attack carrier with damage, heft and shooter
// baked in at launch.
type Projectile struct {
	ID              string
	Damage          int
	Heft            int
	Shooter         *sheet.Sheet
	Position        mgl64.Vec3
	Velocity        mgl64.Vec3
	GravityModifier float64
	RangeLeft       float64

	active        bool
	ignoreShooter bool
}

// NewProjectile launches a projectile from origin along direction.
//
// Postcondition: The projectile is active and will not hit its shooter until
// ExitShooter is called.
func NewProjectile(spec ProjectileSpec, origin, direction mgl64.Vec3, damage, heft int, shooter *sheet.Sheet) *Projectile {
	if direction.Len() > 1e-12 {
		direction = direction.Normalize()
	}
	return &Projectile{
		ID:              uuid.New().String(),
		Damage:          damage,
		Heft:            heft,
		Shooter:         shooter,
		Position:        origin,
		Velocity:        direction.Mul(spec.Speed),
		GravityModifier: spec.GravityModifier,
		RangeLeft:       spec.Range,
		active:          true,
		ignoreShooter:   true,
	}
}

// Active reports whether the projectile is still in flight.
func (p *Projectile) Active() bool { return p.active }

// Advance integrates one fixed step of flight. The projectile deactivates
// once it has travelled its range.
func (p *Projectile) Advance(dt time.Duration) {
	if !p.active {
		return
	}
	secs := dt.Seconds()
	p.Velocity = p.Velocity.Add(Gravity.Mul(p.GravityModifier * secs))
	travel := p.Velocity.Mul(secs)
	p.Position = p.Position.Add(travel)
	p.RangeLeft -= travel.Len()
	if p.RangeLeft <= 0 {
		p.active = false
	}
}

// ExitShooter marks the projectile as clear of its shooter, after which the
// shooter can be hit like anyone else.
func (p *Projectile) ExitShooter() { p.ignoreShooter = false }

// Impact lands the projectile on target at contact and deactivates it.
//
// Postcondition: Returns false without effect when inactive or when target is
// the shooter and the projectile has not yet left it.
func (p *Projectile) Impact(target *sheet.Sheet, contact mgl64.Vec3) bool {
	if !p.active || target == nil {
		return false
	}
	if target == p.Shooter && p.ignoreShooter {
		return false
	}
	target.LandAttack(sheet.Hit{
		Damage:   p.Damage,
		Origin:   contact,
		Attacker: p.Shooter,
		Heft:     p.Heft,
	})
	p.active = false
	return true
}
