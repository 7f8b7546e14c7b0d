package combat

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/cory-johannsen/ricochet/internal/game/sheet"
)

// Attacker is the character wielding a damage box.
type Attacker interface {
	Sheet() *sheet.Sheet
	Position() mgl64.Vec3
	RicochetStagger() bool
}

// DamageBox is a melee hit volume. While armed it lands its attack at most
// once per target per swing.
type DamageBox struct {
	owner  Attacker
	damage int
	heft   int
	armed  bool
	hit    map[*sheet.Sheet]struct{}
}

// NewDamageBox returns a disarmed box.
func NewDamageBox() *DamageBox {
	return &DamageBox{hit: make(map[*sheet.Sheet]struct{})}
}

// StartAttack arms the box with the swing's damage and heft and forgets
// every target hit by a previous swing.
//
// Precondition: owner must not be nil.
func (b *DamageBox) StartAttack(owner Attacker, damage, heft int) {
	b.owner = owner
	b.damage = damage
	b.heft = heft
	b.armed = true
	clear(b.hit)
}

// StopAttack disarms the box.
func (b *DamageBox) StopAttack() {
	b.armed = false
	clear(b.hit)
}

// Armed reports whether the box is currently dealing damage.
func (b *DamageBox) Armed() bool { return b.armed }

// Owner returns the attacker of the current or last swing.
func (b *DamageBox) Owner() Attacker { return b.owner }

// Damage returns the damage baked in at StartAttack.
func (b *DamageBox) Damage() int { return b.damage }

// Heft returns the heft baked in at StartAttack.
func (b *DamageBox) Heft() int { return b.heft }

// Contact lands the attack on target if the box is armed and target has not
// been hit this swing. The contact origin is the owner's position. When the
// returned ricochet exceeds the swing's heft the owner is ricochet-staggered.
//
// Postcondition: Returns true when the attack was landed.
func (b *DamageBox) Contact(target *sheet.Sheet) bool {
	if !b.armed || target == nil || target == b.owner.Sheet() {
		return false
	}
	if _, done := b.hit[target]; done {
		return false
	}
	b.hit[target] = struct{}{}
	owner, heft := b.owner, b.heft
	ricochet := target.LandAttack(sheet.Hit{
		Damage:   b.damage,
		Origin:   owner.Position(),
		Attacker: owner.Sheet(),
		Heft:     heft,
	})
	if heft < ricochet {
		owner.RicochetStagger()
	}
	return true
}
