package combat

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/cory-johannsen/ricochet/internal/game/effect"
	"github.com/cory-johannsen/ricochet/internal/game/sheet"
	"github.com/cory-johannsen/ricochet/internal/game/stat"
)

// Hazard is an area of the environment that hurts characters entering it
// and optionally applies an effect while they stay. The effect uses its
// default duration; Stay refreshes it.
type Hazard struct {
	Center mgl64.Vec3
	Radius float64
	// Damage and Heft are landed once on entry; zero damage disables it.
	Damage     int
	Heft       int
	StayEffect *effect.Def

	inside map[*sheet.Sheet]struct{}
}

// Contains reports whether p lies within the hazard.
func (h *Hazard) Contains(p mgl64.Vec3) bool {
	return p.Sub(h.Center).Len() <= h.Radius
}

// Inside reports whether target is currently tracked as inside.
func (h *Hazard) Inside(target *sheet.Sheet) bool {
	_, ok := h.inside[target]
	return ok
}

// Enter handles target crossing into the hazard at contact. Re-entering
// without an Exit is a no-op.
func (h *Hazard) Enter(target *sheet.Sheet, contact mgl64.Vec3) {
	if h.inside == nil {
		h.inside = make(map[*sheet.Sheet]struct{})
	}
	if _, ok := h.inside[target]; ok {
		return
	}
	h.inside[target] = struct{}{}
	if h.Damage > 0 {
		target.LandAttack(sheet.Hit{Damage: h.Damage, Origin: contact, Heft: h.Heft})
	}
	if h.StayEffect != nil {
		target.AddEffect(h.StayEffect)
	}
}

// Stay refreshes the stay effect on a target still inside. Targets that
// never entered are ignored.
func (h *Hazard) Stay(target *sheet.Sheet) {
	if _, ok := h.inside[target]; !ok || h.StayEffect == nil {
		return
	}
	target.AddEffect(h.StayEffect)
}

// Exit handles target leaving the hazard and removes the stay effect.
func (h *Hazard) Exit(target *sheet.Sheet) {
	if _, ok := h.inside[target]; !ok {
		return
	}
	delete(h.inside, target)
	if h.StayEffect != nil {
		target.RemoveEffect(h.StayEffect)
	}
}

// HealthPickup restores health to the first character that touches it.
type HealthPickup struct {
	Position mgl64.Vec3
	Radius   float64
	Amount   int

	consumed bool
}

// Consumed reports whether the pickup has been used.
func (h *HealthPickup) Consumed() bool { return h.consumed }

// Consume heals target once.
//
// Postcondition: Returns false when the pickup was already consumed.
func (h *HealthPickup) Consume(target *sheet.Sheet) bool {
	if h.consumed {
		return false
	}
	target.IncreaseResource(stat.Health, h.Amount)
	h.consumed = true
	return true
}
