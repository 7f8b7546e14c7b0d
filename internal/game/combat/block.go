// Package combat carries attacks between characters: melee damage boxes,
// projectiles, environmental hazards, and the directional block check used by
// defensive abilities.
package combat

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cory-johannsen/ricochet/internal/game/presentation"
	"github.com/cory-johannsen/ricochet/internal/game/sheet"
)

// Body is the spatial presence of a character.
type Body interface {
	Position() mgl64.Vec3
	// Forward is the facing direction; it need not be normalised.
	Forward() mgl64.Vec3
}

// BlockConfig describes the arc and strength of a directional defence.
type BlockConfig struct {
	// BlockAngle is the half-arc in degrees around the forward axis.
	BlockAngle      float64 `yaml:"block_angle"`
	DamageReduction float64 `yaml:"damage_reduction"`
	Ricochet        int     `yaml:"ricochet"`
	Poise           int     `yaml:"poise"`
}

// Angle returns the unsigned angle between a and b in degrees.
// A zero-length vector yields 0.
func Angle(a, b mgl64.Vec3) float64 {
	la, lb := a.Len(), b.Len()
	if la < 1e-12 || lb < 1e-12 {
		return 0
	}
	cos := a.Dot(b) / (la * lb)
	cos = min(max(cos, -1), 1)
	return mgl64.RadToDeg(math.Acos(cos))
}

// BlockAttack evaluates hit against a defence facing body's forward axis.
// Hits within cfg.BlockAngle are blocked and report the config's feedback
// with a reduction of floor(damage * DamageReduction); others report none.
// The indicator is told where the hit came from either way.
func BlockAttack(body Body, ind presentation.Indicator, cfg BlockConfig, hit sheet.Hit) sheet.DefenceFeedback {
	dir := hit.Origin.Sub(body.Position())
	blocked := Angle(dir, body.Forward()) <= cfg.BlockAngle
	if dir.Len() > 1e-12 {
		dir = dir.Normalize()
	}
	ind.SetLastHit(dir, blocked)
	if !blocked {
		return sheet.DefenceFeedback{}
	}
	return sheet.DefenceFeedback{
		Ricochet:    cfg.Ricochet,
		Reduction:   int(math.Floor(float64(hit.Damage) * cfg.DamageReduction)),
		Poise:       cfg.Poise,
		CanRicochet: true,
	}
}
