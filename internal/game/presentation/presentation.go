// Package presentation declares the fire-and-forget hooks the simulation uses
// to drive animation and visual feedback. Nothing here returns data to the
// simulation.
package presentation

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// Animator receives named animation parameters.
type Animator interface {
	SetTrigger(name string)
	ResetTrigger(name string)
	SetBool(name string, value bool)
}

// Indicator shows block arcs and the direction of the last hit.
type Indicator interface {
	EnableBlockIndicator(angle float64)
	DisableBlockIndicator()
	FadeOutBlockIndicator()
	SetLastHit(direction mgl64.Vec3, blocked bool)
}

// Flicker toggles the poise material flicker.
type Flicker interface {
	Flicker()
	StopFlicker()
}

// Animation parameter names shared by the fighter.
const (
	TriggerDamagedStagger  = "Damaged Stagger"
	TriggerRicochetStagger = "Ricochet Stagger"
	BoolMirror             = "Mirror"
)

// Nop implements every hook as a no-op.
type Nop struct{}

func (Nop) SetTrigger(string)            {}
func (Nop) ResetTrigger(string)          {}
func (Nop) SetBool(string, bool)         {}
func (Nop) EnableBlockIndicator(float64) {}
func (Nop) DisableBlockIndicator()       {}
func (Nop) FadeOutBlockIndicator()       {}
func (Nop) SetLastHit(mgl64.Vec3, bool)  {}
func (Nop) Flicker()                     {}
func (Nop) StopFlicker()                 {}

// Logged implements every hook by writing a debug entry, for headless runs.
type Logged struct {
	logger *zap.Logger
}

// NewLogged returns hooks that log to logger.
//
// Precondition: logger must not be nil.
func NewLogged(logger *zap.Logger) *Logged {
	return &Logged{logger: logger}
}

func (l *Logged) SetTrigger(name string) {
	l.logger.Debug("animator trigger", zap.String("trigger", name))
}

func (l *Logged) ResetTrigger(name string) {
	l.logger.Debug("animator reset trigger", zap.String("trigger", name))
}

func (l *Logged) SetBool(name string, value bool) {
	l.logger.Debug("animator bool", zap.String("param", name), zap.Bool("value", value))
}

func (l *Logged) EnableBlockIndicator(angle float64) {
	l.logger.Debug("block indicator on", zap.Float64("angle", angle))
}

func (l *Logged) DisableBlockIndicator() { l.logger.Debug("block indicator off") }

func (l *Logged) FadeOutBlockIndicator() { l.logger.Debug("block indicator fade") }

func (l *Logged) SetLastHit(direction mgl64.Vec3, blocked bool) {
	l.logger.Debug("last hit",
		zap.Float64s("direction", direction[:]),
		zap.Bool("blocked", blocked),
	)
}

func (l *Logged) Flicker() { l.logger.Debug("poise flicker on") }

func (l *Logged) StopFlicker() { l.logger.Debug("poise flicker off") }
