package arena

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	arrive = 1e-3
	// friction slows a knocked body, in units per second squared.
	friction = 12.0
)

// Body is a kinematic stand-in for a character's physical presence. It walks
// straight toward its destination on the ground plane and turns toward its
// look direction at bounded speeds. Collisions are not resolved.
type Body struct {
	pos      mgl64.Vec3
	forward  mgl64.Vec3
	velocity mgl64.Vec3
	look     mgl64.Vec3

	dest    mgl64.Vec3
	hasDest bool

	moveSpeed   float64
	rotateSpeed float64
	alive       bool
	locked      bool
	knock       mgl64.Vec3
}

// NewBody places a body at pos facing forward.
func NewBody(pos, forward mgl64.Vec3) *Body {
	forward = flatten(forward)
	if forward.Len() < arrive {
		forward = mgl64.Vec3{0, 0, 1}
	}
	return &Body{pos: pos, forward: forward, look: forward, alive: true}
}

// Position returns the body's current position.
func (b *Body) Position() mgl64.Vec3 { return b.pos }

// Forward returns the unit facing on the ground plane.
func (b *Body) Forward() mgl64.Vec3 { return b.forward }

// Velocity returns the displacement per second of the last step.
func (b *Body) Velocity() mgl64.Vec3 { return b.velocity }

// Place teleports the body and clears any destination and knock.
func (b *Body) Place(pos, forward mgl64.Vec3) {
	b.pos = pos
	b.knock = mgl64.Vec3{}
	if f := flatten(forward); f.Len() >= arrive {
		b.forward, b.look = f, f
	}
	b.Stop()
}

// SetDestination makes the body walk toward dest on later steps.
func (b *Body) SetDestination(dest mgl64.Vec3) {
	b.dest = dest
	b.hasDest = true
}

// LookAt turns the body toward dir over the following steps.
func (b *Body) LookAt(dir mgl64.Vec3) {
	if f := flatten(dir); f.Len() >= arrive {
		b.look = f
	}
}

// Stop cancels any destination and zeroes velocity.
func (b *Body) Stop() {
	b.hasDest = false
	b.velocity = mgl64.Vec3{}
}

// LockForward makes the body walk along its facing without turning,
// ignoring destinations, until unlocked. Unlocking stops the body.
func (b *Body) LockForward(locked bool) {
	if b.locked && !locked {
		b.Stop()
	}
	b.locked = locked
}

// Locked reports whether the body is driven forward.
func (b *Body) Locked() bool { return b.locked }

// Knock sets the body sliding at velocity on the ground plane. Friction
// brings it to rest.
func (b *Body) Knock(velocity mgl64.Vec3) {
	velocity[1] = 0
	b.knock = velocity
}

// SetMoveSpeed sets the walking speed in units per second.
func (b *Body) SetMoveSpeed(speed float64) { b.moveSpeed = speed }

// SetRotateSpeed sets the turning speed in degrees per second.
func (b *Body) SetRotateSpeed(speed float64) { b.rotateSpeed = speed }

// MoveSpeed returns the current movement speed in units per second.
func (b *Body) MoveSpeed() float64 { return b.moveSpeed }

// SetAlive freezes the body on death.
func (b *Body) SetAlive(alive bool) {
	b.alive = alive
	if !alive {
		b.Stop()
		b.locked = false
		b.knock = mgl64.Vec3{}
	}
}

// Step integrates one fixed step of turning and walking.
func (b *Body) Step(dt time.Duration) {
	if !b.alive {
		return
	}
	secs := dt.Seconds()
	b.slide(secs)
	if b.locked {
		move := b.forward.Mul(b.moveSpeed * secs)
		b.pos = b.pos.Add(move)
		b.velocity = b.forward.Mul(b.moveSpeed)
		return
	}
	b.turn(secs)
	if !b.hasDest {
		b.velocity = mgl64.Vec3{}
		return
	}
	to := b.dest.Sub(b.pos)
	to[1] = 0
	dist := to.Len()
	step := b.moveSpeed * secs
	if dist <= arrive || step <= 0 {
		b.velocity = mgl64.Vec3{}
		if dist <= arrive {
			b.hasDest = false
		}
		return
	}
	if step >= dist {
		step = dist
		b.hasDest = false
	}
	move := to.Mul(step / dist)
	b.pos = b.pos.Add(move)
	b.velocity = move.Mul(1 / secs)
}

// slide moves a knocked body and bleeds off its knock velocity.
func (b *Body) slide(secs float64) {
	speed := b.knock.Len()
	if speed == 0 {
		return
	}
	b.pos = b.pos.Add(b.knock.Mul(secs))
	if left := speed - friction*secs; left > 0 {
		b.knock = b.knock.Mul(left / speed)
	} else {
		b.knock = mgl64.Vec3{}
	}
}

// turn rotates forward about Y toward look by at most rotateSpeed*secs degrees.
func (b *Body) turn(secs float64) {
	f, l := b.forward, b.look
	angle := math.Atan2(f.Z()*l.X()-f.X()*l.Z(), f.Dot(l))
	limit := mgl64.DegToRad(b.rotateSpeed * secs)
	if math.Abs(angle) <= limit {
		b.forward = l
		return
	}
	b.forward = mgl64.Rotate3DY(math.Copysign(limit, angle)).Mul3x1(f).Normalize()
}

func flatten(v mgl64.Vec3) mgl64.Vec3 {
	v[1] = 0
	if v.Len() < arrive {
		return mgl64.Vec3{}
	}
	return v.Normalize()
}
