// Package game implements the platformer side of handrunner: a small
// kinematic world with axis-aligned blocks, the hand-driven player and the
// walking enemies.
package game

import (
	"errors"
	"math"
	"time"

	"github.com/quartercastle/vector"
	"github.com/solarlune/resolv"

	"github.com/ayusman/handrunner/internal/gesture"
)

// Vec2 is a world-space vector. The y axis points up.
type Vec2 = gesture.Vec2

// Bodies live in a resolv space measured in hundredths of a world unit,
// with the world origin at the middle of the space. Anything further than
// spaceExtent units from the origin does not collide.
const (
	spaceScale  = 100
	spaceExtent = 50
	spaceCell   = 50

	// overlap tolerance in space units so that resting contact is not
	// counted as penetration
	eps = 1e-4

	solidTag = "solid"
	bodyTag  = "body"
)

// ErrBadTimestep is returned by Step for non-positive durations.
var ErrBadTimestep = errors.New("timestep must be positive")

// WorldConfig holds the physics settings.
type WorldConfig struct {
	Gravity  float64 `yaml:"gravity"`
	TickRate int     `yaml:"tick_rate"`
	// Level is an optional YAML level file; empty means DefaultLevel.
	Level string `yaml:"level"`
}

// DefaultWorldConfig returns the reference physics settings.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Gravity:  -20,
		TickRate: 60,
	}
}

// Tick returns the fixed step duration.
func (c WorldConfig) Tick() time.Duration {
	if c.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.TickRate)
}

// ContactListener receives contact events for a body.
type ContactListener interface {
	BeginContact(other *Body)
	EndContact(other *Body)
}

// Body is an axis-aligned box. Static bodies never move.
type Body struct {
	Position Vec2
	Velocity Vec2
	Width    float64
	Height   float64
	Static   bool
	// Owner gets this body's contact events; may be nil.
	Owner ContactListener

	obj      *resolv.Object
	grounded bool
}

// Grounded reports whether the body rested on a static body after the last step.
func (b *Body) Grounded() bool { return b.grounded }

// sync moves the body's object to its current Position. Callers are free to
// write Position between steps.
func (b *Body) sync() {
	b.obj.X = (b.Position.X - b.Width/2 + spaceExtent) * spaceScale
	b.obj.Y = (b.Position.Y - b.Height/2 + spaceExtent) * spaceScale
	b.obj.Update()
}

// settle copies the object's position back into Position.
func (b *Body) settle() {
	b.Position.X = b.obj.X/spaceScale - spaceExtent + b.Width/2
	b.Position.Y = b.obj.Y/spaceScale - spaceExtent + b.Height/2
}

func overlapsAt(a *resolv.Object, x, y float64, o *resolv.Object) bool {
	return x < o.X+o.W-eps && x+a.W > o.X+eps &&
		y < o.Y+o.H-eps && y+a.H > o.Y+eps
}

// touching is overlap including shared edges.
func touching(a, o *resolv.Object) bool {
	return a.X <= o.X+o.W+eps && a.X+a.W >= o.X-eps &&
		a.Y <= o.Y+o.H+eps && a.Y+a.H >= o.Y-eps
}

type pair struct{ a, b *Body }

// World integrates dynamic bodies against static blocks and reports contacts.
// It is driven from a single goroutine.
type World struct {
	gravity  Vec2
	space    *resolv.Space
	bodies   []*Body
	contacts []pair
}

// NewWorld creates an empty world.
func NewWorld(cfg WorldConfig) *World {
	size := 2 * spaceExtent * spaceScale
	return &World{
		gravity: Vec2{X: 0, Y: cfg.Gravity},
		space:   resolv.NewSpace(size, size, spaceCell, spaceCell),
	}
}

// Add registers a body and returns it.
func (w *World) Add(b *Body) *Body {
	tag := bodyTag
	if b.Static {
		tag = solidTag
	}
	b.obj = resolv.NewObject(0, 0, b.Width*spaceScale, b.Height*spaceScale, tag)
	b.obj.Data = b
	w.space.Add(b.obj)
	b.sync()
	w.bodies = append(w.bodies, b)
	return b
}

// Remove drops a body; pending contacts end silently.
func (w *World) Remove(b *Body) {
	for i, other := range w.bodies {
		if other == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
	if b.obj != nil {
		w.space.Remove(b.obj)
	}
	kept := w.contacts[:0]
	for _, p := range w.contacts {
		if p.a != b && p.b != b {
			kept = append(kept, p)
		}
	}
	w.contacts = kept
}

// Bodies returns the registered bodies.
func (w *World) Bodies() []*Body {
	return w.bodies
}

// Step advances the world by dt: gravity, movement resolved one axis at a
// time against static bodies, then contact begin/end events.
func (w *World) Step(dt time.Duration) error {
	if dt <= 0 {
		return ErrBadTimestep
	}
	s := dt.Seconds()

	for _, b := range w.bodies {
		if b.Static {
			continue
		}
		b.sync()
		b.Velocity = b.Velocity.Add(w.gravity.Scale(s))

		if moveBlocked(b.obj, b.Velocity.X*s*spaceScale, 0) {
			b.Velocity.X = 0
		}

		b.grounded = false
		if moveBlocked(b.obj, 0, b.Velocity.Y*s*spaceScale) {
			b.grounded = b.Velocity.Y <= 0
			b.Velocity.Y = 0
		}
		b.settle()
	}

	w.updateContacts()
	return nil
}

// moveBlocked moves obj by (dx, dy) along a single axis. When the move would
// sink into a solid object, obj stops flush against the nearest one and
// moveBlocked reports true.
func moveBlocked(obj *resolv.Object, dx, dy float64) bool {
	if dx == 0 && dy == 0 {
		return false
	}
	blocked := false
	var snap vector.Vector
	if c := obj.Check(dx, dy, solidTag); c != nil {
		best := math.Inf(1)
		for _, o := range c.Objects {
			if !overlapsAt(obj, obj.X+dx, obj.Y+dy, o) {
				continue
			}
			contact := c.ContactWithObject(o)
			if d := math.Abs(contact.X()) + math.Abs(contact.Y()); d < best {
				best, snap, blocked = d, contact, true
			}
		}
	}
	if blocked {
		dx, dy = snap.X(), snap.Y()
	}
	obj.X += dx
	obj.Y += dy
	obj.Update()
	return blocked
}

// neighbours returns the objects near obj. Check expands any probe to at
// least one space unit, which reaches across cell borders to objects
// sharing an edge with obj.
func neighbours(obj *resolv.Object) []*resolv.Object {
	var out []*resolv.Object
	seen := make(map[*resolv.Object]bool)
	for _, d := range [4][2]float64{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		c := obj.Check(d[0], d[1])
		if c == nil {
			continue
		}
		for _, o := range c.Objects {
			if !seen[o] {
				seen[o] = true
				out = append(out, o)
			}
		}
	}
	return out
}

func (w *World) updateContacts() {
	order := make(map[*Body]int, len(w.bodies))
	for i, b := range w.bodies {
		order[b] = i
	}

	var current []pair
	seen := make(map[pair]bool)
	for _, a := range w.bodies {
		if a.Static {
			continue
		}
		for _, o := range neighbours(a.obj) {
			other, ok := o.Data.(*Body)
			if !ok || !touching(a.obj, o) {
				continue
			}
			if _, registered := order[other]; !registered {
				continue
			}
			p := pair{a, other}
			if order[other] < order[a] {
				p = pair{other, a}
			}
			if !seen[p] {
				seen[p] = true
				current = append(current, p)
			}
		}
	}

	previous := w.contacts
	w.contacts = current

	for _, p := range previous {
		if !seen[p] {
			notify(p.a, p.b, false)
		}
	}
	was := make(map[pair]bool, len(previous))
	for _, p := range previous {
		was[p] = true
	}
	for _, p := range current {
		if !was[p] {
			notify(p.a, p.b, true)
		}
	}
}

func notify(a, b *Body, begin bool) {
	for _, side := range [2][2]*Body{{a, b}, {b, a}} {
		if side[0].Owner == nil {
			continue
		}
		if begin {
			side[0].Owner.BeginContact(side[1])
		} else {
			side[0].Owner.EndContact(side[1])
		}
	}
}
