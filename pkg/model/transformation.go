package model

import (
	"fmt"
	"math"

	"github.com/chazu/partgraph/pkg/update"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Transformation places a part relative to its parent. Every setter notifies
// TRANSFORMATION to the registered listeners (normally the owning view).
//
// Rotation is in radians, applied about X, then Y, then Z. Skew is a shear:
// x gains skew.X*y, y gains skew.Y*z and z gains skew.Z*x.
type Transformation struct {
	skew        v3.Vec
	scale       v3.Vec
	rotation    v3.Vec
	translation v3.Vec
	size        float64

	updates *update.Manager
}

// NewTransformation returns the identity: size 1, unit scale, everything else
// zero.
func NewTransformation() *Transformation {
	t := &Transformation{
		scale: v3.Vec{X: 1, Y: 1, Z: 1},
		size:  1,
	}
	t.updates = update.NewManager(t)
	return t
}

func (t *Transformation) Register(l update.Listener) { t.updates.Register(l) }
func (t *Transformation) Unregister(l update.Listener) { t.updates.Unregister(l) }

func (t *Transformation) Skew() v3.Vec { return t.skew }
func (t *Transformation) Scale() v3.Vec { return t.scale }
func (t *Transformation) Rotation() v3.Vec { return t.rotation }
func (t *Transformation) Translation() v3.Vec { return t.translation }
func (t *Transformation) Size() float64 { return t.size }

func (t *Transformation) SetSkew(v v3.Vec) {
	t.skew = v
	t.changed()
}

func (t *Transformation) SetScale(v v3.Vec) {
	t.scale = v
	t.changed()
}

func (t *Transformation) SetRotation(v v3.Vec) {
	t.rotation = v
	t.changed()
}

func (t *Transformation) SetTranslation(v v3.Vec) {
	t.translation = v
	t.changed()
}

func (t *Transformation) SetSize(s float64) {
	t.size = s
	t.changed()
}

// Translate moves the translation by d.
func (t *Transformation) Translate(d v3.Vec) {
	t.translation = t.translation.Add(d)
	t.changed()
}

// Add accumulates o into t: skew, rotation and translation add up, scale
// multiplies component-wise and size multiplies. A nil o is a no-op.
func (t *Transformation) Add(o *Transformation) {
	if o == nil {
		return
	}
	t.skew = t.skew.Add(o.skew)
	t.rotation = t.rotation.Add(o.rotation)
	t.translation = t.translation.Add(o.translation)
	t.scale = t.scale.Mul(o.scale)
	t.size *= o.size
	t.changed()
}

// Copy overwrites t's values with o's without notifying. Listeners stay.
func (t *Transformation) Copy(o *Transformation) {
	if o == nil {
		return
	}
	t.skew, t.scale, t.rotation, t.translation, t.size = o.skew, o.scale, o.rotation, o.translation, o.size
}

// Clone returns an independent copy with no listeners.
func (t *Transformation) Clone() *Transformation {
	c := NewTransformation()
	c.Copy(t)
	return c
}

// Equal compares values only.
func (t *Transformation) Equal(o *Transformation) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	return t.skew == o.skew && t.scale == o.scale && t.rotation == o.rotation &&
		t.translation == o.translation && t.size == o.size
}

func (t *Transformation) Hash() uint64 {
	h := newHasher()
	h.vec(t.skew)
	h.vec(t.scale)
	h.vec(t.rotation)
	h.vec(t.translation)
	h.float(t.size)
	return h.sum()
}

// Apply maps p through skew, size, scale, rotation and translation, in that
// order.
func (t *Transformation) Apply(p v3.Vec) v3.Vec {
	p = v3.Vec{
		X: p.X + t.skew.X*p.Y,
		Y: p.Y + t.skew.Y*p.Z,
		Z: p.Z + t.skew.Z*p.X,
	}
	p = p.MulScalar(t.size).Mul(t.scale)
	p = rotateX(p, t.rotation.X)
	p = rotateY(p, t.rotation.Y)
	p = rotateZ(p, t.rotation.Z)
	return p.Add(t.translation)
}

func rotateX(p v3.Vec, a float64) v3.Vec {
	s, c := math.Sincos(a)
	return v3.Vec{X: p.X, Y: c*p.Y - s*p.Z, Z: s*p.Y + c*p.Z}
}

func rotateY(p v3.Vec, a float64) v3.Vec {
	s, c := math.Sincos(a)
	return v3.Vec{X: c*p.X + s*p.Z, Y: p.Y, Z: -s*p.X + c*p.Z}
}

func rotateZ(p v3.Vec, a float64) v3.Vec {
	s, c := math.Sincos(a)
	return v3.Vec{X: c*p.X - s*p.Y, Y: s*p.X + c*p.Y, Z: p.Z}
}

func (t *Transformation) String() string {
	return fmt.Sprintf("Transformation{size=%g scale=%v rotation=%v translation=%v skew=%v}",
		t.size, vecString(t.scale), vecString(t.rotation), vecString(t.translation), vecString(t.skew))
}

func vecString(v v3.Vec) string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

func (t *Transformation) changed() {
	t.updates.Notify(update.Transformation)
}
