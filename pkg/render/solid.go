// Package render turns shape parts into kernel solids. A SolidView keeps the
// solid for its part current: the owning controller refreshes it on every
// change of the part or of anything below it.
package render

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/chazu/partgraph/pkg/kernel"
	"github.com/chazu/partgraph/pkg/model"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var (
	ErrNotShape   = errors.New("render: part is not a shape")
	ErrNoGeometry = errors.New("render: shape has no type and no children")
)

// Unit primitive dimensions, used when a shape does not set Radius or Height.
const (
	defaultRadius = 0.5
	defaultHeight = 1.0
)

// Build returns the solid for shape c in its parent's frame: the shape's
// primitive, or its children combined by its operator, then scaled, rotated
// and translated by its transformation. Skew is not applied.
func Build(k kernel.Kernel, c *model.Controller) (kernel.Solid, error) {
	s, ok := model.AsShape(c)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotShape, c)
	}
	solid, err := local(k, s)
	if err != nil {
		return nil, err
	}
	return Place(k, solid, c.Transformation()), nil
}

func local(k kernel.Kernel, s model.Shape) (kernel.Solid, error) {
	if children := s.Children(); len(children) > 0 {
		return combine(k, s, children)
	}

	switch t := s.ShapeType(); t {
	case model.ShapeCube:
		return k.Box(1, 1, 1)
	case model.ShapeSphere:
		return k.Sphere(floatProperty(s, model.Radius, defaultRadius))
	case model.ShapeCylinder:
		return k.Cylinder(floatProperty(s, model.Height, defaultHeight), floatProperty(s, model.Radius, defaultRadius))
	case model.ShapeCone:
		return k.Cone(floatProperty(s, model.Height, defaultHeight), floatProperty(s, model.Radius, defaultRadius), 0)
	case model.ShapeTube:
		d, err := s.Mesh().TubeDimensions()
		if err != nil {
			return nil, err
		}
		return k.Tube(d.Length, d.Radius, d.InnerRadius)
	case "":
		return nil, fmt.Errorf("%w: %s", ErrNoGeometry, s.Controller)
	default:
		return nil, fmt.Errorf("render: unknown shape type %q", t)
	}
}

// combine folds the children with the shape's operator. Complement subtracts
// every later child from the first.
func combine(k kernel.Kernel, s model.Shape, children []*model.Controller) (kernel.Solid, error) {
	var acc kernel.Solid
	for i, c := range children {
		solid, err := Build(k, c)
		if err != nil {
			return nil, fmt.Errorf("render: child %d of %s: %w", i, s.Controller, err)
		}
		if acc == nil {
			acc = solid
			continue
		}
		switch op := s.Operator(); op {
		case model.OpUnion, "":
			acc = k.Union(acc, solid)
		case model.OpIntersection:
			acc = k.Intersection(acc, solid)
		case model.OpComplement:
			acc = k.Difference(acc, solid)
		default:
			return nil, fmt.Errorf("render: unknown operator %q", op)
		}
	}
	return acc, nil
}

// Place scales, rotates and translates s by t. Skew is not applied.
func Place(k kernel.Kernel, s kernel.Solid, t *model.Transformation) kernel.Solid {
	scale := t.Scale().MulScalar(t.Size())
	if scale != (v3.Vec{X: 1, Y: 1, Z: 1}) {
		s = k.Scale(s, scale.X, scale.Y, scale.Z)
	}
	if r := t.Rotation(); r != (v3.Vec{}) {
		s = k.Rotate(s, r.X, r.Y, r.Z)
	}
	if p := t.Translation(); p != (v3.Vec{}) {
		s = k.Translate(s, p.X, p.Y, p.Z)
	}
	return s
}

func floatProperty(s model.Shape, p model.Property, def float64) float64 {
	v, ok := s.Mesh().LookupProperty(p)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// SolidView is a view whose representation is the kernel.Solid of its shape.
// A shape that cannot be built has no representation; Err says why.
type SolidView struct {
	*model.BasicView
	kernel kernel.Kernel
	solid  kernel.Solid
	err    error
}

var _ model.View = (*SolidView)(nil)

func NewSolidView(log *slog.Logger, k kernel.Kernel) *SolidView {
	return &SolidView{
		BasicView: model.NewBasicView(log),
		kernel:    k,
	}
}

// Refresh rebuilds the solid from m's controller.
func (v *SolidView) Refresh(m *model.Mesh) {
	c := m.Controller()
	if c == nil {
		return
	}
	v.solid, v.err = Build(v.kernel, c)
	if v.err != nil {
		v.Logger().Debug("shape not renderable", "part", c.String(), "err", v.err)
	}
}

func (v *SolidView) Representation() any {
	if v.solid == nil {
		return nil
	}
	return v.solid
}

// Solid returns the last built solid, or the error that prevented it.
func (v *SolidView) Solid() (kernel.Solid, error) {
	if v.solid == nil && v.err == nil {
		return nil, ErrNoGeometry
	}
	return v.solid, v.err
}

func (v *SolidView) Err() error { return v.err }

// Clone copies the transformations. The solid is rebuilt on the clone's
// first refresh.
func (v *SolidView) Clone() model.View {
	return &SolidView{BasicView: v.CloneBasic(), kernel: v.kernel}
}
