// Package kernel defines the abstract geometry kernel interface.
// Implementations provide solid modeling and boolean operations behind this
// interface, so renderers can build solids without knowing the backend.
package kernel

import "errors"

// ErrDegenerate is returned for primitives with non-positive dimensions.
var ErrDegenerate = errors.New("kernel: degenerate primitive")

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface. Primitives are centered
// on the origin; cylinders, cones and tubes run along Z.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) (Solid, error)
	Sphere(radius float64) (Solid, error)
	Cylinder(height, radius float64) (Solid, error)
	Cone(height, bottomRadius, topRadius float64) (Solid, error)
	Tube(height, outerRadius, innerRadius float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // radians, about X then Y then Z
	Scale(s Solid, x, y, z float64) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
