// Package tessellate walks a scene and produces triangle meshes using a
// geometry kernel. One mesh is produced per top-level shape and per face.
package tessellate

import (
	"fmt"

	"github.com/chazu/partgraph/pkg/kernel"
	"github.com/chazu/partgraph/pkg/model"
	"github.com/chazu/partgraph/pkg/render"
	"github.com/chazu/partgraph/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// transformStack accumulates the transformations of plain containers during
// traversal. Shapes carry their own transformation in their solid.
type transformStack struct {
	frames []*model.Transformation
}

func newTransformStack() *transformStack {
	return &transformStack{}
}

func (ts *transformStack) push(t *model.Transformation) {
	ts.frames = append(ts.frames, t)
}

func (ts *transformStack) pop() {
	if len(ts.frames) > 0 {
		ts.frames = ts.frames[:len(ts.frames)-1]
	}
}

// applyPoint maps p from the innermost frame out to world space.
func (ts *transformStack) applyPoint(p v3.Vec) v3.Vec {
	for i := len(ts.frames) - 1; i >= 0; i-- {
		p = ts.frames[i].Apply(p)
	}
	return p
}

// applySolid places s from the innermost frame out to world space.
func (ts *transformStack) applySolid(k kernel.Kernel, s kernel.Solid) kernel.Solid {
	for i := len(ts.frames) - 1; i >= 0; i-- {
		s = render.Place(k, s, ts.frames[i])
	}
	return s
}

// Tessellate walks the scene and produces one triangle mesh per renderable
// part using the provided geometry kernel. The tessellator is read-only and
// never mutates the scene.
func Tessellate(s *scene.Scene, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if s == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh
	ts := newTransformStack()
	seen := make(map[*model.Controller]bool)

	for _, root := range s.Roots {
		collected, err := walkPart(k, root, ts, seen)
		if err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", root, err)
		}
		meshes = append(meshes, collected...)
	}

	return meshes, nil
}

// walkPart recursively traverses a part and its owned entities, collecting
// meshes.
func walkPart(k kernel.Kernel, c *model.Controller, ts *transformStack, seen map[*model.Controller]bool) ([]*kernel.Mesh, error) {
	if seen[c] {
		return nil, nil
	}
	seen[c] = true

	switch c.Kind() {
	case model.KindShape, model.KindTube:
		return handleShape(k, c, ts)

	case model.KindFace, model.KindEdgeVertexFace, model.KindDetailedFace:
		return handleFace(c, ts)

	case model.KindPoint, model.KindVertex, model.KindEdge:
		// No surface.
		return nil, nil

	default:
		return handleContainer(k, c, ts, seen)
	}
}

// handleShape meshes a shape's solid. Its children are already part of the
// solid.
func handleShape(k kernel.Kernel, c *model.Controller, ts *transformStack) ([]*kernel.Mesh, error) {
	solid, ok := model.RepresentationAs[kernel.Solid](c.View())
	if !ok {
		var err error
		if solid, err = render.Build(k, c); err != nil {
			return nil, err
		}
	}

	mesh, err := k.ToMesh(ts.applySolid(k, solid))
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for %s: %w", c, err)
	}
	mesh.PartName = partName(c)
	return []*kernel.Mesh{mesh}, nil
}

// handleFace fan-triangulates the face's vertices in order. Faces with fewer
// than three vertices or no area produce nothing.
func handleFace(c *model.Controller, ts *transformStack) ([]*kernel.Mesh, error) {
	f, _ := model.AsFace(c)
	vs := f.Vertices()
	if len(vs) < 3 {
		return nil, nil
	}

	ts.push(c.Transformation())
	pts := make([]v3.Vec, len(vs))
	for i, v := range vs {
		pts[i] = ts.applyPoint(v.Location())
	}
	ts.pop()

	n := pts[1].Sub(pts[0]).Cross(pts[2].Sub(pts[0]))
	if n.Length() == 0 {
		return nil, nil
	}
	n = n.Normalize()

	mesh := &kernel.Mesh{PartName: partName(c)}
	for _, p := range pts {
		mesh.Vertices = append(mesh.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
		mesh.Normals = append(mesh.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	for i := 1; i+1 < len(pts); i++ {
		mesh.Indices = append(mesh.Indices, 0, uint32(i), uint32(i+1))
	}
	return []*kernel.Mesh{mesh}, nil
}

// handleContainer pushes the container's transformation, recurses into its
// owned entities, then pops.
func handleContainer(k kernel.Kernel, c *model.Controller, ts *transformStack, seen map[*model.Controller]bool) ([]*kernel.Mesh, error) {
	ts.push(c.Transformation())
	defer ts.pop()

	var meshes []*kernel.Mesh
	m := c.Mesh()
	for _, cat := range m.Categories() {
		if !model.LinkFor(c.Kind(), cat).Cloned() {
			continue
		}
		for _, child := range m.EntitiesFromCategory(cat) {
			collected, err := walkPart(k, child, ts, seen)
			if err != nil {
				return nil, err
			}
			meshes = append(meshes, collected...)
		}
	}
	return meshes, nil
}

// partName prefers the part's Name, then its Id.
func partName(c *model.Controller) string {
	if name := c.Property(model.Name); name != "" {
		return name
	}
	return c.Property(model.ID)
}

// Merge joins meshes into one, for export as a single object.
func Merge(meshes []*kernel.Mesh) *kernel.Mesh {
	out := &kernel.Mesh{}
	for _, m := range meshes {
		out.Append(m)
	}
	return out
}
