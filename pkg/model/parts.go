package model

import (
	"log/slog"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// EntitiesAs narrows every entity of cat with narrow. If any entity does not
// narrow the result is empty: a category is either entirely of the expected
// kind or unusable.
func EntitiesAs[T any](m *Mesh, cat Category, narrow func(*Controller) (T, bool)) []T {
	list := m.entities[cat]
	out := make([]T, 0, len(list))
	for _, c := range list {
		t, ok := narrow(c)
		if !ok {
			m.log.Error("category holds an entity of another kind", "category", cat, "entity", c)
			return nil
		}
		out = append(out, t)
	}
	return out
}

// Vertex is a point or vertex part.
type Vertex struct{ *Controller }

func AsVertex(c *Controller) (Vertex, bool) {
	if c == nil {
		return Vertex{}, false
	}
	k := c.Kind()
	return Vertex{c}, k == KindPoint || k == KindVertex
}

func (v Vertex) Location() v3.Vec {
	p, _ := pointOf(v.Controller)
	return p.loc
}

// SetLocation moves the vertex and notifies PROPERTY. Edges using it
// remeasure.
func (v Vertex) SetLocation(loc v3.Vec) {
	p, _ := pointOf(v.Controller)
	p.setLocation(v.mesh, loc)
}

// Edges lists the edges using the vertex.
func (v Vertex) Edges() []Edge { return EntitiesAs(v.mesh, Edges, AsEdge) }

// Edge is an edge part.
type Edge struct{ *Controller }

func AsEdge(c *Controller) (Edge, bool) {
	if c == nil {
		return Edge{}, false
	}
	return Edge{c}, c.Kind() == KindEdge
}

// Length is the distance between the two vertices, 0 until both are set.
func (e Edge) Length() float64 {
	return e.mesh.topology.(*edgeTopology).length
}

func (e Edge) Vertices() []Vertex { return EntitiesAs(e.mesh, Vertices, AsVertex) }

// Faces lists the detailed faces using the edge.
func (e Edge) Faces() []Face { return EntitiesAs(e.mesh, Faces, AsFace) }

// Face is any face part.
type Face struct{ *Controller }

func AsFace(c *Controller) (Face, bool) {
	if c == nil {
		return Face{}, false
	}
	switch c.Kind() {
	case KindFace, KindEdgeVertexFace, KindDetailedFace:
		return Face{c}, true
	}
	return Face{}, false
}

func (f Face) Edges() []Edge { return EntitiesAs(f.mesh, Edges, AsEdge) }
func (f Face) Vertices() []Vertex { return EntitiesAs(f.mesh, Vertices, AsVertex) }

// Shape is a shape or tube part.
type Shape struct{ *Controller }

func AsShape(c *Controller) (Shape, bool) {
	if c == nil {
		return Shape{}, false
	}
	k := c.Kind()
	return Shape{c}, k == KindShape || k == KindTube
}

// Parent returns the parent, or nil.
func (s Shape) Parent() *Controller {
	if p := s.mesh.entities[Parent]; len(p) > 0 {
		return p[0]
	}
	return nil
}

// SetParent replaces the parent and observes the new one. Nil clears it.
func (s Shape) SetParent(p *Controller) {
	st, _ := shapeOf(s.Controller)
	st.setParent(s.mesh, p, true)
}

func (s Shape) Children() []*Controller { return s.EntitiesFromCategory(Children) }

func (s Shape) AddChild(c *Controller) { s.AddEntityToCategory(c, Children) }

func (s Shape) ShapeType() string { return s.Property(Type) }
func (s Shape) SetShapeType(t string) { s.SetProperty(Type, t) }
func (s Shape) Operator() string { return s.Property(Operator) }
func (s Shape) SetOperator(op string) { s.SetProperty(Operator, op) }

// NewVertex builds a vertex at loc with a basic view.
func NewVertex(log *slog.Logger, loc v3.Vec) Vertex {
	m := NewMesh(log, KindVertex)
	m.topology.(*pointTopology).loc = loc
	return Vertex{MustController(m, NewBasicView(log))}
}

// NewEdge builds an edge between a and b with a basic view.
func NewEdge(log *slog.Logger, a, b Vertex) Edge {
	e := Edge{MustController(NewMesh(log, KindEdge), NewBasicView(log))}
	e.AddEntityToCategory(a.Controller, Vertices)
	e.AddEntityToCategory(b.Controller, Vertices)
	return e
}

// NewFace builds a face of the given kind over edges with a basic view.
func NewFace(log *slog.Logger, kind PartKind, edges ...Edge) Face {
	f := Face{MustController(NewMesh(log, kind), NewBasicView(log))}
	f.Mesh().updates.Enqueue()
	for _, e := range edges {
		f.AddEntityToCategory(e.Controller, Edges)
	}
	f.Mesh().updates.Flush()
	return f
}
