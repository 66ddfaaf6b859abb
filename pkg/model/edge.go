package model

import "github.com/chazu/partgraph/pkg/update"

// edgeTopology holds at most two vertices and keeps the straight-line
// distance between them. The edge lists itself in each vertex's Edges and is
// listed in Faces by the detailed faces that use it.
type edgeTopology struct {
	baseTopology
	length float64
}

func (t *edgeTopology) addEntity(m *Mesh, c *Controller, cat Category) {
	if cat != Vertices {
		t.baseTopology.addEntity(m, c, cat)
		return
	}
	if len(m.entities[Vertices]) >= 2 {
		m.log.Debug("edge already has two vertices")
		return
	}

	m.updates.Enqueue()
	defer m.updates.Flush()
	if !m.insert(c, Vertices, true) {
		return
	}
	if m.controller != nil && c.Kind() == KindVertex {
		c.AddEntityToCategory(m.controller, Edges)
	}
	t.measure(m)
}

func (t *edgeTopology) removeEntity(m *Mesh, c *Controller) {
	vertex := m.Contains(Vertices, c)

	m.updates.Enqueue()
	defer m.updates.Flush()
	if !m.remove(c) || !vertex {
		return
	}
	if m.controller != nil && c.Kind() == KindVertex {
		c.mesh.removeFrom(m.controller, Edges)
	}
	t.measure(m)
}

func (t *edgeTopology) controllerSet(m *Mesh, c *Controller) {
	for _, v := range m.entities[Vertices] {
		if v.Kind() == KindVertex {
			v.AddEntityToCategory(c, Edges)
		}
	}
}

func (t *edgeTopology) childUpdated(m *Mesh, c *Controller, _ update.Kind) {
	if m.Contains(Vertices, c) {
		t.measure(m)
	}
}

func (t *edgeTopology) measure(m *Mesh) {
	t.length = 0
	vs := m.entities[Vertices]
	if len(vs) != 2 {
		return
	}
	a, okA := pointOf(vs[0])
	b, okB := pointOf(vs[1])
	if okA && okB {
		t.length = b.loc.Sub(a.loc).Length()
	}
}
