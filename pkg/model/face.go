package model

import (
	"slices"

	"github.com/chazu/partgraph/pkg/update"
)

// faceTopology is a face. With lockstep set, adding an edge also adds its
// vertices and removing an edge removes the vertices no remaining edge uses.
// A detailed face also lists itself in each of its edges' Faces.
type faceTopology struct {
	baseTopology
	lockstep bool
	detailed bool
}

func (t *faceTopology) addEntity(m *Mesh, c *Controller, cat Category) {
	if !t.lockstep || cat != Edges {
		t.baseTopology.addEntity(m, c, cat)
		return
	}

	m.updates.Enqueue()
	defer m.updates.Flush()
	if !m.insert(c, Edges, true) {
		return
	}
	for _, v := range c.mesh.entities[Vertices] {
		m.insert(v, Vertices, true)
	}
	if t.detailed && m.controller != nil && c.Kind() == KindEdge {
		c.AddEntityToCategory(m.controller, Faces)
	}
}

func (t *faceTopology) removeEntity(m *Mesh, c *Controller) {
	if !t.lockstep || !m.Contains(Edges, c) {
		t.baseTopology.removeEntity(m, c)
		return
	}

	m.updates.Enqueue()
	defer m.updates.Flush()
	m.remove(c)
	for _, v := range c.mesh.entities[Vertices] {
		if !t.referenced(m, v) {
			m.remove(v)
		}
	}
	if t.detailed && m.controller != nil && c.Kind() == KindEdge {
		c.mesh.removeFrom(m.controller, Faces)
	}
}

// referenced reports whether any edge still in m uses v.
func (t *faceTopology) referenced(m *Mesh, v *Controller) bool {
	for _, e := range m.entities[Edges] {
		if e.mesh.Contains(Vertices, v) {
			return true
		}
	}
	return false
}

func (t *faceTopology) controllerSet(m *Mesh, c *Controller) {
	if !t.detailed {
		return
	}
	for _, e := range m.entities[Edges] {
		if e.Kind() == KindEdge {
			e.AddEntityToCategory(c, Faces)
		}
	}
}

// childUpdated follows an edge's vertex changes after it joined the face:
// vertices it gained are added, vertices no edge uses any more are removed.
func (t *faceTopology) childUpdated(m *Mesh, c *Controller, kinds update.Kind) {
	if !t.lockstep || !kinds.Has(update.Child) || !m.Contains(Edges, c) {
		return
	}
	m.updates.Enqueue()
	defer m.updates.Flush()
	for _, v := range c.mesh.entities[Vertices] {
		m.insert(v, Vertices, true)
	}
	for _, v := range slices.Clone(m.entities[Vertices]) {
		if !t.referenced(m, v) {
			m.remove(v)
		}
	}
}
