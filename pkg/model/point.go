package model

import (
	"github.com/chazu/partgraph/pkg/update"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// pointTopology holds a location. Vertices additionally list the edges that
// use them in Edges, which the link rules treat as a back reference.
type pointTopology struct {
	baseTopology
	loc v3.Vec
}

func (t *pointTopology) setLocation(m *Mesh, v v3.Vec) {
	if v == t.loc {
		return
	}
	t.loc = v
	m.updates.Notify(update.Property)
}

func (t *pointTopology) copyState(from topology) {
	if o, ok := from.(*pointTopology); ok {
		t.loc = o.loc
	}
}

func (t *pointTopology) stateEqual(o topology) bool {
	p, ok := o.(*pointTopology)
	return ok && p.loc == t.loc
}

func (t *pointTopology) hashState(h *hasher) { h.vec(t.loc) }

func pointOf(c *Controller) (*pointTopology, bool) {
	p, ok := c.mesh.topology.(*pointTopology)
	return p, ok
}
