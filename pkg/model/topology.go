package model

import "github.com/chazu/partgraph/pkg/update"

// topology is the per-kind policy a Mesh delegates its mutations to. The
// base policy implements the generic container; variants override what they
// need and fall back to the base for the rest.
type topology interface {
	kind() PartKind
	init(m *Mesh)

	addEntity(m *Mesh, c *Controller, cat Category)
	removeEntity(m *Mesh, c *Controller)
	setProperty(m *Mesh, p Property, value string)

	// controllerSet runs once the mesh is bound to its controller.
	controllerSet(m *Mesh, c *Controller)
	// childUpdated runs before the mesh renotifies a change of c.
	childUpdated(m *Mesh, c *Controller, kinds update.Kind)

	copyState(from topology)
	stateEqual(o topology) bool
	hashState(h *hasher)
}

func newTopology(kind PartKind) topology {
	base := baseTopology{k: kind}
	switch kind {
	case KindPoint, KindVertex:
		return &pointTopology{baseTopology: base}
	case KindEdge:
		return &edgeTopology{baseTopology: base}
	case KindFace:
		return &faceTopology{baseTopology: base}
	case KindEdgeVertexFace:
		return &faceTopology{baseTopology: base, lockstep: true}
	case KindDetailedFace:
		return &faceTopology{baseTopology: base, lockstep: true, detailed: true}
	case KindShape:
		return &shapeTopology{baseTopology: base}
	case KindTube:
		return &shapeTopology{baseTopology: base, tube: true}
	default:
		return &baseTopology{k: KindBasic}
	}
}

type baseTopology struct {
	k PartKind
}

func (t *baseTopology) kind() PartKind { return t.k }

func (t *baseTopology) init(*Mesh) {}

func (t *baseTopology) addEntity(m *Mesh, c *Controller, cat Category) {
	m.insert(c, cat, LinkFor(t.k, cat).Observed())
}

func (t *baseTopology) removeEntity(m *Mesh, c *Controller) {
	m.remove(c)
}

func (t *baseTopology) setProperty(m *Mesh, p Property, value string) {
	m.setProperty(p, value)
}

func (t *baseTopology) controllerSet(*Mesh, *Controller) {}

func (t *baseTopology) childUpdated(*Mesh, *Controller, update.Kind) {}

func (t *baseTopology) copyState(topology) {}

func (t *baseTopology) stateEqual(topology) bool { return true }

func (t *baseTopology) hashState(*hasher) {}
