package model

import (
	"testing"

	"github.com/chazu/partgraph/pkg/update"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEntityIdempotent(t *testing.T) {
	m := NewMesh(nil, KindBasic)
	c := newPart(t, KindBasic)
	s := &spy{}
	m.Register(s)

	m.AddEntityToCategory(c, Vertices)
	m.AddEntityToCategory(c, Vertices)

	assert.Equal(t, []*Controller{c}, m.EntitiesFromCategory(Vertices))
	assert.Equal(t, 1, s.calls)
	assert.Equal(t, update.Child, s.got)
}

func TestAddEntityNil(t *testing.T) {
	m := NewMesh(nil, KindBasic)
	m.AddEntity(nil)
	m.RemoveEntity(nil)
	assert.Empty(t, m.Entities())
}

func TestRemoveEntityFromEveryCategory(t *testing.T) {
	m := NewMesh(nil, KindBasic)
	c := newPart(t, KindBasic)
	other := newPart(t, KindBasic)
	m.AddEntityToCategory(c, Vertices)
	m.AddEntityToCategory(c, Edges)
	m.AddEntity(other)
	require.True(t, c.Updates().Registered(m))

	s := &spy{}
	m.Register(s)
	m.RemoveEntity(c)

	assert.Equal(t, []*Controller{other}, m.Entities())
	assert.Empty(t, m.EntitiesFromCategory(Vertices))
	assert.Equal(t, []Category{Default}, m.Categories())
	assert.False(t, c.Updates().Registered(m))
	assert.Equal(t, 1, s.calls, "removal from two categories is one batch")

	s.reset()
	m.RemoveEntity(c)
	assert.Zero(t, s.calls, "removing an absent entity does not notify")
}

func TestEntitiesKeepsInsertionOrder(t *testing.T) {
	m := NewMesh(nil, KindBasic)
	a, b, c := newPart(t, KindBasic), newPart(t, KindBasic), newPart(t, KindBasic)
	m.AddEntityToCategory(b, Edges)
	m.AddEntityToCategory(a, Vertices)
	m.AddEntityToCategory(c, Edges)
	m.AddEntityToCategory(a, Default)

	assert.Equal(t, []Category{Edges, Vertices, Default}, m.Categories())
	assert.Equal(t, []*Controller{b, c, a}, m.Entities())
}

func TestSetProperty(t *testing.T) {
	m := NewMesh(nil, KindBasic)
	s := &spy{}
	m.Register(s)

	m.SetProperty(Name, "bolt")
	assert.Equal(t, update.Property, s.got)
	assert.Equal(t, "bolt", m.Property(Name))

	s.reset()
	m.SetProperty(Name, "bolt")
	assert.Zero(t, s.calls, "unchanged value does not notify")

	s.reset()
	m.SetProperty(Selected, True)
	assert.Equal(t, update.Selection, s.got)

	_, ok := m.LookupProperty(Description)
	assert.False(t, ok)
	assert.Equal(t, "", m.Property(Description))
}

func TestSetType(t *testing.T) {
	m := NewMesh(nil, KindBasic)
	assert.Equal(t, MeshSimple, m.Type())

	s := &spy{}
	m.Register(s)
	m.SetType(MeshConstructive)
	assert.Equal(t, MeshConstructive, m.Type())
	assert.Equal(t, 1, s.calls)

	m.SetType(MeshType(42))
	assert.Equal(t, MeshConstructive, m.Type())
	assert.Equal(t, 1, s.calls)
}

func TestSetControllerOnce(t *testing.T) {
	c := newPart(t, KindBasic)
	other := newPart(t, KindBasic)
	m := c.Mesh()

	m.SetController(other)
	m.SetController(nil)
	assert.Same(t, c, m.Controller())

	_, err := NewController(m, NewBasicView(nil))
	assert.ErrorIs(t, err, ErrMeshOwned)
}

func TestChangesCascadeToAncestors(t *testing.T) {
	root := newPart(t, KindBasic)
	mid := newPart(t, KindBasic)
	leaf := newPart(t, KindBasic)
	root.AddEntity(mid)
	mid.AddEntity(leaf)

	s := &spy{}
	root.Register(s)
	leaf.SetProperty(Name, "leaf")
	assert.Equal(t, 1, s.calls)
	assert.Equal(t, update.Property, s.got)

	s.reset()
	leaf.SetTranslation(vec(1, 0, 0))
	assert.Equal(t, update.Transformation, s.got)
}

func TestMeshEqual(t *testing.T) {
	a, b := NewMesh(nil, KindBasic), NewMesh(nil, KindBasic)
	v1, v2 := newPart(t, KindBasic), newPart(t, KindBasic)
	v1.SetProperty(Name, "one")
	v2.SetProperty(Name, "two")

	a.AddEntityToCategory(v1, Vertices)
	a.AddEntityToCategory(v2, Vertices)
	b.AddEntityToCategory(v2.Clone(), Vertices)
	b.AddEntityToCategory(v1.Clone(), Vertices)
	assert.True(t, a.Equal(b), "entity order is ignored")
	assert.Equal(t, a.Hash(), b.Hash())

	// an emptied category equals a missing one
	e := newPart(t, KindBasic)
	a.AddEntityToCategory(e, Edges)
	assert.False(t, a.Equal(b))
	a.RemoveEntity(e)
	assert.True(t, a.Equal(b))

	b.SetProperty(Name, "b")
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(nil))
	assert.False(t, a.Equal(NewMesh(nil, KindShape)))
}

func TestMeshCopy(t *testing.T) {
	src := NewMesh(nil, KindBasic)
	child := newPart(t, KindBasic)
	src.AddEntityToCategory(child, Children)
	src.SetProperty(Name, "src")
	src.SetType(MeshVolumetric)

	dst := NewMesh(nil, KindBasic)
	dst.AddEntity(newPart(t, KindBasic))
	s := &spy{}
	dst.Register(s)
	dst.Copy(src)

	assert.True(t, dst.Equal(src))
	assert.Equal(t, 1, s.calls)
	assert.Equal(t, update.Every, s.got)
	require.Len(t, dst.EntitiesFromCategory(Children), 1)
	assert.NotSame(t, child, dst.EntitiesFromCategory(Children)[0], "children are cloned")
	assert.Empty(t, dst.EntitiesFromCategory(Default))

	s.reset()
	dst.Copy(NewMesh(nil, KindEdge))
	assert.Zero(t, s.calls, "copy from another kind is ignored")
	assert.Equal(t, "src", dst.Property(Name))
}

func TestEntitiesAs(t *testing.T) {
	m := NewMesh(nil, KindBasic)
	v := NewVertex(nil, vec(0, 0, 0))
	m.AddEntityToCategory(v.Controller, Vertices)
	assert.Len(t, EntitiesAs(m, Vertices, AsVertex), 1)

	m.AddEntityToCategory(newPart(t, KindBasic), Vertices)
	assert.Empty(t, EntitiesAs(m, Vertices, AsVertex), "one wrong kind empties the result")
	assert.Empty(t, EntitiesAs(m, Faces, AsFace))
}
