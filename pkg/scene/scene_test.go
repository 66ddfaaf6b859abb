package scene

import (
	"strings"
	"testing"

	"github.com/chazu/partgraph/pkg/model"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func named(t *testing.T, f *model.Factory, kind model.PartKind, name string) *model.Controller {
	t.Helper()
	c, err := f.New(kind)
	require.NoError(t, err)
	c.SetProperty(model.Name, name)
	return c
}

// buildTriangle returns a scene with one detailed face over a triangle.
func buildTriangle(t *testing.T) (*Scene, model.Face) {
	t.Helper()
	a := model.NewVertex(nil, v3.Vec{})
	b := model.NewVertex(nil, v3.Vec{X: 1})
	c := model.NewVertex(nil, v3.Vec{Y: 1})
	a.SetProperty(model.Name, "a")
	face := model.NewFace(nil, model.KindDetailedFace,
		model.NewEdge(nil, a, b), model.NewEdge(nil, b, c), model.NewEdge(nil, c, a))
	face.SetProperty(model.Name, "tri")

	s := New(nil)
	s.AddRoot(face.Controller)
	return s, face
}

// hasFinding reports whether errs holds a finding of sev whose message
// contains substr.
func hasFinding(errs []ValidationError, sev ValidationSeverity, substr string) bool {
	for _, e := range errs {
		if e.Severity == sev && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func TestAddRootIndexes(t *testing.T) {
	s, face := buildTriangle(t)
	assert.True(t, face.IsRoot())
	assert.Same(t, face.Controller, s.Lookup("tri"))
	assert.NotNil(t, s.Lookup("a"))
	assert.Nil(t, s.Lookup("missing"))
	assert.Panics(t, func() { s.MustLookup("missing") })

	// 1 face, 3 edges, 3 vertices
	assert.Equal(t, 7, s.PartCount())
	assert.Len(t, s.PartsOfKind(model.KindEdge), 3)

	for _, p := range s.Parts() {
		id := p.Property(model.ID)
		require.NotEmpty(t, id)
		assert.Same(t, p, s.Find(id))
	}

	s.AddRoot(face.Controller)
	assert.Len(t, s.Roots, 1)
}

func TestRemoveRoot(t *testing.T) {
	s, face := buildTriangle(t)
	s.RemoveRoot(face.Controller)
	assert.Empty(t, s.Roots)
	assert.False(t, face.IsRoot())
	assert.Nil(t, s.Lookup("tri"))
}

func TestWalkDepth(t *testing.T) {
	s, _ := buildTriangle(t)
	depths := map[model.PartKind]int{}
	err := s.Walk(func(c *model.Controller, depth int) error {
		depths[c.Kind()] = depth
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, depths[model.KindDetailedFace])
	assert.Equal(t, 1, depths[model.KindEdge])
	assert.Equal(t, 2, depths[model.KindVertex])
}

func TestValidTriangle(t *testing.T) {
	s, _ := buildTriangle(t)
	errs := Validate(s)
	assert.Empty(t, errs)
	assert.False(t, HasErrors(errs))
}

func TestValidShapeTree(t *testing.T) {
	f := model.BasicFactory(nil)
	root := named(t, f, model.KindShape, "root")
	tube := named(t, f, model.KindTube, "tube")
	cube := named(t, f, model.KindShape, "cube")
	model.Shape{Controller: root}.AddChild(tube)
	model.Shape{Controller: root}.AddChild(cube)

	s := New(nil)
	s.AddRoot(root)
	assert.Empty(t, Validate(s))
}

func TestValidateObservationCycle(t *testing.T) {
	f := model.BasicFactory(nil)
	a := named(t, f, model.KindBasic, "a")
	b := named(t, f, model.KindBasic, "b")
	c := named(t, f, model.KindBasic, "c")
	a.AddEntity(b)
	b.AddEntity(c)
	c.AddEntity(a)

	s := New(nil)
	s.AddRoot(a)
	errs := Validate(s)
	assert.True(t, hasFinding(errs, SeverityError, "observation cycle"), "%v", errs)
}

func TestValidateIncompleteEdge(t *testing.T) {
	v := model.NewVertex(nil, v3.Vec{})
	e := model.Edge{Controller: model.MustController(model.NewMesh(nil, model.KindEdge), model.NewBasicView(nil))}
	e.AddEntityToCategory(v.Controller, model.Vertices)

	s := New(nil)
	s.AddRoot(e.Controller)
	errs := Validate(s)
	assert.True(t, hasFinding(errs, SeverityWarning, "incomplete"))
	assert.False(t, HasErrors(errs))
}

func TestValidateDuplicateNames(t *testing.T) {
	f := model.BasicFactory(nil)
	root := named(t, f, model.KindBasic, "root")
	root.AddEntity(named(t, f, model.KindBasic, "twin"))
	root.AddEntity(named(t, f, model.KindBasic, "twin"))

	s := New(nil)
	s.AddRoot(root)
	assert.True(t, hasFinding(Validate(s), SeverityError, `duplicate name "twin"`))
}

func TestValidateStaleIndex(t *testing.T) {
	s, _ := buildTriangle(t)
	s.NameIndex["ghost"] = model.NewVertex(nil, v3.Vec{}).Controller
	assert.True(t, hasFinding(Validate(s), SeverityError, `"ghost"`))
}

func TestValidateNestedRoot(t *testing.T) {
	f := model.BasicFactory(nil)
	outer := named(t, f, model.KindBasic, "outer")
	inner := named(t, f, model.KindBasic, "inner")
	outer.AddEntity(inner)

	s := New(nil)
	s.AddRoot(outer)
	s.AddRoot(inner)
	assert.True(t, hasFinding(Validate(s), SeverityWarning, "reachable from another root"))

	inner.SetRoot(false)
	assert.True(t, hasFinding(Validate(s), SeverityWarning, "not flagged"))
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Message: "boom", Severity: SeverityWarning}
	assert.Equal(t, "[warning] boom", e.Error())
	assert.Equal(t, "ValidationSeverity(7)", ValidationSeverity(7).String())
}
