package model

import (
	"testing"

	"github.com/chazu/partgraph/pkg/update"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/require"
)

// spy counts notifications and accumulates their kinds.
type spy struct {
	calls int
	got   update.Kind
}

func (s *spy) Update(_ update.Source, kinds update.Kind) {
	s.calls++
	s.got |= kinds
}

func (s *spy) Subscriptions(update.Source) update.Kind { return update.All }

func (s *spy) reset() {
	s.calls = 0
	s.got = 0
}

func newPart(t *testing.T, kind PartKind) *Controller {
	t.Helper()
	c, err := NewController(NewMesh(nil, kind), NewBasicView(nil))
	require.NoError(t, err)
	return c
}

func newShape(t *testing.T) Shape {
	t.Helper()
	s, ok := AsShape(newPart(t, KindShape))
	require.True(t, ok)
	return s
}

func vec(x, y, z float64) v3.Vec { return v3.Vec{X: x, Y: y, Z: z} }
