package model

import (
	"log/slog"

	"github.com/chazu/partgraph/pkg/update"
)

// View is the presentation half of a part: its transformation, the
// transformation it last synchronised against, and whatever representation a
// renderer builds from the mesh. A View is an update.Source; its controller
// observes it.
type View interface {
	update.Source

	Transformation() *Transformation
	// SetTransformation replaces the transformation. Nil is ignored.
	SetTransformation(t *Transformation)
	PreviousTransformation() *Transformation
	// SetSynched records the current transformation as the previous one.
	SetSynched()

	// Refresh rebuilds the representation from m.
	Refresh(m *Mesh)
	// Representation returns the renderer's output, or nil when the view has
	// none.
	Representation() any

	Clone() View
	Equal(o View) bool
	Hash() uint64
}

// RepresentationAs returns v's representation narrowed to T.
func RepresentationAs[T any](v View) (T, bool) {
	var zero T
	if v == nil {
		return zero, false
	}
	r, ok := v.Representation().(T)
	if !ok {
		return zero, false
	}
	return r, true
}

// BasicView carries a transformation and no representation. It relays every
// notification from its transformation to its own listeners. Renderer views
// embed it.
type BasicView struct {
	transformation *Transformation
	previous       *Transformation
	updates        *update.Manager
	log            *slog.Logger
}

var _ View = (*BasicView)(nil)

func NewBasicView(log *slog.Logger) *BasicView {
	v := &BasicView{
		transformation: NewTransformation(),
		previous:       NewTransformation(),
		log:            loggerOrDiscard(log).With("component", "view"),
	}
	v.updates = update.NewManager(v)
	v.transformation.Register(v)
	return v
}

func (v *BasicView) Register(l update.Listener) { v.updates.Register(l) }
func (v *BasicView) Unregister(l update.Listener) { v.updates.Unregister(l) }

// Update relays a transformation change.
func (v *BasicView) Update(_ update.Source, kinds update.Kind) {
	v.updates.Notify(kinds)
}

func (v *BasicView) Subscriptions(update.Source) update.Kind { return update.All }

func (v *BasicView) Transformation() *Transformation { return v.transformation }

func (v *BasicView) SetTransformation(t *Transformation) {
	if t == nil {
		v.log.Error("nil transformation")
		return
	}
	if t == v.transformation {
		return
	}
	v.transformation.Unregister(v)
	v.transformation = t
	t.Register(v)
	v.updates.Notify(update.Transformation)
}

func (v *BasicView) PreviousTransformation() *Transformation { return v.previous }

func (v *BasicView) SetSynched() { v.previous.Copy(v.transformation) }

func (v *BasicView) Refresh(*Mesh) {}

func (v *BasicView) Representation() any { return nil }

// Logger returns the view's logger for embedding views.
func (v *BasicView) Logger() *slog.Logger { return v.log }

// Clone copies the transformations into a fresh view with no listeners.
func (v *BasicView) Clone() View {
	return v.CloneBasic()
}

// CloneBasic is Clone with the concrete type, for embedding views.
func (v *BasicView) CloneBasic() *BasicView {
	c := NewBasicView(nil)
	c.log = v.log
	c.transformation.Copy(v.transformation)
	c.previous.Copy(v.previous)
	return c
}

// Equal compares the current transformations.
func (v *BasicView) Equal(o View) bool {
	if o == nil {
		return false
	}
	return v.transformation.Equal(o.Transformation())
}

func (v *BasicView) Hash() uint64 { return v.transformation.Hash() }
