package model

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/chazu/partgraph/pkg/update"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var (
	ErrNilMesh   = errors.New("model: nil mesh")
	ErrNilView   = errors.New("model: nil view")
	ErrMeshOwned = errors.New("model: mesh already has a controller")
)

// Controller is a part: it binds one Mesh and one View, observes both and is
// what containers hold and observe. Any change of the mesh or view refreshes
// the view and is renotified to the controller's listeners as one batch.
type Controller struct {
	mesh     *Mesh
	view     View
	updates  *update.Manager
	disposed atomic.Bool
	log      *slog.Logger
}

// NewController binds mesh and view. The mesh must not belong to another
// controller yet.
func NewController(mesh *Mesh, view View) (*Controller, error) {
	if mesh == nil {
		return nil, ErrNilMesh
	}
	if view == nil {
		return nil, ErrNilView
	}
	if mesh.controller != nil {
		return nil, ErrMeshOwned
	}
	c := &Controller{
		mesh: mesh,
		view: view,
		log:  mesh.log,
	}
	c.updates = update.NewManager(c)
	mesh.SetController(c)
	mesh.Register(c)
	view.Register(c)
	return c, nil
}

// MustController is NewController for callers that build their own mesh and
// view and cannot hit the error cases.
func MustController(mesh *Mesh, view View) *Controller {
	c, err := NewController(mesh, view)
	if err != nil {
		panic(fmt.Sprintf("model.NewController: %v", err))
	}
	return c
}

func (c *Controller) Mesh() *Mesh { return c.mesh }
func (c *Controller) View() View { return c.view }
func (c *Controller) Kind() PartKind { return c.mesh.Kind() }

// Updates exposes the controller's manager for batching.
func (c *Controller) Updates() *update.Manager { return c.updates }

// Register adds l as a listener. A mesh is refused when this controller's
// mesh already listens to that mesh's controller, since the two would
// renotify each other forever.
func (c *Controller) Register(l update.Listener) {
	if m, ok := l.(*Mesh); ok && m.controller != nil && m.controller.updates.Registered(c.mesh) {
		c.log.Debug("refusing observation cycle", "observer", m.Kind())
		return
	}
	c.updates.Register(l)
}

func (c *Controller) Unregister(l update.Listener) { c.updates.Unregister(l) }

func (c *Controller) Subscriptions(update.Source) update.Kind { return update.All }

// Update refreshes the view and renotifies kinds, batched so listeners see a
// single notification.
func (c *Controller) Update(_ update.Source, kinds update.Kind) {
	c.updates.Enqueue()
	c.view.Refresh(c.mesh)
	c.updates.Notify(kinds)
	c.updates.Flush()
}

// SetView swaps the view. Nil is logged and ignored.
func (c *Controller) SetView(v View) {
	if v == nil {
		c.log.Error("nil view")
		return
	}
	if v == c.view {
		return
	}
	c.view.Unregister(c)
	c.view = v
	v.Register(c)
	c.Refresh()
}

// Refresh rebuilds the view's representation from the mesh.
func (c *Controller) Refresh() { c.view.Refresh(c.mesh) }

// Representation returns the view's representation.
func (c *Controller) Representation() any { return c.view.Representation() }

// Disposed may be called from any goroutine.
func (c *Controller) Disposed() bool { return c.disposed.Load() }

// SetDisposed flags the part and notifies PROPERTY.
func (c *Controller) SetDisposed(b bool) {
	c.disposed.Store(b)
	c.updates.Notify(update.Property)
}

func (c *Controller) Dispose() { c.SetDisposed(true) }

func (c *Controller) Transformation() *Transformation { return c.view.Transformation() }

func (c *Controller) SetTransformation(t *Transformation) { c.view.SetTransformation(t) }

func (c *Controller) PreviousTransformation() *Transformation {
	return c.view.PreviousTransformation()
}

func (c *Controller) SetSynched() { c.view.SetSynched() }

// Synched reports whether the transformation is unchanged since SetSynched.
func (c *Controller) Synched() bool {
	return c.view.Transformation().Equal(c.view.PreviousTransformation())
}

func (c *Controller) Rotation() v3.Vec { return c.Transformation().Rotation() }
func (c *Controller) SetRotation(v v3.Vec) { c.Transformation().SetRotation(v) }
func (c *Controller) Scale() v3.Vec { return c.Transformation().Scale() }
func (c *Controller) SetScale(v v3.Vec) { c.Transformation().SetScale(v) }
func (c *Controller) Size() float64 { return c.Transformation().Size() }
func (c *Controller) SetSize(s float64) { c.Transformation().SetSize(s) }
func (c *Controller) Skew() v3.Vec { return c.Transformation().Skew() }
func (c *Controller) SetSkew(v v3.Vec) { c.Transformation().SetSkew(v) }
func (c *Controller) Translation() v3.Vec { return c.Transformation().Translation() }
func (c *Controller) SetTranslation(v v3.Vec) { c.Transformation().SetTranslation(v) }

func (c *Controller) IsRoot() bool { return c.mesh.Property(Root) == True }
func (c *Controller) SetRoot(b bool) { c.mesh.SetProperty(Root, boolString(b)) }
func (c *Controller) IsSelected() bool { return c.mesh.Property(Selected) == True }
func (c *Controller) SetSelected(b bool) { c.mesh.SetProperty(Selected, boolString(b)) }

func (c *Controller) Property(p Property) string { return c.mesh.Property(p) }
func (c *Controller) SetProperty(p Property, value string) { c.mesh.SetProperty(p, value) }

func (c *Controller) Entities() []*Controller { return c.mesh.Entities() }

func (c *Controller) EntitiesFromCategory(cat Category) []*Controller {
	return c.mesh.EntitiesFromCategory(cat)
}

func (c *Controller) AddEntity(e *Controller) { c.mesh.AddEntity(e) }

func (c *Controller) AddEntityToCategory(e *Controller, cat Category) {
	c.mesh.AddEntityToCategory(e, cat)
}

func (c *Controller) RemoveEntity(e *Controller) { c.mesh.RemoveEntity(e) }

// Clone returns a deep copy: a cloned mesh, a cloned view and fresh
// observation links. An entity reachable twice is cloned once and shared.
func (c *Controller) Clone() *Controller {
	return c.cloneWith(make(map[*Controller]*Controller))
}

func (c *Controller) cloneWith(memo map[*Controller]*Controller) *Controller {
	if cl, ok := memo[c]; ok {
		return cl
	}
	cl := MustController(c.mesh.cloneWith(memo), c.view.Clone())
	memo[c] = cl
	cl.Refresh()
	return cl
}

// Copy replaces c's mesh and view with clones of o's. c keeps its listeners
// and notifies every kind.
func (c *Controller) Copy(o *Controller) {
	if o == nil || o == c {
		return
	}
	mesh := o.mesh.cloneWith(make(map[*Controller]*Controller))
	view := o.view.Clone()

	c.updates.Enqueue()
	old := c.mesh
	old.Unregister(c)
	c.view.Unregister(c)
	for _, e := range old.Entities() {
		old.RemoveEntity(e)
	}
	c.mesh, c.view = mesh, view
	mesh.SetController(c)
	mesh.Register(c)
	view.Register(c)
	c.view.Refresh(c.mesh)
	c.updates.Notify(update.Every)
	c.updates.Flush()
}

// Equal compares meshes and views.
func (c *Controller) Equal(o *Controller) bool {
	return c.equalWith(o, make(map[[2]*Mesh]bool))
}

func (c *Controller) equalWith(o *Controller, seen map[[2]*Mesh]bool) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil {
		return false
	}
	return c.mesh.equalWith(o.mesh, seen) && c.view.Equal(o.view)
}

func (c *Controller) Hash() uint64 {
	return c.hashWith(make(map[*Mesh]bool))
}

func (c *Controller) hashWith(visiting map[*Mesh]bool) uint64 {
	return 31*c.mesh.hashWith(visiting) + c.view.Hash()
}

func (c *Controller) String() string {
	name := c.mesh.Property(Name)
	if name == "" {
		name = "-"
	}
	return fmt.Sprintf("%s(%s)", c.mesh.Kind(), name)
}
