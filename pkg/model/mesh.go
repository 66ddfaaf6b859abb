package model

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/chazu/partgraph/pkg/update"
)

// Mesh is the data half of a part: a type, string properties and child
// controllers grouped by category. Categories keep the order in which they
// were first used; entities keep insertion order within a category.
//
// A Mesh observes the children its Link rules say to observe and renotifies
// their changes, so a change anywhere below reaches every observing ancestor.
type Mesh struct {
	meshType   MeshType
	order      []Category
	entities   map[Category][]*Controller
	properties map[Property]string

	controller *Controller
	topology   topology
	updates    *update.Manager
	log        *slog.Logger
}

// NewMesh returns an empty mesh of the given kind. Tubes start with their
// default dimensions.
func NewMesh(log *slog.Logger, kind PartKind) *Mesh {
	m := &Mesh{
		meshType:   MeshSimple,
		entities:   make(map[Category][]*Controller),
		properties: make(map[Property]string),
		topology:   newTopology(kind),
		log:        loggerOrDiscard(log).With("component", "mesh", "kind", kind.String()),
	}
	m.updates = update.NewManager(m)
	m.topology.init(m)
	return m
}

func (m *Mesh) Kind() PartKind { return m.topology.kind() }

func (m *Mesh) Register(l update.Listener) { m.updates.Register(l) }
func (m *Mesh) Unregister(l update.Listener) { m.updates.Unregister(l) }

// Update renotifies a change of an observed entity or parent.
func (m *Mesh) Update(source update.Source, kinds update.Kind) {
	if c, ok := source.(*Controller); ok {
		m.topology.childUpdated(m, c, kinds)
	}
	m.updates.Notify(kinds)
}

func (m *Mesh) Subscriptions(update.Source) update.Kind { return update.All }

// Updates exposes the mesh's manager for batching.
func (m *Mesh) Updates() *update.Manager { return m.updates }

func (m *Mesh) Controller() *Controller { return m.controller }

// SetController binds the mesh to its owning controller. It may be set once;
// later calls are logged and ignored.
func (m *Mesh) SetController(c *Controller) {
	if c == nil {
		m.log.Error("nil controller")
		return
	}
	if m.controller != nil {
		if m.controller != c {
			m.log.Error("controller already set")
		}
		return
	}
	m.controller = c
	m.updates.SetParent(c.updates)
	m.topology.controllerSet(m, c)
}

func (m *Mesh) Type() MeshType { return m.meshType }

// SetType changes the mesh type and notifies PROPERTY. Undeclared types are
// logged and ignored.
func (m *Mesh) SetType(t MeshType) {
	if !t.Valid() {
		m.log.Error("invalid mesh type", "type", t)
		return
	}
	if t == m.meshType {
		return
	}
	m.meshType = t
	m.updates.Notify(update.Property)
}

// Property returns the value of p, or "" when unset.
func (m *Mesh) Property(p Property) string { return m.properties[p] }

func (m *Mesh) LookupProperty(p Property) (string, bool) {
	v, ok := m.properties[p]
	return v, ok
}

// Properties returns a copy of the property map.
func (m *Mesh) Properties() map[Property]string { return maps.Clone(m.properties) }

// SetProperty sets p. Selected notifies SELECTION, everything else PROPERTY.
// Setting a property to its current value does not notify. Tubes reject
// values that would make their dimensions invalid.
func (m *Mesh) SetProperty(p Property, value string) {
	m.topology.setProperty(m, p, value)
}

// Categories returns the non-empty categories in first-use order.
func (m *Mesh) Categories() []Category { return slices.Clone(m.order) }

// Entities returns every entity in every category, in category order. An
// entity held in several categories appears once.
func (m *Mesh) Entities() []*Controller {
	var out []*Controller
	seen := make(map[*Controller]bool)
	for _, cat := range m.order {
		for _, c := range m.entities[cat] {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// EntitiesFromCategory returns a copy of cat's entities, empty when the
// category is unknown.
func (m *Mesh) EntitiesFromCategory(cat Category) []*Controller {
	return slices.Clone(m.entities[cat])
}

// Contains reports whether c is held in cat.
func (m *Mesh) Contains(cat Category, c *Controller) bool {
	return slices.Contains(m.entities[cat], c)
}

// AddEntity adds c to the Default category.
func (m *Mesh) AddEntity(c *Controller) {
	m.AddEntityToCategory(c, Default)
}

// AddEntityToCategory adds c to cat and notifies CHILD. Adding an entity
// already in cat is a no-op. The mesh's kind may add related entities too
// (a face adds an edge's vertices) or refuse the add (an edge with two
// vertices).
func (m *Mesh) AddEntityToCategory(c *Controller, cat Category) {
	if c == nil {
		m.log.Debug("ignoring nil entity", "category", cat)
		return
	}
	m.topology.addEntity(m, c, cat)
}

// RemoveEntity removes c from every category, stops observing it and
// notifies CHILD if it was present.
func (m *Mesh) RemoveEntity(c *Controller) {
	if c == nil {
		return
	}
	m.topology.removeEntity(m, c)
}

// Copy makes m a structural copy of o: type, properties, kind-specific state
// and clones of every owned entity. Entities m held before are removed. A
// mesh of a different kind is ignored.
func (m *Mesh) Copy(o *Mesh) {
	m.copyFrom(o, make(map[*Controller]*Controller))
}

// Clone returns a deep copy with no controller.
func (m *Mesh) Clone() *Mesh {
	return m.cloneWith(make(map[*Controller]*Controller))
}

func (m *Mesh) cloneWith(memo map[*Controller]*Controller) *Mesh {
	c := NewMesh(m.log, m.Kind())
	c.log = m.log
	c.copyFrom(m, memo)
	return c
}

func (m *Mesh) copyFrom(o *Mesh, memo map[*Controller]*Controller) {
	if o == nil || o == m {
		return
	}
	if o.Kind() != m.Kind() {
		m.log.Debug("ignoring copy from another kind", "from", o.Kind())
		return
	}

	m.updates.Enqueue()
	defer m.updates.Flush()

	for _, c := range m.Entities() {
		m.topology.removeEntity(m, c)
	}
	m.meshType = o.meshType
	m.properties = maps.Clone(o.properties)
	m.topology.copyState(o.topology)
	for _, cat := range o.order {
		if !LinkFor(o.Kind(), cat).Cloned() {
			continue
		}
		for _, c := range o.entities[cat] {
			m.AddEntityToCategory(c.cloneWith(memo), cat)
		}
	}
	m.updates.Notify(update.Every)
}

// Equal compares type, properties, kind-specific state and the owned
// categories. Entity order is ignored and an empty category equals a missing
// one.
func (m *Mesh) Equal(o *Mesh) bool {
	return m.equalWith(o, make(map[[2]*Mesh]bool))
}

func (m *Mesh) equalWith(o *Mesh, seen map[[2]*Mesh]bool) bool {
	if m == o {
		return true
	}
	if m == nil || o == nil {
		return false
	}
	key := [2]*Mesh{m, o}
	if seen[key] {
		return true
	}
	seen[key] = true

	if m.Kind() != o.Kind() || m.meshType != o.meshType {
		return false
	}
	if !maps.Equal(m.properties, o.properties) {
		return false
	}
	if !m.topology.stateEqual(o.topology) {
		return false
	}
	cats := m.comparedCategories()
	if !slices.Equal(cats, o.comparedCategories()) {
		return false
	}
	for _, cat := range cats {
		if !containsAll(m.entities[cat], o.entities[cat], seen) ||
			!containsAll(o.entities[cat], m.entities[cat], seen) {
			return false
		}
	}
	return true
}

func containsAll(have, want []*Controller, seen map[[2]*Mesh]bool) bool {
	for _, w := range want {
		if !slices.ContainsFunc(have, func(h *Controller) bool { return h.equalWith(w, seen) }) {
			return false
		}
	}
	return true
}

// comparedCategories returns the sorted non-empty categories that take part
// in equality.
func (m *Mesh) comparedCategories() []Category {
	var cats []Category
	for _, cat := range m.order {
		if len(m.entities[cat]) > 0 && LinkFor(m.Kind(), cat).Compared() {
			cats = append(cats, cat)
		}
	}
	slices.Sort(cats)
	return cats
}

// Hash is consistent with Equal.
func (m *Mesh) Hash() uint64 {
	return m.hashWith(make(map[*Mesh]bool))
}

func (m *Mesh) hashWith(visiting map[*Mesh]bool) uint64 {
	if visiting[m] {
		return 0
	}
	visiting[m] = true
	defer delete(visiting, m)

	h := newHasher()
	h.uint(uint64(m.Kind()))
	h.uint(uint64(m.meshType))
	keys := slices.Collect(maps.Keys(m.properties))
	slices.Sort(keys)
	for _, k := range keys {
		h.string(string(k))
		h.string(m.properties[k])
	}
	m.topology.hashState(h)
	for _, cat := range m.comparedCategories() {
		h.string(string(cat))
		var sums []uint64
		for _, c := range m.entities[cat] {
			sums = append(sums, c.hashWith(visiting))
		}
		slices.Sort(sums)
		for _, s := range slices.Compact(sums) {
			h.uint(s)
		}
	}
	return h.sum()
}

// insert appends c to cat and notifies CHILD. It reports false when c was
// already in cat.
func (m *Mesh) insert(c *Controller, cat Category, observe bool) bool {
	if slices.Contains(m.entities[cat], c) {
		return false
	}
	if _, ok := m.entities[cat]; !ok {
		m.order = append(m.order, cat)
	}
	m.entities[cat] = append(m.entities[cat], c)
	if observe {
		c.Register(m)
	}
	m.updates.Notify(update.Child)
	return true
}

// removeFrom drops c from cat only. c stops being observed once no category
// holds it.
func (m *Mesh) removeFrom(c *Controller, cat Category) bool {
	list := m.entities[cat]
	i := slices.Index(list, c)
	if i < 0 {
		return false
	}
	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		delete(m.entities, cat)
		m.order = slices.DeleteFunc(m.order, func(x Category) bool { return x == cat })
	} else {
		m.entities[cat] = list
	}
	if !m.holds(c) {
		c.Unregister(m)
	}
	m.updates.Notify(update.Child)
	return true
}

// remove drops c from every category.
func (m *Mesh) remove(c *Controller) bool {
	found := false
	m.updates.Enqueue()
	for _, cat := range slices.Clone(m.order) {
		if m.removeFrom(c, cat) {
			found = true
		}
	}
	m.updates.Flush()
	return found
}

func (m *Mesh) holds(c *Controller) bool {
	for _, list := range m.entities {
		if slices.Contains(list, c) {
			return true
		}
	}
	return false
}

// setProperty stores value and notifies when it changed.
func (m *Mesh) setProperty(p Property, value string) {
	if old, ok := m.properties[p]; ok && old == value {
		return
	}
	m.properties[p] = value
	if p == Selected {
		m.updates.Notify(update.Selection)
	} else {
		m.updates.Notify(update.Property)
	}
}
