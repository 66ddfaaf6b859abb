package update

// Source is anything listeners can subscribe to.
type Source interface {
	Register(l Listener)
	Unregister(l Listener)
}

// Listener receives notifications from the sources it is registered on.
type Listener interface {
	// Update is called with the kinds of change that happened on source,
	// already filtered by the listener's subscriptions.
	Update(source Source, kinds Kind)

	// Subscriptions returns the kinds the listener wants from source.
	Subscriptions(source Source) Kind
}

// Manager keeps the listener list of a single Source and delivers its
// notifications. Delivery is synchronous. While the manager is enqueued,
// notifications accumulate into one pending mask which is delivered once
// when the outermost Flush runs.
//
// A listener may change the source from inside Update. The kinds notified
// during a delivery pass are collected and delivered to every listener in
// another pass once the current one ends. An observation cycle that keeps
// renotifying stops after maxRounds passes.
//
// A Manager is not safe for concurrent use; callers serialize access to the
// whole part graph.
type Manager struct {
	source    Source
	listeners []Listener
	parent    *Manager

	depth   int
	pending Kind

	// delivering is set during a delivery pass; again collects the kinds
	// notified meanwhile.
	delivering bool
	again      Kind

	// held records the parent that each Enqueue also enqueued, so a later
	// SetParent cannot unbalance the parent's queue.
	held []*Manager
}

// NewManager creates a manager that reports source as the origin of its
// notifications.
func NewManager(source Source) *Manager {
	return &Manager{source: source}
}

// Source returns the object the manager notifies on behalf of.
func (m *Manager) Source() Source {
	return m.source
}

// Register adds l to the listener list. Nil listeners and listeners that are
// already registered are ignored.
func (m *Manager) Register(l Listener) {
	if l == nil || m.Registered(l) {
		return
	}
	m.listeners = append(m.listeners, l)
}

// Unregister removes l from the listener list. Unknown listeners are ignored.
func (m *Manager) Unregister(l Listener) {
	for i, cur := range m.listeners {
		if cur == l {
			m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
			return
		}
	}
}

// Registered reports whether l is currently registered.
func (m *Manager) Registered(l Listener) bool {
	if l == nil {
		return false
	}
	for _, cur := range m.listeners {
		if cur == l {
			return true
		}
	}
	return false
}

// Listeners returns a copy of the current listener list.
func (m *Manager) Listeners() []Listener {
	out := make([]Listener, len(m.listeners))
	copy(out, m.listeners)
	return out
}

// Parent returns the manager this one forwards its queue state to.
func (m *Manager) Parent() *Manager {
	return m.parent
}

// SetParent links m to a parent manager. Enqueue and Flush on m are mirrored
// on the parent so that a batch opened on m also batches the parent.
func (m *Manager) SetParent(p *Manager) {
	if p == m {
		return
	}
	m.parent = p
}

// Queued reports whether notifications are currently being held back.
func (m *Manager) Queued() bool {
	return m.depth > 0
}

// Enqueue opens a batch. Until the matching Flush, notifications are merged
// into a single pending mask. Batches nest.
func (m *Manager) Enqueue() {
	m.depth++
	m.held = append(m.held, m.parent)
	if m.parent != nil {
		m.parent.Enqueue()
	}
}

// Flush closes the innermost batch. When the outermost batch closes, the
// union of everything notified since the first Enqueue is delivered once.
// A Flush without a matching Enqueue does nothing.
func (m *Manager) Flush() {
	if m.depth == 0 {
		return
	}
	m.depth--
	parent := m.held[len(m.held)-1]
	m.held = m.held[:len(m.held)-1]

	if m.depth == 0 && m.pending != 0 {
		kinds := m.pending
		m.pending = 0
		m.deliver(kinds)
	}
	if parent != nil {
		parent.Flush()
	}
}

// Notify tells every listener that the kinds of change in kinds happened.
// While the manager is enqueued the kinds are merged into the pending batch
// instead.
func (m *Manager) Notify(kinds Kind) {
	if kinds == 0 {
		return
	}
	if m.depth > 0 {
		m.pending |= kinds
		return
	}
	m.deliver(kinds)
}

// maxRounds bounds the passes of one delivery.
const maxRounds = 100

func (m *Manager) deliver(kinds Kind) {
	if m.delivering {
		m.again |= kinds
		return
	}
	m.delivering = true
	defer func() {
		m.delivering = false
		m.again = 0
	}()

	for round := 0; kinds != 0 && round < maxRounds; round++ {
		m.pass(kinds)
		kinds, m.again = m.again, 0
	}
}

func (m *Manager) pass(kinds Kind) {
	// Listeners may register or unregister while being notified, so walk a
	// snapshot and skip anything removed along the way.
	for _, l := range m.Listeners() {
		if !m.Registered(l) {
			continue
		}
		filtered := kinds.Filter(l.Subscriptions(m.source))
		if filtered == 0 {
			continue
		}
		l.Update(m.source, filtered)
	}
}
