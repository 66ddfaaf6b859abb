package update

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// recorder is a Listener that remembers what it was told.
type recorder struct {
	subs  Kind
	got   Kind
	calls int
}

func (r *recorder) Update(_ Source, kinds Kind) {
	r.got |= kinds
	r.calls++
}

func (r *recorder) Subscriptions(Source) Kind { return r.subs }

// take returns and clears the accumulated kinds.
func (r *recorder) take() Kind {
	k := r.got
	r.got = 0
	return k
}

// emitter is a minimal Source owning a Manager.
type emitter struct {
	m *Manager
}

func newEmitter() *emitter {
	e := &emitter{}
	e.m = NewManager(e)
	return e
}

func (e *emitter) Register(l Listener)   { e.m.Register(l) }
func (e *emitter) Unregister(l Listener) { e.m.Unregister(l) }

func TestKindString(t *testing.T) {
	tests := []struct {
		k    Kind
		want string
	}{
		{0, "NONE"},
		{Property, "PROPERTY"},
		{Child | Property, "PROPERTY|CHILD"},
		{Every, "PROPERTY|CHILD|SELECTION|TRANSFORMATION|ALL"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.k.String())
		})
	}
}

func TestKindFilter(t *testing.T) {
	assert.Equal(t, Child|Transformation, (Child | Transformation).Filter(All))
	assert.Equal(t, Child, (Child | Transformation).Filter(Child))
	assert.Equal(t, Kind(0), Property.Filter(Child))
	assert.True(t, (Child | Property).Has(Child))
	assert.False(t, Child.Has(Child|Property))
	assert.Equal(t, []Kind{Property, Selection}, (Selection | Property).Kinds())
}

func TestQueueing(t *testing.T) {
	src := newEmitter()
	l := &recorder{subs: All}
	src.Register(l)

	src.m.Notify(Child)
	assert.Equal(t, Child, l.take())

	// Queued notifications are held until the flush.
	src.m.Enqueue()
	src.m.Notify(Child)
	assert.Zero(t, l.take())
	src.m.Notify(Child)
	assert.Zero(t, l.take())
	src.m.Flush()
	assert.Equal(t, Child, l.take())

	// Different kinds are merged into one delivery.
	l.calls = 0
	src.m.Enqueue()
	src.m.Notify(Property)
	src.m.Notify(Child)
	src.m.Flush()
	assert.Equal(t, 1, l.calls)
	assert.Equal(t, Property|Child, l.take())

	// Nested batches only deliver on the outermost flush.
	src.m.Enqueue()
	src.m.Enqueue()
	src.m.Notify(Property)
	assert.Zero(t, l.take())
	src.m.Flush()
	assert.Zero(t, l.take())
	src.m.Flush()
	assert.Equal(t, Property, l.take())
}

func TestQueueingWithParent(t *testing.T) {
	child := newEmitter()
	parent := newEmitter()
	child.m.SetParent(parent.m)

	pl := &recorder{subs: All}
	parent.Register(pl)

	// Enqueueing the child holds the parent back too.
	child.m.Enqueue()
	parent.m.Notify(Property)
	assert.Zero(t, pl.take())
	child.m.Flush()
	assert.Equal(t, Property, pl.take())

	// A batch opened on the parent outlives the child's batch.
	parent.m.Enqueue()
	child.m.Enqueue()
	parent.m.Notify(Property)
	child.m.Flush()
	assert.Zero(t, pl.take())
	parent.m.Flush()
	assert.Equal(t, Property, pl.take())
	assert.False(t, parent.m.Queued())
}

func TestParentChangeWhileQueued(t *testing.T) {
	child := newEmitter()
	first := newEmitter()
	second := newEmitter()
	child.m.SetParent(first.m)

	child.m.Enqueue()
	child.m.SetParent(second.m)
	child.m.Flush()

	assert.False(t, first.m.Queued())
	assert.False(t, second.m.Queued())
}

func TestSubscriptionFiltering(t *testing.T) {
	src := newEmitter()
	all := &recorder{subs: All}
	children := &recorder{subs: Child}
	src.Register(all)
	src.Register(children)

	src.m.Notify(Child)
	assert.Equal(t, Child, all.take())
	assert.Equal(t, Child, children.take())

	src.m.Notify(Property)
	assert.Equal(t, Property, all.take())
	assert.Zero(t, children.take())

	src.m.Notify(Child | Transformation)
	assert.Equal(t, Child|Transformation, all.take())
	assert.Equal(t, Child, children.take())

	src.m.Notify(Child | Property)
	assert.Equal(t, Child|Property, all.take())
	assert.Equal(t, Child, children.take())
}

func TestRegistration(t *testing.T) {
	src := newEmitter()
	l := &recorder{subs: Property}
	l2 := &recorder{subs: Property}

	src.Register(l)
	src.m.Notify(Property)
	assert.Equal(t, Property, l.take())

	src.Unregister(l)
	src.m.Notify(Property)
	assert.Zero(t, l.take())

	src.Register(l)
	src.Register(l2)
	src.Register(l) // duplicate is ignored
	src.Register(nil)
	assert.Len(t, src.m.Listeners(), 2)

	src.m.Notify(Property)
	assert.Equal(t, 2, l.calls)
	assert.Equal(t, Property, l.take())
	assert.Equal(t, Property, l2.take())

	// A listener unregistered while a batch is open misses the batch.
	src.m.Enqueue()
	src.m.Notify(Property)
	src.Unregister(l)
	src.m.Flush()
	assert.Zero(t, l.take())
	assert.Equal(t, Property, l2.take())
}

// reentrant notifies its own source again from inside Update.
type reentrant struct {
	src   *emitter
	calls int
}

func (r *reentrant) Update(_ Source, kinds Kind) {
	r.calls++
	if kinds.Has(Child) {
		r.src.m.Notify(Property)
	}
}

func (r *reentrant) Subscriptions(Source) Kind { return All }

func TestReentrantNotify(t *testing.T) {
	src := newEmitter()
	r := &reentrant{src: src}
	src.Register(r)

	src.m.Notify(Child)
	assert.Equal(t, 2, r.calls)

	r.calls = 0
	src.m.Enqueue()
	src.m.Notify(Child)
	src.m.Flush()
	assert.Equal(t, 2, r.calls)
	assert.False(t, src.m.Queued())
}

// reactor makes one further change the first time it sees trigger, as a
// listener that updates the model in response to a change would.
type reactor struct {
	src     *emitter
	trigger Kind
	then    Kind
	seen    []Kind
}

func (r *reactor) Update(_ Source, kinds Kind) {
	r.seen = append(r.seen, kinds)
	if kinds.Has(r.trigger) && len(r.seen) == 1 {
		r.src.m.Notify(r.then)
	}
}

func (r *reactor) Subscriptions(Source) Kind { return All }

func TestNotifyDuringDeliveryIsRedelivered(t *testing.T) {
	src := newEmitter()
	early := &recorder{subs: All}
	r := &reactor{src: src, trigger: Property, then: Property | Child}
	late := &recorder{subs: All}
	src.Register(early)
	src.Register(r)
	src.Register(late)

	src.m.Notify(Property)

	assert.Equal(t, 2, early.calls, "a listener ahead of the change still hears about it")
	assert.Equal(t, Property|Child, early.got)
	assert.Equal(t, []Kind{Property, Property | Child}, r.seen)
	assert.Equal(t, 2, late.calls, "the current pass finishes before the next one starts")
}

// loop renotifies whatever it receives, as a part in an observation cycle
// would.
type loop struct {
	src   *emitter
	calls int
}

func (l *loop) Update(_ Source, kinds Kind) {
	l.calls++
	l.src.m.Notify(kinds)
}

func (l *loop) Subscriptions(Source) Kind { return All }

func TestRenotifyingCycleIsBounded(t *testing.T) {
	src := newEmitter()
	l := &loop{src: src}
	src.Register(l)

	src.m.Notify(Child | Property)
	assert.Equal(t, maxRounds, l.calls)

	l.calls = 0
	src.m.Notify(Selection)
	assert.Equal(t, maxRounds, l.calls, "the next delivery starts afresh")
}

func TestUnbalancedFlush(t *testing.T) {
	src := newEmitter()
	l := &recorder{subs: All}
	src.Register(l)

	src.m.Flush()
	src.m.Notify(Property)
	assert.Equal(t, Property, l.take())
}
