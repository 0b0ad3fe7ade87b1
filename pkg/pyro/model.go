package pyro

import (
	"fmt"
	"sort"
)

// Changes is one flushed notification package: the slot that changed
// mapped to its new value, plus the current value of every direct
// listener of that slot (nil for reactions and effects, which are run
// for their side effects).
type Changes map[string]any

// Names returns the changed slot names in sorted order.
func (c Changes) Names() []string {
	out := make([]string, 0, len(c))
	for name := range c {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Option configures a model at construction time.
type Option func(*modelOptions)

type modelOptions struct {
	values map[string]any
	emit   func(Changes)
}

// WithValue overrides one atom's initial value.
func WithValue(name string, value any) Option {
	return func(o *modelOptions) {
		if o.values == nil {
			o.values = make(map[string]any)
		}
		o.values[name] = value
	}
}

// WithValues overrides several atoms' initial values.
func WithValues(values map[string]any) Option {
	return func(o *modelOptions) {
		if o.values == nil {
			o.values = make(map[string]any, len(values))
		}
		for k, v := range values {
			o.values[k] = v
		}
	}
}

// WithEmit replaces the model's emit hook. By default a model broadcasts
// every flushed change set to its Subscribe listeners; an explicit hook
// takes over that duty entirely.
func WithEmit(fn func(Changes)) Option {
	return func(o *modelOptions) { o.emit = fn }
}

// Model is one unit of reactive state: per-instance atom storage, the
// listener graph, the computed cache and the notification machinery.
// Behavior objects (the schema's accessors) are shared across instances;
// everything on Model belongs to this instance alone.
type Model struct {
	schema *Schema

	values     map[string]any
	overridden map[string]struct{}

	// listeners maps an atom or computed name to the set of dependent
	// names currently observing it; observing is the inverse, used to
	// rebuild a dependent's edges from scratch on re-evaluation.
	listeners map[string]map[string]struct{}
	observing map[string]map[string]struct{}

	caches map[string]*computedCache

	emitFn  func(Changes)
	subs    map[int]func(Changes)
	nextSub int

	batching bool
	pending  map[string]struct{}
}

// NewModel builds an instance of the given schema. Every atom is
// initialized from opts overrides or the schema default, collection
// defaults are wrapped into reactive proxies, eager reaction edges are
// registered, and the schema's lifecycle hooks run around field
// initialization. An override naming an undeclared or non-atom member is
// an error.
func NewModel(schema *Schema, opts ...Option) (*Model, error) {
	var o modelOptions
	for _, opt := range opts {
		opt(&o)
	}

	for name := range o.values {
		if _, ok := schema.atoms[name]; !ok {
			return nil, &UnknownFieldError{Model: schema.name, Field: name}
		}
	}

	m := &Model{
		schema:     schema,
		values:     make(map[string]any, len(schema.atoms)),
		overridden: make(map[string]struct{}, len(o.values)),
		listeners:  make(map[string]map[string]struct{}),
		observing:  make(map[string]map[string]struct{}),
		caches:     make(map[string]*computedCache, len(schema.computeds)),
		emitFn:     o.emit,
		subs:       make(map[int]func(Changes)),
	}

	if schema.onAwake != nil {
		schema.onAwake(m)
	}

	for _, name := range schema.atomOrder {
		a := schema.atoms[name]
		value, explicit := o.values[name]
		if !explicit {
			value = a.def
		}
		if a.kind != KindValue {
			value = a.makeReactive(m, value)
		}
		m.values[name] = value
		if explicit {
			m.overridden[name] = struct{}{}
		}
	}

	for _, name := range schema.reactionOrder {
		r := schema.reactions[name]
		if r.lazy {
			continue
		}
		for dep := range r.deps {
			m.addEdge(dep, name)
		}
	}

	if schema.onPostInit != nil {
		schema.onPostInit(m)
	}
	return m, nil
}

// Schema returns the shared type description this instance was built
// from.
func (m *Model) Schema() *Schema { return m.schema }

// Get returns the named slot's current value: an atom's stored value, a
// computed's (possibly re-derived) value, or nil for a reaction or
// effect after running it. Reading inside a tracked evaluation registers
// a dependency edge. Get panics with *UnknownFieldError for undeclared
// names and with *CycleError on a self-referential evaluation.
func (m *Model) Get(name string) any {
	if a, ok := m.schema.atoms[name]; ok {
		return a.Get(m)
	}
	if c, ok := m.schema.computeds[name]; ok {
		return c.Value(m)
	}
	if r, ok := m.schema.reactions[name]; ok {
		r.Run(m)
		return nil
	}
	if e, ok := m.schema.effects[name]; ok {
		e.Check(m)
		return nil
	}
	panic(&UnknownFieldError{Model: m.schema.name, Field: name})
}

// Lookup is Get for names that may not exist: ok is false for an
// undeclared name instead of a panic. Rule operands resolve dot-paths
// through this method so their reads stay tracked.
func (m *Model) Lookup(name string) (any, bool) {
	if _, declared := m.schema.KindOf(name); !declared {
		return nil, false
	}
	return m.Get(name), true
}

// Peek returns an atom's stored value without tracking a dependency and
// without evaluating anything. Non-atom names return nil.
func (m *Model) Peek(name string) any {
	if _, ok := m.schema.atoms[name]; ok {
		return m.values[name]
	}
	return nil
}

// Set writes an atom. Writing a value equal to the stored one produces
// no notification. Assigning a computed, reaction or effect slot returns
// ErrReadOnly; an undeclared name returns *UnknownFieldError.
func (m *Model) Set(name string, value any) error {
	if a, ok := m.schema.atoms[name]; ok {
		a.Set(m, value)
		return nil
	}
	if kind, ok := m.schema.KindOf(name); ok {
		return fmt.Errorf("%w: cannot assign %s %q on model %q", ErrReadOnly, kind, name, m.schema.name)
	}
	return &UnknownFieldError{Model: m.schema.name, Field: name}
}

// Overridden reports whether the atom's initial value was explicitly
// supplied at construction. The registry uses this to decide which
// fields a hot-swapped instance adopts from its predecessor.
func (m *Model) Overridden(name string) bool {
	_, ok := m.overridden[name]
	return ok
}

// ToMap returns a snapshot of every atom's current value, untracked.
func (m *Model) ToMap() Changes {
	out := make(Changes, len(m.schema.atomOrder))
	for _, name := range m.schema.atomOrder {
		out[name] = m.values[name]
	}
	return out
}

// Update writes several atoms inside one implicit batch, so all changes
// flush as a single emission. Every target is validated up front: an
// unknown name or a non-atom target rejects the whole update before any
// write happens.
func (m *Model) Update(values map[string]any) error {
	for name := range values {
		if _, ok := m.schema.atoms[name]; ok {
			continue
		}
		if kind, ok := m.schema.KindOf(name); ok {
			return fmt.Errorf("%w: cannot assign %s %q on model %q", ErrReadOnly, kind, name, m.schema.name)
		}
		return &UnknownFieldError{Model: m.schema.name, Field: name}
	}

	m.Batch(func() {
		for name, value := range values {
			m.schema.atoms[name].Set(m, value)
		}
	})
	return nil
}

// Reset restores the named atoms to their declared defaults. Unknown or
// non-atom names are rejected before any write.
func (m *Model) Reset(names ...string) error {
	for _, name := range names {
		if _, ok := m.schema.atoms[name]; !ok {
			return &UnknownFieldError{Model: m.schema.name, Field: name}
		}
	}
	m.Batch(func() {
		for _, name := range names {
			a := m.schema.atoms[name]
			a.Set(m, a.def)
		}
	})
	return nil
}

// ResetAll restores every atom to its declared default.
func (m *Model) ResetAll() {
	_ = m.Reset(m.schema.atomOrder...)
}

// Toggle inverts a boolean atom. A non-boolean or non-atom target is an
// error.
func (m *Model) Toggle(name string) error {
	a, ok := m.schema.atoms[name]
	if !ok {
		return &UnknownFieldError{Model: m.schema.name, Field: name}
	}
	b, ok := m.values[name].(bool)
	if !ok {
		return &KindError{Model: m.schema.name, Field: name, Want: "bool", Got: fmt.Sprintf("%T", m.values[name])}
	}
	a.Set(m, !b)
	return nil
}

// Sync primes every derived member once: effects are checked, computeds
// evaluated and eager reactions run. Useful right after construction to
// bring side effects in line with initial state.
func (m *Model) Sync() *Model {
	for _, name := range m.schema.effectOrder {
		m.schema.effects[name].Check(m)
	}
	for _, name := range m.schema.computedOrder {
		m.schema.computeds[name].Value(m)
	}
	for _, name := range m.schema.reactionOrder {
		if r := m.schema.reactions[name]; !r.lazy {
			r.Run(m)
		}
	}
	return m
}

// Subscribe adds a listener to the model's change feed and returns its
// remover. Subscribers receive every flushed change set unless the emit
// hook was replaced with WithEmit.
func (m *Model) Subscribe(fn func(Changes)) func() {
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() { delete(m.subs, id) }
}

// Batch defers notification while fn runs. Writes accumulate into a
// pending set and, when the outermost batch exits, one consolidated
// package holding every accumulated atom plus all of their listeners is
// emitted exactly once. Nested batches are no-ops except the outermost.
func (m *Model) Batch(fn func()) {
	if m.batching {
		fn()
		return
	}

	m.batching = true
	m.pending = make(map[string]struct{})
	defer m.flush()
	fn()
}

// flush assembles the consolidated change package for the outermost
// batch. Dependents discovered while the package is assembled (a
// computed re-deriving to a new value notifies its own listeners) land
// back in the pending set and are folded into the same package, so the
// full changed-plus-dependent closure goes out in a single emission.
func (m *Model) flush() {
	pkg := make(Changes)

	for len(m.pending) > 0 {
		round := m.pending
		m.pending = make(map[string]struct{})

		for name := range round {
			pkg[name] = m.currentOf(name)

			deps := m.listenerNames(name)
			m.invalidateComputed(deps)
			for _, dep := range deps {
				pkg[dep] = m.observe(dep)
			}
		}
	}

	m.batching = false
	m.pending = nil

	if len(pkg) > 0 {
		m.emit(pkg)
	}
}

// notify marks the changed slot for propagation. Computed caches
// downstream of the change are dropped immediately, so a read that
// follows the write re-derives even while a batch holds the emission
// back. Inside a batch the name is parked and flushed once by the
// outermost scope; outside one, an implicit batch opens so that
// cascades (a computed re-deriving to a new value notifies its own
// listeners) still consolidate into a single emission.
func (m *Model) notify(name string, value any) {
	m.invalidateDependents(name)

	if m.batching {
		m.pending[name] = struct{}{}
		return
	}

	m.batching = true
	m.pending = map[string]struct{}{name: {}}
	m.flush()
}

// listenerNames snapshots the direct listeners of name. The copy keeps
// edge rebuilds during observation from disturbing iteration.
func (m *Model) listenerNames(name string) []string {
	set := m.listeners[name]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for dep := range set {
		out = append(out, dep)
	}
	return out
}

// invalidateDependents drops the cache of every computed reachable from
// name through the listener graph, transitively. The graph is acyclic
// (evaluation panics on cycles), but the visited set also keeps
// diamond-shaped dependencies from being walked twice.
func (m *Model) invalidateDependents(name string) {
	seen := map[string]struct{}{name: {}}
	queue := []string{name}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for dep := range m.listeners[next] {
			if _, ok := seen[dep]; ok {
				continue
			}
			seen[dep] = struct{}{}
			if _, ok := m.schema.computeds[dep]; ok {
				m.cache(dep).valid = false
				queue = append(queue, dep)
			}
		}
	}
}

// invalidateComputed drops the cache of every computed in deps before
// any of them is observed, so a computed reading a sibling computed sees
// a fresh value rather than a stale cache.
func (m *Model) invalidateComputed(deps []string) {
	for _, dep := range deps {
		if _, ok := m.schema.computeds[dep]; ok {
			m.cache(dep).valid = false
		}
	}
}

// observe produces the change-package entry for one dependent:
// a computed re-derives and contributes its value, a reaction or effect
// runs and contributes nil.
func (m *Model) observe(dep string) any {
	if c, ok := m.schema.computeds[dep]; ok {
		return c.Value(m)
	}
	if r, ok := m.schema.reactions[dep]; ok {
		r.Run(m)
		return nil
	}
	if e, ok := m.schema.effects[dep]; ok {
		e.Check(m)
		return nil
	}
	// An atom can end up as a listener only through a handcrafted edge;
	// report its stored value.
	return m.values[dep]
}

// currentOf returns the present value of a slot that changed during a
// batch: stored value for atoms, cached or re-derived value for
// computeds.
func (m *Model) currentOf(name string) any {
	if _, ok := m.schema.atoms[name]; ok {
		return m.values[name]
	}
	if c, ok := m.schema.computeds[name]; ok {
		return c.Value(m)
	}
	return nil
}

// emit hands a flushed change set to the configured hook, or broadcasts
// it to subscribers when no hook was installed. With neither, it is a
// no-op.
func (m *Model) emit(changes Changes) {
	if m.emitFn != nil {
		m.emitFn(changes)
		return
	}
	if len(m.subs) == 0 {
		return
	}
	ids := make([]int, 0, len(m.subs))
	for id := range m.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := m.subs[id]; ok {
			fn(changes)
		}
	}
}

// Dispose clears the instance's listener graph, computed caches and
// subscribers. The model remains readable but no longer propagates
// changes; use it when removing a model from a registry for good.
func (m *Model) Dispose() {
	m.listeners = make(map[string]map[string]struct{})
	m.observing = make(map[string]map[string]struct{})
	m.caches = make(map[string]*computedCache)
	m.subs = make(map[int]func(Changes))
	m.pending = nil
	m.batching = false
}

// addEdge records dep as a listener of name, in both directions.
func (m *Model) addEdge(name, dep string) {
	set := m.listeners[name]
	if set == nil {
		set = make(map[string]struct{})
		m.listeners[name] = set
	}
	set[dep] = struct{}{}

	inv := m.observing[dep]
	if inv == nil {
		inv = make(map[string]struct{})
		m.observing[dep] = inv
	}
	inv[name] = struct{}{}
}

// clearEdges discards every edge dep currently holds. Called at the top
// of computed and effect evaluation: the edge set is rebuilt in full,
// never merged, so conditional reads keep the graph accurate.
func (m *Model) clearEdges(dep string) {
	for name := range m.observing[dep] {
		delete(m.listeners[name], dep)
	}
	delete(m.observing, dep)
}

// cache returns the per-instance cache cell for a computed slot.
func (m *Model) cache(name string) *computedCache {
	cc := m.caches[name]
	if cc == nil {
		cc = &computedCache{}
		m.caches[name] = cc
	}
	return cc
}
