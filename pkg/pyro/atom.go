package pyro

// Atom is the accessor object for one reactive value slot. One Atom
// exists per (schema, name) pair and is shared read-only by every
// instance; per-instance state lives on the Model passed to Get and Set.
type Atom struct {
	name string
	def  any
	kind Kind
}

// Name returns the slot name.
func (a *Atom) Name() string { return a.name }

// Default returns the declared default value.
func (a *Atom) Default() any { return a.def }

// Kind returns KindValue for plain atoms, or the collection kind.
func (a *Atom) Kind() Kind { return a.kind }

// Get returns the slot's current value on m. If a tracked evaluation is
// in progress, that evaluation is registered as a dependent of this atom.
func (a *Atom) Get(m *Model) any {
	trackRead(m, a.name)
	return m.values[a.name]
}

// Set stores a new value on m and notifies m's dependents. A write of a
// value equal to the stored one is a no-op: equality, not identity, is
// compared, so a replacement collection that is value-equal to the
// stored proxy is suppressed as well (mutate the proxy in place to force
// a notification).
//
// Collection atoms wrap any assigned raw collection into the matching
// reactive proxy before storing.
func (a *Atom) Set(m *Model, value any) {
	if a.kind != KindValue {
		value = a.makeReactive(m, value)
	}

	if Equal(m.values[a.name], value) {
		return
	}

	m.values[a.name] = value
	m.notify(a.name, value)
}

// makeReactive wraps value into the proxy type declared for this atom.
// Existing proxies are rebound to m so that an instance adopting another
// instance's collection notifies through its own path.
func (a *Atom) makeReactive(m *Model, value any) any {
	switch a.kind {
	case KindList:
		return newList(m, a.name, listItems(m, a.name, value))
	case KindDict:
		return newDict(m, a.name, dictItems(m, a.name, value))
	case KindSet:
		return newSet(m, a.name, setItems(m, a.name, value))
	default:
		return value
	}
}
