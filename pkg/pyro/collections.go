package pyro

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Reactive collection proxies. Each proxy is a thin wrapper holding a
// back-reference to its owning model and the atom name it represents;
// after any mutating method completes, it notifies through the owning
// model's path under that name, exactly as an attribute assignment
// would. Read-only methods pass through untouched. A proxy's lifetime is
// 1:1 with the atom holding it.

// List is the reactive proxy for a list atom.
type List struct {
	owner *Model
	name  string
	items []any
}

func newList(m *Model, name string, items []any) *List {
	copied := make([]any, len(items))
	copy(copied, items)
	return &List{owner: m, name: name, items: copied}
}

// listItems extracts raw list contents from a value assigned to the
// named atom.
func listItems(m *Model, name string, value any) []any {
	switch v := value.(type) {
	case nil:
		return nil
	case *List:
		return v.items
	case []any:
		return v
	default:
		panic(&KindError{Model: m.schema.name, Field: name, Want: KindList.String(), Got: fmt.Sprintf("%T", value)})
	}
}

func (l *List) notify() { l.owner.notify(l.name, l) }

// Len returns the number of items.
func (l *List) Len() int { return len(l.items) }

// At returns the item at index i.
func (l *List) At(i int) any { return l.items[i] }

// Items returns a copy of the underlying slice.
func (l *List) Items() []any {
	out := make([]any, len(l.items))
	copy(out, l.items)
	return out
}

// Append adds items to the end of the list.
func (l *List) Append(items ...any) {
	l.items = append(l.items, items...)
	l.notify()
}

// Insert places v at index i, shifting later items right.
func (l *List) Insert(i int, v any) {
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = v
	l.notify()
}

// SetAt replaces the item at index i.
func (l *List) SetAt(i int, v any) {
	l.items[i] = v
	l.notify()
}

// RemoveAt deletes the item at index i.
func (l *List) RemoveAt(i int) {
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.notify()
}

// Remove deletes the first item equal to v and reports whether one was
// found.
func (l *List) Remove(v any) bool {
	for i, item := range l.items {
		if Equal(item, v) {
			l.RemoveAt(i)
			return true
		}
	}
	return false
}

// Pop removes and returns the last item. ok is false on an empty list.
func (l *List) Pop() (v any, ok bool) {
	if len(l.items) == 0 {
		return nil, false
	}
	v = l.items[len(l.items)-1]
	l.items = l.items[:len(l.items)-1]
	l.notify()
	return v, true
}

// Clear removes all items.
func (l *List) Clear() {
	l.items = l.items[:0]
	l.notify()
}

// Reverse reverses the items in place.
func (l *List) Reverse() {
	for i, j := 0, len(l.items)-1; i < j; i, j = i+1, j-1 {
		l.items[i], l.items[j] = l.items[j], l.items[i]
	}
	l.notify()
}

// Sort sorts the items in place with the given ordering.
func (l *List) Sort(less func(a, b any) bool) {
	sort.SliceStable(l.items, func(i, j int) bool { return less(l.items[i], l.items[j]) })
	l.notify()
}

// MarshalJSON encodes the raw contents.
func (l *List) MarshalJSON() ([]byte, error) { return json.Marshal(l.items) }

func (l *List) String() string { return fmt.Sprint(l.items) }

// Dict is the reactive proxy for a string-keyed map atom.
type Dict struct {
	owner *Model
	name  string
	items map[string]any
}

func newDict(m *Model, name string, items map[string]any) *Dict {
	copied := make(map[string]any, len(items))
	for k, v := range items {
		copied[k] = v
	}
	return &Dict{owner: m, name: name, items: copied}
}

// dictItems extracts raw map contents from a value assigned to the
// named atom.
func dictItems(m *Model, name string, value any) map[string]any {
	switch v := value.(type) {
	case nil:
		return nil
	case *Dict:
		return v.items
	case map[string]any:
		return v
	default:
		panic(&KindError{Model: m.schema.name, Field: name, Want: KindDict.String(), Got: fmt.Sprintf("%T", value)})
	}
}

func (d *Dict) notify() { d.owner.notify(d.name, d) }

// Len returns the number of entries.
func (d *Dict) Len() int { return len(d.items) }

// Lookup returns the value stored under key.
func (d *Dict) Lookup(key string) (any, bool) {
	v, ok := d.items[key]
	return v, ok
}

// Keys returns the keys in sorted order.
func (d *Dict) Keys() []string {
	out := make([]string, 0, len(d.items))
	for k := range d.items {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Items returns a copy of the underlying map.
func (d *Dict) Items() map[string]any {
	out := make(map[string]any, len(d.items))
	for k, v := range d.items {
		out[k] = v
	}
	return out
}

// SetKey stores v under key.
func (d *Dict) SetKey(key string, v any) {
	d.items[key] = v
	d.notify()
}

// Delete removes key and reports whether it was present.
func (d *Dict) Delete(key string) bool {
	if _, ok := d.items[key]; !ok {
		return false
	}
	delete(d.items, key)
	d.notify()
	return true
}

// Pop removes key and returns its value. ok is false when the key was
// absent (and nothing is notified).
func (d *Dict) Pop(key string) (v any, ok bool) {
	v, ok = d.items[key]
	if ok {
		delete(d.items, key)
		d.notify()
	}
	return v, ok
}

// Clear removes all entries.
func (d *Dict) Clear() {
	clear(d.items)
	d.notify()
}

// Merge copies every entry of other into the dict.
func (d *Dict) Merge(other map[string]any) {
	for k, v := range other {
		d.items[k] = v
	}
	d.notify()
}

// SetDefault stores def under key only when the key is absent, and
// returns the value now present. Only an actual insertion notifies.
func (d *Dict) SetDefault(key string, def any) any {
	if v, ok := d.items[key]; ok {
		return v
	}
	d.items[key] = def
	d.notify()
	return def
}

// MarshalJSON encodes the raw contents.
func (d *Dict) MarshalJSON() ([]byte, error) { return json.Marshal(d.items) }

func (d *Dict) String() string { return fmt.Sprint(d.items) }

// Set is the reactive proxy for a set atom. Elements must be comparable.
type Set struct {
	owner *Model
	name  string
	items map[any]struct{}
}

func newSet(m *Model, name string, items map[any]struct{}) *Set {
	copied := make(map[any]struct{}, len(items))
	for v := range items {
		copied[v] = struct{}{}
	}
	return &Set{owner: m, name: name, items: copied}
}

// setItems extracts raw set contents from a value assigned to the
// named atom.
func setItems(m *Model, name string, value any) map[any]struct{} {
	switch v := value.(type) {
	case nil:
		return nil
	case *Set:
		return v.items
	case map[any]struct{}:
		return v
	case []any:
		out := make(map[any]struct{}, len(v))
		for _, e := range v {
			out[e] = struct{}{}
		}
		return out
	default:
		panic(&KindError{Model: m.schema.name, Field: name, Want: KindSet.String(), Got: fmt.Sprintf("%T", value)})
	}
}

func (s *Set) notify() { s.owner.notify(s.name, s) }

// Len returns the number of elements.
func (s *Set) Len() int { return len(s.items) }

// Has reports whether v is an element.
func (s *Set) Has(v any) bool {
	_, ok := s.items[v]
	return ok
}

// Items returns the elements, ordered by their string form for
// determinism.
func (s *Set) Items() []any {
	out := make([]any, 0, len(s.items))
	for v := range s.items {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return fmt.Sprint(out[i]) < fmt.Sprint(out[j]) })
	return out
}

// Add inserts v. Adding an element already present does not notify.
func (s *Set) Add(v any) {
	if _, ok := s.items[v]; ok {
		return
	}
	s.items[v] = struct{}{}
	s.notify()
}

// Discard removes v if present. Discarding an absent element does not
// notify.
func (s *Set) Discard(v any) {
	if _, ok := s.items[v]; !ok {
		return
	}
	delete(s.items, v)
	s.notify()
}

// Clear removes all elements.
func (s *Set) Clear() {
	clear(s.items)
	s.notify()
}

// Merge inserts every given element, notifying once.
func (s *Set) Merge(values ...any) {
	added := false
	for _, v := range values {
		if _, ok := s.items[v]; !ok {
			s.items[v] = struct{}{}
			added = true
		}
	}
	if added {
		s.notify()
	}
}

// MarshalJSON encodes the elements as an array.
func (s *Set) MarshalJSON() ([]byte, error) { return json.Marshal(s.Items()) }

func (s *Set) String() string { return fmt.Sprint(s.Items()) }
