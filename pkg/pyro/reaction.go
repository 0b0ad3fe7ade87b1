package pyro

// Reaction is the accessor object for a subscriber with a statically
// declared dependency set. Eager reactions have their edges registered
// once, at instance construction, and run synchronously as part of
// notification propagation; lazy reactions hold no edges and run only on
// explicit access.
type Reaction struct {
	name string
	fn   func(*Model)
	deps map[string]struct{}
	lazy bool
}

// Name returns the slot name.
func (r *Reaction) Name() string { return r.name }

// Lazy reports whether the reaction runs only on explicit access.
func (r *Reaction) Lazy() bool { return r.lazy }

// Deps returns the declared dependency names.
func (r *Reaction) Deps() []string {
	out := make([]string, 0, len(r.deps))
	for d := range r.deps {
		out = append(out, d)
	}
	return out
}

// Run executes the reaction body. The body runs outside any tracking
// frame; its dependency set never changes after construction.
func (r *Reaction) Run(m *Model) {
	r.fn(m)
}
