package pyro

// Effect is the accessor object for a rule-gated subscriber. Unlike a
// reaction, its dependency set is dynamic: the gating rule is evaluated
// inside the same tracking stack computed slots use, and whichever atoms
// it reads on a given evaluation become its trigger set for the next
// round.
type Effect struct {
	name string
	when func(any) bool
	fn   func(*Model)
}

// Name returns the slot name.
func (e *Effect) Name() string { return e.name }

// Check evaluates the gating rule and, when it holds, runs the effect
// body. Previous trigger edges are discarded before the rule runs, so a
// rule with conditional reads narrows or widens its own trigger set on
// every evaluation. Entering an effect already on the evaluation stack
// panics with *CycleError. The body itself runs outside the tracking
// frame.
func (e *Effect) Check(m *Model) {
	if cycle := pushEval(m, e.name); cycle != nil {
		panic(cycle)
	}
	m.clearEdges(e.name)

	var run bool
	func() {
		defer popEval()
		run = e.when(m)
	}()

	if run {
		e.fn(m)
	}
}
