// Package pyro implements a synchronous reactive state engine.
//
// State lives in models. A model's shape is declared once, as a Schema,
// and every instance of that schema owns its own storage, listener graph
// and computed cache. Four kinds of reactive slots exist:
//
//   - Atom: a plain writable value slot. Equal writes are suppressed.
//   - Computed: a cached, derived, read-only value. Its dependency edges
//     are rebuilt from scratch on every evaluation, so conditional reads
//     keep the graph accurate.
//   - Reaction: a side-effecting subscriber with a statically declared
//     dependency set. Eager reactions run inside notification; lazy ones
//     run only on explicit access.
//   - Effect: a side-effecting subscriber gated by a rule predicate whose
//     dependency set is re-tracked on every evaluation.
//
// # Declaring a model
//
//	schema := pyro.NewSchema("player").
//	    Atom("health", 100).
//	    Atom("name", "").
//	    List("inventory", nil).
//	    Computed("status", func(m *pyro.Model) any {
//	        if m.Get("health").(int) > 50 {
//	            return "ok"
//	        }
//	        return "hurt"
//	    }).
//	    MustBuild()
//
//	player, err := pyro.NewModel(schema, pyro.WithValue("health", 80))
//
// Writes flow through Model.Set, which notifies the model's dependents and
// emits a change set to subscribers. Model.Batch coalesces any number of
// writes into a single emission.
//
// # Concurrency
//
// A model has no internal locking. Dependency tracking uses a
// goroutine-local evaluation stack, so separate models may be used from
// separate goroutines, but callers must serialize access to any single
// model themselves. Every operation is synchronous: a write returns only
// after the full dependency cascade has run.
package pyro
