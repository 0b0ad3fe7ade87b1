package pyro

import (
	"runtime"
	"sync"
)

// evalFrame identifies one computed or effect evaluation in progress.
// Atom reads consult the innermost frame to decide which dependent to
// register against.
type evalFrame struct {
	owner *Model
	name  string
}

// trackingContext holds the evaluation stack for a goroutine. Each
// goroutine gets its own stack, so models owned by different goroutines
// can evaluate concurrently without sharing tracking state.
type trackingContext struct {
	stack []evalFrame
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// getGoroutineID returns a unique identifier for the current goroutine,
// parsed from the runtime stack header ("goroutine <id> ...").
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ { // skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingContext returns the tracking context for the current
// goroutine, creating one on first use.
func getTrackingContext() *trackingContext {
	gid := getGoroutineID()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}

	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// currentEval returns the innermost evaluation frame, or nil when no
// tracked evaluation is in progress.
func currentEval() *evalFrame {
	ctx := getTrackingContext()
	if len(ctx.stack) == 0 {
		return nil
	}
	return &ctx.stack[len(ctx.stack)-1]
}

// pushEval enters a tracked evaluation for the named slot. If the same
// slot of the same model is already on the stack the evaluation is
// self-referential and a *CycleError is returned instead.
func pushEval(m *Model, name string) *CycleError {
	ctx := getTrackingContext()
	for i := range ctx.stack {
		if ctx.stack[i].owner == m && ctx.stack[i].name == name {
			return &CycleError{Model: m.schema.name, Slot: name}
		}
	}
	ctx.stack = append(ctx.stack, evalFrame{owner: m, name: name})
	return nil
}

// popEval leaves the innermost tracked evaluation.
func popEval() {
	ctx := getTrackingContext()
	if n := len(ctx.stack); n > 0 {
		ctx.stack = ctx.stack[:n-1]
	}
}

// trackRead registers the innermost evaluation as a dependent of the
// named slot on m. Edges are only recorded within a single model: a
// tracked evaluation reading another model's state does not wire a
// cross-model trigger.
func trackRead(m *Model, name string) {
	fr := currentEval()
	if fr == nil || fr.owner != m || fr.name == name {
		return
	}
	m.addEdge(name, fr.name)
}
