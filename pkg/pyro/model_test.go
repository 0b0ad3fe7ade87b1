package pyro

import (
	"errors"
	"testing"
)

// recorder collects every change set a model emits.
type recorder struct {
	sets []Changes
}

func record(t *testing.T, m *Model) *recorder {
	t.Helper()
	r := &recorder{}
	remove := m.Subscribe(func(c Changes) { r.sets = append(r.sets, c) })
	t.Cleanup(remove)
	return r
}

func (r *recorder) last(t *testing.T) Changes {
	t.Helper()
	if len(r.sets) == 0 {
		t.Fatal("no change sets recorded")
	}
	return r.sets[len(r.sets)-1]
}

func playerSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewSchema("Player").
		Atom("volume", 50).
		Atom("muted", false).
		Atom("name", "anon").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return s
}

func TestSetNotifiesSubscribers(t *testing.T) {
	m, err := NewModel(playerSchema(t))
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	r := record(t, m)

	if err := m.Set("volume", 30); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if len(r.sets) != 1 {
		t.Fatalf("got %d change sets, want 1", len(r.sets))
	}
	if got := r.last(t)["volume"]; got != 30 {
		t.Errorf("volume = %v, want 30", got)
	}
	if got := m.Get("volume"); got != 30 {
		t.Errorf("Get(volume) = %v, want 30", got)
	}
}

func TestEqualWriteIsSuppressed(t *testing.T) {
	m, _ := NewModel(playerSchema(t))
	r := record(t, m)

	if err := m.Set("volume", 50); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if len(r.sets) != 0 {
		t.Errorf("got %d change sets, want 0 for an equal write", len(r.sets))
	}
}

func TestInitialValueOverrides(t *testing.T) {
	m, err := NewModel(playerSchema(t), WithValue("volume", 80))
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	if got := m.Get("volume"); got != 80 {
		t.Errorf("volume = %v, want 80", got)
	}
	if !m.Overridden("volume") {
		t.Error("volume should report overridden")
	}
	if m.Overridden("muted") {
		t.Error("muted should not report overridden")
	}
}

func TestOverrideUnknownFieldFails(t *testing.T) {
	_, err := NewModel(playerSchema(t), WithValue("bogus", 1))
	var ufe *UnknownFieldError
	if !errors.As(err, &ufe) {
		t.Fatalf("err = %v, want *UnknownFieldError", err)
	}
	if ufe.Field != "bogus" {
		t.Errorf("Field = %q, want %q", ufe.Field, "bogus")
	}
}

func TestComputedCachesBetweenChanges(t *testing.T) {
	evals := 0
	s := NewSchema("Doubler").
		Atom("n", 1).
		Computed("double", func(m *Model) any {
			evals++
			return m.Get("n").(int) * 2
		}).
		MustBuild()
	m, _ := NewModel(s)

	if got := m.Get("double"); got != 2 {
		t.Fatalf("double = %v, want 2", got)
	}
	m.Get("double")
	if evals != 1 {
		t.Errorf("evals = %d, want 1 (second read served from cache)", evals)
	}

	if err := m.Set("n", 3); err != nil {
		t.Fatal(err)
	}
	if got := m.Get("double"); got != 6 {
		t.Errorf("double = %v, want 6", got)
	}
	if evals != 2 {
		t.Errorf("evals = %d, want 2", evals)
	}
}

func TestComputedReadInsideBatchSeesPriorWrite(t *testing.T) {
	s := NewSchema("Doubler").
		Atom("n", 1).
		Computed("double", func(m *Model) any { return m.Get("n").(int) * 2 }).
		Computed("quad", func(m *Model) any { return m.Get("double").(int) * 2 }).
		MustBuild()
	m, _ := NewModel(s)

	// Prime both caches so the batch starts from valid cells.
	if got := m.Get("quad"); got != 4 {
		t.Fatalf("quad = %v, want 4", got)
	}

	m.Batch(func() {
		if err := m.Set("n", 5); err != nil {
			t.Fatal(err)
		}
		if got := m.Get("double"); got != 10 {
			t.Errorf("double inside batch = %v, want 10", got)
		}
		if got := m.Get("quad"); got != 20 {
			t.Errorf("quad inside batch = %v, want 20", got)
		}
	})

	if got := m.Get("quad"); got != 20 {
		t.Errorf("quad after batch = %v, want 20", got)
	}
}

func TestChangeSetIncludesDependents(t *testing.T) {
	s := NewSchema("Doubler").
		Atom("n", 1).
		Computed("double", func(m *Model) any { return m.Get("n").(int) * 2 }).
		MustBuild()
	m, _ := NewModel(s)
	m.Sync()
	r := record(t, m)

	if err := m.Set("n", 2); err != nil {
		t.Fatal(err)
	}
	if len(r.sets) != 1 {
		t.Fatalf("got %d change sets, want 1", len(r.sets))
	}
	got := r.last(t)
	if got["n"] != 2 || got["double"] != 4 {
		t.Errorf("change set = %v, want n:2 double:4", got)
	}
}

func TestComputedCascadeIsDiffGated(t *testing.T) {
	s := NewSchema("Sign").
		Atom("n", 1).
		Computed("positive", func(m *Model) any { return m.Get("n").(int) > 0 }).
		Computed("label", func(m *Model) any {
			if m.Get("positive").(bool) {
				return "up"
			}
			return "down"
		}).
		MustBuild()
	m, _ := NewModel(s)
	m.Sync()
	r := record(t, m)

	// 1 -> 2 keeps positive true: label must not appear in the set.
	if err := m.Set("n", 2); err != nil {
		t.Fatal(err)
	}
	got := r.last(t)
	if _, ok := got["label"]; ok {
		t.Errorf("label re-observed despite unchanged intermediate: %v", got)
	}

	// 2 -> -1 flips positive: the cascade reaches label in the same set.
	if err := m.Set("n", -1); err != nil {
		t.Fatal(err)
	}
	if len(r.sets) != 2 {
		t.Fatalf("got %d change sets, want 2", len(r.sets))
	}
	got = r.last(t)
	if got["positive"] != false || got["label"] != "down" {
		t.Errorf("change set = %v, want positive:false label:down", got)
	}
}

func TestSelfReferentialComputedPanics(t *testing.T) {
	s := NewSchema("Loop").
		Computed("loop", func(m *Model) any { return m.Get("loop") }).
		MustBuild()
	m, _ := NewModel(s)

	defer func() {
		var ce *CycleError
		if r := recover(); r == nil {
			t.Fatal("expected panic")
		} else if err, ok := r.(error); !ok || !errors.As(err, &ce) {
			t.Fatalf("recovered %v, want *CycleError", r)
		} else if ce.Slot != "loop" {
			t.Errorf("Slot = %q, want %q", ce.Slot, "loop")
		}
	}()
	m.Get("loop")
}

func TestMutualComputedCyclePanics(t *testing.T) {
	s := NewSchema("Loop").
		Computed("a", func(m *Model) any { return m.Get("b") }).
		Computed("b", func(m *Model) any { return m.Get("a") }).
		MustBuild()
	m, _ := NewModel(s)

	defer func() {
		var ce *CycleError
		if r := recover(); r == nil {
			t.Fatal("expected panic")
		} else if err, ok := r.(error); !ok || !errors.As(err, &ce) {
			t.Fatalf("recovered %v, want *CycleError", r)
		}
	}()
	m.Get("a")
}

func TestBatchEmitsOnce(t *testing.T) {
	m, _ := NewModel(playerSchema(t))
	r := record(t, m)

	m.Batch(func() {
		_ = m.Set("volume", 10)
		_ = m.Set("muted", true)
		_ = m.Set("volume", 20)
	})

	if len(r.sets) != 1 {
		t.Fatalf("got %d change sets, want 1", len(r.sets))
	}
	got := r.last(t)
	if got["volume"] != 20 || got["muted"] != true {
		t.Errorf("change set = %v, want consolidated volume:20 muted:true", got)
	}
}

func TestNestedBatchFlushesAtOutermost(t *testing.T) {
	m, _ := NewModel(playerSchema(t))
	r := record(t, m)

	m.Batch(func() {
		_ = m.Set("volume", 10)
		m.Batch(func() {
			_ = m.Set("muted", true)
		})
		if len(r.sets) != 0 {
			t.Error("inner batch must not flush")
		}
	})
	if len(r.sets) != 1 {
		t.Errorf("got %d change sets, want 1", len(r.sets))
	}
}

func TestUpdateIsAtomic(t *testing.T) {
	m, _ := NewModel(playerSchema(t))
	r := record(t, m)

	err := m.Update(map[string]any{"volume": 99, "bogus": 1})
	var ufe *UnknownFieldError
	if !errors.As(err, &ufe) {
		t.Fatalf("err = %v, want *UnknownFieldError", err)
	}
	if got := m.Get("volume"); got != 50 {
		t.Errorf("volume = %v, want untouched 50 after rejected update", got)
	}
	if len(r.sets) != 0 {
		t.Errorf("rejected update emitted %d change sets", len(r.sets))
	}

	if err := m.Update(map[string]any{"volume": 99, "muted": true}); err != nil {
		t.Fatal(err)
	}
	if len(r.sets) != 1 {
		t.Errorf("got %d change sets, want 1", len(r.sets))
	}
}

func TestSetRejectsDerivedAndUnknown(t *testing.T) {
	s := NewSchema("Doubler").
		Atom("n", 1).
		Computed("double", func(m *Model) any { return m.Get("n").(int) * 2 }).
		MustBuild()
	m, _ := NewModel(s)

	if err := m.Set("double", 10); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Set(computed) err = %v, want ErrReadOnly", err)
	}
	var ufe *UnknownFieldError
	if err := m.Set("bogus", 10); !errors.As(err, &ufe) {
		t.Errorf("Set(unknown) err = %v, want *UnknownFieldError", err)
	}
}

func TestGetUnknownPanics(t *testing.T) {
	m, _ := NewModel(playerSchema(t))
	defer func() {
		var ufe *UnknownFieldError
		if r := recover(); r == nil {
			t.Fatal("expected panic")
		} else if err, ok := r.(error); !ok || !errors.As(err, &ufe) {
			t.Fatalf("recovered %v, want *UnknownFieldError", r)
		}
	}()
	m.Get("bogus")
}

func TestToggle(t *testing.T) {
	m, _ := NewModel(playerSchema(t))
	r := record(t, m)

	if err := m.Toggle("muted"); err != nil {
		t.Fatal(err)
	}
	if got := m.Get("muted"); got != true {
		t.Errorf("muted = %v, want true", got)
	}
	if len(r.sets) != 1 {
		t.Errorf("got %d change sets, want 1", len(r.sets))
	}

	var ke *KindError
	if err := m.Toggle("volume"); !errors.As(err, &ke) {
		t.Errorf("Toggle(int) err = %v, want *KindError", err)
	}
	var ufe *UnknownFieldError
	if err := m.Toggle("bogus"); !errors.As(err, &ufe) {
		t.Errorf("Toggle(unknown) err = %v, want *UnknownFieldError", err)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	m, _ := NewModel(playerSchema(t))
	_ = m.Set("volume", 10)
	_ = m.Set("muted", true)
	r := record(t, m)

	if err := m.Reset("volume"); err != nil {
		t.Fatal(err)
	}
	if got := m.Get("volume"); got != 50 {
		t.Errorf("volume = %v, want default 50", got)
	}
	if got := m.Get("muted"); got != true {
		t.Errorf("muted = %v, want true (not reset)", got)
	}
	if len(r.sets) != 1 {
		t.Errorf("got %d change sets, want 1", len(r.sets))
	}

	m.ResetAll()
	if got := m.Get("muted"); got != false {
		t.Errorf("muted = %v, want default false", got)
	}
}

func TestEagerReactionRunsOnDependency(t *testing.T) {
	runs := 0
	s := NewSchema("Watcher").
		Atom("volume", 50).
		Reaction("onVolume", func(m *Model) { runs++ }, "volume").
		MustBuild()
	m, _ := NewModel(s)
	r := record(t, m)

	if err := m.Set("volume", 30); err != nil {
		t.Fatal(err)
	}
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
	got := r.last(t)
	if v, ok := got["onVolume"]; !ok || v != nil {
		t.Errorf("change set = %v, want onVolume present with nil value", got)
	}
}

func TestLazyReactionRunsOnlyOnAccess(t *testing.T) {
	runs := 0
	s := NewSchema("Watcher").
		Atom("volume", 50).
		LazyReaction("audit", func(m *Model) { runs++ }, "volume").
		MustBuild()
	m, _ := NewModel(s)

	_ = m.Set("volume", 30)
	if runs != 0 {
		t.Fatalf("runs = %d, want 0 before access", runs)
	}
	m.Get("audit")
	if runs != 1 {
		t.Errorf("runs = %d, want 1 after access", runs)
	}
}

func TestEffectTriggerSetIsDynamic(t *testing.T) {
	runs := 0
	s := NewSchema("Alarm").
		Atom("gate", false).
		Atom("level", 0).
		Effect("alarm",
			func(v any) bool {
				m := v.(*Model)
				if !m.Get("gate").(bool) {
					return false
				}
				return m.Get("level").(int) > 3
			},
			func(m *Model) { runs++ }).
		MustBuild()
	m, _ := NewModel(s)
	m.Sync()

	// Rule short-circuited on gate, so level is not yet a trigger.
	_ = m.Set("level", 5)
	if runs != 0 {
		t.Fatalf("runs = %d, want 0 while gate closed", runs)
	}

	_ = m.Set("gate", true)
	if runs != 1 {
		t.Fatalf("runs = %d, want 1 after gate opened", runs)
	}

	// The last evaluation read level, so it triggers now.
	_ = m.Set("level", 2)
	if runs != 1 {
		t.Errorf("runs = %d, want 1 (rule false)", runs)
	}
	_ = m.Set("level", 10)
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestSyncPrimesDerivedMembers(t *testing.T) {
	checks, reactions := 0, 0
	s := NewSchema("Primed").
		Atom("n", 4).
		Computed("double", func(m *Model) any { return m.Get("n").(int) * 2 }).
		Reaction("onN", func(m *Model) { reactions++ }, "n").
		Effect("even", func(v any) bool { checks++; return false }, func(m *Model) {}).
		MustBuild()
	m, _ := NewModel(s)
	m.Sync()

	if checks != 1 {
		t.Errorf("effect checks = %d, want 1", checks)
	}
	if reactions != 1 {
		t.Errorf("reaction runs = %d, want 1", reactions)
	}
	if !m.caches["double"].valid {
		t.Error("computed cache should be primed")
	}
}

func TestWithEmitReplacesBroadcast(t *testing.T) {
	var hooked []Changes
	m, _ := NewModel(playerSchema(t), WithEmit(func(c Changes) { hooked = append(hooked, c) }))
	r := record(t, m)

	_ = m.Set("volume", 10)
	if len(hooked) != 1 {
		t.Errorf("hook got %d change sets, want 1", len(hooked))
	}
	if len(r.sets) != 0 {
		t.Errorf("subscriber got %d change sets, want 0 with emit hook installed", len(r.sets))
	}
}

func TestSubscribeRemoval(t *testing.T) {
	m, _ := NewModel(playerSchema(t))
	calls := 0
	remove := m.Subscribe(func(Changes) { calls++ })

	_ = m.Set("volume", 10)
	remove()
	_ = m.Set("volume", 20)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestLifecycleHooks(t *testing.T) {
	var order []string
	s := NewSchema("Hooked").
		Atom("n", 1).
		OnAwake(func(m *Model) { order = append(order, "awake") }).
		OnPostInit(func(m *Model) {
			order = append(order, "postinit")
			if got := m.Get("n"); got != 7 {
				t.Errorf("post-init n = %v, want override 7", got)
			}
		}).
		MustBuild()
	if _, err := NewModel(s, WithValue("n", 7)); err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "awake" || order[1] != "postinit" {
		t.Errorf("hook order = %v, want [awake postinit]", order)
	}
}

func TestDisposeStopsPropagation(t *testing.T) {
	m, _ := NewModel(playerSchema(t))
	r := record(t, m)

	m.Dispose()
	_ = m.Set("volume", 10)

	if len(r.sets) != 0 {
		t.Errorf("disposed model emitted %d change sets", len(r.sets))
	}
	if got := m.Get("volume"); got != 10 {
		t.Errorf("disposed model should stay readable, volume = %v", got)
	}
}

func TestToMapSnapshotsAtoms(t *testing.T) {
	m, _ := NewModel(playerSchema(t))
	_ = m.Set("volume", 33)

	snap := m.ToMap()
	if snap["volume"] != 33 || snap["muted"] != false || snap["name"] != "anon" {
		t.Errorf("ToMap = %v", snap)
	}
	if len(snap) != 3 {
		t.Errorf("ToMap has %d entries, want 3 (atoms only)", len(snap))
	}
}

func TestPeekDoesNotEvaluate(t *testing.T) {
	evals := 0
	s := NewSchema("Doubler").
		Atom("n", 1).
		Computed("double", func(m *Model) any { evals++; return m.Get("n").(int) * 2 }).
		MustBuild()
	m, _ := NewModel(s)

	if got := m.Peek("n"); got != 1 {
		t.Errorf("Peek(n) = %v, want 1", got)
	}
	if m.Peek("double") != nil {
		t.Error("Peek of a computed should be nil")
	}
	if evals != 0 {
		t.Errorf("Peek evaluated a computed %d times", evals)
	}
}
