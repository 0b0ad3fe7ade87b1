package store

import (
	"errors"
	"sort"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pyro-reactive/pyro/pkg/pyro"
)

func playerSchema(t *testing.T) *pyro.Schema {
	t.Helper()
	s, err := pyro.NewSchema("Player").
		Atom("volume", 50).
		Atom("muted", false).
		List("queue", []any{}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return s
}

func TestRegisterAndLookup(t *testing.T) {
	st := New()
	m, _ := pyro.NewModel(playerSchema(t))

	if err := st.Register("player", m); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, err := st.Lookup("player")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != m {
		t.Error("Lookup returned a different model")
	}
}

func TestLookupUnknownRef(t *testing.T) {
	st := New()
	_, err := st.Lookup("ghost")
	var ure *UnknownRefError
	if !errors.As(err, &ure) {
		t.Fatalf("err = %v, want *UnknownRefError", err)
	}
	if ure.Ref != "ghost" {
		t.Errorf("Ref = %q, want %q", ure.Ref, "ghost")
	}
}

func TestHotSwapMergePreservesState(t *testing.T) {
	st := New()
	schema := playerSchema(t)

	old, _ := pyro.NewModel(schema)
	_ = old.Set("volume", 80)
	old.Get("queue").(*pyro.List).Append("intro.flac")
	if err := st.Register("player", old); err != nil {
		t.Fatal(err)
	}

	// The replacement pins muted, so only muted keeps its own value.
	next, _ := pyro.NewModel(schema, pyro.WithValue("muted", true))
	if err := st.Register("player", next); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	got, _ := st.Lookup("player")
	if got != next {
		t.Fatal("store should hold the replacement instance")
	}
	if v := got.Get("volume"); v != 80 {
		t.Errorf("volume = %v, want adopted 80", v)
	}
	if v := got.Get("muted"); v != true {
		t.Errorf("muted = %v, want overridden true", v)
	}
	q := got.Get("queue").(*pyro.List)
	if q.Len() != 1 || q.At(0) != "intro.flac" {
		t.Errorf("queue = %v, want adopted [intro.flac]", q.Items())
	}
}

func TestHotSwapMatchesRebuiltSchemaByName(t *testing.T) {
	st := New()

	old, _ := pyro.NewModel(playerSchema(t))
	_ = old.Set("volume", 80)
	_ = st.Register("player", old)

	rebuilt := pyro.NewSchema("Player").
		Atom("volume", 50).
		Atom("balance", 0).
		MustBuild()
	next, _ := pyro.NewModel(rebuilt)
	if err := st.Register("player", next); err != nil {
		t.Fatalf("re-register with rebuilt schema: %v", err)
	}
	if v := next.Get("volume"); v != 80 {
		t.Errorf("volume = %v, want adopted 80", v)
	}
	if v := next.Get("balance"); v != 0 {
		t.Errorf("balance = %v, want its own default 0", v)
	}
}

func TestAliasCollision(t *testing.T) {
	st := New()
	player, _ := pyro.NewModel(playerSchema(t))
	other, _ := pyro.NewModel(pyro.NewSchema("Mixer").Atom("gain", 0).MustBuild())

	_ = st.Register("player", player)
	err := st.Register("player", other)

	var ace *AliasCollisionError
	if !errors.As(err, &ace) {
		t.Fatalf("err = %v, want *AliasCollisionError", err)
	}
	if ace.Existing != "Player" || ace.Incoming != "Mixer" {
		t.Errorf("collision = %+v", ace)
	}
	if got, _ := st.Lookup("player"); got != player {
		t.Error("failed registration must leave the original model bound")
	}
}

func TestSwappedOutModelStopsPropagating(t *testing.T) {
	st := New()
	schema := playerSchema(t)

	old, _ := pyro.NewModel(schema)
	_ = st.Register("player", old)

	calls := 0
	old.Subscribe(func(pyro.Changes) { calls++ })

	next, _ := pyro.NewModel(schema)
	_ = st.Register("player", next)

	_ = old.Set("volume", 1)
	if calls != 0 {
		t.Errorf("swapped-out model emitted %d change sets", calls)
	}
}

func TestRemove(t *testing.T) {
	st := New()
	m, _ := pyro.NewModel(playerSchema(t))
	_ = st.Register("player", m)

	st.Remove("player")
	if _, err := st.Lookup("player"); err == nil {
		t.Error("Lookup should fail after Remove")
	}
	st.Remove("player") // absent key is a no-op
}

func TestDefaultsSnapshotsRegisteredModel(t *testing.T) {
	st := New()
	m, _ := pyro.NewModel(playerSchema(t))
	_ = m.Set("volume", 80)
	_ = st.Register("player", m)

	vals := st.Defaults("player")
	if vals["volume"] != 80 || vals["muted"] != false {
		t.Errorf("Defaults = %v", vals)
	}
	if st.Defaults("ghost") != nil {
		t.Error("Defaults for an unknown ref should be nil")
	}
}

func TestKeys(t *testing.T) {
	st := New()
	a, _ := pyro.NewModel(playerSchema(t))
	b, _ := pyro.NewModel(playerSchema(t))
	_ = st.Register("a", a)
	_ = st.Register("b", b)

	keys := st.Keys()
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys = %v, want [a b]", keys)
	}
}

func TestRegisteredModelsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	st := New(WithRegisterer(reg))
	m, _ := pyro.NewModel(playerSchema(t))

	_ = st.Register("player", m)
	if got := testutil.ToFloat64(st.gauge); got != 1 {
		t.Errorf("gauge = %v, want 1", got)
	}

	// A hot swap reuses the slot and must not double count.
	next, _ := pyro.NewModel(playerSchema(t))
	_ = st.Register("player", next)
	if got := testutil.ToFloat64(st.gauge); got != 1 {
		t.Errorf("gauge after swap = %v, want 1", got)
	}

	st.Remove("player")
	if got := testutil.ToFloat64(st.gauge); got != 0 {
		t.Errorf("gauge after remove = %v, want 0", got)
	}
}
