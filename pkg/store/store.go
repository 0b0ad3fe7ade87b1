// Package store provides a key→model registry with hot-swap merge
// semantics. A Store is an explicit service meant to be constructed and
// injected; a process-wide Default store covers the common case.
package store

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pyro-reactive/pyro/pkg/pyro"
)

// UnknownRefError reports a lookup of a key no model is registered
// under. A missing key is always an error, never an empty placeholder.
type UnknownRefError struct {
	Ref string
}

func (e *UnknownRefError) Error() string {
	return fmt.Sprintf("store: no model registered under ref %q (or it was removed)", e.Ref)
}

// AliasCollisionError reports an attempt to re-register an in-use key
// with a different concrete model type.
type AliasCollisionError struct {
	Ref      string
	Existing string
	Incoming string
}

func (e *AliasCollisionError) Error() string {
	return fmt.Sprintf("store: ref %q is bound to schema %q, cannot reassign to %q", e.Ref, e.Existing, e.Incoming)
}

// Option configures a Store.
type Option func(*Store)

// WithRegisterer exports a gauge of registered models to the given
// prometheus registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Store) {
		s.gauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pyro",
			Name:      "registered_models",
			Help:      "Number of models currently held by the store.",
		})
		reg.MustRegister(s.gauge)
	}
}

// Store is a process-wide key→model map. It carries no lock of its own:
// registration and removal are assumed to happen from a single logical
// thread of control, like every other model operation.
type Store struct {
	models map[string]*pyro.Model
	gauge  prometheus.Gauge
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{models: make(map[string]*pyro.Model)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register binds a model to a key. Re-registering an in-use key with the
// same concrete type merges: the new instance adopts the old instance's
// current field values for every atom it did not explicitly override,
// which preserves live state across a hot reload. Re-registering with a
// different type fails with *AliasCollisionError.
func (s *Store) Register(ref string, m *pyro.Model) error {
	if old, ok := s.models[ref]; ok {
		if !sameType(old.Schema(), m.Schema()) {
			return &AliasCollisionError{
				Ref:      ref,
				Existing: old.Schema().Name(),
				Incoming: m.Schema().Name(),
			}
		}
		adopt(m, old)
		old.Dispose()
	} else if s.gauge != nil {
		s.gauge.Inc()
	}

	s.models[ref] = m
	return nil
}

// Lookup returns the model registered under ref.
func (s *Store) Lookup(ref string) (*pyro.Model, error) {
	m, ok := s.models[ref]
	if !ok {
		return nil, &UnknownRefError{Ref: ref}
	}
	return m, nil
}

// Remove unbinds the key and disposes the model's per-instance state.
// Removing an absent key is a no-op.
func (s *Store) Remove(ref string) {
	m, ok := s.models[ref]
	if !ok {
		return
	}
	m.Dispose()
	delete(s.models, ref)
	if s.gauge != nil {
		s.gauge.Dec()
	}
}

// Defaults returns the registered model's current atom values, suitable
// for seeding a replacement instance through pyro.WithValues. A missing
// ref yields nil.
func (s *Store) Defaults(ref string) map[string]any {
	m, ok := s.models[ref]
	if !ok {
		return nil
	}
	return m.ToMap()
}

// Keys returns the currently registered refs.
func (s *Store) Keys() []string {
	out := make([]string, 0, len(s.models))
	for ref := range s.models {
		out = append(out, ref)
	}
	return out
}

// sameType treats two models as the same concrete type when they share
// a schema. Pointer identity covers the normal case; a schema rebuilt
// under the same name (the hot-reload case) matches by name.
func sameType(a, b *pyro.Schema) bool {
	return a == b || a.Name() == b.Name()
}

// adopt copies the old instance's current values into every atom the new
// instance did not explicitly override, batched into one emission.
func adopt(m, old *pyro.Model) {
	snapshot := old.ToMap()
	m.Batch(func() {
		for name, value := range snapshot {
			if m.Overridden(name) {
				continue
			}
			// Both models share a schema, so the name is valid.
			_ = m.Set(name, value)
		}
	})
}

// Default is the process-wide store used by the package-level helpers.
var Default = New()

// Register binds a model in the Default store.
func Register(ref string, m *pyro.Model) error { return Default.Register(ref, m) }

// Lookup resolves a ref in the Default store.
func Lookup(ref string) (*pyro.Model, error) { return Default.Lookup(ref) }

// Remove unbinds a ref in the Default store.
func Remove(ref string) { Default.Remove(ref) }
