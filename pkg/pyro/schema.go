package pyro

import (
	"fmt"
	"strings"
)

// Kind classifies a declared model member.
type Kind int

const (
	// KindValue is a plain atom holding any single value.
	KindValue Kind = iota

	// KindList is a collection atom holding a reactive list.
	KindList

	// KindDict is a collection atom holding a reactive string-keyed map.
	KindDict

	// KindSet is a collection atom holding a reactive set.
	KindSet

	// KindComputed is a cached derived value.
	KindComputed

	// KindReaction is a subscriber with a static dependency set.
	KindReaction

	// KindEffect is a subscriber gated by a rule predicate.
	KindEffect
)

// String returns the kind name as used in error messages.
func (k Kind) String() string {
	switch k {
	case KindValue:
		return "atom"
	case KindList:
		return "list atom"
	case KindDict:
		return "dict atom"
	case KindSet:
		return "set atom"
	case KindComputed:
		return "computed"
	case KindReaction:
		return "reaction"
	case KindEffect:
		return "effect"
	default:
		return "unknown"
	}
}

// Schema is the per-type description of a model: one accessor object per
// declared member plus name bookkeeping. A schema is built once and
// shared, read-only, by every instance.
type Schema struct {
	name string

	atoms     map[string]*Atom
	computeds map[string]*Computed
	reactions map[string]*Reaction
	effects   map[string]*Effect

	// Declaration order, used by ToMap, ResetAll and the inspector.
	atomOrder     []string
	computedOrder []string
	reactionOrder []string
	effectOrder   []string

	onAwake    func(*Model)
	onPostInit func(*Model)
}

// Name returns the schema's declared type name.
func (s *Schema) Name() string { return s.name }

// AtomNames returns the declared atom names in declaration order.
func (s *Schema) AtomNames() []string { return append([]string(nil), s.atomOrder...) }

// ComputedNames returns the declared computed names in declaration order.
func (s *Schema) ComputedNames() []string { return append([]string(nil), s.computedOrder...) }

// ReactionNames returns the declared reaction names in declaration order.
func (s *Schema) ReactionNames() []string { return append([]string(nil), s.reactionOrder...) }

// EffectNames returns the declared effect names in declaration order.
func (s *Schema) EffectNames() []string { return append([]string(nil), s.effectOrder...) }

// KindOf returns the kind of the named member. ok is false when the
// schema does not declare the name.
func (s *Schema) KindOf(name string) (Kind, bool) {
	if a, found := s.atoms[name]; found {
		return a.kind, true
	}
	if _, found := s.computeds[name]; found {
		return KindComputed, true
	}
	if _, found := s.reactions[name]; found {
		return KindReaction, true
	}
	if _, found := s.effects[name]; found {
		return KindEffect, true
	}
	return 0, false
}

// SchemaBuilder collects member declarations and validates them as a
// whole in Build. Declaration problems accumulate; the first Build call
// reports all of them.
type SchemaBuilder struct {
	schema *Schema
	errs   []string
}

// NewSchema starts declaring a model type with the given name. The name
// identifies the concrete type for registry merge checks, so it should
// be unique within a process.
func NewSchema(name string) *SchemaBuilder {
	b := &SchemaBuilder{
		schema: &Schema{
			name:      name,
			atoms:     make(map[string]*Atom),
			computeds: make(map[string]*Computed),
			reactions: make(map[string]*Reaction),
			effects:   make(map[string]*Effect),
		},
	}
	if name == "" {
		b.errs = append(b.errs, "schema name must not be empty")
	}
	return b
}

func (b *SchemaBuilder) claim(name string, kind Kind) bool {
	if name == "" {
		b.errs = append(b.errs, fmt.Sprintf("%s declared with empty name", kind))
		return false
	}
	if strings.HasPrefix(name, "_") {
		b.errs = append(b.errs, fmt.Sprintf("%s %q: the underscore prefix is reserved", kind, name))
		return false
	}
	if _, taken := b.schema.KindOf(name); taken {
		b.errs = append(b.errs, fmt.Sprintf("duplicate member %q", name))
		return false
	}
	return true
}

// Atom declares a plain value atom with a default.
func (b *SchemaBuilder) Atom(name string, def any) *SchemaBuilder {
	if b.claim(name, KindValue) {
		b.schema.atoms[name] = &Atom{name: name, def: def, kind: KindValue}
		b.schema.atomOrder = append(b.schema.atomOrder, name)
	}
	return b
}

// List declares a collection atom holding a reactive list.
func (b *SchemaBuilder) List(name string, def []any) *SchemaBuilder {
	if b.claim(name, KindList) {
		b.schema.atoms[name] = &Atom{name: name, def: def, kind: KindList}
		b.schema.atomOrder = append(b.schema.atomOrder, name)
	}
	return b
}

// Dict declares a collection atom holding a reactive string-keyed map.
func (b *SchemaBuilder) Dict(name string, def map[string]any) *SchemaBuilder {
	if b.claim(name, KindDict) {
		b.schema.atoms[name] = &Atom{name: name, def: def, kind: KindDict}
		b.schema.atomOrder = append(b.schema.atomOrder, name)
	}
	return b
}

// Set declares a collection atom holding a reactive set. Elements must
// be comparable.
func (b *SchemaBuilder) Set(name string, def ...any) *SchemaBuilder {
	if b.claim(name, KindSet) {
		b.schema.atoms[name] = &Atom{name: name, def: def, kind: KindSet}
		b.schema.atomOrder = append(b.schema.atomOrder, name)
	}
	return b
}

// Computed declares a derived, read-only slot. fn runs inside dependency
// tracking: every atom or computed it reads becomes a trigger edge for
// the next invalidation round.
func (b *SchemaBuilder) Computed(name string, fn func(*Model) any) *SchemaBuilder {
	if fn == nil {
		b.errs = append(b.errs, fmt.Sprintf("computed %q has no function", name))
		return b
	}
	if b.claim(name, KindComputed) {
		b.schema.computeds[name] = &Computed{name: name, fn: fn}
		b.schema.computedOrder = append(b.schema.computedOrder, name)
	}
	return b
}

// Reaction declares an eager reaction: fn runs synchronously whenever
// any of the named dependencies changes. The dependency set is static
// for the model's lifetime.
func (b *SchemaBuilder) Reaction(name string, fn func(*Model), deps ...string) *SchemaBuilder {
	return b.reaction(name, fn, deps, false)
}

// LazyReaction declares a reaction that runs only on explicit access,
// never as part of notification.
func (b *SchemaBuilder) LazyReaction(name string, fn func(*Model), deps ...string) *SchemaBuilder {
	return b.reaction(name, fn, deps, true)
}

func (b *SchemaBuilder) reaction(name string, fn func(*Model), deps []string, lazy bool) *SchemaBuilder {
	if fn == nil {
		b.errs = append(b.errs, fmt.Sprintf("reaction %q has no function", name))
		return b
	}
	if b.claim(name, KindReaction) {
		set := make(map[string]struct{}, len(deps))
		for _, d := range deps {
			set[d] = struct{}{}
		}
		b.schema.reactions[name] = &Reaction{name: name, fn: fn, deps: set, lazy: lazy}
		b.schema.reactionOrder = append(b.schema.reactionOrder, name)
	}
	return b
}

// Effect declares a rule-gated subscriber. The rule is evaluated inside
// dependency tracking, so whichever atoms it reads become its trigger
// set; fn runs only when the rule currently holds.
func (b *SchemaBuilder) Effect(name string, when func(any) bool, fn func(*Model)) *SchemaBuilder {
	if when == nil || fn == nil {
		b.errs = append(b.errs, fmt.Sprintf("effect %q needs both a rule and a function", name))
		return b
	}
	if b.claim(name, KindEffect) {
		b.schema.effects[name] = &Effect{name: name, when: when, fn: fn}
		b.schema.effectOrder = append(b.schema.effectOrder, name)
	}
	return b
}

// OnAwake registers a hook called before field initialization, for
// collaborator wiring.
func (b *SchemaBuilder) OnAwake(fn func(*Model)) *SchemaBuilder {
	b.schema.onAwake = fn
	return b
}

// OnPostInit registers a hook called after field initialization.
func (b *SchemaBuilder) OnPostInit(fn func(*Model)) *SchemaBuilder {
	b.schema.onPostInit = fn
	return b
}

// Build validates the declarations and freezes the schema.
func (b *SchemaBuilder) Build() (*Schema, error) {
	errs := append([]string(nil), b.errs...)

	// Reaction dependencies must name declared atoms or computeds.
	for _, name := range b.schema.reactionOrder {
		r := b.schema.reactions[name]
		for dep := range r.deps {
			if _, ok := b.schema.atoms[dep]; ok {
				continue
			}
			if _, ok := b.schema.computeds[dep]; ok {
				continue
			}
			errs = append(errs, fmt.Sprintf("reaction %q depends on undeclared member %q", name, dep))
		}
	}

	if len(errs) > 0 {
		return nil, &SchemaError{Schema: b.schema.name, Detail: strings.Join(errs, "; ")}
	}
	return b.schema, nil
}

// MustBuild is Build for package-level schema declarations; it panics on
// a declaration error.
func (b *SchemaBuilder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
