package bind

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/pyro-reactive/pyro/pkg/pyro"
	"github.com/pyro-reactive/pyro/pkg/store"
)

// ErrComputedTwoWay is returned when a binding would write an external
// value back into a computed key. Computeds are derived and read-only,
// so only one-way model-to-target bindings may reference them.
var ErrComputedTwoWay = errors.New("bind: computed keys are read-only")

// GrammarError reports a binding expression the grammar cannot parse.
type GrammarError struct {
	Expr   string
	Detail string
}

func (e *GrammarError) Error() string {
	return fmt.Sprintf("bind: bad expression %q: %s", e.Expr, e.Detail)
}

// TargetError reports a bindable object missing a property or signal a
// binding needs. It surfaces at bind time, not on first update.
type TargetError struct {
	Detail string
}

func (e *TargetError) Error() string { return "bind: " + e.Detail }

// KeyError reports a @ref.key that cannot serve the requested binding.
type KeyError struct {
	Ref    string
	Key    string
	Detail string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("bind: @%s.%s: %s", e.Ref, e.Key, e.Detail)
}

var exprPattern = regexp.MustCompile(
	`^(?P<property>~?\w*):?(?P<signal>\w*):?@(?P<ref>\w+)\.(?P<key>\w+)(?P<formatter>.*)$`,
)

// Binding is an established link between a model key and an external
// object. Unbind detaches both legs.
type Binding struct {
	model       *pyro.Model
	target      Bindable
	key         string
	property    string
	signalName  string
	unsubscribe func()
	signal      *Signal
	signalID    int
}

// Key returns the bound model key.
func (b *Binding) Key() string { return b.key }

// Property returns the bound target property name.
func (b *Binding) Property() string { return b.property }

// TwoWay reports whether the binding listens to a target signal.
func (b *Binding) TwoWay() bool { return b.signal != nil }

// Unbind detaches the model subscription and the signal handler. It is
// safe to call more than once.
func (b *Binding) Unbind() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
	if b.signal != nil {
		b.signal.Disconnect(b.signalID)
		b.signal = nil
	}
}

// Bind parses expr, resolves @ref in st, and establishes the link
// between the model key and target. The forward leg pushes the key's
// current value immediately and again on every change set that names
// it; the backward leg, when a signal is involved, writes the signal
// payload (or the property's current value) back into the model.
//
// Both legs suppress writes whose value already equals the other
// side's current value, so a two-way binding cannot echo.
func Bind(st *store.Store, target Bindable, expr string) (*Binding, error) {
	m := exprPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return nil, &GrammarError{Expr: expr, Detail: "want [~]?[property[:signal]]:@ref.key[formatter]"}
	}
	property := m[exprPattern.SubexpIndex("property")]
	signalName := m[exprPattern.SubexpIndex("signal")]
	ref := m[exprPattern.SubexpIndex("ref")]
	key := m[exprPattern.SubexpIndex("key")]

	fmtr, err := decodeFormatter(expr, m[exprPattern.SubexpIndex("formatter")])
	if err != nil {
		return nil, err
	}

	toModelOnly := strings.HasPrefix(property, "~")
	property = strings.TrimPrefix(property, "~")

	// Level 1 fills in the target's declared defaults; level 4 with no
	// explicit signal falls back to the default signal.
	if property == "" {
		property = target.BindableProperty()
		if property == "" {
			return nil, &TargetError{Detail: fmt.Sprintf("%q: target declares no default bindable property", expr)}
		}
		if signalName == "" {
			signalName = target.BindableSignal()
		}
	}
	if toModelOnly && signalName == "" {
		signalName = target.BindableSignal()
		if signalName == "" {
			return nil, &TargetError{Detail: fmt.Sprintf("%q: target declares no default bindable signal", expr)}
		}
	}

	model, err := st.Lookup(ref)
	if err != nil {
		return nil, err
	}
	kind, ok := model.Schema().KindOf(key)
	if !ok {
		return nil, &KeyError{Ref: ref, Key: key, Detail: "unknown key"}
	}
	switch kind {
	case pyro.KindComputed:
		if signalName != "" {
			return nil, fmt.Errorf("bind: @%s.%s: %w", ref, key, ErrComputedTwoWay)
		}
	case pyro.KindReaction, pyro.KindEffect:
		return nil, &KeyError{Ref: ref, Key: key, Detail: kind.String() + " keys are not bindable"}
	}

	b := &Binding{model: model, target: target, key: key, property: property, signalName: signalName}

	if signalName != "" {
		sig, err := target.Signal(signalName)
		if err != nil {
			return nil, err
		}
		b.signal = sig
		b.signalID = sig.Connect(func(args ...any) {
			var v any
			if len(args) > 0 {
				v = args[0]
			} else {
				v, _ = target.Property(property)
			}
			if !pyro.Equal(v, model.Peek(key)) {
				_ = model.Set(key, v)
			}
		})
	}

	if !toModelOnly {
		forward := func(v any) {
			if fmtr != nil {
				cur, _ := target.Property(property)
				v = fmtr.apply(v, cur)
			}
			cur, err := target.Property(property)
			if err == nil && pyro.Equal(cur, v) {
				return
			}
			_ = target.SetProperty(property, v)
		}
		forward(model.Get(key))
		b.unsubscribe = model.Subscribe(func(changes pyro.Changes) {
			if v, ok := changes[key]; ok {
				forward(v)
			}
		})
	}
	return b, nil
}
