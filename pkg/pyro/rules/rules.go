// Package rules provides pure, composable predicates and value
// transforms over model state, used to gate effects.
//
// An operand is either a dot-path string resolved against the model
// ("profile.stats.health") or a Var produced by Value/ValueOf, which
// applies transforms before use. Every building block returns a plain
// func, so rules are shareable across effects and models:
//
//	lowHealth := rules.All(
//	    rules.Positive("health"),
//	    rules.Less("health", 25),
//	)
//
// Path segments that address a reactive model resolve through its
// Lookup method, so atoms read by a rule still register dependency
// edges when the rule runs inside a tracked evaluation.
package rules

import (
	"reflect"
	"strings"
)

// Rule is a pure predicate over a model.
type Rule = func(any) bool

// Getter extracts a value from a model.
type Getter = func(any) any

// Transform converts a raw operand value before use.
type Transform = func(any) any

// Operand is either a dot-path string or a Var. On the right-hand side
// of a comparison, anything else is treated as a literal value.
type Operand = any

// Var extracts, transforms and (through the model's own accessors)
// tracks data access from a model.
type Var struct {
	path       string
	fn         Getter
	transforms []Transform
}

// Value builds a Var from a dot-path, applying the given transforms in
// order.
func Value(path string, transforms ...Transform) Var {
	return Var{path: path, transforms: transforms}
}

// ValueOf builds a Var from an arbitrary extractor function.
func ValueOf(fn Getter, transforms ...Transform) Var {
	return Var{fn: fn, transforms: transforms}
}

func (v Var) get(model any) any {
	var raw any
	if v.fn != nil {
		raw = v.fn(model)
	} else {
		raw = lookupPath(model, v.path)
	}
	for _, t := range v.transforms {
		raw = t(raw)
	}
	return raw
}

// lookuper is satisfied by pyro models and reactive dicts; resolving
// through it keeps reads visible to dependency tracking.
type lookuper interface {
	Lookup(name string) (any, bool)
}

// lookupPath resolves a dot-path across models, maps and structs.
// A segment that cannot be resolved yields nil.
func lookupPath(obj any, path string) any {
	cur := obj
	for _, seg := range strings.Split(path, ".") {
		if cur == nil {
			return nil
		}
		switch o := cur.(type) {
		case lookuper:
			cur, _ = o.Lookup(seg)
		case map[string]any:
			cur = o[seg]
		default:
			cur = fieldByName(cur, seg)
		}
	}
	return cur
}

// fieldByName reads an exported struct field reflectively, following
// pointers. Missing fields yield nil.
func fieldByName(obj any, name string) any {
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	f := rv.FieldByName(name)
	if !f.IsValid() || !f.CanInterface() {
		return nil
	}
	return f.Interface()
}

// left resolves the left operand: always an attribute path or a Var.
func left(model any, op Operand) any {
	switch o := op.(type) {
	case Var:
		return o.get(model)
	case string:
		return lookupPath(model, o)
	default:
		return o
	}
}

// right resolves the right operand: a Var is dynamic, anything else
// (including a string) is a literal.
func right(model any, op Operand) any {
	if v, ok := op.(Var); ok {
		return v.get(model)
	}
	return op
}
