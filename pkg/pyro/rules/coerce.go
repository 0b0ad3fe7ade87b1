package rules

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// itemser is satisfied by reactive list and set proxies.
type itemser interface {
	Items() []any
}

// toFloat coerces numeric values (and numeric strings) to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// lengthOf returns the element count of strings, collections and proxies.
func lengthOf(v any) (int, bool) {
	switch c := v.(type) {
	case nil:
		return 0, true
	case string:
		return len(c), true
	case itemser:
		return len(c.Items()), true
	case interface{ Len() int }:
		return c.Len(), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
		return rv.Len(), true
	}
	return 0, false
}

// truthy follows collection emptiness and numeric zero conventions:
// nil, false, zero, the empty string and empty collections are falsy.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	if n, ok := lengthOf(v); ok {
		return n > 0
	}
	return true
}

// compare orders two values: numerically when both coerce to numbers,
// lexically when both are strings. ok is false for unordered pairs.
func compare(a, b any) (int, bool) {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

// asString renders a value the way the string predicates and transforms
// see it.
func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// contains reports whether container holds item: substring for strings,
// element membership for slices, sets and lists, key membership for
// maps.
func contains(container, item any) bool {
	switch c := container.(type) {
	case nil:
		return false
	case string:
		return strings.Contains(c, asString(item))
	case interface{ Has(any) bool }:
		return c.Has(item)
	case itemser:
		for _, e := range c.Items() {
			if reflect.DeepEqual(e, item) {
				return true
			}
		}
		return false
	case interface{ Lookup(string) (any, bool) }:
		_, ok := c.Lookup(asString(item))
		return ok
	case map[string]any:
		_, ok := c[asString(item)]
		return ok
	}
	rv := reflect.ValueOf(container)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if reflect.DeepEqual(rv.Index(i).Interface(), item) {
				return true
			}
		}
	case reflect.Map:
		iv := reflect.ValueOf(item)
		if iv.IsValid() && iv.Type().AssignableTo(rv.Type().Key()) {
			return rv.MapIndex(iv).IsValid()
		}
	}
	return false
}

// atIndex resolves container[key] for maps, dicts, slices and lists.
func atIndex(container, key any) (any, bool) {
	switch c := container.(type) {
	case interface{ Lookup(string) (any, bool) }:
		return c.Lookup(asString(key))
	case map[string]any:
		v, ok := c[asString(key)]
		return v, ok
	case interface{ At(int) any }:
		i, ok := toFloat(key)
		n, _ := lengthOf(c)
		if !ok || int(i) < 0 || int(i) >= n {
			return nil, false
		}
		return c.At(int(i)), true
	}
	rv := reflect.ValueOf(container)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		f, ok := toFloat(key)
		i := int(f)
		if !ok || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	case reflect.Map:
		kv := reflect.ValueOf(key)
		if kv.IsValid() && kv.Type().AssignableTo(rv.Type().Key()) {
			v := rv.MapIndex(kv)
			if v.IsValid() {
				return v.Interface(), true
			}
		}
	}
	return nil, false
}
