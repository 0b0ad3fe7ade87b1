package pyro

import "reflect"

// Equal reports whether two slot values are considered the same for
// write suppression. Reactive collection proxies compare by content, not
// identity, so a freshly built replacement collection that is value-equal
// to the stored one counts as equal.
func Equal(a, b any) bool {
	a = unwrapValue(a)
	b = unwrapValue(b)

	switch av := a.(type) {
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int8:
		bv, ok := b.(int8)
		return ok && av == bv
	case int16:
		bv, ok := b.(int16)
		return ok && av == bv
	case int32:
		bv, ok := b.(int32)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case uint:
		bv, ok := b.(uint)
		return ok && av == bv
	case uint8:
		bv, ok := b.(uint8)
		return ok && av == bv
	case uint16:
		bv, ok := b.(uint16)
		return ok && av == bv
	case uint32:
		bv, ok := b.(uint32)
		return ok && av == bv
	case uint64:
		bv, ok := b.(uint64)
		return ok && av == bv
	case float32:
		bv, ok := b.(float32)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		// Slices, maps, structs and mixed types.
		return reflect.DeepEqual(a, b)
	}
}

// unwrapValue replaces a collection proxy with its raw contents so that
// proxies and plain collections compare alike.
func unwrapValue(v any) any {
	switch c := v.(type) {
	case *List:
		return c.items
	case *Dict:
		return c.items
	case *Set:
		return c.items
	default:
		return v
	}
}
