package rules

import (
	"reflect"
	"unicode"
)

// Unary predicates over a single operand.

// Even holds when the operand is an even integer value.
func Even(attr Operand) Rule {
	return func(model any) bool {
		f, ok := toFloat(left(model, attr))
		return ok && int64(f)%2 == 0
	}
}

// Odd holds when the operand is an odd integer value.
func Odd(attr Operand) Rule {
	return func(model any) bool {
		f, ok := toFloat(left(model, attr))
		return ok && int64(f)%2 != 0
	}
}

// Positive holds when the operand is greater than zero.
func Positive(attr Operand) Rule {
	return func(model any) bool {
		f, ok := toFloat(left(model, attr))
		return ok && f > 0
	}
}

// Zero holds when the operand equals zero.
func Zero(attr Operand) Rule {
	return func(model any) bool {
		f, ok := toFloat(left(model, attr))
		return ok && f == 0
	}
}

// Negative holds when the operand is less than zero.
func Negative(attr Operand) Rule {
	return func(model any) bool {
		f, ok := toFloat(left(model, attr))
		return ok && f < 0
	}
}

// Defined holds when the operand resolves to a non-nil value.
func Defined(attr Operand) Rule {
	return func(model any) bool { return left(model, attr) != nil }
}

// Nil holds when the operand resolves to nil.
func Nil(attr Operand) Rule {
	return func(model any) bool { return left(model, attr) == nil }
}

// Truthy holds for non-zero, non-empty, non-nil values.
func Truthy(attr Operand) Rule {
	return func(model any) bool { return truthy(left(model, attr)) }
}

// Falsy is the negation of Truthy.
func Falsy(attr Operand) Rule {
	return func(model any) bool { return !truthy(left(model, attr)) }
}

// Empty holds when the operand has no elements.
func Empty(attr Operand) Rule {
	return func(model any) bool {
		n, ok := lengthOf(left(model, attr))
		return ok && n == 0
	}
}

// NotEmpty holds when the operand has at least one element.
func NotEmpty(attr Operand) Rule {
	return func(model any) bool {
		n, ok := lengthOf(left(model, attr))
		return ok && n > 0
	}
}

// TypeOf holds when the operand's dynamic type matches sample's.
func TypeOf(attr Operand, sample any) Rule {
	want := reflect.TypeOf(sample)
	return func(model any) bool {
		return reflect.TypeOf(left(model, attr)) == want
	}
}

// KindOf holds when the operand's reflect kind matches.
func KindOf(attr Operand, kind reflect.Kind) Rule {
	return func(model any) bool {
		v := left(model, attr)
		if v == nil {
			return false
		}
		return reflect.TypeOf(v).Kind() == kind
	}
}

// IsAlpha holds when the operand's string form is non-empty and all
// letters.
func IsAlpha(attr Operand) Rule {
	return func(model any) bool {
		v := left(model, attr)
		if v == nil {
			return false
		}
		s := asString(v)
		if s == "" {
			return false
		}
		for _, r := range s {
			if !unicode.IsLetter(r) {
				return false
			}
		}
		return true
	}
}

// IsNumeric holds when the operand's string form is non-empty and all
// digits.
func IsNumeric(attr Operand) Rule {
	return func(model any) bool {
		v := left(model, attr)
		if v == nil {
			return false
		}
		s := asString(v)
		if s == "" {
			return false
		}
		for _, r := range s {
			if !unicode.IsDigit(r) {
				return false
			}
		}
		return true
	}
}

// IsAlnum holds when the operand's string form is non-empty and all
// letters or digits.
func IsAlnum(attr Operand) Rule {
	return func(model any) bool {
		v := left(model, attr)
		if v == nil {
			return false
		}
		s := asString(v)
		if s == "" {
			return false
		}
		for _, r := range s {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return false
			}
		}
		return true
	}
}

// Shortcuts for common type checks.

// Integer holds for int-typed operands.
func Integer(attr Operand) Rule { return KindOf(attr, reflect.Int) }

// Str holds for string-typed operands.
func Str(attr Operand) Rule { return KindOf(attr, reflect.String) }

// Decimal holds for float64-typed operands.
func Decimal(attr Operand) Rule { return KindOf(attr, reflect.Float64) }

// ListKind holds for slice operands and reactive lists.
func ListKind(attr Operand) Rule {
	return func(model any) bool {
		v := left(model, attr)
		if _, ok := v.(itemser); ok {
			return true
		}
		return v != nil && reflect.TypeOf(v).Kind() == reflect.Slice
	}
}

// MapKind holds for map operands and reactive dicts.
func MapKind(attr Operand) Rule {
	return func(model any) bool {
		v := left(model, attr)
		if _, ok := v.(interface{ Lookup(string) (any, bool) }); ok {
			return true
		}
		return v != nil && reflect.TypeOf(v).Kind() == reflect.Map
	}
}
