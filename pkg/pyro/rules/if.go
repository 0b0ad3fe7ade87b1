package rules

import (
	"reflect"
	"regexp"
	"strings"
)

// Binary comparisons and logical combinators. The left operand is
// always an attribute path or Var; the right operand may additionally
// be a literal.

// Equals holds when both operands are deeply equal.
func Equals(attr Operand, other Operand) Rule {
	return func(model any) bool {
		return reflect.DeepEqual(left(model, attr), right(model, other))
	}
}

// NotEqual is the negation of Equals.
func NotEqual(attr Operand, other Operand) Rule {
	return Not(Equals(attr, other))
}

// Greater holds when attr orders strictly after other.
func Greater(attr Operand, other Operand) Rule {
	return func(model any) bool {
		c, ok := compare(left(model, attr), right(model, other))
		return ok && c > 0
	}
}

// GreaterOrEqual holds when attr orders at or after other.
func GreaterOrEqual(attr Operand, other Operand) Rule {
	return func(model any) bool {
		c, ok := compare(left(model, attr), right(model, other))
		return ok && c >= 0
	}
}

// Less holds when attr orders strictly before other.
func Less(attr Operand, other Operand) Rule {
	return func(model any) bool {
		c, ok := compare(left(model, attr), right(model, other))
		return ok && c < 0
	}
}

// LessOrEqual holds when attr orders at or before other.
func LessOrEqual(attr Operand, other Operand) Rule {
	return func(model any) bool {
		c, ok := compare(left(model, attr), right(model, other))
		return ok && c <= 0
	}
}

// Has holds when the attr container holds the other value: substring,
// element or key membership depending on the container.
func Has(attr Operand, item Operand) Rule {
	return func(model any) bool {
		return contains(left(model, attr), right(model, item))
	}
}

// HasNot is the negation of Has.
func HasNot(attr Operand, item Operand) Rule {
	return Not(Has(attr, item))
}

// MoreThan holds when the attr container has more than max elements.
func MoreThan(attr Operand, max int) Rule {
	return func(model any) bool {
		n, ok := lengthOf(left(model, attr))
		return ok && n > max
	}
}

// InRange holds when min <= attr <= max.
func InRange(attr Operand, min Operand, max Operand) Rule {
	return func(model any) bool {
		v := left(model, attr)
		lo, okLo := compare(right(model, min), v)
		hi, okHi := compare(v, right(model, max))
		return okLo && okHi && lo <= 0 && hi <= 0
	}
}

// NotInRange holds when attr falls outside [min, max].
func NotInRange(attr Operand, min Operand, max Operand) Rule {
	return Not(InRange(attr, min, max))
}

// AtKey holds when container[key] equals expected.
func AtKey(attr Operand, key Operand, expected Operand) Rule {
	return func(model any) bool {
		v, ok := atIndex(left(model, attr), right(model, key))
		return ok && reflect.DeepEqual(v, right(model, expected))
	}
}

// Match holds when the operand's string form matches the anchored
// pattern prefix, mirroring a re.match. The pattern is compiled once,
// at rule construction; an invalid pattern panics there.
func Match(attr Operand, pattern string) Rule {
	if !strings.HasPrefix(pattern, "^") {
		pattern = "^(?:" + pattern + ")"
	}
	re := regexp.MustCompile(pattern)
	return func(model any) bool {
		return re.MatchString(asString(left(model, attr)))
	}
}

// StartsWith holds when the operand's string form starts with prefix.
func StartsWith(attr Operand, prefix Operand) Rule {
	return func(model any) bool {
		return strings.HasPrefix(asString(left(model, attr)), asString(right(model, prefix)))
	}
}

// EndsWith holds when the operand's string form ends with suffix.
func EndsWith(attr Operand, suffix Operand) Rule {
	return func(model any) bool {
		return strings.HasSuffix(asString(left(model, attr)), asString(right(model, suffix)))
	}
}

// All holds when every condition holds.
func All(conds ...Rule) Rule {
	return func(model any) bool {
		for _, c := range conds {
			if !c(model) {
				return false
			}
		}
		return true
	}
}

// Any holds when at least one condition holds.
func Any(conds ...Rule) Rule {
	return func(model any) bool {
		for _, c := range conds {
			if c(model) {
				return true
			}
		}
		return false
	}
}

// Not negates a condition.
func Not(cond Rule) Rule {
	return func(model any) bool { return !cond(model) }
}

// Readability aliases.
var (
	Every   = All
	Either  = Any
	AtLeast = GreaterOrEqual
	AtMost  = LessOrEqual
	Between = InRange
	Outside = NotInRange
)
