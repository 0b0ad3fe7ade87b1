package bind

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pyro-reactive/pyro/pkg/pyro/rules"
)

// formatter is the decoded trailing part of a binding expression: an
// optional value filter and a single-%v template applied on the
// forward leg.
type formatter struct {
	filter   rules.Transform
	template string
}

var formatterPattern = regexp.MustCompile(
	`^%(?:\.(?P<filter>[\w.]+))?(?:\s*['"](?P<template>[^'"]*)['"])?$`,
)

var precisionPattern = regexp.MustCompile(`^\.?(\d+)f$`)

// namedFilters maps filter names to value transforms. Most come from
// the rules package so both surfaces share one coercion behavior.
var namedFilters = map[string]rules.Transform{
	"int":    rules.ToInt,
	"float":  rules.ToFloat,
	"abs":    rules.ToPositive,
	"round":  rules.ToRounded,
	"lower":  rules.ToLower,
	"upper":  rules.ToUpper,
	"title":  rules.ToTitle,
	"strip":  rules.ToStripped,
	"len":    rules.ToCount,
	"percent": func(v any) any {
		f, ok := rules.ToFloat(v).(float64)
		if !ok {
			return v
		}
		return fmt.Sprintf("%.0f%%", f*100)
	},
	"invert": func(v any) any {
		b, _ := rules.ToBool(v).(bool)
		return !b
	},
	"cap": func(v any) any {
		s := fmt.Sprint(v)
		if s == "" {
			return s
		}
		r := []rune(s)
		r[0] = unicode.ToUpper(r[0])
		return string(r)
	},
}

// decodeFormatter parses the formatter tail of a binding expression.
// An empty tail yields a nil formatter; a bare "%" yields the identity
// template "%v".
func decodeFormatter(expr, tail string) (*formatter, error) {
	tail = strings.TrimSpace(tail)
	if tail == "" {
		return nil, nil
	}
	m := formatterPattern.FindStringSubmatch(tail)
	if m == nil {
		return nil, &GrammarError{Expr: expr, Detail: fmt.Sprintf("invalid formatter %q", tail)}
	}
	f := &formatter{template: "%v"}
	if name := m[formatterPattern.SubexpIndex("filter")]; name != "" {
		filter, err := lookupFilter(name)
		if err != nil {
			return nil, &GrammarError{Expr: expr, Detail: err.Error()}
		}
		f.filter = filter
	}
	if tpl := m[formatterPattern.SubexpIndex("template")]; tpl != "" {
		if strings.Count(tpl, "%v") != 1 {
			return nil, &GrammarError{Expr: expr, Detail: fmt.Sprintf("template %q needs exactly one %%v", tpl)}
		}
		f.template = tpl
	}
	return f, nil
}

// lookupFilter resolves a filter name: the named table first, then the
// dynamic fixed-precision form ("2f" or ".2f").
func lookupFilter(name string) (rules.Transform, error) {
	if f, ok := namedFilters[name]; ok {
		return f, nil
	}
	if m := precisionPattern.FindStringSubmatch(name); m != nil {
		digits, _ := strconv.Atoi(m[1])
		return func(v any) any {
			f, ok := rules.ToFloat(v).(float64)
			if !ok {
				return v
			}
			return strconv.FormatFloat(f, 'f', digits, 64)
		}, nil
	}
	return nil, fmt.Errorf("unknown filter %q", name)
}

// apply runs the filter and renders the template around the value. A
// bare "%v" template coerces the result to the dynamic type of the
// target property's current value instead of stringifying it.
func (f *formatter) apply(v, current any) any {
	if f.filter != nil {
		v = f.filter(v)
	}
	if f.template == "%v" {
		return coerceLike(v, current)
	}
	prefix, suffix, _ := strings.Cut(f.template, "%v")
	return prefix + render(v) + suffix
}

func render(v any) string {
	if f, ok := v.(float64); ok && f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return fmt.Sprint(v)
}

// coerceLike converts v to the dynamic type of like, so a numeric
// model value lands in a string property as text and vice versa.
func coerceLike(v, like any) any {
	switch like.(type) {
	case string:
		return render(v)
	case int:
		n, ok := rules.ToInt(v).(int)
		if !ok {
			return v
		}
		return n
	case float64:
		f, ok := rules.ToFloat(v).(float64)
		if !ok {
			return v
		}
		return f
	case bool:
		b, _ := rules.ToBool(v).(bool)
		return b
	default:
		return v
	}
}
