package rules

import (
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Value transforms, applied to an operand through Value(path, ...).

var (
	nonAlpha = regexp.MustCompile(`[^a-zA-Z]`)
	nonDigit = regexp.MustCompile(`[^0-9]`)
	nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

	titleCaser = cases.Title(language.Und)
)

// ToUpper converts to upper case.
func ToUpper(v any) any { return strings.ToUpper(asString(v)) }

// ToLower converts to lower case.
func ToLower(v any) any { return strings.ToLower(asString(v)) }

// ToStripped trims surrounding whitespace.
func ToStripped(v any) any { return strings.TrimSpace(asString(v)) }

// ToTitle converts to title case.
func ToTitle(v any) any { return titleCaser.String(asString(v)) }

// ToAlpha keeps only letters.
func ToAlpha(v any) any { return nonAlpha.ReplaceAllString(asString(v), "") }

// ToDigits keeps only decimal digits.
func ToDigits(v any) any { return nonDigit.ReplaceAllString(asString(v), "") }

// ToAlnum keeps only letters and digits.
func ToAlnum(v any) any { return nonAlnum.ReplaceAllString(asString(v), "") }

// ToPositive takes the absolute value. Non-numeric input passes through.
func ToPositive(v any) any {
	if f, ok := toFloat(v); ok {
		return math.Abs(f)
	}
	return v
}

// ToCount replaces a value with its element count.
func ToCount(v any) any {
	n, _ := lengthOf(v)
	return n
}

// ToRounded rounds to the nearest integer.
func ToRounded(v any) any {
	if f, ok := toFloat(v); ok {
		return int(math.Round(f))
	}
	return v
}

// ToInt truncates a numeric value (or numeric string) to an int.
func ToInt(v any) any {
	if f, ok := toFloat(v); ok {
		return int(f)
	}
	return 0
}

// ToFloat coerces to float64.
func ToFloat(v any) any {
	f, _ := toFloat(v)
	return f
}

// ToBool coerces to a truthiness boolean.
func ToBool(v any) any { return truthy(v) }

// OrElse substitutes def for nil, the empty string and empty
// collections.
func OrElse(def any) Transform {
	return func(v any) any {
		if v == nil {
			return def
		}
		if s, ok := v.(string); ok && s == "" {
			return def
		}
		if n, ok := lengthOf(v); ok && n == 0 {
			return def
		}
		return v
	}
}
