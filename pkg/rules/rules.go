// Package rules provides the built-in field rules and a named factory
// registry used by declarative form definitions.
//
// Every rule except Required treats an empty value (nil, "" or an empty
// slice) as valid so optional fields only fail when something was entered.
package rules

import (
	"context"
	"fmt"
	"html"
	"net/mail"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formstate/pkg/form"
)

// Required fails on nil, blank strings, false and empty collections.
func Required(message string) form.Check {
	return check(KindRequired, message, "is required", func(value any) bool {
		if b, ok := value.(bool); ok {
			return b
		}
		return !isEmpty(value)
	})
}

// Email accepts a single bare address such as "ada@example.com".
func Email(message string) form.Check {
	return check(KindEmail, message, "must be a valid email address", func(value any) bool {
		s, ok := value.(string)
		if !ok {
			return false
		}
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != strings.TrimSpace(s) {
			return false
		}
		at := strings.LastIndex(addr.Address, "@")
		return strings.Contains(addr.Address[at+1:], ".")
	})
}

// MinLength requires at least n characters (or n items for slices).
func MinLength(n int, message string) form.Check {
	return check(KindMinLength, message, fmt.Sprintf("must be at least %d characters", n), func(value any) bool {
		length, ok := lengthOf(value)
		return ok && length >= n
	})
}

// MaxLength allows at most n characters (or n items for slices).
func MaxLength(n int, message string) form.Check {
	return check(KindMaxLength, message, fmt.Sprintf("must be at most %d characters", n), func(value any) bool {
		length, ok := lengthOf(value)
		return ok && length <= n
	})
}

// Pattern requires the string form of the value to match expr.
func Pattern(expr, message string) (form.Check, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return form.Check{}, fmt.Errorf("rules: compile pattern %q: %w", expr, err)
	}
	return check(KindPattern, message, "has an invalid format", func(value any) bool {
		s, ok := value.(string)
		return ok && re.MatchString(s)
	}), nil
}

// MustPattern is Pattern for expressions known at compile time.
func MustPattern(expr, message string) form.Check {
	rule, err := Pattern(expr, message)
	if err != nil {
		panic(err)
	}
	return rule
}

// Min requires a numeric value >= bound (> bound when exclusive).
func Min(bound float64, exclusive bool, message string) form.Check {
	fallback := fmt.Sprintf("must be at least %s", strconv.FormatFloat(bound, 'f', -1, 64))
	if exclusive {
		fallback = fmt.Sprintf("must be greater than %s", strconv.FormatFloat(bound, 'f', -1, 64))
	}
	return check(KindMin, message, fallback, func(value any) bool {
		n, ok := toFloat(value)
		if !ok {
			return false
		}
		if exclusive {
			return n > bound
		}
		return n >= bound
	})
}

// Max requires a numeric value <= bound (< bound when exclusive).
func Max(bound float64, exclusive bool, message string) form.Check {
	fallback := fmt.Sprintf("must be at most %s", strconv.FormatFloat(bound, 'f', -1, 64))
	if exclusive {
		fallback = fmt.Sprintf("must be less than %s", strconv.FormatFloat(bound, 'f', -1, 64))
	}
	return check(KindMax, message, fallback, func(value any) bool {
		n, ok := toFloat(value)
		if !ok {
			return false
		}
		if exclusive {
			return n < bound
		}
		return n <= bound
	})
}

// OneOf requires the value (or every element of a slice) to be listed.
func OneOf(allowed []string, message string) form.Check {
	set := make(map[string]struct{}, len(allowed))
	for _, option := range allowed {
		set[option] = struct{}{}
	}
	fallback := "must be one of " + strings.Join(allowed, ", ")
	return check(KindOneOf, message, fallback, func(value any) bool {
		for _, item := range elements(value) {
			if _, ok := set[fmt.Sprint(item)]; !ok {
				return false
			}
		}
		return true
	})
}

var (
	plainPolicyOnce sync.Once
	plainPolicy     *bluemonday.Policy
)

// PlainText rejects values carrying markup.
func PlainText(message string) form.Check {
	return check(KindPlainText, message, "must not contain markup", func(value any) bool {
		s, ok := value.(string)
		if !ok {
			return false
		}
		return IsPlainText(s)
	})
}

// IsPlainText reports whether s survives a strict sanitizer unchanged.
func IsPlainText(s string) bool {
	return html.UnescapeString(Sanitize(s)) == s
}

// Sanitize strips every tag from s.
func Sanitize(s string) string {
	plainPolicyOnce.Do(func() {
		plainPolicy = bluemonday.StrictPolicy()
	})
	return plainPolicy.Sanitize(s)
}

func check(kind, message, fallback string, ok func(value any) bool) form.Check {
	if strings.TrimSpace(message) == "" {
		message = fallback
	}
	return form.Check{
		Name:    kind,
		Message: message,
		Validator: func(_ context.Context, value any) (bool, error) {
			if kind != KindRequired && isEmpty(value) {
				return true, nil
			}
			return ok(value), nil
		},
	}
}

func isEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func lengthOf(value any) (int, bool) {
	if s, ok := value.(string); ok {
		return utf8.RuneCountInString(s), true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

func elements(value any) []any {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{value}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func toFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case int:
		return float64(typed), true
	case int8:
		return float64(typed), true
	case int16:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint:
		return float64(typed), true
	case uint8:
		return float64(typed), true
	case uint16:
		return float64(typed), true
	case uint32:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	case float32:
		return float64(typed), true
	case float64:
		return typed, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		return n, err == nil
	}
	return 0, false
}
