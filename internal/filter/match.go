// Package filter matches items against query filters such as '?tag=a,b&state=connected'.
package filter

import (
	"strconv"
	"strings"
)

// Predicate reports whether item matches the filter value.
type Predicate[T any] func(item T, filterValue string) bool

// Options holds the matchers available to Match, keyed by normalized filter name.
type Options[T any] struct {
	matchers map[string]Predicate[T]
}

// Option configures filter Options.
type Option[T any] func(*Options[T]) error

// NormalizeString lowercases s and trims surrounding whitespace.
func NormalizeString(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeSlice returns a new slice with every value normalized by NormalizeString.
func NormalizeSlice(s []string) []string {
	out := make([]string, len(s))
	for i := range s {
		out[i] = NormalizeString(s[i])
	}
	return out
}

// NewOptions creates Options and applies opt in order.
func NewOptions[T any](opt ...Option[T]) (Options[T], error) {
	opts := Options[T]{matchers: make(map[string]Predicate[T])}

	for _, o := range opt {
		if o == nil {
			continue
		}
		if err := o(&opts); err != nil {
			return Options[T]{}, err
		}
	}
	return opts, nil
}

// BoolValueProvider extracts a boolean from an item.
type BoolValueProvider[T any] func(T) bool

// StringValueProvider extracts a string from an item.
type StringValueProvider[T any] func(T) string

// StringValuesProvider extracts a list of strings from an item.
type StringValuesProvider[T any] func(T) []string

// Equals matches when the provided value equals the filter value, ignoring case.
//
// Example:
//
//	predicate := Equals(func(s domain.ServerStatus) string { return s.Type })
//	predicate(status, "HTTP") // true for an http server
func Equals[T any](provider StringValueProvider[T]) Predicate[T] {
	return func(item T, val string) bool {
		return NormalizeString(provider(item)) == NormalizeString(val)
	}
}

// EqualsBool matches when the provided value equals the filter value parsed as a boolean.
// A filter value which is not a boolean never matches.
func EqualsBool[T any](provider BoolValueProvider[T]) Predicate[T] {
	return func(item T, val string) bool {
		parsed, err := strconv.ParseBool(NormalizeString(val))
		if err != nil {
			return false
		}
		return provider(item) == parsed
	}
}

// HasAny matches when any of the comma-separated filter values is among the provided values, ignoring case.
//
// Example:
//
//	predicate := HasAny(func(s domain.ServerStatus) []string { return s.Tags })
//	predicate(status, "fs,web") // true when the server is tagged 'fs' or 'web'
func HasAny[T any](provider StringValuesProvider[T]) Predicate[T] {
	return func(item T, val string) bool {
		wanted := make(map[string]struct{})
		for _, v := range NormalizeSlice(strings.Split(val, ",")) {
			if v != "" {
				wanted[v] = struct{}{}
			}
		}

		for _, v := range provider(item) {
			if _, ok := wanted[NormalizeString(v)]; ok {
				return true
			}
		}
		return false
	}
}

// WithMatchers adds or overrides matchers.
func WithMatchers[T any](m map[string]Predicate[T]) Option[T] {
	return func(o *Options[T]) error {
		for k, v := range m {
			o.matchers[NormalizeString(k)] = v
		}
		return nil
	}
}

// Match reports whether item satisfies every filter with a configured matcher.
// Filters with an empty value or without a matcher are ignored.
func Match[T any](item T, filters map[string]string, opts ...Option[T]) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}

	filterOpts, err := NewOptions(opts...)
	if err != nil {
		return false, err
	}

	for key, val := range filters {
		k := NormalizeString(key)
		if k == "" || strings.TrimSpace(val) == "" {
			continue
		}

		matcher, ok := filterOpts.matchers[k]
		if !ok {
			continue
		}
		if !matcher(item, val) {
			return false, nil
		}
	}
	return true, nil
}
