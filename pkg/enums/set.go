package enums

import (
	"fmt"
	"slices"
	"strings"
)

// set is the closed list of values for one string enum.
type set[T ~string] struct {
	label  string
	values []T
}

func newSet[T ~string](label string, values ...T) set[T] {
	return set[T]{label: label, values: values}
}

func (s set[T]) has(v T) bool {
	return slices.Contains(s.values, v)
}

// parse accepts any casing and surrounding whitespace.
func (s set[T]) parse(raw string) (T, error) {
	v := T(strings.ToLower(strings.TrimSpace(raw)))
	if !s.has(v) {
		var zero T
		return zero, fmt.Errorf("invalid %s %q", s.label, raw)
	}
	return v, nil
}

// Values returns a copy, for validation messages and docs.
func (s set[T]) Values() []T {
	return slices.Clone(s.values)
}
