// Package enums holds the closed string types stored in the database and
// accepted on the wire. Parsing is exact and case sensitive.
package enums

import (
	"fmt"
	"slices"
)

type set[T ~string] []T

func (s set[T]) has(v T) bool {
	return slices.Contains(s, v)
}

func (s set[T]) parse(kind, raw string) (T, error) {
	if v := T(raw); s.has(v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, raw)
}
