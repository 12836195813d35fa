package lang

import (
	"maps"
	"slices"
)

func sortedKeys[T any](m map[string]T) []string {
	if len(m) == 0 {
		return nil
	}

	return slices.Sorted(maps.Keys(m))
}

// resultKind names the kind of an evaluation result in trace records.
func resultKind(value any) string {
	if value == NoValue {
		return "none"
	}

	return KindOf(value).String()
}
