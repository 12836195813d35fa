package std

import (
	"maps"
	"slices"

	"github.com/ardnew/yaql/lang"
)

// Payload arguments are converted by their declared parameter types, so
// these assertions hold for the corresponding parameters.

func asContext(v any) lang.Context { return v.(lang.Context) }

func asEngine(v any) *lang.Engine { return v.(*lang.Engine) }

func asLambda(v any) *lang.Lambda { return v.(*lang.Lambda) }

// dollar returns the value of $ visible from c.
func dollar(c lang.Context) any {
	v, _ := c.Get("$")

	return v
}

func sortedKeys[T any](m map[string]T) []string {
	return slices.Sorted(maps.Keys(m))
}

// call invokes a lambda with one argument, published as $.
func call(f *lang.Lambda, arg any) (any, error) { return f.Call(arg) }
