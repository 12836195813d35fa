package std

import (
	"strings"

	"github.com/ardnew/yaql/lang"
)

// ordered builds an ordering operator that holds when test accepts the
// result of comparing left to right.
func ordered(name string, test func(c int) bool) *lang.FunctionDefinition {
	return lang.Define(name).
		Param("left", lang.Any().NotNull()).
		Param("right", lang.Any().NotNull()).
		MustBuild(func(args []any, _ map[string]any) (any, error) {
			c, ok := lang.Compare(args[0], args[1])
			if !ok {
				return nil, unordered(args[0], args[1])
			}

			return test(c), nil
		})
}

func comparisonFunctions() []*lang.FunctionDefinition {
	return []*lang.FunctionDefinition{
		lang.Define("#operator_=").
			Param("left", lang.Any()).
			Param("right", lang.Any()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return lang.Equal(args[0], args[1]), nil
			}),

		lang.Define("#operator_!=").
			Param("left", lang.Any()).
			Param("right", lang.Any()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return !lang.Equal(args[0], args[1]), nil
			}),

		ordered("#operator_<", func(c int) bool { return c < 0 }),
		ordered("#operator_>", func(c int) bool { return c > 0 }),
		ordered("#operator_<=", func(c int) bool { return c <= 0 }),
		ordered("#operator_>=", func(c int) bool { return c >= 0 }),

		lang.Define("#operator_in").
			Doc("Reports whether left is an element of the collection right.").
			Param("left", lang.Any()).
			Param("right", lang.Iterable()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return contains(args[1], args[0])
			}),

		lang.Define("#operator_in").
			Doc("Reports whether left is a key of the dictionary right.").
			Param("left", lang.Any()).
			Param("right", lang.Dict()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				key, ok := args[0].(string)
				if !ok {
					return false, nil
				}

				_, ok = args[1].(map[string]any)[key]

				return ok, nil
			}),

		lang.Define("#operator_in").
			Doc("Reports whether left is a substring of right.").
			Param("left", lang.String()).
			Param("right", lang.String()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return strings.Contains(args[1].(string), args[0].(string)), nil
			}),
	}
}

// contains reports whether the iterable collection yields an element equal
// to v, stopping at the first match.
func contains(collection, v any) (bool, error) {
	if set, ok := collection.(*lang.Set); ok {
		return set.Has(v), nil
	}

	seq, ok := lang.Iterate(collection)
	if !ok {
		return false, lang.ErrArgumentValue.Describe("%s is not iterable", lang.KindOf(collection))
	}

	for item, err := range seq {
		if err != nil {
			return false, err
		}

		if lang.Equal(item, v) {
			return true, nil
		}
	}

	return false, nil
}
