package std

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/ardnew/yaql/lang"
)

// numeric applies an integer or a float implementation depending on whether
// both operands are integers.
func numeric(
	ints func(a, b int64) (any, error),
	floats func(a, b float64) (any, error),
) lang.Payload {
	return func(args []any, _ map[string]any) (any, error) {
		a, aInt := args[0].(int64)
		b, bInt := args[1].(int64)

		if aInt && bInt {
			return ints(a, b)
		}

		return floats(toFloat(args[0]), toFloat(args[1]))
	}
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case int64:
		return float64(t)
	case float64:
		return t
	default:
		return math.NaN()
	}
}

func binaryNumber(name string, payload lang.Payload) *lang.FunctionDefinition {
	return lang.Define(name).
		Param("left", lang.Number()).
		Param("right", lang.Number()).
		MustBuild(payload)
}

var errDivisionByZero = lang.ErrArgumentValue.Describe("division by zero")

// Integer results that do not fit in int64 are promoted to float64.

func addInt(a, b int64) any {
	if s := a + b; (s > a) == (b > 0) {
		return s
	}

	return float64(a) + float64(b)
}

func subInt(a, b int64) any {
	if d := a - b; (d < a) == (b > 0) {
		return d
	}

	return float64(a) - float64(b)
}

func mulInt(a, b int64) any {
	if a == 0 || b == 0 {
		return int64(0)
	}

	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return float64(a) * float64(b)
	}

	return p
}

func negInt(n int64) any {
	if n == math.MinInt64 {
		return -float64(n)
	}

	return -n
}

func arithmeticFunctions() []*lang.FunctionDefinition {
	return []*lang.FunctionDefinition{
		binaryNumber("#operator_+", numeric(
			func(a, b int64) (any, error) { return addInt(a, b), nil },
			func(a, b float64) (any, error) { return a + b, nil },
		)),

		lang.Define("#operator_+").
			Doc("Concatenates two strings.").
			Param("left", lang.String()).
			Param("right", lang.String()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return args[0].(string) + args[1].(string), nil
			}),

		lang.Define("#operator_+").
			Doc("Concatenates two lists.").
			Param("left", lang.List()).
			Param("right", lang.List()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				left, _ := lang.Collect(args[0])
				right, _ := lang.Collect(args[1])

				return append(append(make([]any, 0, len(left)+len(right)), left...), right...), nil
			}),

		lang.Define("#operator_+").
			Doc("Merges two dictionaries; keys of right take precedence.").
			Param("left", lang.Dict()).
			Param("right", lang.Dict()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				left, right := args[0].(map[string]any), args[1].(map[string]any)

				out := make(map[string]any, len(left)+len(right))
				for k, v := range left {
					out[k] = v
				}

				for k, v := range right {
					out[k] = v
				}

				return out, nil
			}),

		binaryNumber("#operator_-", numeric(
			func(a, b int64) (any, error) { return subInt(a, b), nil },
			func(a, b float64) (any, error) { return a - b, nil },
		)),

		binaryNumber("#operator_*", numeric(
			func(a, b int64) (any, error) { return mulInt(a, b), nil },
			func(a, b float64) (any, error) { return a * b, nil },
		)),

		lang.Define("#operator_*").
			Doc("Repeats a string count times.").
			Param("left", lang.String()).
			Param("right", lang.Integer()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				n := args[1].(int64)
				if n < 0 {
					n = 0
				}

				return strings.Repeat(args[0].(string), int(n)), nil
			}),

		binaryNumber("#operator_/", numeric(
			func(a, b int64) (any, error) {
				if b == 0 {
					return nil, errDivisionByZero
				}

				if a == math.MinInt64 && b == -1 {
					return negInt(a), nil
				}

				q := a / b
				if (a%b != 0) && ((a < 0) != (b < 0)) {
					q--
				}

				return q, nil
			},
			func(a, b float64) (any, error) {
				if b == 0 {
					return nil, errDivisionByZero
				}

				return a / b, nil
			},
		)),

		binaryNumber("#operator_mod", numeric(
			func(a, b int64) (any, error) {
				if b == 0 {
					return nil, errDivisionByZero
				}

				m := a % b
				if m != 0 && ((m < 0) != (b < 0)) {
					m += b
				}

				return m, nil
			},
			func(a, b float64) (any, error) {
				if b == 0 {
					return nil, errDivisionByZero
				}

				m := math.Mod(a, b)
				if m != 0 && ((m < 0) != (b < 0)) {
					m += b
				}

				return m, nil
			},
		)),

		lang.Define("#unary_operator_+").
			Param("arg", lang.Number()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return args[0], nil
			}),

		lang.Define("#unary_operator_-").
			Param("arg", lang.Number()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				if n, ok := args[0].(int64); ok {
					return negInt(n), nil
				}

				return -args[0].(float64), nil
			}),

		lang.Define("abs").
			Doc("Returns the absolute value of a number.").
			Param("number", lang.Number()).
			ExtensionMethod().
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				if n, ok := args[0].(int64); ok {
					if n < 0 {
						return negInt(n), nil
					}

					return n, nil
				}

				return math.Abs(args[0].(float64)), nil
			}),

		lang.Define("int").
			Doc("Converts a number, numeric string or null to an integer.").
			Param("value", lang.OfKind("number or string", lang.KindNumber|lang.KindString).OrNull()).
			ExtensionMethod().
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				switch v := args[0].(type) {
				case nil:
					return int64(0), nil
				case int64:
					return v, nil
				case float64:
					return int64(v), nil
				default:
					s := strings.TrimSpace(v.(string))

					n, err := strconv.ParseInt(s, 10, 64)
					if err != nil {
						f, ferr := strconv.ParseFloat(s, 64)
						if ferr != nil {
							return nil, lang.ErrArgumentValue.Describe("%q is not a number", s)
						}

						return int64(f), nil
					}

					return n, nil
				}
			}),

		lang.Define("float").
			Doc("Converts a number, numeric string or null to a float.").
			Param("value", lang.OfKind("number or string", lang.KindNumber|lang.KindString).OrNull()).
			ExtensionMethod().
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				switch v := args[0].(type) {
				case nil:
					return 0.0, nil
				case int64, float64:
					return toFloat(v), nil
				default:
					s := strings.TrimSpace(v.(string))

					f, err := strconv.ParseFloat(s, 64)
					if err != nil {
						return nil, lang.ErrArgumentValue.Describe("%q is not a number", s)
					}

					return f, nil
				}
			}),

		lang.Define("max").
			Doc("Returns the greater of two values.").
			Param("a", lang.Any()).
			Param("b", lang.Any()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return extreme(args[:2], 1)
			}),

		lang.Define("min").
			Doc("Returns the lesser of two values.").
			Param("a", lang.Any()).
			Param("b", lang.Any()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return extreme(args[:2], -1)
			}),

		lang.Define("max").
			Doc("Returns the greatest element of a collection.").
			Param("collection", lang.Iterable()).
			Method().
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				items, err := lang.Collect(args[0])
				if err != nil {
					return nil, err
				}

				return extreme(items, 1)
			}),

		lang.Define("min").
			Doc("Returns the least element of a collection.").
			Param("collection", lang.Iterable()).
			Method().
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				items, err := lang.Collect(args[0])
				if err != nil {
					return nil, err
				}

				return extreme(items, -1)
			}),

		lang.Define("random").
			Doc("Returns a random float in [0, 1).").
			MustBuild(func([]any, map[string]any) (any, error) {
				return rand.Float64(), nil
			}),

		lang.Define("random").
			Doc("Returns a random integer in [from, to].").
			Param("from", lang.Integer()).
			Param("to", lang.Integer()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				lo, hi := args[0].(int64), args[1].(int64)
				if hi < lo {
					return nil, lang.ErrArgumentValue.Describe("empty range [%d, %d]", lo, hi)
				}

				return lo + rand.Int64N(hi-lo+1), nil
			}),
	}
}

// extreme returns the element of items ordered last by sign*Compare.
func extreme(items []any, sign int) (any, error) {
	if len(items) == 0 {
		return nil, lang.ErrArgumentValue.Describe("empty collection")
	}

	best := items[0]

	for _, item := range items[1:] {
		c, ok := lang.Compare(item, best)
		if !ok {
			return nil, unordered(item, best)
		}

		if c*sign > 0 {
			best = item
		}
	}

	return best, nil
}

func unordered(a, b any) error {
	return lang.ErrArgumentValue.Describe("%s and %s are not ordered", lang.KindOf(a), lang.KindOf(b))
}
