package std

import (
	"slices"

	"github.com/ardnew/yaql/lang"
)

// generator returns a sequence that restarts produce from a fresh state
// each time it is traversed.
func generator(start func() func() (any, error)) lang.Seq {
	return func(yield func(any, error) bool) {
		for item, err := range lang.Generate(start()) {
			if !yield(item, err) || err != nil {
				return
			}
		}
	}
}

// each traverses collection, calling visit for every element until visit
// returns false or an error.
func each(collection any, visit func(item any) (bool, error)) error {
	seq, ok := lang.Iterate(collection)
	if !ok {
		return lang.ErrArgumentValue.Describe("%s is not iterable", lang.KindOf(collection))
	}

	for item, err := range seq {
		if err != nil {
			return err
		}

		more, err := visit(item)
		if err != nil {
			return err
		}

		if !more {
			return nil
		}
	}

	return nil
}

// step maps one element to the values it contributes, reporting each by
// calling emit. It returns false to end the traversal.
type step func(item any, emit func(any) bool) (bool, error)

// transform returns a lazy sequence over collection. newStep is called at
// the start of every traversal so any state it closes over starts fresh.
func transform(collection any, newStep func() step) lang.Seq {
	return func(yield func(any, error) bool) {
		stopped := false
		visit := newStep()

		err := each(collection, func(item any) (bool, error) {
			more, err := visit(item, func(v any) bool {
				if !yield(v, nil) {
					stopped = true
				}

				return !stopped
			})

			return more && !stopped, err
		})
		if err != nil && !stopped {
			yield(nil, err)
		}
	}
}

// stateless adapts a step that keeps no state between elements.
func stateless(s step) func() step { return func() step { return s } }

func collectionMethod(name, doc string) *lang.Builder {
	return lang.Define(name).
		Doc(doc).
		Param("collection", lang.Iterable()).
		Method()
}

func collectionExtension(name, doc string) *lang.Builder {
	return lang.Define(name).
		Doc(doc).
		Param("collection", lang.Iterable()).
		ExtensionMethod()
}

func queryFunctions() []*lang.FunctionDefinition {
	return []*lang.FunctionDefinition{
		collectionExtension("len", "Returns the number of elements in a collection.").
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return count(args[0])
			}),

		lang.Define("len").
			Doc("Returns the number of entries in a dictionary.").
			Param("dict", lang.Dict()).
			ExtensionMethod().
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return int64(len(args[0].(map[string]any))), nil
			}),

		collectionMethod("count", "Returns the number of elements in a collection.").
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return count(args[0])
			}),

		lang.Define("list").
			Doc("Builds a list of the arguments.").
			Varargs(lang.Any()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return append([]any{}, args...), nil
			}),

		collectionMethod("toList", "Collects the elements of a collection into a list.").
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				items, err := lang.Collect(args[0])
				if err != nil {
					return nil, err
				}

				return slices.Clone(items), nil
			}),

		lang.Define("dict").
			Doc("Builds a dictionary of key => value arguments.").
			NoKwargs().
			Varargs(lang.Mapping()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return mappingDict(args)
			}),

		collectionMethod("toDict", "Builds a dictionary keyed by keySelector "+
			"of each element, holding valueSelector of the element or the "+
			"element itself.").
			Param("keySelector", lang.LambdaType()).
			Param("valueSelector", lang.LambdaType(lang.NullableLambda()), lang.Default(nil)).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				keyOf := asLambda(args[1])
				out := make(map[string]any)

				err := each(args[0], func(item any) (bool, error) {
					k, err := call(keyOf, item)
					if err != nil {
						return false, err
					}

					key, ok := k.(string)
					if !ok {
						return false, lang.ErrArgumentValue.Describe("dictionary key %s is not a string", lang.Format(k))
					}

					v := item
					if args[2] != nil {
						if v, err = call(asLambda(args[2]), item); err != nil {
							return false, err
						}
					}

					out[key] = v

					return true, nil
				})

				return out, err
			}),

		lang.Define("set").
			Doc("Builds a set of the distinct arguments.").
			Varargs(lang.Any()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return lang.NewSet(args...), nil
			}),

		collectionMethod("toSet", "Collects the distinct elements of a collection into a set.").
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				items, err := lang.Collect(args[0])
				if err != nil {
					return nil, err
				}

				return lang.NewSet(items...), nil
			}),

		collectionMethod("memorize", "Returns a sequence that can be traversed "+
			"repeatedly while reading the underlying sequence only once.").
			Inject("engine", lang.InjectEngine()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				seq, ok := args[0].(lang.Seq)
				if !ok {
					return args[0], nil
				}

				return lang.Memorize(seq, asEngine(args[1]).Options().MemoryQuota), nil
			}),

		collectionMethod("contains", "Reports whether the collection holds value.").
			Param("value", lang.Any()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return contains(args[0], args[1])
			}),

		lang.Define("range").
			Doc("Returns the integers from 0 up to but excluding stop.").
			Param("stop", lang.Integer()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return intRange(0, args[0].(int64), 1, true)
			}),

		lang.Define("range").
			Doc("Returns the integers from start up to but excluding stop, " +
				"counting by step.").
			Param("start", lang.Integer()).
			Param("stop", lang.Integer()).
			Param("step", lang.Integer(), lang.Default(int64(1))).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return intRange(args[0].(int64), args[1].(int64), args[2].(int64), true)
			}),

		lang.Define("sequence").
			Doc("Returns the unbounded sequence start, start+step, ...").
			Param("start", lang.Integer(), lang.Default(int64(0))).
			Param("step", lang.Integer(), lang.Default(int64(1))).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return intRange(args[0].(int64), 0, args[1].(int64), false)
			}),

		collectionMethod("select", "Maps each element through selector.").
			Param("selector", lang.LambdaType()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				f := asLambda(args[1])

				return transform(args[0], stateless(func(item any, emit func(any) bool) (bool, error) {
					v, err := call(f, item)
					if err != nil {
						return false, err
					}

					return emit(v), nil
				})), nil
			}),

		collectionMethod("where", "Keeps the elements for which predicate holds.").
			Param("predicate", lang.LambdaType()).
			MustBuild(filter),

		collectionMethod("filter", "Keeps the elements for which predicate holds.").
			Param("predicate", lang.LambdaType()).
			MustBuild(filter),

		collectionMethod("selectMany", "Maps each element to a collection "+
			"through selector and flattens the results.").
			Param("selector", lang.LambdaType()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				f := asLambda(args[1])

				return transform(args[0], stateless(func(item any, emit func(any) bool) (bool, error) {
					v, err := call(f, item)
					if err != nil {
						return false, err
					}

					more := true

					err = each(v, func(inner any) (bool, error) {
						more = emit(inner)

						return more, nil
					})

					return more, err
				})), nil
			}),

		collectionMethod("take", "Returns at most count leading elements.").
			Param("count", lang.Integer()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				limit := args[1].(int64)

				return transform(args[0], func() step {
					n := limit

					return func(item any, emit func(any) bool) (bool, error) {
						if n <= 0 {
							return false, nil
						}

						n--

						return emit(item) && n > 0, nil
					}
				}), nil
			}),

		collectionMethod("skip", "Returns the elements after the first count.").
			Param("count", lang.Integer()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				skip := args[1].(int64)

				return transform(args[0], func() step {
					n := skip

					return func(item any, emit func(any) bool) (bool, error) {
						if n > 0 {
							n--

							return true, nil
						}

						return emit(item), nil
					}
				}), nil
			}),

		collectionMethod("first", "Returns the first element; fails on an empty collection.").
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				v, ok, err := first(args[0])
				if err == nil && !ok {
					err = lang.ErrArgumentValue.Describe("collection is empty")
				}

				return v, err
			}),

		collectionMethod("first", "Returns the first element, or default.").
			Param("default", lang.Any()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				v, ok, err := first(args[0])
				if err == nil && !ok {
					return args[1], nil
				}

				return v, err
			}),

		collectionMethod("last", "Returns the last element; fails on an empty collection.").
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				items, err := lang.Collect(args[0])
				if err != nil {
					return nil, err
				}

				if len(items) == 0 {
					return nil, lang.ErrArgumentValue.Describe("collection is empty")
				}

				return items[len(items)-1], nil
			}),

		collectionMethod("sum", "Adds the numeric elements to initial.").
			Param("initial", lang.Number(), lang.Default(int64(0))).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				total := args[1]

				err := each(args[0], func(item any) (bool, error) {
					switch item.(type) {
					case int64, float64:
					default:
						return false, lang.ErrArgumentValue.Describe("cannot sum %s", lang.KindOf(item))
					}

					a, aInt := total.(int64)
					b, bInt := item.(int64)

					if aInt && bInt {
						total = addInt(a, b)
					} else {
						total = toFloat(total) + toFloat(item)
					}

					return true, nil
				})

				return total, err
			}),

		collectionMethod("any", "Reports whether any element is true, or "+
			"satisfies predicate.").
			Param("predicate", lang.LambdaType(lang.NullableLambda()), lang.Default(nil)).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return quantify(args[0], args[1], true)
			}),

		collectionMethod("all", "Reports whether every element is true, or "+
			"satisfies predicate.").
			Param("predicate", lang.LambdaType(lang.NullableLambda()), lang.Default(nil)).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return quantify(args[0], args[1], false)
			}),

		collectionMethod("distinct", "Returns the distinct elements in first-seen order.").
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return transform(args[0], func() step {
					seen := lang.NewSet()

					return func(item any, emit func(any) bool) (bool, error) {
						if !seen.Add(item) {
							return true, nil
						}

						return emit(item), nil
					}
				}), nil
			}),

		collectionMethod("reverse", "Returns the elements in reverse order.").
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				items, err := lang.Collect(args[0])
				if err != nil {
					return nil, err
				}

				out := slices.Clone(items)
				slices.Reverse(out)

				return out, nil
			}),

		collectionMethod("orderBy", "Sorts the elements by selector, stably.").
			Param("selector", lang.LambdaType(lang.NullableLambda()), lang.Default(nil)).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return orderBy(args[0], args[1], 1)
			}),

		collectionMethod("orderByDescending", "Sorts the elements by selector "+
			"in descending order, stably.").
			Param("selector", lang.LambdaType(lang.NullableLambda()), lang.Default(nil)).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return orderBy(args[0], args[1], -1)
			}),

		lang.Define("keys").
			Doc("Returns the keys of a dictionary in sorted order.").
			Param("dict", lang.Dict()).
			ExtensionMethod().
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				d := args[0].(map[string]any)
				out := make([]any, 0, len(d))

				for _, k := range sortedKeys(d) {
					out = append(out, k)
				}

				return out, nil
			}),

		lang.Define("values").
			Doc("Returns the values of a dictionary ordered by key.").
			Param("dict", lang.Dict()).
			ExtensionMethod().
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				d := args[0].(map[string]any)
				out := make([]any, 0, len(d))

				for _, k := range sortedKeys(d) {
					out = append(out, d[k])
				}

				return out, nil
			}),

		lang.Define("items").
			Doc("Returns the [key, value] pairs of a dictionary ordered by key.").
			Param("dict", lang.Dict()).
			ExtensionMethod().
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				d := args[0].(map[string]any)
				out := make([]any, 0, len(d))

				for _, k := range sortedKeys(d) {
					out = append(out, lang.Tuple{k, d[k]})
				}

				return out, nil
			}),

		lang.Define("get").
			Doc("Returns the dictionary value under key, or default.").
			Param("dict", lang.Dict()).
			Param("key", lang.String()).
			Param("default", lang.Any(), lang.Default(nil)).
			Method().
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				v, ok := args[0].(map[string]any)[args[1].(string)]
				if !ok {
					return args[2], nil
				}

				return v, nil
			}),

		lang.Define("isList").
			Doc("Reports whether arg is a list.").
			Param("arg", lang.Any()).
			ExtensionMethod().
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return lang.KindOf(args[0]) == lang.KindList, nil
			}),

		lang.Define("isDict").
			Doc("Reports whether arg is a dictionary.").
			Param("arg", lang.Any()).
			ExtensionMethod().
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return lang.KindOf(args[0]) == lang.KindDict, nil
			}),
	}
}

func filter(args []any, _ map[string]any) (any, error) {
	pred := asLambda(args[1])

	return transform(args[0], stateless(func(item any, emit func(any) bool) (bool, error) {
		ok, err := call(pred, item)
		if err != nil {
			return false, err
		}

		if !lang.Truthy(ok) {
			return true, nil
		}

		return emit(item), nil
	})), nil
}

// intRange returns the integers from start towards stop by step. An
// unbounded range ignores stop.
func intRange(start, stop, step int64, bounded bool) (lang.Seq, error) {
	if step == 0 {
		return nil, lang.ErrArgumentValue.Describe("step must not be zero")
	}

	return generator(func() func() (any, error) {
		next := start

		return func() (any, error) {
			if bounded && ((step > 0 && next >= stop) || (step < 0 && next <= stop)) {
				return nil, lang.ErrStopIteration
			}

			v := next
			next += step

			return v, nil
		}
	}), nil
}

func count(collection any) (any, error) {
	if n, ok := lang.Len(collection); ok {
		return int64(n), nil
	}

	var n int64

	err := each(collection, func(any) (bool, error) {
		n++

		return true, nil
	})

	return n, err
}

func first(collection any) (any, bool, error) {
	var (
		v     any
		found bool
	)

	err := each(collection, func(item any) (bool, error) {
		v, found = item, true

		return false, nil
	})

	return v, found, err
}

// quantify implements any (want true) and all (want false): it stops at
// the first element whose truth equals want.
func quantify(collection, predicate any, want bool) (any, error) {
	result := !want

	err := each(collection, func(item any) (bool, error) {
		v := item

		if predicate != nil {
			var err error
			if v, err = call(asLambda(predicate), item); err != nil {
				return false, err
			}
		}

		if lang.Truthy(v) == want {
			result = want

			return false, nil
		}

		return true, nil
	})

	return result, err
}

func orderBy(collection, selector any, sign int) (any, error) {
	items, err := lang.Collect(collection)
	if err != nil {
		return nil, err
	}

	keys := slices.Clone(items)

	if selector != nil {
		for i, item := range items {
			if keys[i], err = call(asLambda(selector), item); err != nil {
				return nil, err
			}
		}
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}

	slices.SortStableFunc(order, func(i, j int) int {
		c, ok := lang.Compare(keys[i], keys[j])
		if !ok && err == nil {
			err = unordered(keys[i], keys[j])
		}

		return c * sign
	})

	if err != nil {
		return nil, err
	}

	out := make([]any, len(order))
	for i, idx := range order {
		out[i] = items[idx]
	}

	return out, nil
}
