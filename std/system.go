package std

import (
	"strconv"

	"github.com/ardnew/yaql/lang"
)

func systemFunctions() []*lang.FunctionDefinition {
	return []*lang.FunctionDefinition{
		lang.Define("#get_context_data").
			Doc("Returns the context value with the given name, or null.").
			Param("name", lang.StringConstant()).
			Inject("context", lang.InjectContext()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				v, ok := asContext(args[1]).Get(args[0].(string))
				if !ok {
					return nil, nil
				}

				return v, nil
			}),

		lang.Define("#operator_.").
			Doc("Evaluates the right operand as a method call on the left operand.").
			Param("receiver", lang.Any()).
			Param("expr", lang.LambdaType(lang.AsMethodLambda())).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return asLambda(args[1]).Call(args[0])
			}),

		lang.Define("#operator_.").
			Doc("Returns the dictionary value under a bare key, or null.").
			Param("d", lang.Dict()).
			Param("key", lang.Keyword()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return args[0].(map[string]any)[args[1].(string)], nil
			}),

		lang.Define("#operator_?.").
			Doc("Like the . operator but yields null for a null left operand.").
			Param("receiver", lang.Any()).
			Param("expr", lang.LambdaType(lang.AsMethodLambda())).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				if args[0] == nil {
					return nil, nil
				}

				return asLambda(args[1]).Call(args[0])
			}),

		lang.Define("#operator_?.").
			Doc("Returns the dictionary value under a bare key, or null.").
			Param("d", lang.Dict().OrNull()).
			Param("key", lang.Keyword()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				if args[0] == nil {
					return nil, nil
				}

				return args[0].(map[string]any)[args[1].(string)], nil
			}),

		lang.Define("#indexer").
			Doc("Returns the element at index; negative indexes count from the end.").
			Param("collection", lang.OfKind("sequence", lang.KindList|lang.KindString)).
			Param("index", lang.Integer()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return indexSequence(args[0], args[1].(int64))
			}),

		lang.Define("#indexer").
			Doc("Returns the element at index of a lazily produced sequence.").
			Param("collection", lang.Iterator()).
			Param("index", lang.Integer()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				items, err := lang.Collect(args[0])
				if err != nil {
					return nil, err
				}

				return indexSequence(items, args[1].(int64))
			}),

		lang.Define("#indexer").
			Doc("Returns the dictionary value under key, or default.").
			Param("d", lang.Dict()).
			Param("key", lang.Any()).
			Param("default", lang.Any(), lang.Default(nil)).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				key, ok := args[1].(string)
				if !ok {
					return args[2], nil
				}

				v, ok := args[0].(map[string]any)[key]
				if !ok {
					return args[2], nil
				}

				return v, nil
			}),

		lang.Define("#list").
			Doc("Builds a list of the arguments.").
			Varargs(lang.Any()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return append([]any{}, args...), nil
			}),

		lang.Define("#map").
			Doc("Builds a dictionary of key => value arguments.").
			NoKwargs().
			Varargs(lang.Mapping()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return mappingDict(args)
			}),

		lang.Define("#call").
			Doc("Calls a callable value with the remaining arguments.").
			Param("callable", lang.CallableType()).
			Varargs(lang.Any()).
			Kwargs(lang.Any()).
			MustBuild(func(args []any, kwargs map[string]any) (any, error) {
				return args[0].(lang.Callable).CallKw(args[1:], kwargs)
			}),

		lang.Define("#finalize").
			Doc("Converts an evaluation result into host output data.").
			Param("obj", lang.Any()).
			Inject("engine", lang.InjectEngine()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return lang.ConvertOutputData(args[0], asEngine(args[1]).Options())
			}),

		lang.Define("let").
			Doc("Stores positional arguments as $1, $2, ... and named arguments " +
				"under their names in a new scope for the right side of ->.").
			Inject("context", lang.InjectContext()).
			Varargs(lang.Any()).
			Kwargs(lang.Any()).
			ReturnsContext().
			MustBuild(func(args []any, kwargs map[string]any) (any, error) {
				c := asContext(args[0])

				for i, v := range args[1:] {
					c.Set("$"+strconv.Itoa(i+1), v)
				}

				for _, k := range sortedKeys(kwargs) {
					c.Set(k, kwargs[k])
				}

				return lang.ContextResult{Value: dollar(c), Context: c}, nil
			}),

		lang.Define("#operator_->").
			Doc("Evaluates the right operand in the scope produced by the left " +
				"operand, with $ set to the left operand's value.").
			Param("left", lang.LambdaType(lang.ReturnContextLambda())).
			Param("right", lang.LambdaType(lang.WithContextLambda())).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				v, c, err := asLambda(args[0]).Invoke(nil, nil)
				if err != nil {
					return nil, err
				}

				child := c.CreateChild()
				child.Set("$", v)

				return asLambda(args[1]).Call(child)
			}),

		lang.Define("def").
			Doc("Registers a function named name whose body is func for the " +
				"right side of ->. Arguments are visible as $1, $2, ...").
			Param("name", lang.StringConstant()).
			Param("func", lang.LambdaType()).
			Inject("context", lang.InjectContext()).
			ReturnsContext().
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				body, c := asLambda(args[1]), asContext(args[2])

				fd, err := lang.Define(args[0].(string)).
					Varargs(lang.Any()).
					Kwargs(lang.Any()).
					ExtensionMethod().
					Build(body.CallKw)
				if err != nil {
					return nil, err
				}

				if err := c.Register(fd); err != nil {
					return nil, err
				}

				return lang.ContextResult{Value: dollar(c), Context: c}, nil
			}),

		lang.Define("lambda").
			Doc("Returns its argument as a callable.").
			Param("func", lang.LambdaType()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return args[0], nil
			}),

		lang.Define("switch").
			Doc("Returns the value of the first case => value pair whose case holds.").
			NoKwargs().
			Inject("context", lang.InjectContext()).
			Inject("engine", lang.InjectEngine()).
			Varargs(lang.ExpressionType()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				c, e := asContext(args[0]), asEngine(args[1])

				for _, arg := range args[2:] {
					m, ok := arg.(*lang.MappingRuleExpression)
					if !ok {
						return nil, lang.ErrArgumentValue.Describe("switch case %s is not a mapping", arg)
					}

					cond, err := m.Source.Eval(lang.NoValue, c, e)
					if err != nil {
						return nil, err
					}

					if lang.Truthy(cond) {
						return m.Destination.Eval(lang.NoValue, c, e)
					}
				}

				return nil, nil
			}),

		lang.Define("coalesce").
			Doc("Returns the first argument that is not null.").
			Varargs(lang.Lazy()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				for _, arg := range args {
					v, err := asLambda(arg).Call()
					if err != nil || v != nil {
						return v, err
					}
				}

				return nil, nil
			}),
	}
}

func indexSequence(v any, index int64) (any, error) {
	if s, ok := v.(string); ok {
		runes := []rune(s)

		i, ok := normalizeIndex(index, len(runes))
		if !ok {
			return nil, outOfRange(index)
		}

		return string(runes[i]), nil
	}

	items, err := lang.Collect(v)
	if err != nil {
		return nil, err
	}

	i, ok := normalizeIndex(index, len(items))
	if !ok {
		return nil, outOfRange(index)
	}

	return items[i], nil
}

func normalizeIndex(index int64, n int) (int, bool) {
	if index < 0 {
		index += int64(n)
	}

	return int(index), index >= 0 && index < int64(n)
}

func outOfRange(index int64) error {
	return lang.ErrArgumentValue.Describe("index %d out of range", index)
}

func mappingDict(args []any) (map[string]any, error) {
	d := make(map[string]any, len(args))

	for _, arg := range args {
		m := arg.(lang.MappingRule)

		key, ok := m.Key.(string)
		if !ok {
			return nil, lang.ErrArgumentValue.Describe("dictionary key %s is not a string", lang.Format(m.Key))
		}

		d[key] = m.Value
	}

	return d, nil
}
