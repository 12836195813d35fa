package std

import "github.com/ardnew/yaql/lang"

func booleanFunctions() []*lang.FunctionDefinition {
	not := func(args []any, _ map[string]any) (any, error) {
		return !lang.Truthy(args[0]), nil
	}

	return []*lang.FunctionDefinition{
		lang.Define("#operator_and").
			Doc("Returns left if it is false, otherwise the value of right.").
			Param("left", lang.Any()).
			Param("right", lang.Lazy()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				if !lang.Truthy(args[0]) {
					return args[0], nil
				}

				return asLambda(args[1]).Call()
			}),

		lang.Define("#operator_or").
			Doc("Returns left if it is true, otherwise the value of right.").
			Param("left", lang.Any()).
			Param("right", lang.Lazy()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				if lang.Truthy(args[0]) {
					return args[0], nil
				}

				return asLambda(args[1]).Call()
			}),

		lang.Define("#unary_operator_not").
			Param("arg", lang.Any()).
			MustBuild(not),

		lang.Define("not").
			Doc("Returns the boolean negation of arg.").
			Param("arg", lang.Any()).
			ExtensionMethod().
			MustBuild(not),

		lang.Define("bool").
			Doc("Returns the truth value of arg.").
			Param("arg", lang.Any()).
			ExtensionMethod().
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return lang.Truthy(args[0]), nil
			}),

		lang.Define("isBoolean").
			Doc("Reports whether arg is a boolean.").
			Param("arg", lang.Any()).
			ExtensionMethod().
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				_, ok := args[0].(bool)

				return ok, nil
			}),
	}
}
