package lang

import (
	"errors"
	"reflect"
	"testing"
)

func testEngine(t testing.TB, opts ...Option) *Engine {
	t.Helper()

	e, err := NewFactory().Create(opts...)
	if err != nil {
		t.Fatalf("create engine: %v", err)
	}

	return e
}

func intOp(name string, op func(a, b int64) (any, error)) *FunctionDefinition {
	return Define(name).
		Param("a", Integer()).
		Param("b", Integer()).
		MustBuild(func(args []any, _ map[string]any) (any, error) {
			return op(args[0].(int64), args[1].(int64))
		})
}

// testContext returns a root context with the few built-ins the evaluation
// tests rely on.
func testContext(t testing.TB) Context {
	t.Helper()

	c := NewContext()

	fds := []*FunctionDefinition{
		Define("#get_context_data").
			Param("name", StringConstant()).
			Inject("context", InjectContext()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				v, _ := args[1].(Context).Get(args[0].(string))

				return v, nil
			}),
		Define("#operator_.").
			Param("receiver", Any()).
			Param("expr", LambdaType(AsMethodLambda())).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return args[1].(*Lambda).Call(args[0])
			}),
		Define("#list").
			Varargs(Any()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return append([]any{}, args...), nil
			}),
		intOp("#operator_+", func(a, b int64) (any, error) { return a + b, nil }),
		intOp("#operator_*", func(a, b int64) (any, error) { return a * b, nil }),
		intOp("#operator_/", func(a, b int64) (any, error) {
			if b == 0 {
				return nil, ErrArgumentValue.Describe("division by zero")
			}

			return a / b, nil
		}),
		Define("#operator_and").
			Param("left", Boolean()).
			Param("right", Lazy()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				if !args[0].(bool) {
					return false, nil
				}

				return args[1].(*Lambda).Call()
			}),
	}

	for _, fd := range fds {
		if err := c.Register(fd); err != nil {
			t.Fatalf("register %s: %v", fd.Name, err)
		}
	}

	return c
}

func evalString(t testing.TB, e *Engine, c Context, source string) (any, error) {
	t.Helper()

	stmt, err := e.Parse(t.Context(), source)
	if err != nil {
		t.Fatalf("parse %q: %v", source, err)
	}

	return stmt.Evaluate(t.Context(), NoValue, c)
}

func TestEvaluateArithmetic(t *testing.T) {
	e := testEngine(t)

	tests := []struct {
		source string
		want   any
	}{
		{"1 + 2 * 3", int64(7)},
		{"(1 + 2) * 3", int64(9)},
		{"[1, 2 + 2]", []any{int64(1), int64(4)}},
		{"false and (1 / 0)", false},
		{"true and true", true},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, err := evalString(t, e, testContext(t), tt.source)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}

	if _, err := evalString(t, e, testContext(t), "true and (1 / 0)"); !errors.Is(err, ErrArgumentValue) {
		t.Errorf("expected evaluated right operand to fail with %v, got %v", ErrArgumentValue, err)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	e := testEngine(t)

	stmt, err := e.Parse(t.Context(), "[$a * 2, $b + $a]")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var results []any

	for range 2 {
		c := testContext(t).CreateChild()
		c.Set("a", int64(3))
		c.Set("b", int64(4))

		v, err := stmt.Evaluate(t.Context(), NoValue, c)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}

		results = append(results, v)
	}

	if !reflect.DeepEqual(results[0], results[1]) {
		t.Errorf("expected equal results, got %v and %v", results[0], results[1])
	}
}

func TestEvaluateData(t *testing.T) {
	e := testEngine(t)
	c := testContext(t)

	stmt, err := e.Parse(t.Context(), "$ + 1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	got, err := stmt.Evaluate(t.Context(), 41, c)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if got != int64(42) {
		t.Errorf("expected 42, got %v", got)
	}

	got, err = stmt.Evaluate(t.Context(), NoValue, c)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if got != int64(42) {
		t.Errorf("expected $ left untouched, got %v", got)
	}

	if _, err := stmt.Evaluate(t.Context(), 1, nil); !errors.Is(err, ErrNoFunction) {
		t.Errorf("expected %v in an empty root context, got %v", ErrNoFunction, err)
	}
}

func TestCallOverloads(t *testing.T) {
	e := testEngine(t)
	c := NewContext()

	for _, fd := range []*FunctionDefinition{
		Define("f").Param("a", Any()).MustBuild(func([]any, map[string]any) (any, error) { return 1, nil }),
		Define("f").Param("a", Any()).Param("b", Any()).MustBuild(func([]any, map[string]any) (any, error) { return 2, nil }),
		Define("m").Param("self", String()).Method().MustBuild(func([]any, map[string]any) (any, error) { return "m", nil }),
	} {
		if err := c.Register(fd); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	tests := []struct {
		name     string
		fn       string
		args     []any
		receiver any
		want     any
		target   error
	}{
		{"one argument", "f", []any{int64(5)}, NoValue, 1, nil},
		{"two arguments", "f", []any{int64(5), int64(6)}, NoValue, 2, nil},
		{"three arguments", "f", []any{int64(5), int64(6), int64(7)}, NoValue, nil, ErrNoMatchingFunction},
		{"unknown function", "g", nil, NoValue, nil, ErrNoFunction},
		{"method", "m", nil, "s", "m", nil},
		{"method with wrong receiver", "m", nil, int64(1), nil, ErrNoMatchingMethod},
		{"method called as function", "m", []any{"s"}, NoValue, nil, ErrNoFunction},
		{"function called as method", "f", nil, int64(1), nil, ErrNoMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := e.Call(tt.fn, c, tt.args, nil, tt.receiver)
			if tt.target != nil {
				if !errors.Is(err, tt.target) || !errors.Is(err, ErrFunctionResolution) {
					t.Errorf("expected %v, got %v", tt.target, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("call: %v", err)
			}

			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCallLazinessConflict(t *testing.T) {
	e := testEngine(t)
	c := testContext(t)

	for _, fd := range []*FunctionDefinition{
		Define("f").Param("a", Lazy()).MustBuild(func([]any, map[string]any) (any, error) { return "lazy", nil }),
		Define("f").Param("a", Integer()).MustBuild(func([]any, map[string]any) (any, error) { return "eager", nil }),
	} {
		if err := c.Register(fd); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	if _, err := evalString(t, e, c, "f(1 + 1)"); !errors.Is(err, ErrAmbiguousFunction) {
		t.Errorf("expected %v, got %v", ErrAmbiguousFunction, err)
	}

	// A string argument rules out the eager overload before evaluation.
	got, err := evalString(t, e, c, "f('x')")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if got != "lazy" {
		t.Errorf("expected lazy, got %v", got)
	}
}

func TestCallShadowing(t *testing.T) {
	e := testEngine(t)
	root := testContext(t)

	if err := root.Register(Define("f").Param("a", Integer()).
		MustBuild(func([]any, map[string]any) (any, error) { return "root", nil })); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := root.Register(Define("g").Param("a", Any()).Param("b", Any()).
		MustBuild(func([]any, map[string]any) (any, error) { return "root", nil })); err != nil {
		t.Fatalf("register: %v", err)
	}

	mid := root.CreateChild()

	if err := mid.Register(Define("f").Param("a", Any()).
		MustBuild(func([]any, map[string]any) (any, error) { return "mid", nil })); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := mid.Register(Define("g").Param("a", Any()).
		MustBuild(func([]any, map[string]any) (any, error) { return "mid", nil }), Exclusive()); err != nil {
		t.Fatalf("register: %v", err)
	}

	leaf := mid.CreateChild()

	got, err := evalString(t, e, leaf, "f(1)")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if got != "mid" {
		t.Errorf("expected closer definition to win over a more specific one, got %v", got)
	}

	got, err = evalString(t, e, leaf, "f('s')")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if got != "mid" {
		t.Errorf("expected mid, got %v", got)
	}

	// The root overload of g would match, but the exclusive layer hides it.
	if _, err := evalString(t, e, leaf, "g(1, 2)"); !errors.Is(err, ErrNoMatchingFunction) {
		t.Errorf("expected %v, got %v", ErrNoMatchingFunction, err)
	}

	got, err = evalString(t, e, root.CreateChild(), "g(1, 2)")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if got != "root" {
		t.Errorf("expected root, got %v", got)
	}
}

func TestCallFallsBackToOuterLayer(t *testing.T) {
	e := testEngine(t)
	root := testContext(t)

	if err := root.Register(Define("f").Param("a", Integer()).Param("b", Integer()).
		MustBuild(func([]any, map[string]any) (any, error) { return "root", nil })); err != nil {
		t.Fatalf("register: %v", err)
	}

	child := root.CreateChild()

	if err := child.Register(Define("f").Param("a", Integer()).
		MustBuild(func([]any, map[string]any) (any, error) { return "child", nil })); err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := evalString(t, e, child, "f(1, 2)")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if got != "root" {
		t.Errorf("expected the only matching layer to win, got %v", got)
	}
}

func TestCallNamedArguments(t *testing.T) {
	e := testEngine(t)
	c := testContext(t)

	fd := Define("f").
		Param("a", Integer()).
		Param("b", Integer(), Default(int64(10))).
		Param("c", Integer(), Default(int64(20))).
		MustBuild(func(args []any, _ map[string]any) (any, error) {
			return []any{args[0], args[1], args[2]}, nil
		})

	raw := Define("raw").
		NoKwargs().
		Varargs(Any()).
		MustBuild(func(args []any, _ map[string]any) (any, error) {
			return len(args), nil
		})

	for _, d := range []*FunctionDefinition{fd, raw} {
		if err := c.Register(d); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	tests := []struct {
		source string
		want   any
		target error
	}{
		{"f(1)", []any{int64(1), int64(10), int64(20)}, nil},
		{"f(1, , 3)", []any{int64(1), int64(10), int64(3)}, nil},
		{"f(c => 3, a => 1)", []any{int64(1), int64(10), int64(3)}, nil},
		{"f(1, , b => 2)", []any{int64(1), int64(2), int64(20)}, nil},
		{"f(1, b => 2, b => 3)", nil, ErrMappingTranslation},
		{"f(1, 'x' => 2)", nil, ErrMappingTranslation},
		{"f(1, d => 2)", nil, ErrNoMatchingFunction},
		{"f(1, 2, b => 3)", nil, ErrNoMatchingFunction},
		{"raw(a => 1, b => 2)", 2, nil},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, err := evalString(t, e, c, tt.source)
			if tt.target != nil {
				if !errors.Is(err, tt.target) {
					t.Errorf("expected %v, got %v", tt.target, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}

	_, _, err := e.Call("raw", c, nil, map[string]any{"a": 1}, NoValue)
	if !errors.Is(err, ErrMappingTranslation) {
		t.Errorf("expected %v for named arguments to a no-kwargs function, got %v", ErrMappingTranslation, err)
	}
}

func TestCallPreservesArgumentError(t *testing.T) {
	e := testEngine(t)
	c := testContext(t)

	if err := c.Register(Define("f").Param("a", Integer()).
		MustBuild(func([]any, map[string]any) (any, error) { return nil, nil })); err != nil {
		t.Fatalf("register: %v", err)
	}

	c.Set("x", "not a number")

	_, err := evalString(t, e, c, "f($x)")
	if !errors.Is(err, ErrNoMatchingFunction) {
		t.Fatalf("expected %v, got %v", ErrNoMatchingFunction, err)
	}

	if !errors.Is(err, ErrArgument) {
		t.Errorf("expected the argument error to be kept as the cause, got %v", err)
	}
}

func TestCallStopIteration(t *testing.T) {
	e := testEngine(t)
	c := testContext(t)

	if err := c.Register(Define("stop").
		MustBuild(func([]any, map[string]any) (any, error) { return nil, ErrStopIteration })); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, err := e.Call("stop", c, nil, nil, NoValue)
	if !errors.Is(err, ErrWrapped) || !errors.Is(err, ErrStopIteration) {
		t.Errorf("expected wrapped %v, got %v", ErrStopIteration, err)
	}

	// A wrapped stop signal does not end a generated sequence silently.
	seq := Generate(func() (any, error) {
		_, _, err := e.Call("stop", c, nil, nil, NoValue)

		return nil, err
	})
	if _, err := Collect(seq); !errors.Is(err, ErrWrapped) {
		t.Errorf("expected %v from the sequence, got %v", ErrWrapped, err)
	}

	_, err = evalString(t, e, c, "stop()")
	if !errors.Is(err, ErrStopIteration) || errors.Is(err, ErrWrapped) {
		t.Errorf("expected unwrapped %v at top level, got %v", ErrStopIteration, err)
	}
}

func TestCallMemoryQuota(t *testing.T) {
	c := NewContext()

	if err := c.Register(Define("big").
		MustBuild(func([]any, map[string]any) (any, error) { return make([]any, 100), nil })); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name   string
		quota  int
		target error
	}{
		{"exceeded", 256, ErrMemoryQuotaExceeded},
		{"unlimited", Unlimited, nil},
		{"large enough", 1 << 20, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEngine(t, WithMemoryQuota(tt.quota))

			_, _, err := e.Call("big", c, nil, nil, NoValue)
			if !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestInjectSuperAndDelegate(t *testing.T) {
	e := testEngine(t)
	root := testContext(t)

	if err := root.Register(Define("greet").Param("name", String()).
		MustBuild(func(args []any, _ map[string]any) (any, error) {
			return "hello " + args[0].(string), nil
		})); err != nil {
		t.Fatalf("register: %v", err)
	}

	child := root.CreateChild()

	if err := child.Register(Define("greet").
		Param("name", String()).
		Inject("super", InjectSuper()).
		MustBuild(func(args []any, _ map[string]any) (any, error) {
			v, err := Call(args[1].(Callable), args[0])
			if err != nil {
				return nil, err
			}

			return v.(string) + "!", nil
		})); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := child.Register(Define("twice").
		Param("name", String()).
		Inject("greet", InjectDelegate("greet")).
		MustBuild(func(args []any, _ map[string]any) (any, error) {
			v, err := Call(args[1].(Callable), args[0])
			if err != nil {
				return nil, err
			}

			return v.(string) + v.(string), nil
		})); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		source string
		want   any
	}{
		{"greet('a')", "hello a!"},
		{"twice('b')", "hello b!hello b!"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, err := evalString(t, e, child, tt.source)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}

			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSpecializationOrder(t *testing.T) {
	tests := []struct {
		name string
		a, b ValueType
		want bool
	}{
		{"integer of number", Integer(), Number(), true},
		{"number of integer", Number(), Integer(), false},
		{"string of any", String(), Any(), true},
		{"non-null of nullable", String(), String().OrNull(), true},
		{"nullable of non-null", String().OrNull(), String(), false},
		{"constant of plain", StringConstant(), String(), true},
		{"keyword of string", Keyword(), String(), true},
		{"same type", String(), String(), false},
		{"disjoint", String(), Integer(), false},
		{"lazy", Lazy(), Any(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSpecializationOf(tt.a, tt.b); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRegisterFunc(t *testing.T) {
	e := testEngine(t)
	root := testContext(t)

	if err := RegisterFunc(root, "pack", CallableFunc(echo)); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		source string
		want   any
	}{
		{"pack()", []any{[]any{}, map[string]any{}}},
		{"pack(1, 2, k => 3)", []any{[]any{int64(1), int64(2)}, map[string]any{"k": int64(3)}}},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, err := evalString(t, e, root, tt.source)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	child := root.CreateChild()

	shadow := CallableFunc(func([]any, map[string]any) (any, error) { return "child", nil })
	if err := RegisterFunc(child, "pack", shadow, Exclusive()); err != nil {
		t.Fatalf("register: %v", err)
	}

	if layers := CollectFunctions(child, "pack", nil); len(layers) != 1 {
		t.Errorf("expected the exclusive registration to hide the root, got %d layers", len(layers))
	}

	got, err := evalString(t, e, child, "pack(1)")
	if err != nil || got != "child" {
		t.Errorf("expected child, got %v (%v)", got, err)
	}
}
