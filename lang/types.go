package lang

import (
	"slices"
	"strings"
)

// ValueType describes what a parameter accepts and how an argument is turned
// into the value handed to the payload.
//
// Check is called twice: first on the unevaluated argument while overloads
// are filtered (where any non-literal expression passes host type checks),
// and again on the evaluated argument when a delegate is built.
type ValueType interface {
	Nullable() bool
	Check(v any, c Context, e *Engine) bool
	Convert(v, receiver any, c Context, fd *FunctionDefinition, e *Engine) (any, error)
	String() string
}

// lazyType marks types whose arguments are passed unevaluated.
type lazyType interface {
	ValueType
	lazy()
}

// hiddenType marks types whose values are injected rather than supplied by
// the caller.
type hiddenType interface {
	ValueType
	hidden()
}

// specializer is implemented by types that take part in overload
// specialization.
type specializer interface {
	IsSpecializationOf(other ValueType) bool
}

// IsLazy reports whether t receives its argument unevaluated.
func IsLazy(t ValueType) bool {
	_, ok := t.(lazyType)

	return ok
}

// IsHidden reports whether t is injected rather than supplied by the caller.
func IsHidden(t ValueType) bool {
	_, ok := t.(hiddenType)

	return ok
}

// IsSpecializationOf reports whether a accepts a strictly narrower set of
// values than b.
func IsSpecializationOf(a, b ValueType) bool {
	s, ok := a.(specializer)

	return ok && s.IsSpecializationOf(b)
}

// SmartType is a host value type: a kind mask narrowed by validators, and
// optionally restricted to literal or keyword arguments.
type SmartType struct {
	name       string
	validators []func(any) bool
	kinds      Kind
	nullable   bool
	constant   bool // Only literal arguments
	keyword    bool // Only bare identifier arguments
	bounded    bool // Apply the iteration limit
}

// OfKind returns a non-nullable type accepting values of the given kinds.
func OfKind(name string, kinds Kind) *SmartType {
	return &SmartType{name: name, kinds: kinds}
}

// Any accepts every value, including null.
func Any() *SmartType { return OfKind("any", KindAny).OrNull() }

// String accepts strings.
func String() *SmartType { return OfKind("string", KindString) }

// Integer accepts integers.
func Integer() *SmartType { return OfKind("integer", KindInt) }

// Number accepts integers and floats.
func Number() *SmartType { return OfKind("number", KindNumber) }

// Boolean accepts booleans.
func Boolean() *SmartType { return OfKind("boolean", KindBool) }

// List accepts lists and tuples.
func List() *SmartType { return OfKind("list", KindList) }

// Dict accepts dictionaries.
func Dict() *SmartType { return OfKind("dict", KindDict) }

// SetType accepts sets.
func SetType() *SmartType { return OfKind("set", KindSet) }

// Iterable accepts lists, tuples, sets and sequences, limiting sequences to
// the engine's iteration quota.
func Iterable() *SmartType {
	t := OfKind("iterable", KindIterable)
	t.bounded = true

	return t
}

// Iterator accepts lazy sequences only.
func Iterator() *SmartType {
	t := OfKind("iterator", KindIterator)
	t.bounded = true

	return t
}

// CallableType accepts callables such as lambdas.
func CallableType() *SmartType { return OfKind("callable", KindCallable) }

// Mapping accepts "key => value" pairs.
func Mapping() *SmartType {
	return OfKind("mapping", KindOther).Where(func(v any) bool {
		_, ok := v.(MappingRule)

		return ok
	})
}

// ConstantType accepts literal arguments of any kind, including null.
func ConstantType() *SmartType {
	t := Any()
	t.name, t.constant = "constant", true

	return t
}

// StringConstant accepts string literals.
func StringConstant() *SmartType {
	t := String()
	t.name, t.constant = "string constant", true

	return t
}

// NumericConstant accepts number literals.
func NumericConstant() *SmartType {
	t := Number()
	t.name, t.constant = "numeric constant", true

	return t
}

// BooleanConstant accepts boolean literals.
func BooleanConstant() *SmartType {
	t := Boolean()
	t.name, t.constant = "boolean constant", true

	return t
}

// Keyword accepts bare identifiers, converted to their names.
func Keyword() *SmartType {
	t := String()
	t.name, t.constant, t.keyword = "keyword", true, true

	return t
}

func (t *SmartType) clone() *SmartType {
	c := *t
	c.validators = slices.Clone(t.validators)

	return &c
}

// OrNull returns a copy of t that also accepts null.
func (t *SmartType) OrNull() *SmartType {
	c := t.clone()
	c.nullable = true

	return c
}

// NotNull returns a copy of t that rejects null.
func (t *SmartType) NotNull() *SmartType {
	c := t.clone()
	c.nullable = false

	return c
}

// Where returns a copy of t that also requires valid to accept the value.
func (t *SmartType) Where(valid func(any) bool) *SmartType {
	c := t.clone()
	c.validators = append(c.validators, valid)

	return c
}

// Nullable implements [ValueType].
func (t *SmartType) Nullable() bool { return t.nullable }

// String implements [ValueType].
func (t *SmartType) String() string {
	if t.nullable && t.kinds != KindAny {
		return t.name + "?"
	}

	return t.name
}

// Check implements [ValueType].
func (t *SmartType) Check(v any, _ Context, _ *Engine) bool {
	if t.keyword {
		_, ok := v.(*KeywordConstant)

		return ok
	}

	v, isConst := constantValue(v)

	if t.constant && !isConst {
		return false
	}

	if _, ok := v.(Expression); ok {
		return true
	}

	return t.accepts(v)
}

func (t *SmartType) accepts(v any) bool {
	if v == nil {
		return t.nullable
	}

	if v == NoValue || KindOf(v)&t.kinds == 0 {
		return false
	}

	for _, valid := range t.validators {
		if !valid(v) {
			return false
		}
	}

	return true
}

// Convert implements [ValueType].
func (t *SmartType) Convert(v, _ any, _ Context, _ *FunctionDefinition, e *Engine) (any, error) {
	if t.keyword {
		k, ok := v.(*KeywordConstant)
		if !ok {
			return nil, ErrArgumentValue.Describe("expected a keyword")
		}

		return k.Name, nil
	}

	v, _ = constantValue(v)

	if !t.accepts(v) {
		return nil, ErrArgumentValue.Describe("expected %s, got %s", t, KindOf(v))
	}

	opts := e.Options()

	if t.bounded {
		var err error

		v, err = LimitIterable(v, opts.LimitIterators)
		if err != nil {
			return nil, err
		}
	}

	if err := LimitMemoryUsage(opts.MemoryQuota, Sample{Count: 1, Value: v}); err != nil {
		return nil, err
	}

	return v, nil
}

// IsSpecializationOf implements specialization: t accepts a subset of the
// kinds of other and is strictly narrower in kinds, nullability or
// restriction to literals.
func (t *SmartType) IsSpecializationOf(other ValueType) bool {
	o, ok := other.(*SmartType)
	if !ok || t.kinds&^o.kinds != 0 {
		return false
	}

	if (t.nullable && !o.nullable) || (o.constant && !t.constant) ||
		(o.keyword && !t.keyword) {
		return false
	}

	return t.kinds != o.kinds || t.nullable != o.nullable ||
		t.constant != o.constant || t.keyword != o.keyword
}

// LazyType passes its argument unevaluated, wrapped in a [*Lambda] or as the
// raw [Expression].
type LazyType struct {
	name          string
	method        bool
	withContext   bool
	returnContext bool
	publish       bool // Bind call arguments as $1, $2, ... and $name
	raw           bool // Pass the Expression itself
	nullable      bool
}

func (*LazyType) lazy() {}

// LambdaOption configures a [LambdaType].
type LambdaOption func(*LazyType)

// AsMethodLambda makes the lambda take its receiver as the first call
// argument. Only expressions that use a receiver are accepted.
func AsMethodLambda() LambdaOption { return func(t *LazyType) { t.method = true } }

// WithContextLambda makes the lambda take the context to evaluate in as the
// first call argument (after the receiver, for method lambdas).
func WithContextLambda() LambdaOption { return func(t *LazyType) { t.withContext = true } }

// ReturnContextLambda makes the lambda also return the context its
// expression threads back.
func ReturnContextLambda() LambdaOption { return func(t *LazyType) { t.returnContext = true } }

// NullableLambda accepts null in place of an expression.
func NullableLambda() LambdaOption { return func(t *LazyType) { t.nullable = true } }

// LambdaType receives its argument as a [*Lambda] whose call arguments are
// bound as $1, $2, ... (and $name for named arguments) while it runs.
func LambdaType(opts ...LambdaOption) *LazyType {
	t := &LazyType{name: "lambda", publish: true}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Lazy receives its argument as a [*Lambda] evaluated with the call's own
// receiver and no argument bindings.
func Lazy(opts ...LambdaOption) *LazyType {
	t := &LazyType{name: "lazy"}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// ExpressionType receives the unevaluated [Expression] itself.
func ExpressionType() *LazyType { return &LazyType{name: "expression", raw: true} }

// Nullable implements [ValueType].
func (t *LazyType) Nullable() bool { return t.nullable }

// String implements [ValueType].
func (t *LazyType) String() string {
	var flags []string

	if t.method {
		flags = append(flags, "method")
	}

	if t.withContext {
		flags = append(flags, "context")
	}

	if len(flags) == 0 {
		return t.name
	}

	return t.name + "(" + strings.Join(flags, ",") + ")"
}

// Check implements [ValueType].
func (t *LazyType) Check(v any, _ Context, _ *Engine) bool {
	if v == nil {
		return t.nullable
	}

	if v == NoValue {
		return false
	}

	if x, ok := v.(Expression); ok && t.method && !usesReceiver(x) {
		return false
	}

	if t.raw {
		_, ok := v.(Expression)

		return ok
	}

	return true
}

// Convert implements [ValueType].
func (t *LazyType) Convert(v, receiver any, c Context, _ *FunctionDefinition, e *Engine) (any, error) {
	if v == nil || t.raw {
		return v, nil
	}

	if t.publish {
		receiver = NoValue
	}

	return &Lambda{
		body:          v,
		receiver:      receiver,
		context:       c,
		engine:        e,
		method:        t.method,
		withContext:   t.withContext,
		returnContext: t.returnContext,
		publish:       t.publish,
	}, nil
}

// InjectedType is a hidden parameter: its value is synthesized at call time.
type InjectedType struct {
	inject func(receiver any, c Context, fd *FunctionDefinition, e *Engine) any
	name   string
}

func (*InjectedType) hidden() {}

// Nullable implements [ValueType].
func (*InjectedType) Nullable() bool { return true }

// String implements [ValueType].
func (t *InjectedType) String() string { return t.name }

// Check implements [ValueType].
func (*InjectedType) Check(any, Context, *Engine) bool { return true }

// Convert implements [ValueType].
func (t *InjectedType) Convert(_, receiver any, c Context, fd *FunctionDefinition, e *Engine) (any, error) {
	return t.inject(receiver, c, fd, e), nil
}

// InjectContext injects the context the payload runs in.
func InjectContext() *InjectedType {
	return &InjectedType{name: "context", inject: func(_ any, c Context, _ *FunctionDefinition, _ *Engine) any {
		return c
	}}
}

// InjectEngine injects the evaluating [*Engine].
func InjectEngine() *InjectedType {
	return &InjectedType{name: "engine", inject: func(_ any, _ Context, _ *FunctionDefinition, e *Engine) any {
		return e
	}}
}

// InjectReceiver injects the receiver of a method call, or [NoValue].
func InjectReceiver() *InjectedType {
	return &InjectedType{name: "receiver", inject: func(receiver any, _ Context, _ *FunctionDefinition, _ *Engine) any {
		return receiver
	}}
}

// InjectDefinition injects the [*FunctionDefinition] being called.
func InjectDefinition() *InjectedType {
	return &InjectedType{name: "definition", inject: func(_ any, _ Context, fd *FunctionDefinition, _ *Engine) any {
		return fd
	}}
}

// InjectDelegate injects a [Callable] that resolves and calls the named
// function from the payload's context. With an empty name the callable takes
// the function name as its first argument.
func InjectDelegate(name string) *InjectedType { return injectDelegate(name, false) }

// InjectMethodDelegate is like [InjectDelegate] but the callable performs a
// method call on its first argument.
func InjectMethodDelegate(name string) *InjectedType { return injectDelegate(name, true) }

func injectDelegate(name string, method bool) *InjectedType {
	return &InjectedType{
		name: "delegate",
		inject: func(_ any, c Context, _ *FunctionDefinition, e *Engine) any {
			return CallableFunc(func(args []any, kwargs map[string]any) (any, error) {
				target := name
				if target == "" {
					if len(args) == 0 {
						return nil, argumentError("name")
					}

					s, ok := args[0].(string)
					if !ok {
						return nil, argumentError("name")
					}

					target, args = s, args[1:]
				}

				receiver := NoValue

				if method {
					if len(args) == 0 {
						return nil, argumentError("receiver")
					}

					receiver, args = args[0], args[1:]
				}

				child := c.CreateChild()
				v, _, err := e.call(target, child, child, args, kwargs, receiver)

				return v, err
			})
		},
	}
}

// InjectSuper injects a [Callable] that calls the next definition of the same
// name registered in the scopes above the one that holds the current
// definition. The receiver of the current call is passed along.
func InjectSuper() *InjectedType {
	return &InjectedType{
		name: "super",
		inject: func(receiver any, c Context, fd *FunctionDefinition, e *Engine) any {
			return CallableFunc(func(args []any, kwargs map[string]any) (any, error) {
				owner := ownerOf(c, fd)
				if owner == nil || owner.Parent() == nil {
					return nil, noFunction(fd.Name, receiver)
				}

				v, _, err := e.call(fd.Name, owner.Parent(), c.CreateChild(), args, kwargs, receiver)

				return v, err
			})
		},
	}
}

// ownerOf returns the nearest scope from c upward that registers fd.
func ownerOf(c Context, fd *FunctionDefinition) Context {
	for layer := c; layer != nil; layer = layer.Parent() {
		fds, _ := layer.Functions(fd.Name, nil)
		if slices.Contains(fds, fd) {
			return layer
		}
	}

	return nil
}
