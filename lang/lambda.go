package lang

import (
	"maps"
	"slices"
	"strconv"
)

// Callable is a value that can be called with positional and named
// arguments.
type Callable interface {
	CallKw(args []any, kwargs map[string]any) (any, error)
}

// Call calls f with positional arguments only.
func Call(f Callable, args ...any) (any, error) { return f.CallKw(args, nil) }

// CallableFunc adapts a function to [Callable].
type CallableFunc func(args []any, kwargs map[string]any) (any, error)

// CallKw implements [Callable].
func (f CallableFunc) CallKw(args []any, kwargs map[string]any) (any, error) {
	return f(args, kwargs)
}

// Lambda is a deferred argument. Calling it evaluates the argument
// expression in a fresh child of the context it was bound in.
type Lambda struct {
	body          any // Expression, Callable, or plain value
	receiver      any
	context       Context
	engine        *Engine
	method        bool
	withContext   bool
	returnContext bool
	publish       bool
}

// Expression returns the unevaluated expression, or nil if the lambda wraps
// a value.
func (l *Lambda) Expression() Expression {
	x, _ := l.body.(Expression)

	return x
}

// Call evaluates the lambda. A method lambda takes its receiver as the first
// argument; a lambda with context then takes the [Context] to run in.
func (l *Lambda) Call(args ...any) (any, error) { return l.CallKw(args, nil) }

// CallKw implements [Callable].
func (l *Lambda) CallKw(args []any, kwargs map[string]any) (any, error) {
	v, _, err := l.Invoke(args, kwargs)

	return v, err
}

// Invoke is like [Lambda.CallKw] but also returns the context the
// evaluation ran in, or the one it threaded back for lambdas that return
// context.
func (l *Lambda) Invoke(args []any, kwargs map[string]any) (any, Context, error) {
	receiver := l.receiver

	if l.method {
		if len(args) == 0 {
			return nil, nil, argumentError("receiver")
		}

		receiver, args = args[0], args[1:]
	}

	var c Context

	if l.withContext {
		if len(args) == 0 {
			return nil, nil, argumentError("context")
		}

		ctx, ok := args[0].(Context)
		if !ok {
			return nil, nil, argumentError("context")
		}

		c, args = ctx, args[1:]
	} else {
		c = l.context.CreateChild()
	}

	return l.InvokeIn(receiver, c, args, kwargs)
}

// InvokeIn evaluates the lambda in c with an explicit receiver, binding
// args and kwargs into c first.
func (l *Lambda) InvokeIn(receiver any, c Context, args []any, kwargs map[string]any) (any, Context, error) {
	if l.publish {
		for i, arg := range args {
			c.Set("$"+strconv.Itoa(i+1), arg)
		}

		for _, k := range slices.Sorted(maps.Keys(kwargs)) {
			c.Set(k, kwargs[k])
		}
	}

	switch body := l.body.(type) {
	case Expression:
		if l.returnContext {
			return evalContext(body, receiver, c, l.engine)
		}

		v, err := body.Eval(receiver, c, l.engine)

		return v, c, err
	case Callable:
		v, err := body.CallKw(args, kwargs)

		return v, c, err
	default:
		return body, c, nil
	}
}

// String renders the lambda's expression.
func (l *Lambda) String() string {
	if x := l.Expression(); x != nil {
		return "lambda(" + x.String() + ")"
	}

	return "lambda(" + Format(l.body) + ")"
}
