package lang

import (
	"errors"
	"log/slog"
	"maps"
	"slices"
)

// Call resolves name in c and calls it. With a receiver other than
// [NoValue] the call is a method call on receiver. Arguments may be
// [Expression] nodes, which are evaluated as the chosen overload requires,
// or plain values. The returned context is the one threaded back by the
// called definition.
func (e *Engine) Call(
	name string,
	c Context,
	args []any,
	kwargs map[string]any,
	receiver any,
) (any, Context, error) {
	return e.call(name, c, c, args, kwargs, receiver)
}

// call resolves name among the functions visible from fc and runs the
// winning overload with its arguments evaluated in dc.
func (e *Engine) call(
	name string,
	fc, dc Context,
	args []any,
	kwargs map[string]any,
	receiver any,
) (any, Context, error) {
	method := receiver != NoValue

	layers := CollectFunctions(fc, name, func(fd *FunctionDefinition, _ Context) bool {
		if method {
			return fd.IsMethod
		}

		return fd.IsFunction
	})
	if len(layers) == 0 {
		return nil, nil, noFunction(name, receiver)
	}

	delegate, err := e.chooseOverload(name, layers, receiver, dc, args, kwargs)
	if err != nil {
		return nil, nil, err
	}

	result, rc, err := delegate()
	if err != nil {
		if errors.Is(err, ErrStopIteration) && !errors.Is(err, ErrWrapped) {
			err = ErrWrapped.Wrap(err).With(slog.String("function", name))
		}

		return nil, nil, err
	}

	if err := LimitMemoryUsage(e.Options().MemoryQuota, Sample{Count: 1, Value: result}); err != nil {
		return nil, nil, err
	}

	return result, rc, nil
}

func noFunction(name string, receiver any) error {
	if receiver != NoValue {
		return ErrNoMethod.Describe("%q for %s", name, KindOf(receiver)).
			With(slog.String("function", name))
	}

	return ErrNoFunction.Describe("%q", name).With(slog.String("function", name))
}

func noMatch(name string, receiver any) *Error {
	if receiver != NoValue {
		return ErrNoMatchingMethod.Describe("%q for %s", name, KindOf(receiver)).
			With(slog.String("function", name))
	}

	return ErrNoMatchingFunction.Describe("%q", name).
		With(slog.String("function", name))
}

func ambiguous(name string, receiver any) error {
	if receiver != NoValue {
		return ErrAmbiguousMethod.Describe("%q for %s", name, KindOf(receiver)).
			With(slog.String("function", name))
	}

	return ErrAmbiguousFunction.Describe("%q", name).
		With(slog.String("function", name))
}

type candidate struct {
	fd      *FunctionDefinition
	binding *Binding
}

type resolved struct {
	candidate

	delegate Delegate
}

// chooseOverload filters the candidate layers structurally, evaluates the
// arguments no candidate takes lazily, and picks the most specific overload
// of the closest layer that can be bound.
func (e *Engine) chooseOverload(
	name string,
	layers [][]*FunctionDefinition,
	receiver any,
	c Context,
	args []any,
	kwargs map[string]any,
) (Delegate, error) {
	if receiver != NoValue {
		args = append([]any{receiver}, args...)
	}

	var (
		translated bool
		noKwargs   bool
		pos        []any
		named      map[string]any
		order      []string
		lazy       map[any]bool
		matched    [][]candidate
	)

	for _, layer := range layers {
		var level []candidate

		for _, fd := range layer {
			if !translated {
				var err error

				noKwargs = fd.NoKwargs

				pos, named, order, err = translateArgs(noKwargs, args, kwargs)
				if err != nil {
					return nil, err
				}

				translated = true
			} else if noKwargs != fd.NoKwargs {
				return nil, ambiguous(name, receiver)
			}

			b, ok := fd.MapArgs(pos, named, c, e)
			if !ok {
				continue
			}

			slots := b.lazySlots()
			if lazy == nil {
				lazy = slots
			} else if !maps.Equal(lazy, slots) {
				return nil, ambiguous(name, receiver)
			}

			level = append(level, candidate{fd: fd, binding: b})
		}

		if len(level) > 0 {
			matched = append(matched, level)
		}
	}

	if len(matched) == 0 {
		return nil, noMatch(name, receiver)
	}

	eval := func(slot any, arg any) (any, error) {
		x, ok := arg.(Expression)
		if !ok || lazy[slot] || isConstant(x) {
			return arg, nil
		}

		return x.Eval(NoValue, c, e)
	}

	for i, arg := range pos {
		v, err := eval(i, arg)
		if err != nil {
			return nil, err
		}

		pos[i] = v
	}

	for _, k := range order {
		v, err := eval(k, named[k])
		if err != nil {
			return nil, err
		}

		named[k] = v
	}

	var cause error

	for depth, level := range matched {
		var winners []resolved

		for _, cand := range level {
			d, err := cand.fd.GetDelegate(receiver, e, c, pos, named)
			if err != nil {
				if errors.Is(err, ErrArgument) {
					cause = err

					continue
				}

				return nil, err
			}

			winners = append(winners, resolved{candidate: cand, delegate: d})
		}

		if len(winners) == 0 {
			continue
		}

		winners = mostSpecific(winners)
		if len(winners) > 1 {
			return nil, ambiguous(name, receiver)
		}

		e.logger.Trace("call resolved",
			slog.String("function", name),
			slog.Bool("method", receiver != NoValue),
			slog.Int("layer", depth),
			slog.Int("candidates", len(level)),
		)

		return winners[0].delegate, nil
	}

	err := noMatch(name, receiver)
	if cause != nil {
		return nil, err.Wrap(cause)
	}

	return nil, err
}

// translateArgs separates "name => value" arguments from positional ones and
// merges them with explicit named arguments, returning the named argument
// keys in call order. Empty argument slots become [NoValue].
func translateArgs(
	noKwargs bool,
	args []any,
	kwargs map[string]any,
) ([]any, map[string]any, []string, error) {
	pos := make([]any, 0, len(args))
	named := make(map[string]any, len(kwargs))

	var order []string

	if noKwargs {
		if len(kwargs) > 0 {
			return nil, nil, nil, ErrMappingTranslation.Describe("named arguments are not accepted")
		}

		for _, arg := range args {
			pos = append(pos, omit(arg))
		}

		return pos, named, nil, nil
	}

	for _, arg := range args {
		m, ok := arg.(*MappingRuleExpression)
		if !ok {
			pos = append(pos, omit(arg))

			continue
		}

		k, ok := m.Source.(*KeywordConstant)
		if !ok {
			return nil, nil, nil, ErrMappingTranslation.Describe("argument name %s is not a keyword", m.Source)
		}

		if _, dup := named[k.Name]; dup {
			return nil, nil, nil, ErrMappingTranslation.Describe("duplicate argument %q", k.Name)
		}

		named[k.Name] = m.Destination
		order = append(order, k.Name)
	}

	for _, k := range slices.Sorted(maps.Keys(kwargs)) {
		if _, dup := named[k]; dup {
			return nil, nil, nil, ErrMappingTranslation.Describe("duplicate argument %q", k)
		}

		named[k] = kwargs[k]
		order = append(order, k)
	}

	return pos, named, order, nil
}

func omit(arg any) any {
	if _, ok := arg.(Omitted); ok {
		return NoValue
	}

	return arg
}

// mostSpecific drops every candidate that another candidate specializes.
func mostSpecific(cands []resolved) []resolved {
	var out []resolved

	for i, a := range cands {
		dominated := false

		for j, b := range cands {
			if i != j && specializes(b.binding, a.binding) {
				dominated = true

				break
			}
		}

		if !dominated {
			out = append(out, a)
		}
	}

	return out
}

// specializes reports whether binding m1 is more specific than m2: no
// parameter of m2 specializes its counterpart in m1, and at least one
// parameter of m1 specializes its counterpart in m2.
func specializes(m1, m2 *Binding) bool {
	res := false

	for i := 0; i < len(m1.Positional) && i < len(m2.Positional); i++ {
		a1, a2 := m1.Positional[i].Type, m2.Positional[i].Type

		switch {
		case IsSpecializationOf(a2, a1):
			return false
		case IsSpecializationOf(a1, a2):
			res = true
		}
	}

	for k, p1 := range m1.Keyword {
		p2, ok := m2.Keyword[k]
		if !ok {
			continue
		}

		switch {
		case IsSpecializationOf(p2.Type, p1.Type):
			return false
		case IsSpecializationOf(p1.Type, p2.Type):
			res = true
		}
	}

	return res
}
