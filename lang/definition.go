package lang

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

// Names of the catch-all parameters.
const (
	VarArgs   = "*"  // Extra positional arguments
	VarKwargs = "**" // Extra named arguments
)

// Payload implements a function. args holds the positional parameters in
// declaration order (including injected ones) followed by any extra
// positional arguments; kwargs holds keyword-only parameters by name and any
// extra named arguments.
type Payload func(args []any, kwargs map[string]any) (any, error)

// ParameterDefinition is one formal parameter.
type ParameterDefinition struct {
	Default    any
	Type       ValueType
	Name       string
	Alias      string // Name callers use for named passing, if not Name
	Position   int    // -1 for keyword-only parameters
	HasDefault bool
}

// callName returns the name used for named passing.
func (p *ParameterDefinition) callName() string {
	if p.Alias != "" {
		return p.Alias
	}

	return p.Name
}

func (p *ParameterDefinition) catchAll() bool {
	return p.Name == VarArgs || p.Name == VarKwargs
}

// FunctionDefinition describes a callable registered in a [Context].
type FunctionDefinition struct {
	Payload        Payload
	Name           string
	Doc            string
	Parameters     []*ParameterDefinition
	IsFunction     bool
	IsMethod       bool
	ReturnsContext bool
	NoKwargs       bool
}

// Clone returns a copy of fd that can be renamed or re-flagged without
// affecting fd.
func (fd *FunctionDefinition) Clone() *FunctionDefinition {
	c := *fd
	c.Parameters = slices.Clone(fd.Parameters)

	return &c
}

// Parameter returns the parameter with the given name.
func (fd *FunctionDefinition) Parameter(name string) (*ParameterDefinition, bool) {
	i := slices.IndexFunc(fd.Parameters, func(p *ParameterDefinition) bool {
		return p.Name == name
	})
	if i < 0 {
		return nil, false
	}

	return fd.Parameters[i], true
}

// IsValidMethod reports whether fd can be called as a method: its first
// non-injected positional parameter must exist and must not be lazy.
func (fd *FunctionDefinition) IsValidMethod() bool {
	var first *ParameterDefinition

	for _, p := range fd.Parameters {
		if p.Position < 0 || IsHidden(p.Type) || p.Name == VarKwargs {
			continue
		}

		if first == nil || p.Position < first.Position {
			first = p
		}
	}

	return first != nil && !IsLazy(first.Type)
}

// Signature renders the declared parameters.
func (fd *FunctionDefinition) Signature() string {
	var part []string

	for _, p := range fd.Parameters {
		if IsHidden(p.Type) {
			continue
		}

		s := p.callName()

		switch {
		case p.Name == VarArgs:
			s = "*" + p.Type.String()
		case p.Name == VarKwargs:
			s = "**" + p.Type.String()
		default:
			s += " " + p.Type.String()
			if p.HasDefault {
				s += " = " + Format(p.Default)
			}

			if p.Position < 0 {
				s = "=> " + s
			}
		}

		part = append(part, s)
	}

	return fd.Name + "(" + strings.Join(part, ", ") + ")"
}

// hiddenShift returns, for each position below n, the number of injected
// positional parameters declared before it.
func (fd *FunctionDefinition) hiddenShift(n int) []int {
	shift := make([]int, n)

	for _, p := range fd.Parameters {
		if p.Position >= 0 && IsHidden(p.Type) {
			for i := p.Position + 1; i < n; i++ {
				shift[i]++
			}
		}
	}

	return shift
}

// Binding records which parameter each actual argument is bound to.
type Binding struct {
	Positional []*ParameterDefinition
	Keyword    map[string]*ParameterDefinition
}

// lazySlots returns the argument slots bound to lazy parameters, keyed by
// positional index or by name.
func (b *Binding) lazySlots() map[any]bool {
	slots := make(map[any]bool)

	for i, p := range b.Positional {
		if IsLazy(p.Type) {
			slots[i] = true
		}
	}

	for k, p := range b.Keyword {
		if IsLazy(p.Type) {
			slots[k] = true
		}
	}

	return slots
}

// MapArgs matches actual arguments against the declared parameters without
// evaluating anything. Arguments equal to [NoValue] are explicitly skipped
// positions. It reports false when a required parameter is unfilled, an
// argument has no parameter to go to, or an argument fails its type check.
func (fd *FunctionDefinition) MapArgs(args []any, kwargs map[string]any, c Context, e *Engine) (*Binding, bool) {
	kw := maps.Clone(kwargs)
	if kw == nil {
		kw = make(map[string]any)
	}

	varargs, _ := fd.Parameter(VarArgs)

	positional := make([]*ParameterDefinition, len(args))
	for i := range positional {
		positional[i] = varargs
	}

	keyword := make(map[string]*ParameterDefinition)
	shift := fd.hiddenShift(len(args) + len(fd.Parameters))

	for _, p := range fd.Parameters {
		if p.catchAll() || IsHidden(p.Type) {
			continue
		}

		name := p.callName()
		_, named := kw[name]

		if p.Position < 0 {
			switch {
			case named:
				keyword[name] = p

				delete(kw, name)
			case !p.HasDefault:
				return nil, false
			}

			continue
		}

		i := p.Position - shift[p.Position]

		switch {
		case i < len(args) && args[i] != NoValue:
			if named {
				return nil, false
			}

			positional[i] = p
		case named:
			keyword[name] = p

			delete(kw, name)

			if i < len(args) {
				positional[i] = p
			}
		case !p.HasDefault:
			return nil, false
		case i < len(args):
			positional[i] = p
		}
	}

	if len(kw) > 0 {
		extra, ok := fd.Parameter(VarKwargs)
		if !ok {
			return nil, false
		}

		for k := range kw {
			keyword[k] = extra
		}
	}

	for i, p := range positional {
		if p == nil {
			return nil, false
		}

		if args[i] == NoValue {
			if p.Name == VarArgs {
				return nil, false
			}

			continue
		}

		if !p.Type.Check(args[i], c, e) {
			return nil, false
		}
	}

	for k, p := range keyword {
		if !p.Type.Check(kwargs[k], c, e) {
			return nil, false
		}
	}

	return &Binding{Positional: positional, Keyword: keyword}, true
}

// Delegate invokes a bound function, returning its result and the context
// it threads back.
type Delegate func() (any, Context, error)

// argThunk converts a checked argument in the context the payload runs in.
type argThunk func(c Context) (any, error)

// GetDelegate binds the (already evaluated, where not lazy) arguments to
// the parameters and returns the delegate that runs the payload in a new
// child of c. It fails with [ErrArgument] naming the first parameter whose
// value is missing or invalid.
func (fd *FunctionDefinition) GetDelegate(
	receiver any,
	e *Engine,
	c Context,
	args []any,
	kwargs map[string]any,
) (Delegate, error) {
	checked := func(v any, p *ParameterDefinition) (argThunk, error) {
		if !p.Type.Check(v, c, e) {
			return nil, argumentError(p.Name)
		}

		return func(c2 Context) (any, error) {
			out, err := p.Type.Convert(v, receiver, c2, fd, e)
			if errors.Is(err, ErrArgumentValue) {
				return nil, argumentError(p.Name).Wrap(err)
			}

			return out, err
		}, nil
	}

	kw := maps.Clone(kwargs)
	if kw == nil {
		kw = make(map[string]any)
	}

	count := 0

	for _, p := range fd.Parameters {
		if p.Position >= 0 && p.Name != VarArgs && p.Name != VarKwargs {
			count++
		}
	}

	positional := make([]argThunk, count)
	keyword := make(map[string]argThunk)
	shift := fd.hiddenShift(count)
	supplied := count

	for _, p := range fd.Parameters {
		if p.catchAll() {
			continue
		}

		name := p.callName()
		v, named := kw[name]

		var (
			t   argThunk
			err error
		)

		switch {
		case IsHidden(p.Type):
			t, err = checked(nil, p)

			if p.Position >= 0 {
				supplied--
			}
		case p.Position >= 0 && p.Position-shift[p.Position] < len(args) &&
			args[p.Position-shift[p.Position]] != NoValue:
			if named {
				return nil, argumentError(p.Name)
			}

			t, err = checked(args[p.Position-shift[p.Position]], p)
		case named:
			delete(kw, name)

			t, err = checked(v, p)
		case p.HasDefault:
			t, err = checked(p.Default, p)
		default:
			return nil, argumentError(p.Name)
		}

		if err != nil {
			return nil, err
		}

		if p.Position >= 0 {
			positional[p.Position] = t
		} else {
			keyword[p.Name] = t
		}
	}

	if len(args) > supplied {
		extra, ok := fd.Parameter(VarArgs)
		if !ok {
			return nil, argumentError(VarArgs)
		}

		for _, v := range args[supplied:] {
			t, err := checked(v, extra)
			if err != nil {
				return nil, err
			}

			positional = append(positional, t)
		}
	}

	if len(kw) > 0 {
		extra, ok := fd.Parameter(VarKwargs)
		if !ok {
			return nil, argumentError(VarKwargs)
		}

		for k, v := range kw {
			t, err := checked(v, extra)
			if err != nil {
				return nil, err
			}

			keyword[k] = t
		}
	}

	return func() (any, Context, error) {
		child := c.CreateChild()

		pos := make([]any, len(positional))

		for i, t := range positional {
			v, err := t(child)
			if err != nil {
				return nil, nil, err
			}

			pos[i] = v
		}

		named := make(map[string]any, len(keyword))

		for _, k := range slices.Sorted(maps.Keys(keyword)) {
			v, err := keyword[k](child)
			if err != nil {
				return nil, nil, err
			}

			named[k] = v
		}

		result, err := fd.Payload(pos, named)
		if err != nil {
			return nil, nil, err
		}

		if fd.ReturnsContext {
			if r, ok := result.(ContextResult); ok {
				return r.Value, r.Context, nil
			}
		}

		return result, c, nil
	}, nil
}
