package lang

// Builder declares a [FunctionDefinition] parameter by parameter.
//
//	fd := lang.Define("add").
//		Param("a", lang.Integer()).
//		Param("b", lang.Integer(), lang.Default(int64(1))).
//		MustBuild(func(args []any, _ map[string]any) (any, error) {
//			return args[0].(int64) + args[1].(int64), nil
//		})
type Builder struct {
	fd       *FunctionDefinition
	err      error
	position int
}

// ParamOption configures one parameter.
type ParamOption func(*ParameterDefinition)

// Default makes the parameter optional with the given default value.
func Default(v any) ParamOption {
	return func(p *ParameterDefinition) { p.Default, p.HasDefault = v, true }
}

// Alias sets the name callers use to pass the parameter by name.
func Alias(name string) ParamOption {
	return func(p *ParameterDefinition) { p.Alias = name }
}

// KeywordOnly makes the parameter passable by name only. The payload
// receives it in kwargs.
func KeywordOnly() ParamOption {
	return func(p *ParameterDefinition) { p.Position = -1 }
}

// Define starts a plain function definition.
func Define(name string) *Builder {
	return &Builder{fd: &FunctionDefinition{Name: name, IsFunction: true}}
}

func (b *Builder) add(p *ParameterDefinition) *Builder {
	if b.err != nil {
		return b
	}

	if _, ok := b.fd.Parameter(p.Name); ok {
		b.err = ErrInvalidDefinition.Describe("%s: duplicate parameter %q", b.fd.Name, p.Name)

		return b
	}

	if p.Position >= 0 {
		if _, ok := b.fd.Parameter(VarArgs); ok && p.Name != VarArgs {
			b.err = ErrInvalidDefinition.Describe("%s: positional parameter %q after varargs", b.fd.Name, p.Name)

			return b
		}

		p.Position = b.position
		if p.Name != VarArgs {
			b.position++
		}
	}

	b.fd.Parameters = append(b.fd.Parameters, p)

	return b
}

// Param declares the next parameter.
func (b *Builder) Param(name string, t ValueType, opts ...ParamOption) *Builder {
	p := &ParameterDefinition{Name: name, Type: t}
	for _, opt := range opts {
		opt(p)
	}

	return b.add(p)
}

// Varargs collects extra positional arguments, each checked against t.
func (b *Builder) Varargs(t ValueType) *Builder {
	return b.add(&ParameterDefinition{Name: VarArgs, Type: t})
}

// Kwargs collects extra named arguments, each checked against t.
func (b *Builder) Kwargs(t ValueType) *Builder {
	return b.add(&ParameterDefinition{Name: VarKwargs, Type: t, Position: -1})
}

// Inject declares a positional parameter synthesized at call time.
func (b *Builder) Inject(name string, t *InjectedType) *Builder {
	return b.add(&ParameterDefinition{Name: name, Type: t})
}

// Method makes the definition callable as a method only. Its first
// non-injected parameter receives the receiver.
func (b *Builder) Method() *Builder {
	b.fd.IsMethod, b.fd.IsFunction = true, false

	return b
}

// ExtensionMethod makes the definition callable both as a function and as a
// method.
func (b *Builder) ExtensionMethod() *Builder {
	b.fd.IsMethod, b.fd.IsFunction = true, true

	return b
}

// ReturnsContext declares that the payload returns a [ContextResult].
func (b *Builder) ReturnsContext() *Builder {
	b.fd.ReturnsContext = true

	return b
}

// NoKwargs disables translation of "name => value" arguments into named
// arguments; such arguments are passed positionally as mappings instead.
func (b *Builder) NoKwargs() *Builder {
	b.fd.NoKwargs = true

	return b
}

// Doc sets the documentation string.
func (b *Builder) Doc(doc string) *Builder {
	b.fd.Doc = doc

	return b
}

// Build completes the definition with its payload.
func (b *Builder) Build(payload Payload) (*FunctionDefinition, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.fd.IsMethod && !b.fd.IsValidMethod() {
		return nil, ErrInvalidMethod.Describe("%q has no receiver parameter", b.fd.Name)
	}

	b.fd.Payload = payload

	return b.fd, nil
}

// MustBuild is like [Builder.Build] but panics on error. It is intended for
// definitions declared at package initialization.
func (b *Builder) MustBuild(payload Payload) *FunctionDefinition {
	fd, err := b.Build(payload)
	if err != nil {
		panic(err)
	}

	return fd
}

// RegisterFunc wraps f into a definition named name that accepts any
// positional and keyword arguments, and registers it in c.
func RegisterFunc(c Context, name string, f Callable, opts ...RegisterOption) error {
	fd := Define(name).
		Varargs(Any()).
		Kwargs(Any()).
		MustBuild(func(args []any, kwargs map[string]any) (any, error) {
			return f.CallKw(args, kwargs)
		})

	return c.Register(fd, opts...)
}
