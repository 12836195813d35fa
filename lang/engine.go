package lang

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/klauspost/readahead"

	"github.com/ardnew/yaql/log"
)

// DefaultKeywordOperator is the name-value operator of a default [Factory].
const DefaultKeywordOperator = "=>"

// Factory holds an editable operator list from which engines are created.
type Factory struct {
	operators       []OperatorDecl
	keywordOperator string
	allowDelegates  bool
}

// NewFactory returns a factory holding [DefaultOperators].
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		operators:       DefaultOperators(),
		keywordOperator: DefaultKeywordOperator,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Operators returns a copy of the operator list.
func (f *Factory) Operators() []OperatorDecl { return slices.Clone(f.operators) }

// InsertOperator adds an operator to the list. See [InsertOperator] for the
// placement rule.
func (f *Factory) InsertOperator(
	existing string,
	existingBinary bool,
	symbol string,
	fixity Fixity,
	createGroup bool,
	alias string,
) error {
	ops, err := InsertOperator(f.operators, existing, existingBinary, symbol, fixity, createGroup, alias)
	if err != nil {
		return err
	}

	f.operators = ops

	return nil
}

// Create builds an engine from the current operator list.
func (f *Factory) Create(opts ...Option) (*Engine, error) {
	return CreateParser(f.operators, f.keywordOperator, f.allowDelegates, opts...)
}

// Engine parses and evaluates expressions of one grammar. It is safe for
// concurrent use.
type Engine struct {
	grammar *Grammar
	cache   *parseCache
	logger  log.Logger
	opts    Options
}

// CreateParser builds an engine from an explicit operator list. A non-empty
// keywordOperator is added as the name-value operator.
func CreateParser(
	decls []OperatorDecl,
	keywordOperator string,
	allowDelegates bool,
	opts ...Option,
) (*Engine, error) {
	if keywordOperator != "" {
		decls = append([]OperatorDecl{Op(keywordOperator, NameValuePair)}, decls...)
	}

	table, err := BuildOperatorTable(decls)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		grammar: NewGrammar(table, allowDelegates),
		cache:   &parseCache{},
		opts:    DefaultOptions(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.opts.Debug {
		e.grammar.Trace(e.logger)
	}

	return e, nil
}

// Copy returns an engine sharing the grammar and parse cache of e with opts
// applied on top of its settings.
func (e *Engine) Copy(opts ...Option) *Engine {
	c := *e

	for _, opt := range opts {
		opt(&c)
	}

	return &c
}

// Options returns the engine settings. A nil engine has [DefaultOptions].
func (e *Engine) Options() Options {
	if e == nil {
		return DefaultOptions()
	}

	return e.opts
}

// Logger returns the engine logger.
func (e *Engine) Logger() log.Logger {
	if e == nil {
		return log.Logger{}
	}

	return e.logger
}

// Grammar returns the grammar of e.
func (e *Engine) Grammar() *Grammar { return e.grammar }

// Parse parses source into a statement.
func (e *Engine) Parse(ctx context.Context, source string) (*Statement, error) {
	e.logger.TraceContext(ctx, "parse start", slog.Int("source_length", len(source)))

	if e.cache != nil {
		stmt, hit, err := e.cache.load(source, func() (*Statement, error) {
			return e.parse(ctx, source)
		})

		e.logger.TraceContext(ctx, "cache lookup",
			slog.String("source_hash", hashString(source)),
			slog.Bool("cache_hit", hit),
		)

		if err != nil {
			return nil, err
		}

		return stmt.bind(e), nil
	}

	return e.parse(ctx, source)
}

func (e *Engine) parse(ctx context.Context, source string) (*Statement, error) {
	x, err := e.grammar.Parse(source)
	if err != nil {
		return nil, err
	}

	if e.logger.Allows(ctx, log.LevelTrace) {
		e.logger.TraceContext(ctx, "parse complete", slog.String("expression", x.String()))
	}

	return &Statement{expr: x, source: source, engine: e}, nil
}

// ParseReader reads all of r and parses it into a statement.
func (e *Engine) ParseReader(ctx context.Context, r io.Reader) (*Statement, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, err
	}

	e.logger.TraceContext(ctx, "read input",
		slog.Int("source_bytes", len(data)),
		slog.Bool("read_ahead", true),
	)

	return e.Parse(ctx, string(data))
}

// Statement is a parsed expression bound to the engine that parsed it.
type Statement struct {
	expr   Expression
	source string
	engine *Engine
}

// bind returns s rebound to engine e, which may carry different settings
// than the engine that parsed it.
func (s *Statement) bind(e *Engine) *Statement {
	if s.engine == e {
		return s
	}

	c := *s
	c.engine = e

	return &c
}

// Expression returns the parsed expression tree.
func (s *Statement) Expression() Expression { return s.expr }

// Source returns the text the statement was parsed from.
func (s *Statement) Source() string { return s.source }

// Eval implements [Expression].
func (s *Statement) Eval(receiver any, c Context, e *Engine) (any, error) {
	return s.expr.Eval(receiver, c, e)
}

// String implements [Expression].
func (s *Statement) String() string { return s.expr.String() }

// Evaluate evaluates the statement. Unless data is [NoValue] it is stored as
// "$" in the evaluation context. A nil c evaluates in a fresh root context,
// which has no functions; use a context populated with built-ins instead.
// The result passes through the "#finalize" function visible from c, or is
// returned unchanged when there is none.
func (s *Statement) Evaluate(ctx context.Context, data any, c Context) (any, error) {
	e := s.engine

	if c == nil {
		c = NewContext()
	}

	if data != NoValue {
		if e.Options().ConvertInputData {
			data = ConvertInputData(data)
		}

		c.Set("$", data)
	}

	id := uuid.New()

	e.logger.TraceContext(ctx, "evaluate",
		slog.String("eval_id", id.String()),
		slog.String("expression", s.expr.String()),
	)

	if len(CollectFunctions(c, "#finalize", isFunction)) == 0 {
		c = c.CreateChild()

		if err := c.Register(identityFinalizer); err != nil {
			return nil, err
		}
	}

	v, _, err := e.call("#finalize", c, c, []any{s.expr}, nil, NoValue)
	if err != nil {
		e.logger.TraceContext(ctx, "evaluate failed",
			slog.String("eval_id", id.String()),
			slog.Any("error", err),
		)

		return nil, unwrapWrapped(err)
	}

	e.logger.TraceContext(ctx, "evaluate complete",
		slog.String("eval_id", id.String()),
		slog.String("result_kind", resultKind(v)),
	)

	return v, nil
}

func isFunction(fd *FunctionDefinition, _ Context) bool { return fd.IsFunction }

var identityFinalizer = Define("#finalize").
	Param("obj", Any()).
	MustBuild(func(args []any, _ map[string]any) (any, error) {
		return args[0], nil
	})

// unwrapWrapped returns the error an [ErrWrapped] error wraps, or err.
func unwrapWrapped(err error) error {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if w, ok := e.(*Error); ok && w.kind == ErrWrapped.kind && w.err != nil {
			return w.err
		}
	}

	return err
}
