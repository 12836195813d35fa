package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/yaql/lang"
	"github.com/ardnew/yaql/log"
)

// Eval evaluates an expression against input data.
type Eval struct {
	Input  `embed:""`
	Output `embed:""`

	File       string `help:"Read the expression from a file ('-' for stdin)." placeholder:"FILE" short:"f" type:"existingfile"`
	Expression string `arg:""                                                  help:"Expression to evaluate." optional:""`
}

// Run executes the eval command.
func (x *Eval) Run(ctx context.Context, flags *Engine, w io.Writer) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	e, root, err := flags.Build(ctx)
	if err != nil {
		return err
	}

	stmt, err := parse(ctx, e, x.Expression, x.File)
	if err != nil {
		return err
	}

	data, err := x.Load(ctx)
	if err != nil {
		return err
	}

	c := root.CreateChild()
	if err := x.Bind(c); err != nil {
		return err
	}

	v, err := stmt.Evaluate(ctx, data, c)
	if err != nil {
		return lang.WrapError(err).
			With(slog.String("command", "eval"))
	}

	return x.Write(ctx, w, v)
}

// parse parses expr, or the contents of file when expr is empty.
func parse(ctx context.Context, e *lang.Engine, expr, file string) (*lang.Statement, error) {
	var (
		stmt *lang.Statement
		err  error
	)

	switch {
	case expr != "" && file != "":
		return nil, lang.ErrArgument.Describe("both an expression and --file given")

	case expr != "":
		stmt, err = e.Parse(ctx, expr)

	case file != "":
		var r io.ReadCloser

		r, err = open(file)
		if err != nil {
			return nil, err
		}
		defer r.Close()

		stmt, err = e.ParseReader(ctx, r)

	default:
		return nil, lang.ErrArgument.Describe("no expression given")
	}

	if err != nil {
		return nil, lang.WrapError(err).With(slog.String("source", "expression"))
	}

	log.TraceContext(ctx, "parsed", slog.String("expression", stmt.String()))

	return stmt, nil
}
