package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ardnew/yaql/lang"
)

// AST prints the expression tree of an expression.
type AST struct {
	Flat       bool   `help:"Print the normalized expression on one line."`
	Expression string `arg:"" help:"Expression to parse."`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context, flags *Engine, w io.Writer) error {
	e, _, err := flags.Build(ctx)
	if err != nil {
		return err
	}

	stmt, err := parse(ctx, e, a.Expression, "")
	if err != nil {
		return err
	}

	if a.Flat {
		_, err = fmt.Fprintln(w, stmt.String())

		return err
	}

	var buf strings.Builder

	writeTree(&buf, stmt.Expression(), 0)

	_, err = io.WriteString(w, buf.String())

	return err
}

func writeTree(buf *strings.Builder, x lang.Expression, depth int) {
	buf.WriteString(strings.Repeat("  ", depth))

	switch t := x.(type) {
	case *lang.Function:
		buf.WriteString(t.Name)

		if t.Symbol != "" {
			fmt.Fprintf(buf, " (%s %s)", t.Fixity, t.Symbol)
		}

		buf.WriteByte('\n')

		for _, arg := range t.Args {
			writeTree(buf, arg, depth+1)
		}

	case *lang.Wrap:
		buf.WriteString("()\n")
		writeTree(buf, t.Inner, depth+1)

	case *lang.MappingRuleExpression:
		buf.WriteString("=>\n")
		writeTree(buf, t.Source, depth+1)
		writeTree(buf, t.Destination, depth+1)

	case lang.Omitted, *lang.Omitted:
		buf.WriteString("<omitted>\n")

	default:
		buf.WriteString(x.String())
		buf.WriteByte('\n')
	}
}
