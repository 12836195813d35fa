package lang

import (
	"fmt"
	"io"
	"strings"
)

// Expression is a node of a parsed expression tree. Trees are immutable and
// may be evaluated any number of times.
type Expression interface {
	// Eval evaluates the node in context c. receiver is the value a method
	// call is applied to, or [NoValue].
	Eval(receiver any, c Context, e *Engine) (any, error)
	String() string
}

// Function is a call of a named function. Operators, indexing, list and
// dictionary construction and context data access are all Function nodes.
type Function struct {
	Name string
	// Symbol and Fixity record the operator this node was parsed from, if
	// any. They affect rendering only.
	Symbol string
	Args   []Expression
	Fixity Fixity
	// UsesReceiver is set for named calls, which become method calls when
	// evaluated with a receiver. Other nodes ignore the receiver.
	UsesReceiver bool
}

// Eval implements [Expression].
func (f *Function) Eval(receiver any, c Context, e *Engine) (any, error) {
	v, _, err := f.EvalContext(receiver, c, e)

	return v, err
}

// EvalContext evaluates f and also returns the context its definition
// threads back, which is c unless the definition returns a context.
func (f *Function) EvalContext(receiver any, c Context, e *Engine) (any, Context, error) {
	if !f.UsesReceiver {
		receiver = NoValue
	}

	args := make([]any, len(f.Args))
	for i, arg := range f.Args {
		args[i] = arg
	}

	return e.call(f.Name, c, c, args, nil, receiver)
}

// String implements [Expression].
func (f *Function) String() string {
	args := make([]string, len(f.Args))
	for i, arg := range f.Args {
		args[i] = arg.String()
	}

	switch {
	case f.Symbol == "":
	case f.Fixity.binary() && len(args) == 2:
		return "(" + args[0] + " " + f.Symbol + " " + args[1] + ")"
	case f.Fixity == PrefixUnary && len(args) == 1:
		if isWord(f.Symbol) {
			return "(" + f.Symbol + " " + args[0] + ")"
		}

		return "(" + f.Symbol + args[0] + ")"
	case f.Fixity == SuffixUnary && len(args) == 1:
		return "(" + args[0] + f.Symbol + ")"
	}

	switch f.Name {
	case "#get_context_data":
		if len(f.Args) == 1 {
			if k, ok := f.Args[0].(*Constant); ok {
				if s, ok := k.Value.(string); ok {
					return s
				}
			}
		}
	case "#list":
		return "[" + strings.Join(args, ", ") + "]"
	case "#map":
		return "{" + strings.Join(args, ", ") + "}"
	case "#indexer":
		if len(args) > 0 {
			return args[0] + "[" + strings.Join(args[1:], ", ") + "]"
		}
	}

	return f.Name + "(" + strings.Join(args, ", ") + ")"
}

// Constant is a literal: a number, string, boolean or null.
type Constant struct {
	Value any
}

// Eval implements [Expression].
func (k *Constant) Eval(any, Context, *Engine) (any, error) { return k.Value, nil }

// String implements [Expression].
func (k *Constant) String() string { return Format(k.Value) }

// KeywordConstant is a bare identifier. It evaluates to its name.
type KeywordConstant struct {
	Name string
}

// Eval implements [Expression].
func (k *KeywordConstant) Eval(any, Context, *Engine) (any, error) { return k.Name, nil }

// String implements [Expression].
func (k *KeywordConstant) String() string { return k.Name }

// Wrap is a parenthesized expression.
type Wrap struct {
	Inner Expression
}

// Eval implements [Expression].
func (w *Wrap) Eval(receiver any, c Context, e *Engine) (any, error) {
	return w.Inner.Eval(receiver, c, e)
}

// String implements [Expression].
func (w *Wrap) String() string { return "(" + w.Inner.String() + ")" }

// MappingRuleExpression is a "source => destination" pair, used for named
// arguments and dictionary entries.
type MappingRuleExpression struct {
	Source      Expression
	Destination Expression
}

// Eval implements [Expression].
func (m *MappingRuleExpression) Eval(receiver any, c Context, e *Engine) (any, error) {
	k, err := m.Source.Eval(receiver, c, e)
	if err != nil {
		return nil, err
	}

	v, err := m.Destination.Eval(receiver, c, e)
	if err != nil {
		return nil, err
	}

	return MappingRule{Key: k, Value: v}, nil
}

// String implements [Expression].
func (m *MappingRuleExpression) String() string {
	return m.Source.String() + " => " + m.Destination.String()
}

// Omitted is an empty argument slot, as in f(a,,b). It evaluates to
// [NoValue].
type Omitted struct{}

// Eval implements [Expression].
func (Omitted) Eval(any, Context, *Engine) (any, error) { return NoValue, nil }

// String implements [Expression].
func (Omitted) String() string { return "" }

// usesReceiver reports whether evaluating x can depend on a receiver.
func usesReceiver(x Expression) bool {
	switch t := x.(type) {
	case *Function:
		return t.UsesReceiver
	case *Wrap:
		return usesReceiver(t.Inner)
	default:
		return false
	}
}

// isConstant reports whether x is a literal or keyword node.
func isConstant(x any) bool {
	switch x.(type) {
	case *Constant, *KeywordConstant:
		return true
	default:
		return false
	}
}

// constantValue returns the value of a literal or keyword node.
func constantValue(x any) (any, bool) {
	switch t := x.(type) {
	case *Constant:
		return t.Value, true
	case *KeywordConstant:
		return t.Name, true
	default:
		return x, false
	}
}

// evalContext evaluates x, returning the context threaded back by a
// context-returning function call.
func evalContext(x Expression, receiver any, c Context, e *Engine) (any, Context, error) {
	switch t := x.(type) {
	case *Function:
		return t.EvalContext(receiver, c, e)
	case *Wrap:
		return evalContext(t.Inner, receiver, c, e)
	default:
		v, err := x.Eval(receiver, c, e)

		return v, c, err
	}
}

// PrintTree writes an indented rendering of the tree rooted at x to w.
func PrintTree(w io.Writer, x Expression) {
	printTree(w, x, 0)
}

func printTree(w io.Writer, x Expression, depth int) {
	indent := strings.Repeat("  ", depth)

	switch t := x.(type) {
	case *Statement:
		printTree(w, t.expr, depth)
	case *Function:
		receiver := ""
		if t.UsesReceiver {
			receiver = " (method)"
		}

		fmt.Fprintf(w, "%sFunction %s%s\n", indent, t.Name, receiver)

		for _, arg := range t.Args {
			printTree(w, arg, depth+1)
		}
	case *Constant:
		fmt.Fprintf(w, "%sConstant %s\n", indent, Format(t.Value))
	case *KeywordConstant:
		fmt.Fprintf(w, "%sKeyword %s\n", indent, t.Name)
	case *Wrap:
		fmt.Fprintf(w, "%sWrap\n", indent)
		printTree(w, t.Inner, depth+1)
	case *MappingRuleExpression:
		fmt.Fprintf(w, "%sMapping\n", indent)
		printTree(w, t.Source, depth+1)
		printTree(w, t.Destination, depth+1)
	case Omitted:
		fmt.Fprintf(w, "%sOmitted\n", indent)
	default:
		fmt.Fprintf(w, "%s%s\n", indent, x)
	}
}
