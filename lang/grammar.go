package lang

import (
	"cmp"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/ardnew/yaql/log"
)

// Grammar is the parser specification derived from an [OperatorTable]: the
// binding power of every operator role and the function name each
// production builds. It is immutable once built and safe for concurrent
// use.
type Grammar struct {
	table          *OperatorTable
	lexer          *Lexer
	indexBP        int // Binding power of "value[args]", 0 if unavailable
	callBP         int // Binding power of "value(args)", 0 if unavailable
	allowDelegates bool
}

// NewGrammar derives the grammar of table. When allowDelegates is set,
// "value(args)" on an arbitrary expression parses to a #call node.
func NewGrammar(table *OperatorTable, allowDelegates bool) *Grammar {
	g := &Grammar{
		table:          table,
		lexer:          NewLexer(table),
		allowDelegates: allowDelegates,
	}

	if op, ok := table.Operators["[]"]; ok && op.Binary != 0 {
		g.indexBP = g.power(op.Binary)
	}

	if allowDelegates {
		g.callBP = 2*(table.Groups+1) + 2
	}

	return g
}

// Table returns the operator table g was derived from.
func (g *Grammar) Table() *OperatorTable { return g.table }

// Lexer returns the lexer of g.
func (g *Grammar) Lexer() *Lexer { return g.lexer }

// power converts a signed precedence group into a binding power. Group 1
// binds tightest.
func (g *Grammar) power(precedence int) int {
	if precedence < 0 {
		precedence = -precedence
	}

	return 2*(g.table.Groups-precedence+1) + 2
}

// unaryName returns the function name a unary production of op builds.
func unaryName(op *Operator) string {
	if op.UnaryAlias != "" {
		return op.UnaryAlias
	}

	return "#unary_operator_" + op.Symbol
}

// binaryName returns the function name a binary production of op builds.
func binaryName(op *Operator) string {
	if op.BinaryAlias != "" {
		return op.BinaryAlias
	}

	return "#operator_" + op.Symbol
}

// Trace logs the precedence levels and productions of g at Debug level.
func (g *Grammar) Trace(logger log.Logger) {
	levels := make(map[int][]string)

	for _, symbol := range slices.Sorted(maps.Keys(g.table.Operators)) {
		op := g.table.Operators[symbol]

		switch {
		case op.Unary > 0:
			levels[op.Unary] = append(levels[op.Unary], "prefix "+symbol)
		case op.Unary < 0:
			levels[-op.Unary] = append(levels[-op.Unary], "suffix "+symbol)
		}

		switch {
		case op.Binary > 0:
			levels[op.Binary] = append(levels[op.Binary], "left "+symbol)
		case op.Binary < 0:
			levels[-op.Binary] = append(levels[-op.Binary], "right "+symbol)
		}
	}

	for _, level := range slices.SortedFunc(maps.Keys(levels), func(a, b int) int {
		return cmp.Compare(b, a)
	}) {
		logger.Debug("precedence",
			slog.Int("group", level),
			slog.Int("power", g.power(level)),
			slog.String("operators", strings.Join(levels[level], " ")),
		)
	}

	for _, symbol := range slices.Sorted(maps.Keys(g.table.Operators)) {
		op := g.table.Operators[symbol]

		if op.Unary != 0 {
			logger.Debug("production",
				slog.String("rule", "value : "+op.Name+" value"),
				slog.String("function", unaryName(op)),
			)
		}

		if op.Binary != 0 && op.Name != IndexerName && op.Name != MapName {
			logger.Debug("production",
				slog.String("rule", "value : value "+op.Name+" value"),
				slog.String("function", binaryName(op)),
			)
		}
	}

	if g.indexBP > 0 {
		logger.Debug("production",
			slog.String("rule", "value : value INDEXER args ]"),
			slog.String("function", "#indexer"),
		)
	}

	if g.allowDelegates {
		logger.Debug("production",
			slog.String("rule", "value : value ( args )"),
			slog.String("function", "#call"),
		)
	}

	if g.table.Mapping != "" {
		logger.Debug("production",
			slog.String("rule", "arg : value MAPPING value"),
			slog.String("mapping", g.table.Mapping),
		)
	}
}
