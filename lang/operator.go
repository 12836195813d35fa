package lang

//go:generate go tool stringer --linecomment --type Fixity --output fixity_string.go

import (
	"log/slog"
	"slices"
	"strconv"
)

// Fixity is the syntactic role of an operator.
type Fixity int

const (
	PrefixUnary   Fixity = iota + 1 // prefix
	SuffixUnary                     // suffix
	BinaryLeft                      // left
	BinaryRight                     // right
	NameValuePair                   // mapping
)

// unary reports whether f is a unary fixity.
func (f Fixity) unary() bool { return f == PrefixUnary || f == SuffixUnary }

// binary reports whether f is a binary fixity.
func (f Fixity) binary() bool { return f == BinaryLeft || f == BinaryRight }

// OperatorDecl is one record of an operator list. The zero value is a
// precedence group separator: operators declared after it bind more loosely
// than those before it.
type OperatorDecl struct {
	Symbol string
	Alias  string // Function name used instead of the synthesized one
	Fixity Fixity
}

// Group returns the precedence group separator.
func Group() OperatorDecl { return OperatorDecl{} }

// Op declares an operator.
func Op(symbol string, fixity Fixity) OperatorDecl {
	return OperatorDecl{Symbol: symbol, Fixity: fixity}
}

// AliasOp declares an operator that calls the function alias instead of the
// synthesized operator function name.
func AliasOp(symbol string, fixity Fixity, alias string) OperatorDecl {
	return OperatorDecl{Symbol: symbol, Fixity: fixity, Alias: alias}
}

// IsGroup reports whether d is a precedence group separator.
func (d OperatorDecl) IsGroup() bool { return d.Symbol == "" }

// Grammar names of the two structural bracket operators.
const (
	IndexerName = "INDEXER"
	MapName     = "MAP"
)

// Operator is the table entry of one operator symbol. A precedence is the
// number of its group (1 binds tightest) and zero when the role is absent;
// its sign encodes associativity: positive for prefix and left-associative,
// negative for suffix and right-associative.
type Operator struct {
	Symbol      string
	Name        string // Grammar symbol name
	UnaryAlias  string
	BinaryAlias string
	Unary       int
	Binary      int
}

// OperatorTable maps operator symbols to their entries.
type OperatorTable struct {
	Operators map[string]*Operator
	Mapping   string // Symbol of the NameValuePair operator, if any
	Groups    int    // Number of precedence groups
}

// BuildOperatorTable builds a table from an ordered operator list.
func BuildOperatorTable(decls []OperatorDecl) (*OperatorTable, error) {
	table := &OperatorTable{Operators: make(map[string]*Operator)}

	precedence, names := 1, 0

	for _, d := range decls {
		if d.IsGroup() {
			precedence++

			continue
		}

		if d.Fixity == NameValuePair {
			if table.Mapping != "" {
				return nil, invalidOperator(d.Symbol, "second name-value operator")
			}

			table.Mapping = d.Symbol

			continue
		}

		op, ok := table.Operators[d.Symbol]
		if !ok {
			op = &Operator{Symbol: d.Symbol}

			switch d.Symbol {
			case "[]":
				op.Name = IndexerName
			case "{}":
				op.Name = MapName
			default:
				names++
				op.Name = "OP" + strconv.Itoa(names)
			}
		}

		switch d.Fixity {
		case PrefixUnary, SuffixUnary:
			if op.Unary != 0 {
				return nil, invalidOperator(d.Symbol, "duplicate unary role")
			}

			op.Unary, op.UnaryAlias = precedence, d.Alias
			if d.Fixity == SuffixUnary {
				op.Unary = -precedence
			}
		case BinaryLeft, BinaryRight:
			if op.Binary != 0 {
				return nil, invalidOperator(d.Symbol, "duplicate binary role")
			}

			op.Binary, op.BinaryAlias = precedence, d.Alias
			if d.Fixity == BinaryRight {
				op.Binary = -precedence
			}
		default:
			return nil, invalidOperator(d.Symbol, "unknown fixity")
		}

		table.Operators[d.Symbol] = op
		table.Groups = precedence
	}

	return table, nil
}

func invalidOperator(symbol, reason string) error {
	return ErrInvalidOperatorTable.
		Describe("%s %q", reason, symbol).
		With(slog.String("operator", symbol))
}

// InsertOperator returns a copy of decls with a new operator placed relative
// to an existing one. With an empty existing symbol the new operator is
// placed first. Otherwise it joins the end of the group containing the
// existing operator's unary or binary role (selected by existingBinary). If
// createGroup is set the new operator instead forms a group of its own right
// after that group.
func InsertOperator(
	decls []OperatorDecl,
	existing string,
	existingBinary bool,
	symbol string,
	fixity Fixity,
	createGroup bool,
	alias string,
) ([]OperatorDecl, error) {
	pos := 0

	if existing != "" {
		pos = slices.IndexFunc(decls, func(d OperatorDecl) bool {
			if d.IsGroup() || d.Symbol != existing {
				return false
			}

			if existingBinary {
				return d.Fixity.binary()
			}

			return d.Fixity.unary()
		})
		if pos < 0 {
			return nil, invalidOperator(existing, "operator not found")
		}

		for pos < len(decls) && !decls[pos].IsGroup() {
			pos++
		}
	}

	out := slices.Clone(decls)

	if createGroup {
		if pos == len(out) {
			out = append(out, Group())
			pos++
		} else {
			for pos < len(out) && out[pos].IsGroup() {
				pos++
			}

			out = slices.Insert(out, pos, Group())
		}
	}

	return slices.Insert(out, pos, AliasOp(symbol, fixity, alias)), nil
}

// DefaultOperators returns the standard operator list, tightest-binding group
// first.
func DefaultOperators() []OperatorDecl {
	return []OperatorDecl{
		Op(".", BinaryLeft),
		Op("?.", BinaryLeft),
		Group(),
		Op("[]", BinaryLeft),
		Op("{}", BinaryLeft),
		Group(),
		Op("+", PrefixUnary),
		Op("-", PrefixUnary),
		Group(),
		Op("=~", BinaryLeft),
		Op("!~", BinaryLeft),
		Group(),
		Op("*", BinaryLeft),
		Op("/", BinaryLeft),
		Op("mod", BinaryLeft),
		Group(),
		Op("+", BinaryLeft),
		Op("-", BinaryLeft),
		Group(),
		Op(">", BinaryLeft),
		Op("<", BinaryLeft),
		Op(">=", BinaryLeft),
		Op("<=", BinaryLeft),
		Op("!=", BinaryLeft),
		Op("=", BinaryLeft),
		Op("in", BinaryLeft),
		Group(),
		Op("not", PrefixUnary),
		Group(),
		Op("and", BinaryLeft),
		Group(),
		Op("or", BinaryLeft),
		Group(),
		Op("->", BinaryRight),
	}
}
