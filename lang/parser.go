package lang

// parser is the state of one parse: a token buffer and a cursor.
type parser struct {
	*Grammar

	source string
	tokens []Token
	pos    int
}

// Parse scans and parses source into an expression tree.
func (g *Grammar) Parse(source string) (Expression, error) {
	tokens, err := g.lexer.Tokens(source)
	if err != nil {
		return nil, err
	}

	p := &parser{Grammar: g, source: source, tokens: tokens}

	x, err := p.expression(0)
	if err != nil {
		return nil, err
	}

	if t := p.peek(); t.Kind != TokenEOF {
		return nil, p.unexpected(t)
	}

	return x, nil
}

func (p *parser) peek() Token { return p.tokens[p.pos] }

func (p *parser) lookahead(n int) Token {
	if p.pos+n < len(p.tokens) {
		return p.tokens[p.pos+n]
	}

	return p.tokens[len(p.tokens)-1]
}

func (p *parser) next() Token {
	t := p.tokens[p.pos]
	if t.Kind != TokenEOF {
		p.pos++
	}

	return t
}

func (p *parser) unexpected(t Token) error {
	if t.Kind == TokenEOF {
		return &GrammarError{Source: p.source, Position: -1}
	}

	return &GrammarError{Value: t.display(), Source: p.source, Position: t.Pos}
}

func (p *parser) expect(kind TokenKind) error {
	if t := p.next(); t.Kind != kind {
		return p.unexpected(t)
	}

	return nil
}

// expression parses operands and operators until an operator binding no
// tighter than rbp.
func (p *parser) expression(rbp int) (Expression, error) {
	left, err := p.prefix(p.next())
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()

		lbp := p.infixPower(t)
		if lbp <= rbp {
			return left, nil
		}

		p.next()

		left, err = p.infix(t, left)
		if err != nil {
			return nil, err
		}
	}
}

// prefix parses the operand starting with t.
func (p *parser) prefix(t Token) (Expression, error) {
	switch t.Kind {
	case TokenNumber, TokenString, TokenTrue, TokenFalse, TokenNull:
		return &Constant{Value: t.Value}, nil

	case TokenKeyword:
		return &KeywordConstant{Name: t.Value.(string)}, nil

	case TokenDollar:
		return &Function{
			Name: "#get_context_data",
			Args: []Expression{&Constant{Value: t.Value}},
		}, nil

	case TokenLParen:
		inner, err := p.expression(0)
		if err != nil {
			return nil, err
		}

		if err := p.expect(TokenRParen); err != nil {
			return nil, err
		}

		return &Wrap{Inner: inner}, nil

	case TokenFunc:
		args, err := p.arguments(TokenRParen)
		if err != nil {
			return nil, err
		}

		return &Function{Name: t.Value.(string), Args: args, UsesReceiver: true}, nil

	case TokenIndexer:
		args, err := p.arguments(TokenRBracket)
		if err != nil {
			return nil, err
		}

		return &Function{Name: "#list", Args: args}, nil

	case TokenMap:
		args, err := p.arguments(TokenRBrace)
		if err != nil {
			return nil, err
		}

		return &Function{Name: "#map", Args: args}, nil

	case TokenOperator:
		op := p.table.Operators[t.Value.(string)]
		if op == nil || op.Unary <= 0 {
			break
		}

		operand, err := p.expression(p.power(op.Unary))
		if err != nil {
			return nil, err
		}

		return &Function{
			Name:   unaryName(op),
			Symbol: op.Symbol,
			Fixity: PrefixUnary,
			Args:   []Expression{operand},
		}, nil
	}

	return nil, p.unexpected(t)
}

// infixPower returns the left binding power of t following an operand, or
// zero if t cannot continue the expression.
func (p *parser) infixPower(t Token) int {
	switch t.Kind {
	case TokenIndexer:
		return p.indexBP
	case TokenLParen:
		return p.callBP
	case TokenOperator:
		op := p.table.Operators[t.Value.(string)]
		if op == nil {
			return 0
		}

		if op.Binary != 0 && (op.Unary >= 0 || p.startsOperand(p.lookahead(1))) {
			return p.power(op.Binary)
		}

		if op.Unary < 0 {
			return p.power(op.Unary)
		}
	}

	return 0
}

// infix applies the operator t to the already parsed left operand.
func (p *parser) infix(t Token, left Expression) (Expression, error) {
	switch t.Kind {
	case TokenIndexer:
		args, err := p.arguments(TokenRBracket)
		if err != nil {
			return nil, err
		}

		return &Function{Name: "#indexer", Args: append([]Expression{left}, args...)}, nil

	case TokenLParen:
		args, err := p.arguments(TokenRParen)
		if err != nil {
			return nil, err
		}

		return &Function{Name: "#call", Args: append([]Expression{left}, args...)}, nil
	}

	op := p.table.Operators[t.Value.(string)]

	if op.Binary == 0 || (op.Unary < 0 && !p.startsOperand(p.peek())) {
		return &Function{
			Name:   unaryName(op),
			Symbol: op.Symbol,
			Fixity: SuffixUnary,
			Args:   []Expression{left},
		}, nil
	}

	fixity, rbp := BinaryLeft, p.power(op.Binary)
	if op.Binary < 0 {
		fixity, rbp = BinaryRight, rbp-1
	}

	right, err := p.expression(rbp)
	if err != nil {
		return nil, err
	}

	return &Function{
		Name:   binaryName(op),
		Symbol: op.Symbol,
		Fixity: fixity,
		Args:   []Expression{left, right},
	}, nil
}

// startsOperand reports whether t can begin an expression.
func (p *parser) startsOperand(t Token) bool {
	switch t.Kind {
	case TokenNumber, TokenString, TokenTrue, TokenFalse, TokenNull,
		TokenKeyword, TokenDollar, TokenLParen, TokenFunc, TokenIndexer, TokenMap:
		return true
	case TokenOperator:
		op := p.table.Operators[t.Value.(string)]

		return op != nil && op.Unary > 0
	default:
		return false
	}
}

// arguments parses a comma separated argument list up to and including the
// closing token. Empty positional slots become [Omitted]; the list may end
// with named arguments, each a "value MAPPING value" pair.
func (p *parser) arguments(closer TokenKind) ([]Expression, error) {
	if p.peek().Kind == closer {
		p.next()

		return nil, nil
	}

	var (
		args  []Expression
		named bool
	)

	for {
		t := p.peek()

		if t.Kind == TokenComma || t.Kind == closer {
			if named {
				return nil, p.unexpected(t)
			}

			args = append(args, Omitted{})
		} else {
			arg, err := p.argument()
			if err != nil {
				return nil, err
			}

			_, isNamed := arg.(*MappingRuleExpression)

			switch {
			case isNamed:
				named = true
			case named:
				return nil, p.unexpected(t)
			}

			args = append(args, arg)
		}

		switch t := p.next(); t.Kind {
		case TokenComma:
		case closer:
			if _, empty := args[len(args)-1].(Omitted); empty {
				return nil, p.unexpected(t)
			}

			return args, nil
		default:
			return nil, p.unexpected(t)
		}
	}
}

// argument parses one positional or named argument.
func (p *parser) argument() (Expression, error) {
	x, err := p.expression(0)
	if err != nil {
		return nil, err
	}

	if p.peek().Kind != TokenMapping {
		return x, nil
	}

	p.next()

	v, err := p.expression(0)
	if err != nil {
		return nil, err
	}

	return &MappingRuleExpression{Source: x, Destination: v}, nil
}
