package lang

//go:generate go tool stringer --linecomment --type TokenKind --output token_string.go

// TokenKind classifies a scanned token.
type TokenKind int

const (
	TokenEOF      TokenKind = iota // end of input
	TokenKeyword                   // KEYWORD_STRING
	TokenString                    // QUOTED_STRING
	TokenNumber                    // NUMBER
	TokenFunc                      // FUNC
	TokenDollar                    // DOLLAR
	TokenIndexer                   // INDEXER
	TokenMap                       // MAP
	TokenMapping                   // MAPPING
	TokenTrue                      // TRUE
	TokenFalse                     // FALSE
	TokenNull                      // NULL
	TokenLParen                    // (
	TokenRParen                    // )
	TokenRBracket                  // ]
	TokenRBrace                    // }
	TokenComma                     // ,
	TokenOperator                  // OP
)

// Token is one scanned lexeme.
type Token struct {
	Value any    // Decoded literal, identifier, or operator symbol
	Name  string // Grammar name of an operator token
	Kind  TokenKind
	Pos   int // Byte offset in the source
}

// display returns the value reported for t in grammar errors.
func (t Token) display() any {
	switch t.Kind {
	case TokenEOF:
		return nil
	case TokenIndexer:
		return "["
	case TokenMap:
		return "{"
	case TokenTrue:
		return true
	case TokenFalse:
		return false
	case TokenNull:
		return "null"
	case TokenLParen, TokenRParen, TokenRBracket, TokenRBrace, TokenComma:
		return t.Kind.String()
	default:
		return t.Value
	}
}
