package lang

import (
	"cmp"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer scans source text into tokens. Its operator vocabulary is derived
// from an [OperatorTable].
type Lexer struct {
	names   map[string]string // Operator symbol to grammar name
	words   map[string]bool   // Operator symbols spelled as identifiers
	symbols []string          // Punctuation operator symbols, longest first
	mapping string
}

// NewLexer returns a lexer for the operators of table.
func NewLexer(table *OperatorTable) *Lexer {
	l := &Lexer{
		names:   make(map[string]string, len(table.Operators)),
		words:   make(map[string]bool),
		mapping: table.Mapping,
	}

	for symbol, op := range table.Operators {
		if op.Name == IndexerName || op.Name == MapName {
			continue
		}

		l.names[symbol] = op.Name

		if isWord(symbol) {
			l.words[symbol] = true
		} else {
			l.symbols = append(l.symbols, symbol)
		}
	}

	if l.mapping != "" && !isWord(l.mapping) {
		l.symbols = append(l.symbols, l.mapping)
	}

	slices.SortFunc(l.symbols, func(a, b string) int {
		return cmp.Or(cmp.Compare(len(b), len(a)), strings.Compare(a, b))
	})

	return l
}

// Vocabulary returns the token names recognized by l: one per distinct
// operator grammar name followed by the fixed tokens.
func (l *Lexer) Vocabulary() []string {
	vocab := slices.Sorted(maps.Values(l.names))
	vocab = slices.Compact(vocab)

	for k := TokenKeyword; k <= TokenComma; k++ {
		vocab = append(vocab, k.String())
	}

	return vocab
}

// Tokens scans all of source. The final token is always [TokenEOF].
func (l *Lexer) Tokens(source string) ([]Token, error) {
	var tokens []Token

	for pos := 0; ; {
		for pos < len(source) && strings.IndexByte(" \t\r\n", source[pos]) >= 0 {
			pos++
		}

		if pos >= len(source) {
			return append(tokens, Token{Kind: TokenEOF, Pos: pos}), nil
		}

		tok, next, err := l.scan(source, pos)
		if err != nil {
			return nil, err
		}

		tokens = append(tokens, tok)
		pos = next
	}
}

// scan reads the token starting at pos and returns it with the offset of the
// byte following it.
func (l *Lexer) scan(source string, pos int) (Token, int, error) {
	r, size := utf8.DecodeRuneInString(source[pos:])

	switch {
	case r == '$':
		end := scanWord(source, pos+1)

		return Token{Kind: TokenDollar, Value: source[pos:end], Pos: pos}, end, nil

	case isDigit(r):
		return scanNumber(source, pos)

	case isWordStart(r):
		end := scanWord(source, pos)
		word := source[pos:end]

		if end < len(source) && source[end] == '(' {
			return Token{Kind: TokenFunc, Value: word, Pos: pos}, end + 1, nil
		}

		if strings.HasPrefix(word, "__") {
			break
		}

		return l.word(word, pos), end, nil

	case r == '\'' || r == '"':
		return scanQuoted(source, pos, byte(r))

	case r == '`':
		return scanVerbatim(source, pos)
	}

	for _, symbol := range l.symbols {
		if strings.HasPrefix(source[pos:], symbol) {
			end := pos + len(symbol)
			if symbol == l.mapping {
				return Token{Kind: TokenMapping, Value: symbol, Pos: pos}, end, nil
			}

			return Token{
				Kind:  TokenOperator,
				Value: symbol,
				Name:  l.names[symbol],
				Pos:   pos,
			}, end, nil
		}
	}

	if kind, ok := punctuation[r]; ok {
		return Token{Kind: kind, Value: string(r), Pos: pos}, pos + size, nil
	}

	return Token{}, 0, &LexicalError{Source: source, Char: r, Position: pos}
}

var punctuation = map[rune]TokenKind{
	'(': TokenLParen,
	')': TokenRParen,
	'[': TokenIndexer,
	']': TokenRBracket,
	'{': TokenMap,
	'}': TokenRBrace,
	',': TokenComma,
}

// word classifies an identifier that is not a function call head.
func (l *Lexer) word(word string, pos int) Token {
	switch {
	case l.words[word]:
		return Token{Kind: TokenOperator, Value: word, Name: l.names[word], Pos: pos}
	case word == l.mapping:
		return Token{Kind: TokenMapping, Value: word, Pos: pos}
	case word == "true":
		return Token{Kind: TokenTrue, Value: true, Pos: pos}
	case word == "false":
		return Token{Kind: TokenFalse, Value: false, Pos: pos}
	case word == "null":
		return Token{Kind: TokenNull, Value: nil, Pos: pos}
	default:
		return Token{Kind: TokenKeyword, Value: word, Pos: pos}
	}
}

func scanNumber(source string, pos int) (Token, int, error) {
	end := pos
	for end < len(source) && isDigit(rune(source[end])) {
		end++
	}

	float := false

	if end+1 < len(source) && source[end] == '.' && isDigit(rune(source[end+1])) {
		float = true
		end++

		for end < len(source) && isDigit(rune(source[end])) {
			end++
		}
	}

	if end < len(source) {
		if r, _ := utf8.DecodeRuneInString(source[end:]); isWordPart(r) {
			return Token{}, 0, &LexicalError{Source: source, Char: r, Position: end}
		}
	}

	text := source[pos:end]
	tok := Token{Kind: TokenNumber, Pos: pos}

	if float {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Token{}, 0, &LexicalError{Source: source, Char: rune(text[0]), Position: pos}
		}

		tok.Value = v
	} else {
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			f, _ := strconv.ParseFloat(text, 64)
			tok.Value = f
		} else {
			tok.Value = v
		}
	}

	return tok, end, nil
}

func scanQuoted(source string, pos int, quote byte) (Token, int, error) {
	for i := pos + 1; i < len(source); i++ {
		switch source[i] {
		case '\\':
			i++
		case quote:
			value, err := unescape(source, source[pos+1:i], pos+1)
			if err != nil {
				return Token{}, 0, err
			}

			return Token{Kind: TokenString, Value: value, Pos: pos}, i + 1, nil
		}
	}

	return Token{}, 0, &LexicalError{Source: source, Char: rune(quote), Position: pos}
}

func scanVerbatim(source string, pos int) (Token, int, error) {
	for i := pos + 1; i < len(source); i++ {
		switch source[i] {
		case '\\':
			if i+1 < len(source) && source[i+1] == '`' {
				i++
			}
		case '`':
			value := strings.ReplaceAll(source[pos+1:i], "\\`", "`")

			return Token{Kind: TokenString, Value: value, Pos: pos}, i + 1, nil
		}
	}

	return Token{}, 0, &LexicalError{Source: source, Char: '`', Position: pos}
}

func scanWord(source string, pos int) int {
	for pos < len(source) {
		r, size := utf8.DecodeRuneInString(source[pos:])
		if !isWordPart(r) {
			break
		}

		pos += size
	}

	return pos
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isWordStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isWordPart(r rune) bool {
	return isWordStart(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

func isWord(s string) bool {
	for i, r := range s {
		if (i == 0 && !isWordStart(r)) || !isWordPart(r) {
			return false
		}
	}

	return s != ""
}
