package lang

import (
	"errors"
	"testing"
	"unicode/utf8"
)

func defaultLexer(t testing.TB) *Lexer {
	t.Helper()

	table, err := BuildOperatorTable(append(
		[]OperatorDecl{Op(DefaultKeywordOperator, NameValuePair)},
		DefaultOperators()...,
	))
	if err != nil {
		t.Fatalf("build table: %v", err)
	}

	return NewLexer(table)
}

func TestLexerTokens(t *testing.T) {
	tests := []struct {
		name   string
		source string
		kinds  []TokenKind
		values []any
	}{
		{
			name:   "integer and float",
			source: "12 3.5",
			kinds:  []TokenKind{TokenNumber, TokenNumber, TokenEOF},
			values: []any{int64(12), 3.5, nil},
		},
		{
			name:   "integer before method",
			source: "4.abs()",
			kinds:  []TokenKind{TokenNumber, TokenOperator, TokenFunc, TokenRParen, TokenEOF},
			values: []any{int64(4), ".", "abs", ")", nil},
		},
		{
			name:   "dollar names",
			source: "$ $x $1",
			kinds:  []TokenKind{TokenDollar, TokenDollar, TokenDollar, TokenEOF},
			values: []any{"$", "$x", "$1", nil},
		},
		{
			name:   "literals",
			source: "true false null",
			kinds:  []TokenKind{TokenTrue, TokenFalse, TokenNull, TokenEOF},
			values: []any{true, false, nil, nil},
		},
		{
			name:   "word operators",
			source: "a and not b",
			kinds:  []TokenKind{TokenKeyword, TokenOperator, TokenOperator, TokenKeyword, TokenEOF},
			values: []any{"a", "and", "not", "b", nil},
		},
		{
			name:   "longest symbol first",
			source: "a >= b => c",
			kinds:  []TokenKind{TokenKeyword, TokenOperator, TokenKeyword, TokenMapping, TokenKeyword, TokenEOF},
			values: []any{"a", ">=", "b", "=>", "c", nil},
		},
		{
			name:   "brackets",
			source: "[{}]",
			kinds:  []TokenKind{TokenIndexer, TokenMap, TokenRBrace, TokenRBracket, TokenEOF},
			values: []any{"[", "{", "}", "]", nil},
		},
		{
			name:   "call head needs adjacent paren",
			source: "f(x) g (y)",
			kinds: []TokenKind{
				TokenFunc, TokenKeyword, TokenRParen,
				TokenKeyword, TokenLParen, TokenKeyword, TokenRParen, TokenEOF,
			},
			values: []any{"f", "x", ")", "g", "(", "y", ")", nil},
		},
		{
			name:   "quoted strings",
			source: `'a\'b' "c\td" ` + "`e\\n`",
			kinds:  []TokenKind{TokenString, TokenString, TokenString, TokenEOF},
			values: []any{"a'b", "c\td", `e\n`, nil},
		},
		{
			name:   "numeric escapes",
			source: `'\x41é\101\N{GREEK SMALL LETTER ALPHA}'`,
			kinds:  []TokenKind{TokenString, TokenEOF},
			values: []any{"AéAα", nil},
		},
	}

	l := defaultLexer(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := l.Tokens(tt.source)
			if err != nil {
				t.Fatalf("tokens: %v", err)
			}

			if len(tokens) != len(tt.kinds) {
				t.Fatalf("expected %d tokens, got %d: %v", len(tt.kinds), len(tokens), tokens)
			}

			for i, tok := range tokens {
				if tok.Kind != tt.kinds[i] {
					t.Errorf("token %d: expected kind %v, got %v", i, tt.kinds[i], tok.Kind)
				}

				if tok.Kind != TokenEOF && tok.Value != tt.values[i] {
					t.Errorf("token %d: expected value %#v, got %#v", i, tt.values[i], tok.Value)
				}
			}
		})
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		position int
	}{
		{"unterminated string", "'abc", 0},
		{"reserved identifier", "a + __b", 4},
		{"number run into word", "3abc", 1},
		{"unknown character", "a # b", 2},
		{"bad escape", `'\N{NO SUCH NAME}'`, 1},
	}

	l := defaultLexer(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Tokens(tt.source)
			if !errors.Is(err, ErrLexical) {
				t.Fatalf("expected %v, got %v", ErrLexical, err)
			}

			var lerr *LexicalError
			if !errors.As(err, &lerr) {
				t.Fatalf("expected *LexicalError, got %T", err)
			}

			if lerr.Position != tt.position {
				t.Errorf("expected position %d, got %d", tt.position, lerr.Position)
			}
		})
	}
}

func TestVocabulary(t *testing.T) {
	vocab := defaultLexer(t).Vocabulary()

	seen := make(map[string]bool, len(vocab))
	for _, name := range vocab {
		if seen[name] {
			t.Errorf("duplicate vocabulary entry %q", name)
		}

		seen[name] = true
	}

	for _, want := range []string{"NUMBER", "FUNC", "MAPPING", "DOLLAR"} {
		if !seen[want] {
			t.Errorf("expected %q in vocabulary %v", want, vocab)
		}
	}
}

// FuzzLexer checks that scanning never panics and that token offsets are
// increasing and within the source.
func FuzzLexer(f *testing.F) {
	f.Add("foo")
	f.Add("123")
	f.Add(`"string"`)
	f.Add("$.where($ > 1)")
	f.Add("f(a => 1, , 2)")
	f.Add(`'\N{LATIN SMALL LETTER A}'`)
	f.Add("`raw\\``")
	f.Add("-123.456")

	l := defaultLexer(f)

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		tokens, err := l.Tokens(input)
		if err != nil {
			if !errors.Is(err, ErrLexical) {
				t.Errorf("unexpected error kind for %q: %v", input, err)
			}

			return
		}

		last := -1

		for i, tok := range tokens {
			if tok.Pos < last || tok.Pos > len(input) {
				t.Errorf("token %d of %q has position %d after %d", i, input, tok.Pos, last)
			}

			last = tok.Pos
		}

		if tokens[len(tokens)-1].Kind != TokenEOF {
			t.Errorf("expected final EOF token for %q", input)
		}
	})
}
