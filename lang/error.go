package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Error kinds. Every error returned by this package matches exactly one of
// these with [errors.Is], and the resolution kinds also match
// [ErrFunctionResolution].
var (
	ErrInvalidOperatorTable = NewError("invalid operator table")
	ErrInvalidOption        = NewError("invalid engine option")
	ErrLexical              = NewError("lexical error")
	ErrGrammar              = NewError("grammar error")

	ErrFunctionResolution = NewError("function resolution failed")
	ErrNoFunction         = ErrFunctionResolution.kindOf("unknown function")
	ErrNoMethod           = ErrFunctionResolution.kindOf("unknown method")
	ErrNoMatchingFunction = ErrFunctionResolution.kindOf("no matching function")
	ErrNoMatchingMethod   = ErrFunctionResolution.kindOf("no matching method")
	ErrAmbiguousFunction  = ErrFunctionResolution.kindOf("ambiguous function")
	ErrAmbiguousMethod    = ErrFunctionResolution.kindOf("ambiguous method")

	ErrArgument           = NewError("invalid argument")
	ErrArgumentValue      = NewError("invalid argument value")
	ErrMappingTranslation = NewError("invalid named argument")
	ErrInvalidMethod      = NewError("invalid method definition")
	ErrInvalidDefinition  = NewError("invalid function definition")

	ErrCollectionTooLarge  = NewError("collection too large")
	ErrMemoryQuotaExceeded = NewError("memory quota exceeded")

	ErrWrapped       = NewError("wrapped execution error")
	ErrStopIteration = NewError("sequence exhausted")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
//
// Errors derived from a predefined kind with [Error.Wrap], [Error.With] or
// [Error.Describe] still match that kind (and its parent kinds) with
// [errors.Is].
type Error struct {
	kind   *Error // Predefined error this one was derived from
	parent *Error // Enclosing kind, for umbrella matching
	msg    string
	detail string
	err    error       // Wrapped error (for errors.Unwrap)
	attrs  []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error kind with a message.
func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.kind = e

	return e
}

func (e *Error) kindOf(msg string) *Error {
	k := NewError(msg)
	k.parent = e.kind

	return k
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message from whichever fields are set:
	//
	//   "<msg>: <detail>: <err>"
	part := make([]string, 0, 3)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.detail != "" {
		part = append(part, e.detail)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the kind of e or one of its enclosing kinds.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.kind == nil {
		return false
	}

	for k := e.kind; k != nil; k = k.parent {
		if k == t.kind {
			return true
		}
	}

	return false
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+3)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.detail != "" {
		attrs = append(attrs, slog.String("detail", e.detail))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.err = err

	return &c
}

// Describe creates a new Error with a formatted detail message appended to
// the base message.
func (e *Error) Describe(format string, args ...any) *Error {
	c := *e
	c.detail = fmt.Sprintf(format, args...)

	return &c
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	c := *e
	c.attrs = newAttrs

	return &c
}

// LexicalError reports a character the lexer cannot scan.
type LexicalError struct {
	Source   string
	Char     rune
	Position int // Byte offset of Char in Source
}

// Error implements the error interface.
func (e *LexicalError) Error() string {
	msg := "lexical error: illegal character " + strconv.QuoteRune(e.Char) +
		" at position " + strconv.Itoa(e.Position)

	return msg + snippet(e.Source, e.Position)
}

// Unwrap returns [ErrLexical].
func (e *LexicalError) Unwrap() error { return ErrLexical }

// GrammarError reports an unexpected token or an unexpected end of input.
// At end of input Value is nil and Position is -1.
type GrammarError struct {
	Value    any
	Source   string
	Position int
}

// Error implements the error interface.
func (e *GrammarError) Error() string {
	if e.Position < 0 {
		return "grammar error: unexpected end of expression"
	}

	return fmt.Sprintf("grammar error: unexpected %v at position %d",
		formatToken(e.Value), e.Position) + snippet(e.Source, e.Position)
}

// Unwrap returns [ErrGrammar].
func (e *GrammarError) Unwrap() error { return ErrGrammar }

func formatToken(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}

	return fmt.Sprint(v)
}

// snippet renders the line of source containing the byte offset pos with a
// caret marker underneath it.
func snippet(source string, pos int) string {
	if source == "" || pos < 0 || pos > len(source) {
		return ""
	}

	start := strings.LastIndexByte(source[:pos], '\n') + 1

	end := strings.IndexByte(source[pos:], '\n')
	if end < 0 {
		end = len(source)
	} else {
		end += pos
	}

	var buf strings.Builder

	buf.WriteString(":\n  | ")
	buf.WriteString(source[start:end])
	buf.WriteString("\n  | ")
	buf.WriteString(strings.Repeat(" ", len([]rune(source[start:pos]))))
	buf.WriteString("^")

	return buf.String()
}

// argumentError reports a parameter whose value failed validation.
func argumentError(param string) *Error {
	return ErrArgument.Describe("parameter %q", param).
		With(slog.String("parameter", param))
}
