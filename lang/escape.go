package lang

import (
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/runenames"
)

// runesByName maps upper-case Unicode character names to their runes.
var runesByName = sync.OnceValue(func() map[string]rune {
	names := make(map[string]rune, 1<<15)

	for _, table := range unicode.Categories {
		for _, r16 := range table.R16 {
			for r := rune(r16.Lo); r <= rune(r16.Hi); r += rune(r16.Stride) {
				addRuneName(names, r)
			}
		}

		for _, r32 := range table.R32 {
			for r := rune(r32.Lo); r <= rune(r32.Hi); r += rune(r32.Stride) {
				addRuneName(names, r)
			}
		}
	}

	return names
})

func addRuneName(names map[string]rune, r rune) {
	name := runenames.Name(r)
	if name == "" || strings.HasPrefix(name, "<") {
		return
	}

	if _, ok := names[name]; !ok {
		names[name] = r
	}
}

// unescape decodes the backslash escapes of a quoted string body that starts
// at byte offset base in the source.
//
// Recognized escapes are \\ \' \" \a \b \f \n \r \t \v, one to three octal
// digits, \xhh, \uhhhh, \Uhhhhhhhh and \N{NAME}. Any other backslash is kept
// verbatim together with the character following it.
func unescape(source, body string, base int) (string, error) {
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}

	var buf strings.Builder

	buf.Grow(len(body))

	for i := 0; i < len(body); {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			buf.WriteByte(c)
			i++

			continue
		}

		at := i
		e := body[i+1]
		i += 2

		switch e {
		case '\\', '\'', '"':
			buf.WriteByte(e)
		case 'a':
			buf.WriteByte('\a')
		case 'b':
			buf.WriteByte('\b')
		case 'f':
			buf.WriteByte('\f')
		case 'n':
			buf.WriteByte('\n')
		case 'r':
			buf.WriteByte('\r')
		case 't':
			buf.WriteByte('\t')
		case 'v':
			buf.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			end := i - 1
			for end < len(body) && end < i+2 && isOctal(body[end]) {
				end++
			}

			n, _ := strconv.ParseUint(body[i-1:end], 8, 32)
			buf.WriteRune(rune(n))

			i = end
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if i+width > len(body) {
				return "", escapeError(source, base+at)
			}

			n, err := strconv.ParseUint(body[i:i+width], 16, 32)
			if err != nil || !utf8.ValidRune(rune(n)) {
				return "", escapeError(source, base+at)
			}

			buf.WriteRune(rune(n))

			i += width
		case 'N':
			end := strings.IndexByte(body[i:], '}')
			if i >= len(body) || body[i] != '{' || end < 0 {
				return "", escapeError(source, base+at)
			}

			r, ok := runesByName()[strings.ToUpper(body[i+1:i+end])]
			if !ok {
				return "", escapeError(source, base+at)
			}

			buf.WriteRune(r)

			i += end + 1
		default:
			buf.WriteByte('\\')
			buf.WriteByte(e)
		}
	}

	return buf.String(), nil
}

func isOctal(c byte) bool { return c >= '0' && c <= '7' }

func escapeError(source string, pos int) error {
	return &LexicalError{
		Source:   source,
		Char:     '\\',
		Position: pos,
	}
}
