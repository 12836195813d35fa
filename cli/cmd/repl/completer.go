package repl

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/yaql/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "vars", "funcs", "edit", "clear", "quit"}

// isWordRune reports whether r can be part of a completed word: letters,
// digits, the underscore and the "$" of data names.
func isWordRune(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// wordBounds returns the word at the cursor and its byte boundaries within
// input. The word is empty when the cursor sits between two non-word runes.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isWordRune(r) {
			break
		}

		start -= size
	}

	end = cursor
	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if !isWordRune(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// memberChain returns the member-access chain ending in the "." just before
// wordStart, such as "$.pods.containers" for "len($.pods.containers.na".
// It returns "" when the word does not follow a ".".
func memberChain(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimSuffix(prefix, ".")
	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && !isWordRune(r) {
			break
		}

		pos -= size
	}

	return strings.Trim(prefix[pos:], ".")
}

// resolveChain walks a chain of "$name" followed by dictionary keys through
// the data stored in c. It reports false when any step is missing or the
// chain does not start with a data name.
func resolveChain(c lang.Context, chain string) (any, bool) {
	parts := strings.Split(chain, ".")
	if !strings.HasPrefix(parts[0], "$") {
		return nil, false
	}

	v, ok := c.Get(parts[0])
	if !ok {
		return nil, false
	}

	for _, key := range parts[1:] {
		m, isMap := v.(map[string]any)
		if !isMap {
			return nil, false
		}

		if v, ok = m[key]; !ok {
			return nil, false
		}
	}

	return v, true
}

// functionNames returns the public function names visible from c. Names
// starting with "#" are internal.
func functionNames(c lang.Context, methods bool) []string {
	var names []string

	for _, name := range lang.AllFunctionNames(c) {
		if strings.HasPrefix(name, "#") {
			continue
		}

		if methods && len(lang.CollectFunctions(c, name, isMethod)) == 0 {
			continue
		}

		names = append(names, name)
	}

	return names
}

func isMethod(fd *lang.FunctionDefinition, _ lang.Context) bool { return fd.IsMethod }

// dataNames returns the data names visible from c, with "$" for the input.
func dataNames(c lang.Context) []string {
	names := []string{"$"}

	for _, key := range lang.AllKeys(c) {
		if key != lang.NormalizeName("$") {
			names = append(names, key)
		}
	}

	return names
}

// candidates returns the completions for a word following chain. After a
// dictionary the candidates are its keys; after any other value they are
// method names. At the top level they are data and function names.
func candidates(c lang.Context, chain string) []string {
	if chain == "" {
		return append(dataNames(c), functionNames(c, false)...)
	}

	if v, ok := resolveChain(c, chain); ok {
		if m, isMap := v.(map[string]any); isMap {
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}

			slices.Sort(keys)

			return keys
		}
	}

	return functionNames(c, true)
}

// computeMatches returns the fuzzy matches for the word at the cursor,
// ranked best first, and the word boundaries. An empty word only lists
// candidates after a ".", so that the hint line stays visible otherwise.
func (m model) computeMatches() (matches fuzzy.Matches, wordStart, wordEnd int) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())

	var list []string

	if m.mode == modeCtrl {
		if word == "" {
			return nil, wordStart, wordEnd
		}

		list = ctrlCommands
	} else {
		chain := memberChain(input, wordStart)
		list = candidates(m.scope, chain)

		if word == "" {
			if chain == "" {
				return nil, wordStart, wordEnd
			}

			matches = make(fuzzy.Matches, len(list))
			for i, s := range list {
				matches[i] = fuzzy.Match{Str: s, Index: i}
			}

			return matches, wordStart, wordEnd
		}
	}

	return fuzzy.Find(word, list), wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// width. The selected candidate is highlighted while tab-cycling.
func renderCandidateBar(matches fuzzy.Matches, selected int, width int) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")

	var b strings.Builder

	used := 0

	for i, match := range matches {
		s := renderCandidate(match, i == selected)

		w := lipgloss.Width(s)
		if i > 0 {
			w += len(sep)
		}

		if i > 0 && used+w+lipgloss.Width(ellipsis) > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(s)

		used += w
	}

	return b.String()
}

// renderCandidate renders a candidate with its matched characters in bold.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base := suggestionStyle
	if selected {
		base = selectedStyle
	}

	bold := base.Bold(true)

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(bold.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	return b.String()
}
