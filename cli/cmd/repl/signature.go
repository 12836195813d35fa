package repl

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/yaql/lang"
)

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall is the call whose argument list contains the cursor.
type functionCall struct {
	name     string
	argIndex int  // 0-based index of the argument at the cursor
	method   bool // called as receiver.name(...)
	inCall   bool
}

// detectFunctionCall finds the innermost unclosed call before cursor.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(max(cursor, 0), len(input))

	open, depth := -1, 0

	for i := cursor - 1; i >= 0 && open < 0; i-- {
		switch input[i] {
		case ')', ']', '}':
			depth++
		case '(', '[', '{':
			if depth == 0 {
				if input[i] != '(' {
					return functionCall{}
				}

				open = i
			}

			depth--
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isWordRune(r) || r == '$' {
			break
		}

		start -= size
	}

	// A "$name(" call goes through a delegate stored in data.
	name := input[start:open]
	if name == "" || (start > 0 && input[start-1] == '$') {
		return functionCall{}
	}

	call := functionCall{
		name:   name,
		method: start > 0 && input[start-1] == '.',
		inCall: true,
	}

	depth = 0

	for _, r := range input[open+1 : cursor] {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				call.argIndex++
			}
		}
	}

	return call
}

// signature returns the parameter names of the first definition of call
// visible from c, and the number of other overloads. Injected parameters
// are left out, as is the receiver of a method call.
func signature(c lang.Context, call functionCall) (params []string, others int, ok bool) {
	pred := func(fd *lang.FunctionDefinition, _ lang.Context) bool {
		if call.method {
			return fd.IsMethod
		}

		return fd.IsFunction
	}

	var defs []*lang.FunctionDefinition
	for _, layer := range lang.CollectFunctions(c, call.name, pred) {
		defs = append(defs, layer...)
	}

	if len(defs) == 0 {
		return nil, 0, false
	}

	fd := defs[0]

	formal := slices.Clone(fd.Parameters)
	slices.SortStableFunc(formal, func(a, b *lang.ParameterDefinition) int {
		return position(a) - position(b)
	})

	receiver := call.method

	for _, p := range formal {
		if lang.IsHidden(p.Type) {
			continue
		}

		if receiver && p.Position >= 0 {
			receiver = false

			continue
		}

		params = append(params, paramText(p))
	}

	return params, len(defs) - 1, true
}

// position orders keyword-only parameters after positional ones.
func position(p *lang.ParameterDefinition) int {
	if p.Position < 0 {
		return 1 << 30
	}

	return p.Position
}

func paramText(p *lang.ParameterDefinition) string {
	switch {
	case p.Name == lang.VarArgs, p.Name == lang.VarKwargs:
		return p.Name
	case p.HasDefault:
		return p.Name + "=" + lang.Format(p.Default)
	default:
		return p.Name
	}
}

// isVariadic reports whether the rendered parameter collects extra
// positional arguments.
func isVariadic(param string) bool { return param == lang.VarArgs }

// renderSignatureHint renders name(params...) with the parameter at argIndex
// highlighted. A variadic parameter stays highlighted for every later
// argument.
func renderSignatureHint(name string, params []string, argIndex, others int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))
	b.WriteString(signatureStyle.Render("("))

	current := argIndex

	for i, p := range params {
		if isVariadic(p) && argIndex >= i {
			current = i

			break
		}
	}

	for i, p := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		if i == current {
			b.WriteString(currentParamStyle.Render(p))
		} else {
			b.WriteString(signatureStyle.Render(p))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	if others > 0 {
		b.WriteString(signatureStyle.Render(fmt.Sprintf("  +%d overloads", others)))
	}

	return b.String()
}
