package repl

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/yaql/lang"
	"github.com/ardnew/yaql/std"
)

func testModel(t *testing.T) model {
	t.Helper()

	c := std.NewContext().CreateChild()
	c.Set("$", map[string]any{"a": int64(2), "b": []any{int64(1), int64(2)}})

	return newModel(t.Context(), testEngine(t), c, NewHistory(""))
}

func typeText(m model, s string) model {
	for _, r := range s {
		m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	return m
}

func TestEvaluate(t *testing.T) {
	m := testModel(t)

	tests := []struct {
		source string
		want   string
	}{
		{"$.a + 1", "3"},
		{"$.b.select($ * 10)", "[10, 20]"},
		{"len($.b)", "2"},
		{"1 +", "end of expression"},
		{"$.a.nothing()", "error:"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := m.evaluate(tt.source); !strings.Contains(got, tt.want) {
				t.Errorf("expected %q in %q", tt.want, got)
			}
		})
	}
}

func TestModeToggle(t *testing.T) {
	m := typeText(testModel(t), "$.a")

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeCtrl || m.input.Value() != "" {
		t.Fatalf("expected empty command mode, got mode %d input %q", m.mode, m.input.Value())
	}

	m = typeText(m, "vars")

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeEval || m.input.Value() != "$.a" {
		t.Errorf("expected the expression restored, got mode %d input %q", m.mode, m.input.Value())
	}

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	if m.input.Value() != "vars" {
		t.Errorf("expected the command restored, got %q", m.input.Value())
	}
}

func TestHistoryNavigation(t *testing.T) {
	m := testModel(t)

	for _, line := range []string{"$.a", "$.b"} {
		m = typeText(m, line)
		m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEnter})
	}

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	m = typeText(m, "help")
	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})

	if m.history.Len() != 3 {
		t.Fatalf("expected 3 history entries, got %d", m.history.Len())
	}

	// Up follows the entry's mode.
	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyUp})
	if m.mode != modeCtrl || m.input.Value() != "help" {
		t.Errorf("expected command help, got mode %d input %q", m.mode, m.input.Value())
	}

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyUp})
	if m.mode != modeEval || m.input.Value() != "$.b" {
		t.Errorf("expected expression $.b, got mode %d input %q", m.mode, m.input.Value())
	}

	// Shift+Down stays in eval mode, so it runs off the end.
	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyShiftDown})
	if m.input.Value() != "" || m.historyIdx != m.history.Len() {
		t.Errorf("expected a cleared input, got %q at %d", m.input.Value(), m.historyIdx)
	}
}

func TestTabCompletion(t *testing.T) {
	m := typeText(testModel(t), "$.b.sel")

	if len(m.matches) == 0 {
		t.Fatalf("expected candidates for %q", m.input.Value())
	}

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyTab})

	if m.matches != nil && !m.tabActive {
		t.Fatalf("expected tab to complete or start cycling")
	}

	if got := m.input.Value(); !strings.HasPrefix(got, "$.b.") || got == "$.b.sel" {
		t.Errorf("expected a completed method name, got %q", got)
	}
}

func TestListFuncs(t *testing.T) {
	out := testModel(t).listFuncs("le")

	if !strings.Contains(out, "len") {
		t.Errorf("expected len in %q", out)
	}

	if strings.Contains(out, "#") {
		t.Errorf("expected no internal names in %q", out)
	}
}

func TestListVars(t *testing.T) {
	m := testModel(t)
	m.scope.Set("x", lang.NewSet(int64(1)))

	out := m.listVars()

	for _, want := range []string{"$ ", "$x", "set(1)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}
