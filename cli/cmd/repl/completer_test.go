package repl

import (
	"slices"
	"testing"

	"github.com/ardnew/yaql/lang"
)

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"data_name", "$foo", 4, "$foo", 0, 4},
		{"after_member_dot", "$.pods", 6, "pods", 2, 6},
		{"after_operator", "$a + le", 7, "le", 5, 7},
		{"after_paren", "len(ke", 6, "ke", 4, 6},
		{"after_comma", "max(1, mi", 9, "mi", 7, 9},
		{"after_arrow", "x => fo", 7, "fo", 5, 7},
		{"empty_at_boundary", "1 + ", 4, "", 4, 4},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"underscore", "is_set", 6, "is_set", 0, 6},
		{"empty_after_dot", "$.", 2, "", 2, 2},
		{"cursor_past_end", "abc", 10, "abc", 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("expected (%q, %d, %d), got (%q, %d, %d)",
					tt.wantWord, tt.wantStart, tt.wantEnd, word, start, end)
			}
		})
	}
}

func TestMemberChain(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wordStart int
		want      string
	}{
		{"top_level", "fo", 0, ""},
		{"input", "$.", 2, "$"},
		{"nested", "$.pods.containers.", 18, "$.pods.containers"},
		{"after_operator", "1 + $.a.", 8, "$.a"},
		{"inside_call", "len($.a.b.", 10, "$.a.b"},
		{"no_dot", "a + ", 4, ""},
		{"method_receiver", "[1, 2].", 7, ""},
		{"named_data", "$cfg.log.", 9, "$cfg.log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := memberChain(tt.input, tt.wordStart); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func testScope(t *testing.T) lang.Context {
	t.Helper()

	c := lang.NewContext()
	c.Set("$", map[string]any{
		"pods": map[string]any{
			"replicas": int64(3),
			"name":     "web",
		},
		"items": []any{int64(1)},
	})
	c.Set("cfg", map[string]any{"debug": true})

	noop := func([]any, map[string]any) (any, error) { return nil, nil }

	defs := []*lang.FunctionDefinition{
		lang.Define("len").Param("v", lang.Any()).ExtensionMethod().MustBuild(noop),
		lang.Define("upper").Param("s", lang.String()).Method().MustBuild(noop),
		lang.Define("#indexer").Param("v", lang.Any()).MustBuild(noop),
	}

	for _, fd := range defs {
		if err := c.Register(fd); err != nil {
			t.Fatalf("register %s: %v", fd.Name, err)
		}
	}

	return c.CreateChild()
}

func TestCandidates(t *testing.T) {
	c := testScope(t)

	tests := []struct {
		name  string
		chain string
		want  []string
	}{
		{"top_level", "", []string{"$", "$cfg", "len", "upper"}},
		{"input_keys", "$", []string{"items", "pods"}},
		{"nested_keys", "$.pods", []string{"name", "replicas"}},
		{"named_data", "$cfg", []string{"debug"}},
		{"list_methods", "$.items", []string{"len", "upper"}},
		{"missing", "$.nothing", []string{"len", "upper"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := candidates(c, tt.chain); !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestComputeMatches(t *testing.T) {
	m := newModel(t.Context(), testEngine(t), testScope(t), NewHistory(""))

	tests := []struct {
		name  string
		mode  inputMode
		input string
		want  []string
	}{
		{"function_prefix", modeEval, "up", []string{"upper"}},
		{"empty_top_level", modeEval, "", nil},
		{"after_dot_lists_all", modeEval, "$.pods.", []string{"name", "replicas"}},
		{"fuzzy_key", modeEval, "$.pods.rp", []string{"replicas"}},
		{"command", modeCtrl, "fu", []string{"funcs"}},
		{"empty_command", modeCtrl, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.mode = tt.mode
			m.input.SetValue(tt.input)
			m.input.CursorEnd()

			matches, _, _ := m.computeMatches()

			var got []string
			for _, match := range matches {
				got = append(got, match.Str)
			}

			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
