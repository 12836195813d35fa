package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/ardnew/yaql/lang"
	"github.com/ardnew/yaql/pkg"
)

func defaultEngine() *Engine {
	return &Engine{LimitIterators: -1, MemoryQuota: -1}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestEngineOptions(t *testing.T) {
	f := Engine{LimitIterators: 10, MemoryQuota: 1024, NoConvertSets: true, Debug: true}

	opts := f.Options()

	want := lang.Options{
		LimitIterators:       10,
		MemoryQuota:          1024,
		ConvertSetsToLists:   false,
		ConvertTuplesToLists: true,
		ConvertInputData:     true,
		Debug:                true,
	}

	if opts != want {
		t.Errorf("expected %+v, got %+v", want, opts)
	}
}

func TestEngineBuildWithout(t *testing.T) {
	f := defaultEngine()
	f.Without = []string{"strings"}

	_, c, err := f.Build(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	if len(lang.CollectFunctions(c, "concat", nil)) != 0 {
		t.Errorf("expected the strings group to be left out")
	}

	if len(lang.CollectFunctions(c, "#operator_+", nil)) == 0 {
		t.Errorf("expected arithmetic to be registered")
	}
}

func TestInputLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"yaml", "data.yaml", "a: 1\nb: [x, y]\n", `{"a" => 1, "b" => ["x", "y"]}`},
		{"json", "data.json", `{"a": 1.5, "b": null}`, `{"a" => 1.5, "b" => null}`},
		{"scalar", "data.yaml", "42", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{Data: writeFile(t, tt.file, tt.content)}

			v, err := in.Load(t.Context())
			if err != nil {
				t.Fatal(err)
			}

			if got := lang.Format(lang.ConvertInputData(v)); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	t.Run("none", func(t *testing.T) {
		v, err := (&Input{}).Load(t.Context())
		if err != nil || v != nil {
			t.Errorf("expected no data, got %v, %v", v, err)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		in := Input{Data: writeFile(t, "bad.yaml", "a: [1, 2")}

		if _, err := in.Load(t.Context()); !errors.Is(err, ErrLoadData) {
			t.Errorf("expected ErrLoadData, got %v", err)
		}
	})
}

func TestInputBind(t *testing.T) {
	in := Input{Var: map[string]string{
		"n":     "3",
		"$name": "web",
		"tags":  "[a, b]",
	}}

	c := lang.NewContext()
	if err := in.Bind(c); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		want string
	}{
		{"$n", "3"},
		{"$name", `"web"`},
		{"tags", `["a", "b"]`},
	}

	for _, tt := range tests {
		v, ok := c.Get(tt.name)
		if !ok {
			t.Errorf("expected %s to be bound", tt.name)

			continue
		}

		if got := lang.Format(v); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}

	bad := Input{Var: map[string]string{"$": "1"}}
	if err := bad.Bind(lang.NewContext()); !errors.Is(err, ErrInvalidVar) {
		t.Errorf("expected ErrInvalidVar, got %v", err)
	}
}

func TestOutputWrite(t *testing.T) {
	v := map[string]any{"a": []any{int64(1), int64(2)}}

	tests := []struct {
		output string
		indent int
		want   string
	}{
		{"native", 2, `{"a" => [1, 2]}` + "\n"},
		{"json", 0, `{"a":[1,2]}` + "\n"},
		{"json", 2, "{\n  \"a\": [\n    1,\n    2\n  ]\n}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			var buf bytes.Buffer

			o := Output{Output: tt.output, Indent: tt.indent}
			if err := o.Write(t.Context(), &buf, v); err != nil {
				t.Fatal(err)
			}

			if buf.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, buf.String())
			}
		})
	}

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer

		o := Output{Output: "yaml", Indent: 2}
		if err := o.Write(t.Context(), &buf, v); err != nil {
			t.Fatal(err)
		}

		if !strings.HasPrefix(buf.String(), "a:") {
			t.Errorf("expected block YAML, got %q", buf.String())
		}
	})
}

func TestEvalRun(t *testing.T) {
	data := writeFile(t, "data.yaml", "items:\n  - {name: a, n: 1}\n  - {name: b, n: 5}\n")

	tests := []struct {
		name    string
		eval    Eval
		want    string
		wantErr error
	}{
		{
			name: "expression",
			eval: Eval{Expression: "1 + 2 * 3"},
			want: "7\n",
		},
		{
			name: "data",
			eval: Eval{Input: Input{Data: data}, Expression: "$.items.where($.n > 2).select($.name)"},
			want: `["b"]` + "\n",
		},
		{
			name: "vars",
			eval: Eval{Input: Input{Var: map[string]string{"x": "10"}}, Expression: "$x + 1"},
			want: "11\n",
		},
		{
			name: "json",
			eval: Eval{Input: Input{Data: data}, Output: Output{Output: "json"}, Expression: "$.items.first().name"},
			want: `"a"` + "\n",
		},
		{
			name: "file",
			eval: Eval{File: writeFile(t, "expr.yaql", "len([1, 2, 3])\n")},
			want: "3\n",
		},
		{
			name:    "grammar",
			eval:    Eval{Expression: "1 +"},
			wantErr: lang.ErrGrammar,
		},
		{
			name:    "missing",
			eval:    Eval{},
			wantErr: lang.ErrArgument,
		},
		{
			name:    "no_method",
			eval:    Eval{Expression: "'a'.nothing()"},
			wantErr: lang.ErrFunctionResolution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			err := tt.eval.Run(t.Context(), defaultEngine(), &buf)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if buf.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, buf.String())
			}
		})
	}
}

func TestEvalLimitIterators(t *testing.T) {
	f := defaultEngine()
	f.LimitIterators = 3

	x := Eval{Expression: "range(10).toList()"}

	var buf bytes.Buffer
	if err := x.Run(t.Context(), f, &buf); !errors.Is(err, lang.ErrCollectionTooLarge) {
		t.Errorf("expected ErrCollectionTooLarge, got %v (%s)", err, buf.String())
	}
}

func TestASTRun(t *testing.T) {
	var buf bytes.Buffer

	a := AST{Expression: "$.a + 1"}
	if err := a.Run(t.Context(), defaultEngine(), &buf); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) < 3 || !strings.HasPrefix(lines[0], "#operator_+") {
		t.Fatalf("unexpected tree:\n%s", buf.String())
	}

	for _, line := range lines[1:] {
		if !strings.HasPrefix(line, "  ") {
			t.Errorf("expected operands to be indented, got %q", line)
		}
	}

	buf.Reset()

	a.Flat = true
	if err := a.Run(t.Context(), defaultEngine(), &buf); err != nil {
		t.Fatal(err)
	}

	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("expected one line, got %q", buf.String())
	}
}

func TestFmtRun(t *testing.T) {
	src := writeFile(t, "in.yaml", "b: [1, 2]\na: x\n")

	var buf bytes.Buffer

	j := JSON{Indent: 0, Source: src}
	if err := j.Run(t.Context(), &buf); err != nil {
		t.Fatal(err)
	}

	if want := `{"a":"x","b":[1,2]}` + "\n"; buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}

	buf.Reset()

	y := YAML{Indent: 2, Source: writeFile(t, "in.json", `{"a": {"b": true}}`)}
	if err := y.Run(t.Context(), &buf); err != nil {
		t.Fatal(err)
	}

	if want := "a:\n  b: true\n"; buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestVersionRun(t *testing.T) {
	var buf bytes.Buffer

	if err := (&Version{}).Run(&buf); err != nil {
		t.Fatal(err)
	}

	if want := pkg.Name + " " + pkg.Version() + "\n"; buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}

	buf.Reset()

	if err := (&Version{Short: true}).Run(&buf); err != nil {
		t.Fatal(err)
	}

	if buf.String() != pkg.Version()+"\n" {
		t.Errorf("expected the bare version, got %q", buf.String())
	}
}

// initCLI mirrors the global flags that init writes out.
type initCLI struct {
	Level  string `default:"info"`
	Engine Engine `embed:""`
	Init   Init   `cmd:""`
}

func TestInitRun(t *testing.T) {
	tests := []struct {
		name    string
		force   bool
		exists  bool
		wantErr error
	}{
		{"create", false, false, nil},
		{"overwrite_with_force", true, true, nil},
		{"refuse_without_force", false, true, ErrFileExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")

			if tt.exists {
				if err := os.WriteFile(path, []byte("old: true\n"), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			var cli initCLI

			parser, err := kong.New(&cli, kong.Vars{ConfigIdentifier: path}, EngineVars())
			if err != nil {
				t.Fatal(err)
			}

			args := []string{"--level=debug", "--without=host", "init"}
			if tt.force {
				args = append(args, "--force")
			}

			ktx, err := parser.Parse(args)
			if err != nil {
				t.Fatal(err)
			}

			err = cli.Init.Run(WithContext(t.Context(), ktx))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatal(err)
			}

			buf, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}

			for _, want := range []string{"level: debug", "limit-iterators: -1", "- host", "delegates: false"} {
				if !strings.Contains(string(buf), want) {
					t.Errorf("expected %q in:\n%s", want, buf)
				}
			}

			if strings.Contains(string(buf), "help") || strings.Contains(string(buf), "old") {
				t.Errorf("unexpected content:\n%s", buf)
			}
		})
	}
}
