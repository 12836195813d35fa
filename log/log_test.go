package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}

	return entry
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", LevelDebug},
		{" Info ", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"debug+2", Level(slog.LevelDebug + 2)},
		{"verbose", DefaultLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if got := slices.Collect(Levels()); !slices.Equal(got, []string{"trace", "debug", "info", "warn", "error"}) {
		t.Errorf("unexpected level names %v", got)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"json", FormatJSON},
		{"TEXT", FormatText},
		{"yaml", DefaultFormat},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMakeDefaults(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf)

	if l.Level() != DefaultLevel || l.Format() != DefaultFormat {
		t.Errorf("expected defaults, got level %v format %v", l.Level(), l.Format())
	}

	if l.pretty {
		t.Errorf("expected pretty printing off for a non-terminal writer")
	}

	l.Info("hello", slog.Int("n", 1))

	entry := decode(t, &buf)
	if entry["msg"] != "hello" || entry["level"] != "INFO" || entry["n"] != 1.0 {
		t.Errorf("unexpected entry %v", entry)
	}

	if _, ok := entry["time"]; !ok {
		t.Errorf("expected a timestamp in %v", entry)
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level Level
		want  []string
	}{
		{LevelTrace, []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}},
		{LevelInfo, []string{"INFO", "WARN", "ERROR"}},
		{LevelError, []string{"ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer

			l := Make(&buf, WithLevel(tt.level), WithFormat(FormatText))
			l.Trace("m")
			l.Debug("m")
			l.Info("m")
			l.Warn("m")
			l.Error("m")

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(lines) != len(tt.want) {
				t.Fatalf("expected %d records, got %d:\n%s", len(tt.want), len(lines), buf.String())
			}

			for i, want := range tt.want {
				if !strings.Contains(lines[i], "level="+want) {
					t.Errorf("expected level %s in %q", want, lines[i])
				}
			}

			if l.Allows(t.Context(), LevelDebug) != (tt.level <= LevelDebug) {
				t.Errorf("unexpected Allows result at %v", tt.level)
			}
		})
	}
}

func TestWithCaller(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithCaller(true)).InfoContext(t.Context(), "here")

	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("expected the caller to be this file, got %s", buf.String())
	}

	buf.Reset()
	Make(&buf).Info("here")

	if strings.Contains(buf.String(), `"source"`) {
		t.Errorf("expected no source without WithCaller, got %s", buf.String())
	}
}

func TestTimeLayout(t *testing.T) {
	now := time.Date(2024, 3, 9, 8, 7, 6, 5000000, time.UTC)

	tests := []struct {
		layout string
		want   string
	}{
		{"RFC3339", "2024-03-09T08:07:06Z"},
		{"rfc3339nano", "2024-03-09T08:07:06.005Z"},
		{"kitchen", "8:07AM"},
		{"ms", "Mar  9 08:07:06.005"},
		{"2006/01/02", "2024/03/09"},
		{"none", ""},
		{"  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			if got := makeFormatTimeFunc(tt.layout)(now); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	var buf bytes.Buffer

	Make(&buf, WithTimeLayout("none")).Info("untimed")

	if _, ok := decode(t, &buf)["time"]; ok {
		t.Errorf("expected no time field, got %s", buf.String())
	}
}

func TestWrapAndWith(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf)
	traced := base.Wrap(WithLevel(LevelTrace))

	if base.Level() != LevelInfo || traced.Level() != LevelTrace {
		t.Errorf("expected Wrap to leave the receiver unchanged")
	}

	traced.With(slog.String("eval_id", "x")).Trace("step", slog.Int("depth", 2))

	entry := decode(t, &buf)
	if entry["eval_id"] != "x" || entry["depth"] != 2.0 || entry["level"] != "TRACE" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestPretty(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer

		l := Make(&buf, WithPretty(true), WithFormat(FormatText), WithTimeLayout("none"))
		l.With(slog.String("cmd", "eval")).Warn("slow query", slog.String("expr", "a b"), slog.Bool("cached", false))

		want := `WARN  slow query cmd=eval expr="a b" cached=false` + "\n"
		if got := buf.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer

		l := Make(&buf, WithPretty(true), WithFormat(FormatJSON), WithTimeLayout("none"))
		l.Error("failed", slog.Group("err", slog.String("kind", "grammar"), slog.Int("pos", 3)))

		if !strings.Contains(buf.String(), "\n  \"msg\": \"failed\"") {
			t.Errorf("expected indented output, got %s", buf.String())
		}

		entry := decode(t, &buf)

		group, ok := entry["err"].(map[string]any)
		if !ok || group["kind"] != "grammar" || group["pos"] != 3.0 {
			t.Errorf("unexpected group in %v", entry)
		}
	})
}

func TestZeroValue(t *testing.T) {
	var l Logger

	l.Info("dropped")
	l.TraceContext(t.Context(), "dropped")

	if l.With(slog.String("k", "v")).Logger != nil {
		t.Errorf("expected With on the zero value to stay a no-op")
	}

	if l.Allows(t.Context(), LevelError) {
		t.Errorf("expected the zero value to allow nothing")
	}

	var buf bytes.Buffer

	l.Wrap(WithOutput(&buf)).Info("written")

	if !strings.Contains(buf.String(), "written") {
		t.Errorf("expected Wrap on the zero value to build a working logger")
	}
}

func TestPackageFunctions(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	var buf bytes.Buffer

	SetDefault(Make(&buf))
	Config(WithLevel(LevelDebug), WithFormat(FormatJSON))

	tests := []struct {
		name  string
		fn    func(string, ...slog.Attr)
		level string
	}{
		{"Trace", Trace, ""},
		{"Debug", Debug, "DEBUG"},
		{"Info", Info, "INFO"},
		{"Warn", Warn, "WARN"},
		{"Error", Error, "ERROR"},
		{"ErrorContext", func(msg string, attrs ...slog.Attr) {
			ErrorContext(t.Context(), msg, attrs...)
		}, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn("message", slog.String("key", "value"))

			if tt.level == "" {
				if buf.Len() != 0 {
					t.Errorf("expected nothing below the configured level, got %s", buf.String())
				}

				return
			}

			entry := decode(t, &buf)
			if entry["level"] != tt.level || entry["key"] != "value" {
				t.Errorf("unexpected entry %v", entry)
			}
		})
	}
}

func TestConcurrentUse(t *testing.T) {
	var (
		buf bytes.Buffer
		mu  sync.Mutex
		wg  sync.WaitGroup
	)

	l := Make(writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()

		return buf.Write(p)
	}), WithFormat(FormatText))

	for i := range 20 {
		wg.Go(func() {
			l.With(slog.Int("worker", i)).Info("tick")
		})
	}

	wg.Wait()

	if n := strings.Count(buf.String(), "msg=tick"); n != 20 {
		t.Errorf("expected 20 records, got %d", n)
	}
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
