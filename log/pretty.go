package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of the pretty handler. Styles are bound to the
// renderer of the output writer, so colors are dropped when it is not a
// terminal.
type palette struct {
	key, str, num, yes, no, other lipgloss.Style
	trace, debug, info, warn, err lipgloss.Style
}

func makePalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return palette{
		key:   fg("8"),
		str:   fg("6"),
		num:   fg("3"),
		yes:   fg("2"),
		no:    fg("1"),
		other: fg("5"),
		trace: fg("8"),
		debug: fg("4"),
		info:  fg("2"),
		warn:  fg("3").Bold(true),
		err:   fg("1").Bold(true),
	}
}

func (p palette) level(name string) lipgloss.Style {
	switch {
	case strings.HasPrefix(name, "ERROR"):
		return p.err
	case strings.HasPrefix(name, "WARN"):
		return p.warn
	case strings.HasPrefix(name, "INFO"):
		return p.info
	case strings.HasPrefix(name, "DEBUG"):
		return p.debug
	default:
		return p.trace
	}
}

func (p palette) value(v slog.Value) lipgloss.Style {
	switch v.Kind() {
	case slog.KindString:
		return p.str
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		return p.num
	case slog.KindBool:
		if v.Bool() {
			return p.yes
		}

		return p.no
	default:
		return p.other
	}
}

// prettyHandler writes colorized records, either as a single text line or
// as an indented JSON object.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	pal    palette
	attrs  []slog.Attr
	prefix string
	json   bool
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions, asJSON bool) *prettyHandler {
	return &prettyHandler{
		opts: *opts,
		mu:   &sync.Mutex{},
		w:    w,
		pal:  makePalette(w),
		json: asJSON,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	least := slog.LevelInfo
	if h.opts.Level != nil {
		least = h.opts.Level.Level()
	}

	return level >= least
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], h.qualify(attrs)...)

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func (h *prettyHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.prefix == "" {
		return attrs
	}

	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.prefix + a.Key, Value: a.Value}
	}

	return out
}

func (h *prettyHandler) replace(a slog.Attr) (slog.Attr, bool) {
	a.Value = a.Value.Resolve()

	if h.opts.ReplaceAttr != nil && a.Value.Kind() != slog.KindGroup {
		a = h.opts.ReplaceAttr(nil, a)
	}

	return a, a.Key != ""
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]slog.Attr, 0, 4+len(h.attrs)+r.NumAttrs())

	if !r.Time.IsZero() {
		fields = append(fields, slog.Time(slog.TimeKey, r.Time))
	}

	fields = append(fields, slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			fields = append(fields, slog.String(slog.SourceKey,
				filepath.Base(src.File)+":"+strconv.Itoa(src.Line)))
		}
	}

	fields = append(fields, slog.String(slog.MessageKey, r.Message))
	fields = append(fields, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, h.qualify([]slog.Attr{a})...)

		return true
	})

	var buf bytes.Buffer

	if h.json {
		h.writeJSON(&buf, fields)
	} else {
		h.writeText(&buf, fields)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) writeText(buf *bytes.Buffer, fields []slog.Attr) {
	n := 0

	for _, a := range fields {
		a, ok := h.replace(a)
		if !ok {
			continue
		}

		if n > 0 {
			buf.WriteByte(' ')
		}

		n++

		switch a.Key {
		case slog.TimeKey:
			buf.WriteString(h.pal.key.Render(a.Value.String()))
		case slog.LevelKey:
			name := a.Value.String()
			buf.WriteString(h.pal.level(name).Render(fmt.Sprintf("%-5s", name)))
		case slog.MessageKey:
			buf.WriteString(a.Value.String())
		default:
			buf.WriteString(h.pal.key.Render(a.Key + "="))
			buf.WriteString(h.pal.value(a.Value).Render(textValue(a.Value)))
		}
	}

	buf.WriteByte('\n')
}

func (h *prettyHandler) writeJSON(buf *bytes.Buffer, fields []slog.Attr) {
	buf.WriteString("{")

	n := 0

	for _, a := range fields {
		a, ok := h.replace(a)
		if !ok {
			continue
		}

		if n > 0 {
			buf.WriteString(",")
		}

		n++

		key, _ := json.Marshal(a.Key)

		val, err := json.Marshal(jsonValue(a.Value))
		if err != nil {
			val, _ = json.Marshal(a.Value.String())
		}

		buf.WriteString("\n  ")
		buf.WriteString(h.pal.key.Render(string(key)))
		buf.WriteString(": ")

		if a.Key == slog.LevelKey {
			buf.WriteString(h.pal.level(a.Value.String()).Render(string(val)))
		} else {
			buf.WriteString(h.pal.value(a.Value).Render(string(val)))
		}
	}

	buf.WriteString("\n}\n")
}

func textValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindGroup:
		part := make([]string, 0, len(v.Group()))
		for _, a := range v.Group() {
			part = append(part, a.Key+"="+textValue(a.Value.Resolve()))
		}

		return "{" + strings.Join(part, " ") + "}"
	case slog.KindString:
		s := v.String()
		if strings.ContainsAny(s, " \t\n\"=") {
			return strconv.Quote(s)
		}

		return s
	default:
		return v.String()
	}
}

func jsonValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindGroup:
		m := make(map[string]any, len(v.Group()))
		for _, a := range v.Group() {
			m[a.Key] = jsonValue(a.Value.Resolve())
		}

		return m
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}

		return v.Any()
	default:
		return v.Any()
	}
}
