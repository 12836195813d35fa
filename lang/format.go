package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format renders v in native language syntax. Literals render so that they
// parse back to the same constant.
func Format(v any) string {
	var buf strings.Builder

	formatValue(&buf, v)

	return buf.String()
}

func formatValue(buf *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(t))
	case int64:
		buf.WriteString(strconv.FormatInt(t, 10))
	case float64:
		s := strconv.FormatFloat(t, 'g', -1, 64)
		if !math.IsInf(t, 0) && !math.IsNaN(t) && !strings.ContainsAny(s, ".e") {
			s += ".0"
		}

		buf.WriteString(s)
	case string:
		buf.WriteString(strconv.Quote(t))
	case []any:
		formatItems(buf, "[", t, "]")
	case Tuple:
		formatItems(buf, "[", t, "]")
	case *Set:
		formatItems(buf, "set(", t.items, ")")
	case map[string]any:
		buf.WriteByte('{')

		for i, k := range sortedKeys(t) {
			if i > 0 {
				buf.WriteString(", ")
			}

			buf.WriteString(strconv.Quote(k))
			buf.WriteString(" => ")
			formatValue(buf, t[k])
		}

		buf.WriteByte('}')
	case MappingRule:
		formatValue(buf, t.Key)
		buf.WriteString(" => ")
		formatValue(buf, t.Value)
	case Seq:
		buf.WriteString("<sequence>")
	case Context:
		buf.WriteString("<context>")
	case fmt.Stringer:
		buf.WriteString(t.String())
	default:
		fmt.Fprint(buf, v)
	}
}

func formatItems(buf *strings.Builder, open string, items []any, closer string) {
	buf.WriteString(open)

	for i, item := range items {
		if i > 0 {
			buf.WriteString(", ")
		}

		formatValue(buf, item)
	}

	buf.WriteString(closer)
}

// FormatJSON writes the output form of v as JSON to the writer.
func FormatJSON(_ context.Context, w io.Writer, v any, indent int) error {
	out, err := ConvertOutputData(v, Options{LimitIterators: Unlimited, ConvertSetsToLists: true, ConvertTuplesToLists: true})
	if err != nil {
		return err
	}

	var data []byte

	if indent > 0 {
		data, err = json.MarshalIndent(out, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(out)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes the output form of v as YAML to the writer. A
// non-positive indent selects flow style.
func FormatYAML(ctx context.Context, w io.Writer, v any, indent int) error {
	out, err := ConvertOutputData(v, Options{LimitIterators: Unlimited, ConvertSetsToLists: true, ConvertTuplesToLists: true})
	if err != nil {
		return err
	}

	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, out, opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}
