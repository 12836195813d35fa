package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"

	"github.com/ardnew/yaql/lang"
	"github.com/ardnew/yaql/log"
	"github.com/ardnew/yaql/std"
)

type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// Engine holds the flags that configure the expression engine. It is
// embedded in the root command and bound for every command that evaluates.
type Engine struct {
	LimitIterators  int      `default:"-1" help:"Maximum number of elements a sequence may yield (-1 for no limit)."`
	MemoryQuota     int      `default:"-1" help:"Maximum estimated size in bytes of any call result (-1 for no limit)."`
	NoConvertSets   bool     `             help:"Keep sets in results instead of converting them to lists."`
	NoConvertTuples bool     `             help:"Keep tuples in results instead of converting them to lists."`
	NoConvertInput  bool     `             help:"Use input data as decoded, without normalizing it."`
	Debug           bool     `             help:"Log the grammar derived from the operator table."`
	Delegates       bool     `             help:"Allow calling functions stored in variables ($f(...))."`
	Without         []string `             help:"Leave out groups of built-in functions (${stdGroups})." placeholder:"GROUP"`
}

// EngineGroup returns the help group of the [Engine] flags.
func EngineGroup() kong.Group {
	return kong.Group{Key: "engine", Title: "Engine options"}
}

// EngineVars returns the kong variables referenced by the [Engine] flags.
func EngineVars() kong.Vars {
	return kong.Vars{"stdGroups": strings.Join(std.Groups(), ", ")}
}

// Options returns the engine settings selected by the flags.
func (f *Engine) Options() lang.Options {
	opts := lang.DefaultOptions()

	opts.LimitIterators = f.LimitIterators
	opts.MemoryQuota = f.MemoryQuota
	opts.ConvertSetsToLists = !f.NoConvertSets
	opts.ConvertTuplesToLists = !f.NoConvertTuples
	opts.ConvertInputData = !f.NoConvertInput
	opts.Debug = f.Debug

	return opts
}

// Build returns an engine configured by the flags and a root context holding
// the standard library.
func (f *Engine) Build(ctx context.Context) (*lang.Engine, lang.Context, error) {
	e, err := lang.NewFactory(lang.WithDelegates(f.Delegates)).Create(
		lang.WithLogger(log.Default()),
		lang.WithOptions(f.Options()),
	)
	if err != nil {
		return nil, nil, err
	}

	c := lang.NewContext()
	if err := std.Register(c, std.Without(f.Without...)); err != nil {
		return nil, nil, err
	}

	log.DebugContext(ctx, "engine ready",
		slog.Int("limit_iterators", f.LimitIterators),
		slog.Int("memory_quota", f.MemoryQuota),
		slog.Bool("delegates", f.Delegates),
		slog.Any("without", f.Without),
	)

	return e, c, nil
}

// Input selects the data bound to $ and any extra variables.
type Input struct {
	Data string            `help:"YAML or JSON file bound to $ ('-' for stdin)." placeholder:"FILE" short:"d" type:"existingfile"`
	Var  map[string]string `help:"Bind $name to a YAML value."                   placeholder:"NAME=VALUE"`
}

// stdinSource names standard input as a file argument.
const stdinSource = "-"

// open returns a reader of name, where "-" is standard input.
func open(name string) (io.ReadCloser, error) {
	if name == stdinSource || name == "" {
		return io.NopCloser(os.Stdin), nil
	}

	return os.Open(name)
}

// decode reads a YAML (or JSON) document from r.
func decode(r io.Reader) (any, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	buf, err := io.ReadAll(ra)
	if err != nil {
		return nil, err
	}

	var v any
	if err := yaml.Unmarshal(buf, &v); err != nil {
		return nil, err
	}

	return v, nil
}

// Load reads the data file, or returns nil when none was given.
func (in *Input) Load(ctx context.Context) (any, error) {
	if in.Data == "" {
		return nil, nil
	}

	r, err := open(in.Data)
	if err != nil {
		return nil, ErrLoadData.With(slog.String("file", in.Data)).Wrap(err)
	}
	defer r.Close()

	v, err := decode(r)
	if err != nil {
		return nil, ErrLoadData.With(slog.String("file", in.Data)).Wrap(err)
	}

	log.DebugContext(ctx, "loaded input data", slog.String("file", in.Data))

	return v, nil
}

// Bind stores the variables in c, in name order.
func (in *Input) Bind(c lang.Context) error {
	names := make([]string, 0, len(in.Var))
	for name := range in.Var {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		if strings.TrimLeft(name, "$") == "" {
			return ErrInvalidVar.Describe("empty name")
		}

		var v any
		if err := yaml.Unmarshal([]byte(in.Var[name]), &v); err != nil {
			return ErrInvalidVar.With(slog.String("name", name)).Wrap(err)
		}

		c.Set(name, lang.ConvertInputData(v))
	}

	return nil
}

// Output selects the encoding of results.
type Output struct {
	Output string `default:"native" enum:"native,json,yaml" help:"Result encoding (${enum})." short:"o"`
	Indent int    `default:"2"                              help:"Indent width for json and yaml output."`
}

// Write encodes v to w.
func (o *Output) Write(ctx context.Context, w io.Writer, v any) error {
	var err error

	switch o.Output {
	case "json":
		err = lang.FormatJSON(ctx, w, v, o.Indent)
	case "yaml":
		err = lang.FormatYAML(ctx, w, v, o.Indent)
	default:
		_, err = fmt.Fprintln(w, lang.Format(v))
	}

	if err != nil {
		return ErrEncode.With(slog.String("output", o.Output)).Wrap(err)
	}

	return nil
}
