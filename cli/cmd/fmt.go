package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/yaql/lang"
)

// Fmt converts YAML or JSON input data to another encoding, normalized the
// same way eval normalizes its input.
type Fmt struct {
	JSON JSON `cmd:"" help:"Convert to JSON." name:"json"`
	YAML YAML `cmd:"" help:"Convert to YAML." name:"yaml"`
}

// JSON converts input data to JSON.
type JSON struct {
	Indent int    `default:"2"         help:"Indent width (0 for compact output)." short:"i"`
	Source string `arg:"" default:"-" help:"Input file or '-' for stdin."        name:"source"`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context, w io.Writer) error {
	return convert(ctx, j.Source, "json", func(v any) error {
		return lang.FormatJSON(ctx, w, v, j.Indent)
	})
}

// YAML converts input data to YAML.
type YAML struct {
	Indent int    `default:"2"         help:"Indent width (0 for flow style)." short:"i"`
	Source string `arg:"" default:"-" help:"Input file or '-' for stdin."    name:"source"`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context, w io.Writer) error {
	return convert(ctx, y.Source, "yaml", func(v any) error {
		return lang.FormatYAML(ctx, w, v, y.Indent)
	})
}

func convert(ctx context.Context, source, format string, encode func(any) error) (err error) {
	_, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	in := Input{Data: source}

	v, err := in.Load(ctx)
	if err != nil {
		return err
	}

	if err := encode(lang.ConvertInputData(v)); err != nil {
		return ErrEncode.With(slog.String("format", format)).Wrap(err)
	}

	return nil
}
