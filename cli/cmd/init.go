package cmd

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/yaql/log"
	"github.com/ardnew/yaql/profile"
)

// configIndent is the indent width of the generated configuration file.
const configIndent = 2

// Init writes a configuration file holding the current global flag values.
type Init struct {
	Force  bool `help:"Overwrite an existing configuration file." short:"f"`
	Stdout bool `help:"Write to stdout instead of the configuration file."`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)
	if ktx == nil {
		panic("internal error: kong context undefined")
	}

	buf, err := yaml.MarshalWithOptions(configValues(ktx), yaml.Indent(configIndent))
	if err != nil {
		return ErrWriteConfig.Wrap(err)
	}

	if i.Stdout {
		_, err = ktx.Stdout.Write(buf)

		return err
	}

	path := ktx.Model.Vars()[ConfigIdentifier]

	if _, err := os.Stat(path); err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", path)).
			Wrap(ErrFileExists)
	}

	if err := os.WriteFile(path, buf, 0o600); err != nil {
		return ErrWriteConfig.
			With(slog.String("file", path)).
			Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", path))

	return nil
}

// configValues returns the global flags in declaration order, leaving out
// help, profiling and unset values.
func configValues(ktx *kong.Context) yaml.MapSlice {
	var out yaml.MapSlice

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || flag.Name == "help" ||
			strings.HasPrefix(flag.Name, profile.Tag) {
			continue
		}

		if v, ok := configValue(ktx.FlagValue(flag)); ok {
			out = append(out, yaml.MapItem{Key: flag.Name, Value: v})
		}
	}

	return out
}

func configValue(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case string:
		return t, t != ""
	case []string:
		return t, len(t) > 0
	case map[string]string:
		return t, len(t) > 0
	case interface{ String() string }:
		return t.String(), true
	default:
		return t, true
	}
}
