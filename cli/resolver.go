package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/yaql/log"
)

// baseConfig is the file name of the configuration file in the
// configuration directory.
const baseConfig = "config.yaml"

// resolve returns a [kong.ConfigurationLoader] for YAML configuration files.
//
// Keys are flag names, with either hyphens or underscores. Nested mappings
// are joined with a hyphen, so both of these set --log-level:
//
//	log-level: debug
//
//	log:
//	  level: debug
//
// Sequences set repeatable flags. Command-line flags override the file.
// A file that cannot be decoded is ignored.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		var doc map[string]any

		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			if err != io.EOF {
				log.DebugContext(ctx, "ignoring configuration file",
					slog.String("error", err.Error()))
			}

			return config{}, nil
		}

		cfg := config{}
		cfg.flatten("", doc)

		return cfg, nil
	}
}

// config implements [kong.Resolver] over flattened YAML keys.
type config map[string]any

func (c config) flatten(prefix string, m map[string]any) {
	for key, value := range m {
		key = normalizeKey(prefix + key)

		if sub, ok := value.(map[string]any); ok {
			c.flatten(key+"-", sub)

			continue
		}

		c[key] = flagValue(value)
	}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "_", "-"))
}

// flagValue renders numbers and sequences as the strings kong would read
// from the command line.
func flagValue(v any) any {
	switch t := v.(type) {
	case nil, bool, string:
		return t
	case []any:
		part := make([]string, len(t))
		for i, item := range t {
			part[i] = fmt.Sprint(flagValue(item))
		}

		return strings.Join(part, ",")
	default:
		return fmt.Sprint(t)
	}
}

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := c[normalizeKey(flag.Name)]; ok {
		return value, nil
	}

	return nil, nil
}
