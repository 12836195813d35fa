package std

import (
	"github.com/ardnew/yaql/lang"
)

// Option configures the context built by [NewContext].
type Option func(*config)

type config struct {
	exclude map[string]bool
}

// Without leaves out the named groups of built-ins: "system", "boolean",
// "arithmetic", "comparison", "strings", "queries" or "host".
func Without(groups ...string) Option {
	return func(c *config) {
		for _, g := range groups {
			c.exclude[g] = true
		}
	}
}

// group is a named set of built-ins.
type group struct {
	name  string
	funcs func() []*lang.FunctionDefinition
}

func groups() []group {
	return []group{
		{"system", systemFunctions},
		{"boolean", booleanFunctions},
		{"arithmetic", arithmeticFunctions},
		{"comparison", comparisonFunctions},
		{"strings", stringFunctions},
		{"queries", queryFunctions},
		{"host", hostFunctions},
	}
}

// Groups returns the names accepted by [Without], in registration order.
func Groups() []string {
	names := make([]string, 0, 8)
	for _, g := range groups() {
		names = append(names, g.name)
	}

	return names
}

// NewContext returns a root context with the standard library registered.
func NewContext(opts ...Option) lang.Context {
	c := lang.NewContext()

	if err := Register(c, opts...); err != nil {
		panic(err)
	}

	return c
}

// Register adds the standard library to c.
func Register(c lang.Context, opts ...Option) error {
	cfg := config{exclude: make(map[string]bool)}
	for _, opt := range opts {
		opt(&cfg)
	}

	for _, g := range groups() {
		if cfg.exclude[g.name] {
			continue
		}

		for _, fd := range g.funcs() {
			if err := c.Register(fd); err != nil {
				return err
			}
		}
	}

	return nil
}
