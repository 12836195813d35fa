package lang

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/ardnew/yaql/log"
)

// Options are the engine settings consulted during evaluation.
type Options struct {
	// LimitIterators caps the number of elements any bounded sequence may
	// yield. [Unlimited] disables the cap.
	LimitIterators int
	// MemoryQuota caps the estimated size in bytes of any call result.
	// [Unlimited] disables the check.
	MemoryQuota int

	ConvertSetsToLists   bool
	ConvertTuplesToLists bool
	ConvertInputData     bool
	// Debug logs the grammar derived from the operator table.
	Debug bool
}

// DefaultOptions returns the default engine settings.
func DefaultOptions() Options {
	return Options{
		LimitIterators:       Unlimited,
		MemoryQuota:          Unlimited,
		ConvertSetsToLists:   true,
		ConvertTuplesToLists: true,
		ConvertInputData:     true,
	}
}

// Option keys recognized by [ParseOptions].
const (
	OptionLimitIterators       = "limitIterators"
	OptionMemoryQuota          = "memoryQuota"
	OptionConvertSetsToLists   = "convertSetsToLists"
	OptionConvertTuplesToLists = "convertTuplesToLists"
	OptionConvertInputData     = "convertInputData"
	OptionDebug                = "debug"
)

// ParseOptions reads settings from a string-keyed map, such as one decoded
// from a configuration file, on top of [DefaultOptions].
func ParseOptions(m map[string]any) (Options, error) {
	opts := DefaultOptions()

	for _, key := range slices.Sorted(maps.Keys(m)) {
		var err error

		switch v := m[key]; key {
		case OptionLimitIterators:
			opts.LimitIterators, err = intOption(key, v)
		case OptionMemoryQuota:
			opts.MemoryQuota, err = intOption(key, v)
		case OptionConvertSetsToLists:
			opts.ConvertSetsToLists, err = boolOption(key, v)
		case OptionConvertTuplesToLists:
			opts.ConvertTuplesToLists, err = boolOption(key, v)
		case OptionConvertInputData:
			opts.ConvertInputData, err = boolOption(key, v)
		case OptionDebug:
			opts.Debug, err = boolOption(key, v)
		default:
			err = ErrInvalidOption.Describe("unknown option %q", key).
				With(slog.String("option", key))
		}

		if err != nil {
			return Options{}, err
		}
	}

	return opts, nil
}

func intOption(key string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	}

	return 0, ErrInvalidOption.Describe("%q expects an integer, got %T", key, v).
		With(slog.String("option", key))
}

func boolOption(key string, v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}

	return false, ErrInvalidOption.Describe("%q expects a boolean, got %T", key, v).
		With(slog.String("option", key))
}

// Option configures an [Engine].
type Option func(*Engine)

// WithLogger sets the logger receiving parse and evaluation traces.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithOptions replaces all engine settings.
func WithOptions(opts Options) Option {
	return func(e *Engine) { e.opts = opts }
}

// WithLimitIterators sets [Options.LimitIterators].
func WithLimitIterators(limit int) Option {
	return func(e *Engine) { e.opts.LimitIterators = limit }
}

// WithMemoryQuota sets [Options.MemoryQuota].
func WithMemoryQuota(quota int) Option {
	return func(e *Engine) { e.opts.MemoryQuota = quota }
}

// WithConvertSetsToLists sets [Options.ConvertSetsToLists].
func WithConvertSetsToLists(enable bool) Option {
	return func(e *Engine) { e.opts.ConvertSetsToLists = enable }
}

// WithConvertTuplesToLists sets [Options.ConvertTuplesToLists].
func WithConvertTuplesToLists(enable bool) Option {
	return func(e *Engine) { e.opts.ConvertTuplesToLists = enable }
}

// WithConvertInputData sets [Options.ConvertInputData].
func WithConvertInputData(enable bool) Option {
	return func(e *Engine) { e.opts.ConvertInputData = enable }
}

// WithDebug sets [Options.Debug].
func WithDebug(enable bool) Option {
	return func(e *Engine) { e.opts.Debug = enable }
}

// WithParseCache enables or disables caching of parsed statements.
func WithParseCache(enable bool) Option {
	return func(e *Engine) {
		if enable {
			if e.cache == nil {
				e.cache = &parseCache{}
			}
		} else {
			e.cache = nil
		}
	}
}

// FactoryOption configures a [Factory].
type FactoryOption func(*Factory)

// WithKeywordOperator sets the name-value operator used for named
// arguments and dictionary entries. An empty symbol disables them.
func WithKeywordOperator(symbol string) FactoryOption {
	return func(f *Factory) { f.keywordOperator = symbol }
}

// WithDelegates enables the "value(args)" delegate call syntax.
func WithDelegates(enable bool) FactoryOption {
	return func(f *Factory) { f.allowDelegates = enable }
}
