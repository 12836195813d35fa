package std

import (
	"log/slog"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/yaql/lang"
)

// Error kinds raised by host interop built-ins.
var (
	ErrExprCompile = lang.NewError("expr compilation failed")
	ErrExprRun     = lang.NewError("expr evaluation failed")
)

// programCache holds compiled expr-lang programs by source hash. Entries
// also keep their source so a hash collision compiles afresh. Each
// registration of the host group owns one cache.
type programCache struct {
	m sync.Map // uint64 -> *program
}

type program struct {
	source string
	code   *vm.Program
}

func (pc *programCache) compile(source string) (*vm.Program, error) {
	key := xxh3.HashString(source)

	if p, ok := pc.m.Load(key); ok && p.(*program).source == source {
		return p.(*program).code, nil
	}

	code, err := expr.Compile(source, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, ErrExprCompile.Wrap(err).With(slog.String("source", source))
	}

	pc.m.Store(key, &program{source: source, code: code})

	return code, nil
}

func hostFunctions() []*lang.FunctionDefinition {
	programs := &programCache{}

	return []*lang.FunctionDefinition{
		lang.Define("expr").
			Doc("Runs an expr-lang program with the entries of env as variables.").
			Param("source", lang.String()).
			Param("env", lang.Dict(), lang.Default(map[string]any{})).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				source := args[0].(string)

				code, err := programs.compile(source)
				if err != nil {
					return nil, err
				}

				out, err := vm.Run(code, args[1].(map[string]any))
				if err != nil {
					return nil, ErrExprRun.Wrap(err).With(slog.String("source", source))
				}

				return lang.ConvertInputData(out), nil
			}),

		lang.Define("uuid").
			Doc("Returns a new random UUID string.").
			MustBuild(func([]any, map[string]any) (any, error) {
				return uuid.NewString(), nil
			}),
	}
}
