// Package cli contains the command line interface for yaql.
//
// # Usage
//
//	yaql [flags] [eval] EXPRESSION
//	yaql ast EXPRESSION
//	yaql fmt json|yaml [FILE]
//	yaql repl
//	yaql init
//	yaql version
//
// Evaluation reads its input data from --data (a YAML or JSON file, or "-"
// for stdin) and binds it to $:
//
//	yaql --data pods.yaml '$.items.where($.status = "Running").len()'
//
// # Configuration
//
// Flag defaults are read from config.yaml in the configuration directory
// ($XDG_CONFIG_HOME/yaql on Linux). Keys are flag names; nested mappings
// join with a hyphen:
//
//	log:
//	  level: debug
//	limit-iterators: 10000
//
// The init command writes the current flag values to that file.
//
// # Logging Options
//
//   - --log-level: trace, debug, info, warn or error
//   - --log-format: json or text
//   - --log-time-layout: RFC3339, RFC3339Nano, Kitchen, ms, us, ns, none, ...
//   - --log-caller: include caller information
//   - --log-pretty: colorize output (on by default when stderr is a terminal)
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof
//
//   - --pprof-mode: allocs, block, clock, cpu, goroutine, heap, mem, mutex,
//     thread or trace
//   - --pprof-dir: profile output directory
package cli
