// Package log wraps [log/slog] with a value-typed [Logger], a Trace level
// below Debug, and functional options applied when a logger is built.
//
// A logger is configured once and then shared freely:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatText),
//		log.WithCaller(true))
//
//	logger.Info("engine created", slog.Int("operators", 23))
//
// [Logger.Wrap] derives a logger with different settings and [Logger.With]
// one that adds attributes to every record. Both leave the receiver
// unchanged.
//
// The package-level functions ([Info], [TraceContext], ...) write through a
// default logger on stderr that [Config] and [SetDefault] replace.
//
// Output is JSON or text. When pretty printing is enabled, which is the
// default for terminals, records are colorized; JSON records are also
// indented over several lines.
package log
