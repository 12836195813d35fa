// Package profile provides optional runtime profiling through
// [github.com/pkg/profile].
//
// Support is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof -o yaql .
//	yaql --pprof-mode cpu '$.items.where($.price > 10).select($.name)'
//
// Without the tag every [Profiler] is a no-op and [Modes] is empty.
//
//	p := profile.Make(profile.WithMode("heap"), profile.WithPath("/tmp/prof"))
//	defer p.Start().Stop()
//
// Profiles are written as <mode>.pprof into the chosen directory, by default
// a "pprof" directory below the user cache directory. Inspect them with
// "go tool pprof". The pprof build also registers the [net/http/pprof]
// handlers on the default mux.
package profile
