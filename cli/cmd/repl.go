package cmd

import (
	"context"
	"path/filepath"

	"github.com/ardnew/yaql/cli/cmd/repl"
	"github.com/ardnew/yaql/lang"
)

// REPL runs an interactive session.
type REPL struct {
	Input `embed:""`

	NoHistory bool `help:"Do not read or write the history file."`
}

// Run executes the repl command.
func (r *REPL) Run(ctx context.Context, flags *Engine) error {
	e, root, err := flags.Build(ctx)
	if err != nil {
		return err
	}

	data, err := r.Load(ctx)
	if err != nil {
		return err
	}

	c := root.CreateChild()
	if err := r.Bind(c); err != nil {
		return err
	}

	if e.Options().ConvertInputData {
		data = lang.ConvertInputData(data)
	}

	c.Set("$", data)

	var history string

	if !r.NoHistory {
		if ktx := kongContextFrom(ctx); ktx != nil {
			history = filepath.Join(ktx.Model.Vars()[CacheIdentifier], repl.HistoryFile)
		}
	}

	return repl.Run(ctx, e, c, history)
}
