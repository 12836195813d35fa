package cmd

import (
	"fmt"
	"io"

	"github.com/ardnew/yaql/pkg"
)

// Version prints the program name and version.
type Version struct {
	Short bool `help:"Print only the version number." short:"s"`
}

// Run executes the version command.
func (v *Version) Run(w io.Writer) error {
	if v.Short {
		_, err := fmt.Fprintln(w, pkg.Version())

		return err
	}

	_, err := fmt.Fprintf(w, "%s %s\n", pkg.Name, pkg.Version())

	return err
}
