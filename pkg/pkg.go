// Package pkg holds the identity of the yaql module: its name, description,
// version, and the per-user directories derived from them.
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version returns the semantic version embedded at build time.
func Version() string { return strings.TrimSpace(version) }

const (
	// Name is the command name. It appears in help output and names the
	// configuration and cache directories.
	Name = "yaql"
	// Description is the one-line summary shown in help output.
	Description = "Query structured data with yaql expressions"
)

// AuthorInfo is a project author.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the project authors.
//
//nolint:gochecknoglobals
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
