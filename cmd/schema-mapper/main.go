// Package main provides the CLI entrypoint for schema-mapper.
//
// schema-mapper works with YAML mapping files:
//   - check compiles every mapping and reports problems with suggestions
//   - apply maps JSON documents through a named mapping
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
