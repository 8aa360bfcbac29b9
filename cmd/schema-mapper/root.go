package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"schema-mapper/internal/diagnostic"
	"schema-mapper/internal/mapfile"
	"schema-mapper/mapper"
)

type options struct {
	verbose bool
	strict  bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "schema-mapper",
		Short:        "Compile and apply declarative schema-to-schema mappings",
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log compilation details to stderr")
	root.PersistentFlags().BoolVar(&opts.strict, "strict", false, "Fail on destination fields without a rule")

	root.AddCommand(newCheckCmd(opts), newApplyCmd(opts))

	return root
}

func (o *options) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// load parses and compiles a mapping file, printing its diagnostics to out.
func (o *options) load(cmd *cobra.Command, path string) (*mapfile.Result, error) {
	f, err := mapfile.LoadFile(path)
	if err != nil {
		return nil, err
	}

	config := mapper.DefaultConfig()
	config.Strict = o.strict
	config.Logger = o.logger(cmd.ErrOrStderr())

	res, diags := mapfile.Compile(f, mapper.NewRegistry(nil, config), nil)

	printDiagnostics(cmd.ErrOrStderr(), diags)

	if diags.HasErrors() {
		return res, fmt.Errorf("%s: %d error(s) in mapping file", path, len(diags.Errors))
	}

	return res, nil
}

func printDiagnostics(w io.Writer, diags *diagnostic.Diagnostics) {
	for _, group := range [][]diagnostic.Diagnostic{diags.Errors, diags.Warnings, diags.Infos} {
		for _, d := range group {
			fmt.Fprintf(w, "%s: %s\n", d.Severity, d)
		}
	}
}
