package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(opts *options) *cobra.Command {
	var listRules bool

	cmd := &cobra.Command{
		Use:   "check <mapping.yaml>",
		Short: "Compile a mapping file and report problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.load(cmd, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			for _, name := range res.Order {
				def := res.Mappings[name]
				fmt.Fprintf(out, "%s (%s)\n", name, def)

				if !listRules {
					continue
				}

				for _, r := range def.Rules() {
					fmt.Fprintf(out, "  %s\n", r)
				}
			}

			fmt.Fprintf(out, "%d mapping(s) compiled\n", len(res.Order))

			return nil
		},
	}

	cmd.Flags().BoolVar(&listRules, "rules", false, "List the compiled rules of every mapping")

	return cmd
}
