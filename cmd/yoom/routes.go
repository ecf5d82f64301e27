package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yoomapp/yoom-web/internal/config"
	"github.com/yoomapp/yoom-web/internal/guard"
)

func newRoutesCmd() *cobra.Command {
	routes := &cobra.Command{
		Use:   "routes",
		Short: "Inspect route guard configuration",
	}

	var file string
	check := &cobra.Command{
		Use:   "check PATH...",
		Short: "Print the guard decision for each path",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultRoutes()
			if file != "" {
				loaded, err := config.LoadRoutesFile(file)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			protected, run, err := cfg.Build()
			if err != nil {
				return err
			}
			opts := guard.Options{Protected: protected, Run: run}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PATH\tDECISION\tPATTERN")
			for _, path := range args {
				pattern := "-"
				if p, ok := protected.Match(path); ok && opts.Decide(path) == guard.DecisionAllowed {
					pattern = p.String()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", path, decisionLabel(opts.Decide(path)), pattern)
			}
			return tw.Flush()
		},
	}
	check.Flags().StringVar(&file, "file", "", "TOML routes file (defaults when empty)")
	routes.AddCommand(check)
	return routes
}

func decisionLabel(d string) string {
	if d == guard.DecisionAllowed {
		return "protected"
	}
	return d
}
