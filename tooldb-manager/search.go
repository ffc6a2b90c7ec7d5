package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "search <term>...",
		Short:   "search tools",
		Example: "  tooldb-manager lib search 'endmill d=6'\n  tooldb-manager lib search '(vbit | chamfer) carbide'",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			db, _, err := a.load()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, t := range db.Search(strings.Join(args, " ")) {
				lib, err := db.LibraryOf(t)
				if err != nil {
					return err
				}
				pocket, _ := lib.Pocket(t)
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", lib.Label, pocket, t.Label, t.Shape)
			}
			return tw.Flush()
		},
	}
}
