package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "ls [all|libraries|tools]...",
		Short:     "list objects",
		ValidArgs: []string{"all", "libraries", "tools"},
		Args:      cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			db, _, err := a.load()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"all"}
			}
			out := cmd.OutOrStdout()
			for _, obj := range args {
				switch obj {
				case "libraries":
					for lib := range db.GetLibraries() {
						fmt.Fprintln(out, lib)
					}
				case "tools":
					for t := range db.GetTools() {
						fmt.Fprintln(out, t)
					}
				default:
					db.Dump(out)
				}
			}
			return nil
		},
	}
}
