package main

import (
	"strings"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/hzeller/tooldb/tooldb/serializer"
)

func newExportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export -f FORMAT <output>",
		Short: "export tools and libraries in a defined format",
		Long: "Writes the whole database to <output>. In case of a file based\n" +
			"format, <output> is the path to write to.",
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := serializer.New(format, args[0])
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			db, _, err := a.load()
			if err != nil {
				return err
			}
			out, err := serializer.New(format, args[0])
			if err != nil {
				return err
			}
			log.WithField("format", format).Infof("Exporting to %s", args[0])
			return db.Serialize(out)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "",
		"target format: "+strings.Join(serializer.Formats(), ", "))
	cmd.MarkFlagRequired("format")
	return cmd
}
