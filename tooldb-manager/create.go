package main

import (
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/hzeller/tooldb/shape"
	"github.com/hzeller/tooldb/tooldb"
)

func newCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create OBJECT",
		Short: "create tools or libraries",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newCreateToolCmd(a), newCreateLibraryCmd(a))
	return cmd
}

func newCreateToolCmd(a *app) *cobra.Command {
	var (
		material string
		defaults bool
	)
	cmd := &cobra.Command{
		Use:   "tool <shape>",
		Short: "create a new tool",
		Long: "Creates a tool of a built-in shape (" + strings.Join(shape.Builtin().Names(), ", ") + ").\n" +
			"With a workpiece material, the cutting parameters default to the\n" +
			"recommended feeds and speeds.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			db, ser, err := a.load()
			if err != nil {
				return err
			}
			supplier, choose := a.supplier, a.choose
			if defaults {
				supplier, choose = tooldb.DefaultSupplier{}, tooldb.PreselectedChoice
			}

			var libs []*tooldb.Library
			for lib := range db.GetLibraries() {
				libs = append(libs, lib)
			}
			lib, err := tooldb.SelectLibrary(libs, choose)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tool will be added to library %q.\n", lib.Label)

			factory := &tooldb.ToolFactory{
				Shapes:   shape.Builtin(),
				Supplier: supplier,
				Material: a.v.GetString("feeds.material"),
			}
			if cmd.Flags().Changed("material") {
				factory.Material = material
			}
			if factory.Material != "" {
				if factory.Feeds, err = newEngine(a.v); err != nil {
					return err
				}
			}
			tool, err := factory.Create(args[0])
			if err != nil {
				return err
			}
			if err := db.AddTool(tool, lib); err != nil {
				return err
			}
			log.WithField("id", tool.ID).Infof("Created %s", tool.Label)
			return db.Serialize(ser)
		},
	}
	cmd.Flags().StringVarP(&material, "material", "m", "",
		"workpiece material key for default cutting parameters (see 'materials')")
	cmd.Flags().BoolVarP(&defaults, "yes", "y", false, "accept all defaults without asking")
	return cmd
}

func newCreateLibraryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "library <label>",
		Short: "create a new library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			db, ser, err := a.load()
			if err != nil {
				return err
			}
			lib := tooldb.NewLibrary(args[0])
			if err := db.AddLibrary(lib); err != nil {
				return err
			}
			log.WithField("id", lib.ID).Infof("Created library %s", lib.Label)
			return db.Serialize(ser)
		},
	}
}
