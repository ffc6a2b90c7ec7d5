package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hzeller/tooldb/feeds"
	"github.com/hzeller/tooldb/tooldb"
)

func newFeedsCmd(a *app) *cobra.Command {
	var (
		flutes int
		mrr    float64
	)
	cmd := &cobra.Command{
		Use:   "feeds <material> <tool-material> <operation> <diameter>",
		Short: "recommend feeds and speeds",
		Long: "Recommends surface speed, spindle speed, feed rate and chipload.\n" +
			"Tool materials: hss, carbide. Operations: milling, slotting, drilling.\n" +
			"The diameter is in mm unless a unit is given (e.g. 0.25in).",
		Example: "  tooldb-manager lib feeds Aluminium6061 carbide milling 6",
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQuery(args)
			if err != nil {
				return err
			}
			q.Flutes, q.RemovalRate = flutes, mrr
			cmd.SilenceUsage = true

			engine, err := newEngine(a.v)
			if err != nil {
				return err
			}
			rec, err := engine.Recommend(q)
			if err != nil {
				return err
			}
			m, err := engine.Catalog().Lookup(rec.Material)
			if err != nil {
				return err
			}
			printRecommendation(cmd.OutOrStdout(), m, rec)
			return nil
		},
	}
	cmd.Flags().IntVarP(&flutes, "flutes", "n", 2, "number of flutes")
	cmd.Flags().Float64Var(&mrr, "mrr", 0, "material removal rate in mm³/s, for the power estimate")
	return cmd
}

func parseQuery(args []string) (feeds.Query, error) {
	tm, err := feeds.ParseToolMaterial(args[1])
	if err != nil {
		return feeds.Query{}, err
	}
	op, err := feeds.ParseOperation(args[2])
	if err != nil {
		return feeds.Query{}, err
	}
	d, err := tooldb.ParseLength(args[3])
	if err != nil {
		return feeds.Query{}, fmt.Errorf("%w: %v", feeds.ErrInvalidQuery, err)
	}
	return feeds.Query{Material: args[0], ToolMaterial: tm, Operation: op, DiameterMM: d}, nil
}

func printRecommendation(w io.Writer, m feeds.Material, rec *feeds.Recommendation) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Material:\t%s (%s)\n", m.Name, m.Key)
	fmt.Fprintf(tw, "Tool:\t%s, %s mm, %d flutes\n", rec.ToolMaterial,
		strconv.FormatFloat(rec.DiameterMM, 'f', -1, 64), rec.Flutes)
	fmt.Fprintf(tw, "Operation:\t%s\n", rec.Operation)
	fmt.Fprintf(tw, "Surface speed:\t%.0f - %.0f m/min\n", rec.SurfaceSpeed.Min, rec.SurfaceSpeed.Max)
	fmt.Fprintf(tw, "Spindle speed:\t%.0f - %.0f rpm\n", rec.SpindleSpeed.Min, rec.SpindleSpeed.Max)
	fmt.Fprintf(tw, "Feed rate:\t%.0f - %.0f mm/min\n", rec.FeedRate.Min, rec.FeedRate.Max)
	fmt.Fprintf(tw, "Chipload:\t%.4f mm\n", rec.ChiploadMM)
	if rec.EstimatedPowerKW > 0 {
		fmt.Fprintf(tw, "Power:\t%.2f kW\n", rec.EstimatedPowerKW)
	}
	tw.Flush()
	if rec.Derived {
		fmt.Fprintln(w, "Note: no slotting data for this material, surface speed estimated from milling.")
	}
}

func newMaterialsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "materials",
		Short: "list the workpiece materials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			engine, err := newEngine(a.v)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tNAME\tPOWER FACTOR (kW per mm³/s)")
			for _, m := range engine.Catalog().All() {
				fmt.Fprintf(tw, "%s\t%s\t%.5f\n", m.Key, m.Name, m.PowerFactor)
			}
			return tw.Flush()
		},
	}
}
