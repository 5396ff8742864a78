package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/recalc"
)

type recalcOptions struct {
	in      string
	toggles string
	hidden  string
	out     string
}

var recalcOpts recalcOptions

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recompute subtotals and totals of a comparison table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecalc(cmd.OutOrStdout(), recalcOpts)
	},
}

func runRecalc(w io.Writer, opts recalcOptions) error {
	t, err := readTable(opts.in)
	if err != nil {
		return err
	}
	var toggles model.DiscountToggles
	if opts.toggles != "" {
		if err := readJSONFile(opts.toggles, &toggles); err != nil {
			return err
		}
	}
	var hidden model.HiddenRows
	if opts.hidden != "" {
		if err := readJSONFile(opts.hidden, &hidden); err != nil {
			return err
		}
	}
	return writeJSON(w, opts.out, recalc.Recalculate(t, toggles, hidden))
}

func init() {
	recalcCmd.Flags().StringVar(&recalcOpts.in, "in", "-", "table JSON file (- for stdin)")
	recalcCmd.Flags().StringVar(&recalcOpts.toggles, "toggles", "", "discount toggles JSON file")
	recalcCmd.Flags().StringVar(&recalcOpts.hidden, "hidden", "", "hidden row ids JSON file")
	recalcCmd.Flags().StringVar(&recalcOpts.out, "out", "", "output file (default stdout)")
	rootCmd.AddCommand(recalcCmd)
}
