package main

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/recalc"
)

type rescaleOptions struct {
	in        string
	headcount float64
	out       string
}

var rescaleOpts rescaleOptions

var rescaleCmd = &cobra.Command{
	Use:   "rescale",
	Short: "Scale recurring fees of a comparison table to a new headcount",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRescale(cmd.OutOrStdout(), rescaleOpts)
	},
}

func runRescale(w io.Writer, opts rescaleOptions) error {
	if opts.headcount <= 0 {
		return eris.New("--headcount must be positive")
	}
	t, err := readTable(opts.in)
	if err != nil {
		return err
	}
	return writeJSON(w, opts.out, recalc.Rescale(t, opts.headcount))
}

func init() {
	rescaleCmd.Flags().StringVar(&rescaleOpts.in, "in", "-", "table JSON file (- for stdin)")
	rescaleCmd.Flags().Float64Var(&rescaleOpts.headcount, "headcount", 0, "target headcount")
	rescaleCmd.Flags().StringVar(&rescaleOpts.out, "out", "", "output file (default stdout)")
	rootCmd.AddCommand(rescaleCmd)
}
