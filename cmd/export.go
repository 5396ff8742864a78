package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/compare"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/export"
)

type exportOptions struct {
	in      string
	project string
	out     string
}

var exportOpts exportOptions

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a comparison to an XLSX workbook",
	Long:  "Exports the latest analysis of --project from the store, or a table JSON file given with --in.",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := exportOpts
		if (opts.in == "") == (opts.project == "") {
			return eris.New("exactly one of --in or --project is required")
		}

		if opts.in != "" {
			t, err := readTable(opts.in)
			if err != nil {
				return err
			}
			return export.Save(opts.out, t, export.Options{})
		}

		st, err := initStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		a, err := compare.NewService(st).Latest(cmd.Context(), opts.project)
		if err != nil {
			return err
		}
		if err := export.Save(opts.out, a.Table, export.Options{Hidden: a.HiddenRows, Toggles: a.DiscountToggles}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %s version %d to %s\n", a.ProjectID, a.Version, opts.out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOpts.in, "in", "", "table JSON file")
	exportCmd.Flags().StringVar(&exportOpts.project, "project", "", "project id in the store")
	exportCmd.Flags().StringVar(&exportOpts.out, "out", "comparison.xlsx", "output workbook")
	rootCmd.AddCommand(exportCmd)
}
