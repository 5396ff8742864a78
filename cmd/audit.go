package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Build audit logs and locate source excerpts",
}

type auditInitOptions struct {
	in  string
	out string
}

var auditInitOpts auditInitOptions

var auditInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Emit the initial extraction events of a table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuditInit(cmd.OutOrStdout(), auditInitOpts, time.Now().UTC())
	},
}

func runAuditInit(w io.Writer, opts auditInitOptions, at time.Time) error {
	t, err := readTable(opts.in)
	if err != nil {
		return err
	}
	return writeJSON(w, opts.out, audit.BuildInitialAuditLog(t, at))
}

type auditLocateOptions struct {
	text    string
	snippet string
}

var auditLocateOpts auditLocateOptions

var auditLocateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Find the byte offsets of a snippet in a document",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuditLocate(cmd.OutOrStdout(), auditLocateOpts)
	},
}

func runAuditLocate(w io.Writer, opts auditLocateOptions) error {
	if opts.snippet == "" {
		return eris.New("--snippet is required")
	}
	text, err := os.ReadFile(opts.text)
	if err != nil {
		return eris.Wrapf(err, "read %s", opts.text)
	}
	start, end := audit.FindCharOffsets(string(text), opts.snippet)
	fmt.Fprintf(w, "%d\t%d\n", start, end)
	return nil
}

func init() {
	auditInitCmd.Flags().StringVar(&auditInitOpts.in, "in", "-", "table JSON file (- for stdin)")
	auditInitCmd.Flags().StringVar(&auditInitOpts.out, "out", "", "output file (default stdout)")

	auditLocateCmd.Flags().StringVar(&auditLocateOpts.text, "text", "", "document text file")
	auditLocateCmd.Flags().StringVar(&auditLocateOpts.snippet, "snippet", "", "excerpt to locate")
	_ = auditLocateCmd.MarkFlagRequired("text")

	auditCmd.AddCommand(auditInitCmd, auditLocateCmd)
	rootCmd.AddCommand(auditCmd)
}
