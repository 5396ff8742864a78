package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/compare"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/playbook"
)

var playbookCmd = &cobra.Command{
	Use:   "playbook",
	Short: "Apply, test and import playbook correction rules",
}

// rulesPath returns the --rules flag or the configured rule file.
func rulesPath(flag string) string {
	if flag != "" || cfg == nil {
		return flag
	}
	return cfg.Playbook.RulesPath
}

type playbookApplyOptions struct {
	in    string
	rules string
	out   string
}

var playbookApplyOpts playbookApplyOptions

var playbookApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a rule file to a comparison table",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := playbookApplyOpts
		opts.rules = rulesPath(opts.rules)
		return runPlaybookApply(cmd.OutOrStdout(), opts)
	},
}

func runPlaybookApply(w io.Writer, opts playbookApplyOptions) error {
	t, err := readTable(opts.in)
	if err != nil {
		return err
	}
	rules, err := playbook.LoadRules(opts.rules)
	if err != nil {
		return err
	}
	out, modified := playbook.ApplyRules(t, rules)
	zap.L().Info("playbook: applied rules",
		zap.String("rules", opts.rules),
		zap.Int("count", len(rules)),
		zap.Int("modified", modified),
	)
	return writeJSON(w, opts.out, out)
}

type playbookMatchOptions struct {
	rules   string
	vendor  string
	label   string
	section string
	display string
}

var playbookMatchOpts playbookMatchOptions

var playbookMatchCmd = &cobra.Command{
	Use:   "match",
	Short: "List the rules whose condition matches a cell",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := playbookMatchOpts
		opts.rules = rulesPath(opts.rules)
		return runPlaybookMatch(cmd.OutOrStdout(), opts)
	},
}

func runPlaybookMatch(w io.Writer, opts playbookMatchOptions) error {
	rules, err := playbook.LoadRules(opts.rules)
	if err != nil {
		return err
	}
	ctx := model.CellContext{Label: opts.label, SectionName: opts.section, Display: opts.display}
	for _, r := range rules {
		if opts.vendor != "" && !r.AppliesToVendor(opts.vendor) {
			continue
		}
		if playbook.MatchesCondition(r, ctx) {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.ID, r.ActionType, r.ActionValue)
		}
	}
	return nil
}

var playbookImportRules string

var playbookImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a rule file into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := playbook.LoadRules(rulesPath(playbookImportRules))
		if err != nil {
			return err
		}
		st, err := initStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := compare.NewService(st).ImportRules(cmd.Context(), rules)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d rules\n", n)
		return nil
	},
}

func init() {
	playbookApplyCmd.Flags().StringVar(&playbookApplyOpts.in, "in", "-", "table JSON file (- for stdin)")
	playbookApplyCmd.Flags().StringVar(&playbookApplyOpts.rules, "rules", "", "rule file (default from config)")
	playbookApplyCmd.Flags().StringVar(&playbookApplyOpts.out, "out", "", "output file (default stdout)")

	playbookMatchCmd.Flags().StringVar(&playbookMatchOpts.rules, "rules", "", "rule file (default from config)")
	playbookMatchCmd.Flags().StringVar(&playbookMatchOpts.vendor, "vendor", "", "only rules scoped to this vendor")
	playbookMatchCmd.Flags().StringVar(&playbookMatchOpts.label, "label", "", "row label")
	playbookMatchCmd.Flags().StringVar(&playbookMatchOpts.section, "section", "", "section name")
	playbookMatchCmd.Flags().StringVar(&playbookMatchOpts.display, "display", "", "cell display text")

	playbookImportCmd.Flags().StringVar(&playbookImportRules, "rules", "", "rule file (default from config)")

	playbookCmd.AddCommand(playbookApplyCmd, playbookMatchCmd, playbookImportCmd)
	rootCmd.AddCommand(playbookCmd)
}
