package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/config"
)

var cfg *config.Config

var (
	logLevelFlag    string
	storeDriverFlag string
)

var rootCmd = &cobra.Command{
	Use:           "proposal",
	Short:         "Vendor proposal comparison engine",
	Long:          "Builds, recalculates, corrects and exports vendor pricing comparisons extracted from proposal documents.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		applyFlagOverrides(c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&storeDriverFlag, "store", "", "override store.driver (sqlite, postgres)")
}

// applyFlagOverrides lets persistent flags win over file and env config.
func applyFlagOverrides(c *config.Config) {
	if logLevelFlag != "" {
		c.Log.Level = logLevelFlag
	}
	if storeDriverFlag != "" {
		c.Store.Driver = storeDriverFlag
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		zap.L().Error("proposal: command failed", zap.Error(err))
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
