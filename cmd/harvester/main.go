package main

import (
	"fmt"
	"os"
	"time"

	"github.com/LouYuanbo1/gridharvester/internal/config"
	"github.com/LouYuanbo1/gridharvester/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool
	timeout    time.Duration

	appcfg *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "Collect virtualized master/detail grids from a hosted web app and reconcile them",
	Long: `harvester drives a browser session against a Nexacro-style page, walks every row of
the master grid, collects the detail grid of each row with scroll-until-converged reads
and checks the per-row detail sum against the master's reported quantity.

Results go to a local sqlite store, an Excel workbook and optionally Elasticsearch.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		logger, err = logging.NewLogger(cfg)
		if err != nil {
			return err
		}
		appcfg = cfg
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "appconfig/appconfig.json", "Config file (.json or .yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Hour, "Overall operation timeout")

	runCmd.Flags().StringVar(&runDate, "date", "", "Date to collect, YYYYMMDD (default: yesterday)")
	backfillCmd.Flags().StringVar(&backfillEnd, "end-date", "", "Last date to collect, YYYYMMDD (default: yesterday)")
	backfillCmd.Flags().IntVar(&backfillDays, "days", 7, "Number of days to collect, counting back from end-date")
	verifyCmd.Flags().StringVar(&verifyDate, "date", "", "Stored date to verify, YYYYMMDD (default: yesterday)")
	verifyCmd.Flags().BoolVar(&verifyIndex, "index", false, "Also compare the Elasticsearch document count")
	exportCmd.Flags().StringVar(&exportDate, "date", "", "Stored date to export, YYYYMMDD (default: yesterday)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
