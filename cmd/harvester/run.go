package main

import (
	"errors"
	"fmt"

	harvestsvc "github.com/LouYuanbo1/gridharvester/internal/service/harvest"
	"github.com/LouYuanbo1/gridharvester/param"
	"github.com/spf13/cobra"
)

var errNotReconciled = errors.New("detail totals do not match the master quantities")

var runDate string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect one date and reconcile it",
	Args:  cobra.NoArgs,
	RunE:  runHarvest,
}

func runHarvest(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	sinks, err := buildSinks(ctx, store)
	if err != nil {
		return err
	}

	crawler, err := newChromeCrawler(ctx)
	if err != nil {
		return err
	}
	defer crawler.Close()

	svc, err := harvestsvc.InitHarvestService(crawler, appcfg, sinks, logger)
	if err != nil {
		return err
	}
	result, err := svc.Collect(ctx, &param.HarvestOperation{Date: dateOrYesterday(runDate)})
	if result != nil {
		reportResult(result)
	}
	if err != nil {
		return err
	}
	if !result.Reconciliation.Success {
		report := result.Reconciliation
		return fmt.Errorf("%w: failed=%v skipped=%v", errNotReconciled, report.FailedCodes, report.SkippedCodes)
	}
	return nil
}
