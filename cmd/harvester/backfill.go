package main

import (
	"fmt"

	"github.com/LouYuanbo1/gridharvester/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/gridharvester/internal/infra/crawler/parallel"
	harvestsvc "github.com/LouYuanbo1/gridharvester/internal/service/harvest"
	parallelsvc "github.com/LouYuanbo1/gridharvester/internal/service/parallel"
	"github.com/LouYuanbo1/gridharvester/param"
	"github.com/spf13/cobra"
)

var (
	backfillEnd  string
	backfillDays int
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Collect a range of past dates in parallel over a browser pool",
	Args:  cobra.NoArgs,
	RunE:  runBackfill,
}

func runBackfill(cmd *cobra.Command, args []string) error {
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

	crawlerPool, err := parallel.InitCrawlerPool(appcfg, logger)
	if err != nil {
		return err
	}
	defer crawlerPool.Close()

	factory := func(crawler chrome.ChromeCrawler) (harvestsvc.HarvestService, error) {
		return harvestsvc.InitHarvestService(crawler, appcfg, sinks, logger)
	}
	svc := parallelsvc.InitBackfillService(crawlerPool, factory, logger)

	op := &param.BackfillOperation{EndDate: dateOrYesterday(backfillEnd), Days: backfillDays}
	results, err := svc.Backfill(ctx, op)
	var unreconciled []string
	for _, result := range results {
		if result == nil {
			continue
		}
		reportResult(result)
		if !result.Reconciliation.Success {
			unreconciled = append(unreconciled, result.CollectedFor)
		}
	}
	if err != nil {
		return err
	}
	if len(unreconciled) > 0 {
		return fmt.Errorf("%w: %v", errNotReconciled, unreconciled)
	}
	return nil
}
