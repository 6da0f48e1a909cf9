package main

import (
	"fmt"
	"io"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/LouYuanbo1/gridharvester/internal/harvest"
	"github.com/LouYuanbo1/gridharvester/internal/infra/persistence/es"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verifyDate  string
	verifyIndex bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-run reconciliation against a stored date",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	date := dateOrYesterday(verifyDate)
	result, err := store.LoadRun(ctx, date)
	if err != nil {
		return err
	}
	report := harvest.NewReconciliationChecker(appcfg.Harvest.AggregateField).Check(result.Masters, result.Rows)
	if result.Failed() {
		report.Success = false
	}
	printReport(cmd.OutOrStdout(), date, report)

	if verifyIndex {
		client, err := newSalesClient()
		if err != nil {
			return err
		}
		count, err := client.CountDocs(ctx, es.CollectedForQuery(date))
		if err != nil {
			return err
		}
		logger.Info("索引文档数", zap.String("collected_for", date), zap.Int64("indexed", count), zap.Int("stored", len(result.Rows)))
		if count != int64(len(result.Rows)) {
			return fmt.Errorf("index holds %d documents for %s, store holds %d rows", count, date, len(result.Rows))
		}
	}

	if !report.Success {
		return fmt.Errorf("%w: failed=%v skipped=%v", errNotReconciled, report.FailedCodes, report.SkippedCodes)
	}
	return nil
}

func printReport(w io.Writer, date string, report model.ReconciliationReport) {
	fmt.Fprintf(w, "%s\n", date)
	for _, e := range report.Entries {
		mark := "ok"
		switch {
		case e.Skipped:
			mark = "SKIPPED"
		case !e.Matched:
			mark = "MISMATCH"
		}
		fmt.Fprintf(w, "  %-6s %-24s expected=%-8d actual=%-8d %s\n", e.Code, e.Name, e.Expected, e.Actual, mark)
	}
	fmt.Fprintf(w, "success=%t failed=%v skipped=%v\n", report.Success, report.FailedCodes, report.SkippedCodes)
}
