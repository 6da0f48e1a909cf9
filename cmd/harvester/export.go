package main

import (
	"fmt"

	"github.com/LouYuanbo1/gridharvester/internal/harvest"
	"github.com/spf13/cobra"
)

var exportDate string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a stored date to an Excel workbook",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := store.LoadRun(ctx, dateOrYesterday(exportDate))
	if err != nil {
		return err
	}
	// 对账明细不落库,导出前按已保存的主行与明细重新计算
	result.Reconciliation = harvest.NewReconciliationChecker(appcfg.Harvest.AggregateField).Check(result.Masters, result.Rows)
	if result.Failed() {
		result.Reconciliation.Success = false
	}

	path, err := newExporter().Export(result)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
