package export

import (
	"path/filepath"
	"testing"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExcelExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	exporter := NewExcelExporter(dir, []string{"sales", "stock"})

	result := &model.HarvestResult{
		CollectedFor: "20240105",
		Rows: []model.DetailRow{
			{MasterCode: "010", MasterName: "drinks", ProductID: "A", ProductName: "cola", Quantities: map[string]int64{"sales": 5, "stock": 2}},
			{MasterCode: "020", MasterName: "snacks", ProductID: "B", ProductName: "chips", Quantities: map[string]int64{"sales": 3}},
		},
		Reconciliation: model.ReconciliationReport{
			FailedCodes: []string{"020"},
			Entries: []model.ReconciliationEntry{
				{Code: "010", Name: "drinks", Expected: 5, Actual: 5, Matched: true},
				{Code: "020", Name: "snacks", Expected: 7, Actual: 3},
			},
		},
	}

	path, err := exporter.Export(result)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sales_20240105.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	assert.Equal(t, []string{RowsSheet, ReconciliationSheet}, f.GetSheetList())

	rows, err := f.GetRows(RowsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"mid_code", "mid_name", "product_code", "product_name", "sales", "stock"}, rows[0])
	assert.Equal(t, []string{"010", "drinks", "A", "cola", "5", "2"}, rows[1])
	assert.Equal(t, []string{"020", "snacks", "B", "chips", "3", "0"}, rows[2])

	recon, err := f.GetRows(ReconciliationSheet)
	require.NoError(t, err)
	require.Len(t, recon, 3)
	assert.Equal(t, []string{"020", "snacks", "7", "3"}, recon[2][:4])
}

func TestExcelExportEmptyResult(t *testing.T) {
	exporter := NewExcelExporter(t.TempDir(), []string{"sales"})
	path, err := exporter.Export(&model.HarvestResult{CollectedFor: "20240105"})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	rows, err := f.GetRows(RowsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
