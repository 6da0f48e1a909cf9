package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/xuri/excelize/v2"
)

const (
	RowsSheet           = "明细"
	ReconciliationSheet = "对账"
)

// ExcelExporter 把一次运行导出为 xlsx:明细表与对账表
type ExcelExporter struct {
	dir            string
	numericColumns []string
}

func NewExcelExporter(dir string, numericColumns []string) *ExcelExporter {
	return &ExcelExporter{dir: dir, numericColumns: numericColumns}
}

func (e *ExcelExporter) FileName(result *model.HarvestResult) string {
	return fmt.Sprintf("sales_%s.xlsx", result.CollectedFor)
}

// Export 写入 dir 下的文件并返回其路径,同名文件会被覆盖
func (e *ExcelExporter) Export(result *model.HarvestResult) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("创建导出目录失败: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RowsSheet); err != nil {
		return "", err
	}
	if err := e.writeRows(f, result.Rows); err != nil {
		return "", fmt.Errorf("写入明细表失败: %w", err)
	}
	if err := e.writeReconciliation(f, result.Reconciliation); err != nil {
		return "", fmt.Errorf("写入对账表失败: %w", err)
	}

	path := filepath.Join(e.dir, e.FileName(result))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("保存 %s 失败: %w", path, err)
	}
	return path, nil
}

func (e *ExcelExporter) writeRows(f *excelize.File, rows []model.DetailRow) error {
	// 明细可能上万行,用 StreamWriter
	sw, err := f.NewStreamWriter(RowsSheet)
	if err != nil {
		return err
	}
	header := []any{"mid_code", "mid_name", "product_code", "product_name"}
	for _, col := range e.numericColumns {
		header = append(header, col)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, r := range rows {
		values := []any{r.MasterCode, r.MasterName, r.ProductID, r.ProductName}
		for _, col := range e.numericColumns {
			values = append(values, r.Quantity(col))
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, values); err != nil {
			return err
		}
	}
	return sw.Flush()
}

func (e *ExcelExporter) writeReconciliation(f *excelize.File, report model.ReconciliationReport) error {
	if _, err := f.NewSheet(ReconciliationSheet); err != nil {
		return err
	}
	headers := []string{"mid_code", "mid_name", "expected", "actual", "matched", "skipped"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(ReconciliationSheet, cell, h); err != nil {
			return err
		}
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(ReconciliationSheet, 1, 1, headerStyle); err != nil {
		return err
	}

	for i, entry := range report.Entries {
		row := i + 2
		values := []any{entry.Code, entry.Name, entry.Expected, entry.Actual, entry.Matched, entry.Skipped}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			if err := f.SetCellValue(ReconciliationSheet, cell, v); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(ReconciliationSheet, "B", "B", 25)
}
