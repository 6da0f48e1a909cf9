package harvest

import (
	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
)

// ReconciliationChecker 用主行上报的期望合计核对明细行的求和结果。
// 只做诊断,不修改明细行。
type ReconciliationChecker struct {
	field string
}

func NewReconciliationChecker(field string) *ReconciliationChecker {
	if field == "" {
		field = DefaultOptions().AggregateField
	}
	return &ReconciliationChecker{field: field}
}

func (c *ReconciliationChecker) Field() string {
	return c.field
}

func (c *ReconciliationChecker) Check(masters []model.MasterContext, rows []model.DetailRow) model.ReconciliationReport {
	sums := make(map[string]int64, len(masters))
	for _, row := range rows {
		sums[row.MasterCode] += row.Quantity(c.field)
	}

	report := model.ReconciliationReport{
		FailedCodes: []string{},
		Entries:     make([]model.ReconciliationEntry, 0, len(masters)),
	}
	for _, m := range masters {
		actual := sums[m.Code]
		matched := !m.Skipped && actual == m.ExpectedAggregate
		report.Entries = append(report.Entries, model.ReconciliationEntry{
			Code:     m.Code,
			Name:     m.Name,
			Expected: m.ExpectedAggregate,
			Actual:   actual,
			Matched:  matched,
			Skipped:  m.Skipped,
		})
		switch {
		case m.Skipped:
			report.SkippedCodes = append(report.SkippedCodes, m.Code)
		case !matched:
			report.FailedCodes = append(report.FailedCodes, m.Code)
		}
	}
	report.Success = len(report.FailedCodes) == 0 && len(report.SkippedCodes) == 0
	return report
}
