package harvest

import (
	"testing"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/stretchr/testify/assert"
)

func detailRow(master, product string, sales int64) model.DetailRow {
	return model.DetailRow{
		MasterCode: master,
		ProductID:  product,
		Quantities: map[string]int64{"sales": sales},
	}
}

func TestReconciliationChecker(t *testing.T) {
	masters := []model.MasterContext{{Code: "100", Name: "dairy", ExpectedAggregate: 15}}

	t.Run("matching totals", func(t *testing.T) {
		report := NewReconciliationChecker("sales").Check(masters, []model.DetailRow{
			detailRow("100", "A", 10),
			detailRow("100", "B", 5),
		})
		assert.True(t, report.Success)
		assert.Empty(t, report.FailedCodes)
		assert.NotNil(t, report.FailedCodes)
		assert.Equal(t, []model.ReconciliationEntry{
			{Code: "100", Name: "dairy", Expected: 15, Actual: 15, Matched: true},
		}, report.Entries)
	})

	t.Run("mismatch reports the master code", func(t *testing.T) {
		report := NewReconciliationChecker("sales").Check(masters, []model.DetailRow{
			detailRow("100", "A", 10),
			detailRow("100", "B", 4),
		})
		assert.False(t, report.Success)
		assert.Equal(t, []string{"100"}, report.FailedCodes)
		assert.Equal(t, int64(14), report.Entries[0].Actual)
	})

	t.Run("failed codes keep master order", func(t *testing.T) {
		ms := []model.MasterContext{
			{Code: "030", ExpectedAggregate: 1},
			{Code: "010", ExpectedAggregate: 2},
			{Code: "020", ExpectedAggregate: 0},
		}
		report := NewReconciliationChecker("").Check(ms, nil)
		assert.False(t, report.Success)
		assert.Equal(t, []string{"030", "010"}, report.FailedCodes)
	})

	t.Run("skipped masters are listed apart from mismatches", func(t *testing.T) {
		ms := []model.MasterContext{
			{Code: "010", Name: "drinks", ExpectedAggregate: 5, Ordinal: 0, Skipped: true},
			{Code: "020", Name: "snacks", ExpectedAggregate: 7, Ordinal: 1},
		}
		report := NewReconciliationChecker("sales").Check(ms, []model.DetailRow{
			detailRow("020", "B", 7),
		})
		assert.False(t, report.Success)
		assert.Empty(t, report.FailedCodes)
		assert.Equal(t, []string{"010"}, report.SkippedCodes)
		assert.Equal(t, []model.ReconciliationEntry{
			{Code: "010", Name: "drinks", Expected: 5, Actual: 0, Skipped: true},
			{Code: "020", Name: "snacks", Expected: 7, Actual: 7, Matched: true},
		}, report.Entries)
	})

	t.Run("rows of unknown masters are ignored", func(t *testing.T) {
		report := NewReconciliationChecker("sales").Check(masters, []model.DetailRow{
			detailRow("100", "A", 15),
			detailRow("999", "Z", 7),
		})
		assert.True(t, report.Success)
	})

	t.Run("rows are not modified", func(t *testing.T) {
		rows := []model.DetailRow{detailRow("100", "A", 3)}
		NewReconciliationChecker("sales").Check(masters, rows)
		assert.Equal(t, int64(3), rows[0].Quantities["sales"])
	})

	t.Run("default field", func(t *testing.T) {
		assert.Equal(t, "sales", NewReconciliationChecker("").Field())
	})
}
