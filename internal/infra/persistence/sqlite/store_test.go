package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "harvest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func detailRow(master, name, product string, sales int64) model.DetailRow {
	return model.DetailRow{
		MasterCode:  master,
		MasterName:  name,
		ProductID:   product,
		ProductName: "p" + product,
		Quantities:  map[string]int64{"sales": sales, "stock": 1},
	}
}

func sampleResult(runID string, state model.RunState, started time.Time) *model.HarvestResult {
	return &model.HarvestResult{
		RunID:        runID,
		CollectedFor: "20240105",
		State:        state,
		StartedAt:    started,
		FinishedAt:   started.Add(time.Minute),
		Masters: []model.MasterContext{
			{Code: "010", Name: "drinks", ExpectedAggregate: 5, Ordinal: 0},
			{Code: "020", Name: "snacks", ExpectedAggregate: 7, Ordinal: 1},
		},
		Rows: []model.DetailRow{
			detailRow("010", "drinks", "A", 5),
			detailRow("020", "snacks", "B", 3),
			detailRow("020", "snacks", "C", 4),
		},
		Reconciliation: model.ReconciliationReport{Success: true, FailedCodes: []string{}},
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2024, 1, 6, 1, 2, 3, 0, time.UTC)
	in := sampleResult("run-1", model.StateDone, started)
	in.Errors = []error{errors.New("row activation failed")}
	in.Masters[1].Skipped = true

	require.NoError(t, s.SaveResult(ctx, in, "sales"))

	out, err := s.LoadRun(ctx, "20240105")
	require.NoError(t, err)
	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, model.StateDone, out.State)
	assert.True(t, out.Reconciliation.Success)
	assert.True(t, out.StartedAt.Equal(started))
	assert.Equal(t, []string{"row activation failed"}, out.ErrorMessages())

	assert.Empty(t, cmp.Diff(in.Masters, out.Masters))
	assert.Empty(t, cmp.Diff(in.Rows, out.Rows, cmpopts.IgnoreFields(model.DetailRow{}, "Record")))
}

func TestLoadRunNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LoadRun(context.Background(), "20240105")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSaveResultDoneReplacesDate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2024, 1, 6, 1, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveResult(ctx, sampleResult("run-1", model.StateDone, started), "sales"))

	second := sampleResult("run-2", model.StateDone, started.Add(time.Hour))
	second.Masters = second.Masters[:1]
	second.Rows = []model.DetailRow{detailRow("010", "drinks", "A", 6)}
	require.NoError(t, s.SaveResult(ctx, second, "sales"))

	out, err := s.LoadRun(ctx, "20240105")
	require.NoError(t, err)
	assert.Equal(t, "run-2", out.RunID)
	require.Len(t, out.Masters, 1)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, int64(6), out.Rows[0].Quantity("sales"))
}

func TestSaveResultFailedKeepsPreviousRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2024, 1, 6, 1, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveResult(ctx, sampleResult("run-1", model.StateDone, started), "sales"))

	failed := sampleResult("run-2", model.StateFailed, started.Add(time.Hour))
	failed.Masters = failed.Masters[:1]
	failed.Rows = []model.DetailRow{detailRow("010", "drinks", "A", 9)}
	failed.Reconciliation = model.ReconciliationReport{FailedCodes: []string{"010", "020"}}
	require.NoError(t, s.SaveResult(ctx, failed, "sales"))

	out, err := s.LoadRun(ctx, "20240105")
	require.NoError(t, err)
	assert.Equal(t, model.StateFailed, out.State)
	assert.False(t, out.Reconciliation.Success)
	assert.Equal(t, []string{"010", "020"}, out.Reconciliation.FailedCodes)
	require.Len(t, out.Rows, 3)
	assert.Equal(t, int64(9), out.Rows[0].Quantity("sales"))
	assert.Len(t, out.Masters, 2)
}

func TestLoadRunPicksLatestWithinSameSecond(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 6, 10, 0, 5, 0, time.UTC)

	older := sampleResult("older", model.StateDone, base.Add(500*time.Millisecond))
	newer := sampleResult("newer", model.StateFailed, base.Add(520*time.Millisecond))
	require.NoError(t, s.SaveResult(ctx, older, "sales"))
	require.NoError(t, s.SaveResult(ctx, newer, "sales"))

	out, err := s.LoadRun(ctx, "20240105")
	require.NoError(t, err)
	assert.Equal(t, "newer", out.RunID)
	assert.Equal(t, model.StateFailed, out.State)
	assert.True(t, out.StartedAt.Equal(newer.StartedAt))
}

func TestFormatTimeIsFixedWidth(t *testing.T) {
	a := formatTime(time.Date(2024, 1, 6, 10, 0, 5, 500_000_000, time.UTC))
	b := formatTime(time.Date(2024, 1, 6, 10, 0, 5, 520_000_000, time.UTC))
	assert.Len(t, a, len(b))
	assert.Less(t, a, b)

	parsed, err := parseTime(a)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(time.Date(2024, 1, 6, 10, 0, 5, 500_000_000, time.UTC)))
}

func TestListDates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2024, 1, 6, 1, 0, 0, 0, time.UTC)

	first := sampleResult("run-1", model.StateDone, started)
	second := sampleResult("run-2", model.StateDone, started)
	second.CollectedFor = "20240106"
	require.NoError(t, s.SaveResult(ctx, first, "sales"))
	require.NoError(t, s.SaveResult(ctx, second, "sales"))

	dates, err := s.ListDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"20240106", "20240105"}, dates)
}
