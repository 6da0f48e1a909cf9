package harvest

import (
	"context"
	"testing"
	"time"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestHarvestCoordinator_Run(t *testing.T) {
	d := scenarioDriver()
	c := NewHarvestCoordinator(d, nil, testOptions(), zaptest.NewLogger(t))
	assert.Equal(t, model.StateIdle, c.State())

	result, started := c.Run(context.Background(), masterScope, detailScope)
	require.True(t, started)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, model.StateDone, result.State)
	assert.Equal(t, model.StateDone, c.State())
	assert.False(t, c.IsCollecting())
	assert.NoError(t, result.Err())
	assert.Empty(t, result.Errors)
	assert.False(t, result.FinishedAt.Before(result.StartedAt))

	assert.True(t, result.Reconciliation.Success)
	assert.Empty(t, result.Reconciliation.FailedCodes)
	assert.Len(t, result.Reconciliation.Entries, 2)
	assert.Equal(t, []projected{
		{MasterCode: "010", ProductID: "A", Sales: 5},
		{MasterCode: "020", ProductID: "B", Sales: 3},
		{MasterCode: "020", ProductID: "C", Sales: 4},
	}, project(result.Rows))
}

func TestHarvestCoordinator_ReconciliationMismatch(t *testing.T) {
	d := scenarioDriver()
	d.details["020"] = [][]model.RowRecord{page(productRow("B", 3))}

	c := NewHarvestCoordinator(d, nil, testOptions(), nil)
	result, started := c.Run(context.Background(), masterScope, detailScope)
	require.True(t, started)

	assert.Equal(t, model.StateDone, result.State)
	assert.False(t, result.Reconciliation.Success)
	assert.Equal(t, []string{"020"}, result.Reconciliation.FailedCodes)
}

func TestHarvestCoordinator_FailedRunIsNeverSuccessful(t *testing.T) {
	// 主网格不存在:没有任何主行,对账本身会通过,但运行失败时必须为 false
	d := newFakeDriver()
	c := NewHarvestCoordinator(d, nil, testOptions(), nil)

	result, started := c.Run(context.Background(), masterScope, detailScope)
	require.True(t, started)

	assert.Equal(t, model.StateFailed, result.State)
	assert.True(t, result.Failed())
	assert.False(t, result.Reconciliation.Success)
	assert.ErrorIs(t, result.Err(), ErrGridUnavailable)
	assert.Len(t, result.ErrorMessages(), 1)
	assert.False(t, c.IsCollecting())
}

func TestHarvestCoordinator_ReadinessTimeoutFailsRun(t *testing.T) {
	d := scenarioDriver()
	delete(d.details, "020")

	c := NewHarvestCoordinator(d, nil, testOptions(), nil)
	result, started := c.Run(context.Background(), masterScope, detailScope)
	require.True(t, started)

	assert.Equal(t, model.StateFailed, result.State)
	assert.ErrorIs(t, result.Err(), ErrReadinessTimeout)
	assert.False(t, result.Reconciliation.Success)
	assert.Contains(t, result.Reconciliation.FailedCodes, "020")
	assert.Equal(t, []projected{{MasterCode: "010", ProductID: "A", Sales: 5}}, project(result.Rows))
}

func TestHarvestCoordinator_ActivationFailureIsNotFatal(t *testing.T) {
	d := scenarioDriver()
	d.missingTargets["010"] = true

	c := NewHarvestCoordinator(d, nil, testOptions(), nil)
	result, started := c.Run(context.Background(), masterScope, detailScope)
	require.True(t, started)

	assert.Equal(t, model.StateDone, result.State)
	assert.NoError(t, result.Err())
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0], ErrRowActivationFailed)
	assert.False(t, result.Reconciliation.Success)
	assert.Empty(t, result.Reconciliation.FailedCodes)
	assert.Equal(t, []string{"010"}, result.Reconciliation.SkippedCodes)
	require.Len(t, result.Masters, 2)
	assert.True(t, result.Masters[0].Skipped)
	assert.False(t, result.Masters[1].Skipped)
}

func TestHarvestCoordinator_ConcurrentRunIsNoop(t *testing.T) {
	d := scenarioDriver()
	d.gate = make(chan struct{})
	c := NewHarvestCoordinator(d, nil, testOptions(), nil)

	type runResult struct {
		result  *model.HarvestResult
		started bool
	}
	done := make(chan runResult, 1)
	go func() {
		r, ok := c.Run(context.Background(), masterScope, detailScope)
		done <- runResult{result: r, started: ok}
	}()

	require.Eventually(t, c.IsCollecting, time.Second, time.Millisecond)

	again, started := c.Run(context.Background(), masterScope, detailScope)
	assert.False(t, started)
	assert.Nil(t, again)
	assert.Equal(t, model.StateCollectingMasters, c.State())

	close(d.gate)
	first := <-done
	require.True(t, first.started)
	assert.Equal(t, model.StateDone, first.result.State)
	assert.False(t, c.IsCollecting())

	// 上一次结束后可以再次运行
	d.grids[masterScope].pos = 0
	second, started := c.Run(context.Background(), masterScope, detailScope)
	require.True(t, started)
	assert.Equal(t, model.StateDone, second.State)
}

func TestHarvestCoordinator_ContextCancelled(t *testing.T) {
	d := scenarioDriver()
	d.gate = make(chan struct{})
	c := NewHarvestCoordinator(d, nil, testOptions(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, started := c.Run(ctx, masterScope, detailScope)
	require.True(t, started)
	assert.Equal(t, model.StateFailed, result.State)
	assert.ErrorIs(t, result.Err(), context.Canceled)
}
