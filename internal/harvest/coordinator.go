package harvest

import (
	"context"
	"sync"
	"time"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HarvestCoordinator 顶层编排:遍历主网格,然后对账。
// 同一时刻最多只有一次采集在进行,采集中再次调用 Run 不做任何事。
type HarvestCoordinator struct {
	mu      sync.Mutex
	state   model.RunState
	master  *MasterHarvester
	checker *ReconciliationChecker
	logger  *zap.Logger
}

func NewHarvestCoordinator(driver GridDriver, waiter Waiter, opts Options, logger *zap.Logger) *HarvestCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	if waiter == nil {
		waiter = NewPollWaiter(opts.PollInterval)
	}
	detail := NewDetailHarvester(driver, waiter, opts, logger)
	c := &HarvestCoordinator{
		state:   model.StateIdle,
		master:  NewMasterHarvester(driver, waiter, detail, opts, logger),
		checker: NewReconciliationChecker(opts.AggregateField),
		logger:  logger,
	}
	c.master.OnState(func(state model.RunState, master *model.MasterContext) {
		c.setState(state)
		if master != nil {
			c.logger.Debug("状态切换", zap.String("state", string(state)), zap.String("master_code", master.Code))
		}
	})
	return c
}

func (c *HarvestCoordinator) State() model.RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *HarvestCoordinator) IsCollecting() bool {
	return c.State().Collecting()
}

func (c *HarvestCoordinator) setState(state model.RunState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

// tryStart 原子地从非采集状态切换到 CollectingMasters
func (c *HarvestCoordinator) tryStart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Collecting() {
		return false
	}
	c.state = model.StateCollectingMasters
	return true
}

// Run 执行一次完整采集。已有采集在进行时返回 nil, false。
// 运行失败时结果中仍保留失败前采到的行,对账结果一定不是成功。
func (c *HarvestCoordinator) Run(ctx context.Context, masterScope, detailScope model.GridScope) (*model.HarvestResult, bool) {
	if !c.tryStart() {
		c.logger.Info("已有采集在进行,忽略本次调用")
		return nil, false
	}

	result := &model.HarvestResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	logger := c.logger.With(zap.String("run_id", result.RunID))
	logger.Info("开始采集", zap.String("master_grid", string(masterScope)), zap.String("detail_grid", string(detailScope)))

	out, err := c.master.HarvestAll(ctx, masterScope, detailScope)
	result.Rows = out.Rows
	result.Masters = out.Masters
	result.Errors = append(result.Errors, out.Skipped...)

	if err == nil {
		c.setState(model.StateReconciling)
	}
	report := c.checker.Check(result.Masters, result.Rows)
	if err != nil {
		report.Success = false
		result.Errors = append(result.Errors, err)
		result.State = model.StateFailed
	} else {
		result.State = model.StateDone
	}
	result.Reconciliation = report
	result.FinishedAt = time.Now()
	c.setState(result.State)

	fields := []zap.Field{
		zap.String("state", string(result.State)),
		zap.Int("masters", len(result.Masters)),
		zap.Int("rows", len(result.Rows)),
		zap.Bool("reconciled", report.Success),
		zap.Strings("failed_codes", report.FailedCodes),
		zap.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)),
	}
	if err != nil {
		logger.Error("采集失败", append(fields, zap.Error(err))...)
	} else {
		logger.Info("采集完成", fields...)
	}
	for _, e := range report.Entries {
		if !e.Matched {
			logger.Warn("数量不一致",
				zap.String("master_code", e.Code),
				zap.String("master_name", e.Name),
				zap.Int64("expected", e.Expected),
				zap.Int64("actual", e.Actual))
		}
	}
	return result, true
}
