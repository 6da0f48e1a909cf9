package harvest

import (
	"context"
	"errors"
	"fmt"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"go.uber.org/zap"
)

// StateHook 主网格遍历过程中的状态通知
type StateHook func(state model.RunState, master *model.MasterContext)

// MasterOutcome 主网格遍历的结果,出错时保存出错前已完成的部分
type MasterOutcome struct {
	Rows    []model.DetailRow
	Masters []model.MasterContext
	// Skipped 因找不到点击目标而跳过的主行
	Skipped []error
}

// MasterHarvester 遍历主网格,逐行激活并委托 DetailHarvester 读取明细
type MasterHarvester struct {
	driver GridDriver
	waiter Waiter
	detail *DetailHarvester
	opts   Options
	logger *zap.Logger
	hook   StateHook
}

func NewMasterHarvester(driver GridDriver, waiter Waiter, detail *DetailHarvester, opts Options, logger *zap.Logger) *MasterHarvester {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	if waiter == nil {
		waiter = NewPollWaiter(opts.PollInterval)
	}
	if detail == nil {
		detail = NewDetailHarvester(driver, waiter, opts, logger)
	}
	return &MasterHarvester{
		driver: driver,
		waiter: waiter,
		detail: detail,
		opts:   opts,
		logger: logger,
	}
}

func (h *MasterHarvester) OnState(hook StateHook) {
	h.hook = hook
}

func (h *MasterHarvester) emit(state model.RunState, master *model.MasterContext) {
	if h.hook != nil {
		h.hook(state, master)
	}
}

// HarvestAll 读完主网格以及每个主行下的明细。
// 每处理完一个新主行就从可见窗口顶部重新扫描,激活操作可能改变了主网格的滚动位置。
func (h *MasterHarvester) HarvestAll(ctx context.Context, masterScope, detailScope model.GridScope) (*MasterOutcome, error) {
	logger := h.logger.With(zap.String("grid", string(masterScope)))
	out := &MasterOutcome{}
	set := model.NewRowSet()

	h.emit(model.StateCollectingMasters, nil)
	if err := waitForRows(ctx, h.driver, h.waiter, masterScope, h.opts.GridTimeout); err != nil {
		return out, err
	}

	layout := h.opts.Master
	seen := make(map[string]struct{})
	tracker := NewConvergenceTracker(h.opts.MasterThreshold)

	var prevIDs []string
	scrolled := false
	scrolls := 0
	for {
		visible, err := h.driver.FindVisibleRows(ctx, masterScope)
		if err != nil {
			out.Rows = set.Rows()
			return out, fmt.Errorf("读取主网格失败: %w", err)
		}
		ids := rowIDs(visible)

		var next *model.RowRecord
		if !scrolled || !sameIDSet(prevIDs, ids) {
			for i := range visible {
				rec := visible[i]
				if !validRowID(layout.IDPattern, rec.RowID) {
					logger.Debug("跳过格式不符的主行", zap.String("row_id", rec.RowID), zap.Error(ErrMalformedRow))
					continue
				}
				if _, ok := seen[rec.RowID]; ok {
					continue
				}
				next = &rec
				break
			}
		}
		prevIDs = ids

		if next != nil {
			seen[next.RowID] = struct{}{}
			tracker.Observe(1)
			scrolled = false

			master := model.MasterContext{
				Code:              next.RowID,
				Name:              next.Value(layout.NameColumn),
				ExpectedAggregate: model.ParseQuantity(next.Value(layout.AggregateColumn)),
				Ordinal:           len(out.Masters),
			}
			out.Masters = append(out.Masters, master)

			err := h.collectMaster(ctx, masterScope, detailScope, *next, master, set)
			if errors.Is(err, ErrRowActivationFailed) {
				logger.Warn("主行点击目标不存在,跳过", zap.String("master_code", master.Code), zap.Error(err))
				out.Skipped = append(out.Skipped, err)
				out.Masters[len(out.Masters)-1].Skipped = true
				h.emit(model.StateCollectingMasters, nil)
				continue
			}
			if err != nil {
				out.Rows = set.Rows()
				return out, err
			}
			h.emit(model.StateCollectingMasters, nil)
			continue
		}

		// 激活后的重新扫描没有滚动,不计入空读次数
		if scrolled && tracker.Observe(0) == Exhausted {
			logger.Info("主网格已读完",
				zap.Int("masters", len(out.Masters)),
				zap.Int("rows", set.Len()),
				zap.Int("scrolls", scrolls))
			break
		}
		if scrolls >= h.opts.MaxScrolls {
			logger.Warn("达到最大滚动次数,提前结束", zap.Int("scrolls", scrolls))
			break
		}

		handle, err := h.driver.FindScrollControl(ctx, masterScope)
		if err != nil {
			out.Rows = set.Rows()
			return out, fmt.Errorf("查找主网格滚动条失败: %w", err)
		}
		if handle == nil {
			break
		}
		if err := scrollAndSettle(ctx, h.driver, h.waiter, handle, ids, h.opts.SettleTimeout); err != nil {
			out.Rows = set.Rows()
			return out, err
		}
		scrolled = true
		scrolls++
		logger.Debug("主网格滚动", zap.Int("scrolls", scrolls))
	}

	out.Rows = set.Rows()
	return out, nil
}

// collectMaster 激活主行,等待明细就绪,读取明细并按 (主行, 商品) 合并
func (h *MasterHarvester) collectMaster(ctx context.Context, masterScope, detailScope model.GridScope, row model.RowRecord, master model.MasterContext, set *model.RowSet) error {
	logger := h.logger.With(zap.String("master_code", master.Code), zap.String("master_name", master.Name))

	before, err := h.driver.FindVisibleRows(ctx, detailScope)
	if err != nil {
		return fmt.Errorf("读取明细网格失败: %w", err)
	}

	h.emit(model.StateActivatingRow, &master)
	ok, err := h.driver.ActivateRow(ctx, masterScope, row)
	if err != nil {
		return fmt.Errorf("激活主行 %s 失败: %w", master.Code, err)
	}
	if !ok {
		return &GridError{Kind: ErrRowActivationFailed, Scope: masterScope, RowID: master.Code}
	}

	h.emit(model.StateWaitingReady, &master)
	probe := ReadinessProbe{
		Reader: h.driver,
		Scope:  detailScope,
		Master: master,
		Before: rowIDs(before),
	}
	ready, err := h.waiter.WaitUntil(ctx, h.opts.ReadyTimeout, func(ctx context.Context) (bool, error) {
		return h.opts.Readiness(ctx, probe)
	})
	if err != nil {
		return fmt.Errorf("等待明细网格就绪失败: %w", err)
	}
	if !ready {
		return &GridError{Kind: ErrReadinessTimeout, Scope: detailScope, RowID: master.Code, Timeout: h.opts.ReadyTimeout}
	}

	h.emit(model.StateCollectingDetail, &master)
	rows, err := h.detail.Harvest(ctx, detailScope, master)
	set.MergeAll(rows)
	if err != nil {
		return err
	}
	logger.Info("主行明细采集完成",
		zap.Int("rows", len(rows)),
		zap.Int64("expected", master.ExpectedAggregate))
	return nil
}
