package harvest

import (
	"context"
	"fmt"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"go.uber.org/zap"
)

// DetailHarvester 把明细网格在当前主行上下文中滚动读完
type DetailHarvester struct {
	driver GridDriver
	waiter Waiter
	opts   Options
	logger *zap.Logger
}

func NewDetailHarvester(driver GridDriver, waiter Waiter, opts Options, logger *zap.Logger) *DetailHarvester {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	if waiter == nil {
		waiter = NewPollWaiter(opts.PollInterval)
	}
	return &DetailHarvester{
		driver: driver,
		waiter: waiter,
		opts:   opts,
		logger: logger,
	}
}

// Harvest 返回该主行下去重后的全部明细行。
// 没有更多行属于正常结束;网格始终没有渲染时返回 ErrGridUnavailable。
// 出错时同时返回出错前已经读到的行。
func (h *DetailHarvester) Harvest(ctx context.Context, scope model.GridScope, master model.MasterContext) ([]model.DetailRow, error) {
	logger := h.logger.With(zap.String("grid", string(scope)), zap.String("master_code", master.Code))

	if err := waitForRows(ctx, h.driver, h.waiter, scope, h.opts.GridTimeout); err != nil {
		return nil, err
	}

	layout := h.opts.Detail
	seen := make(map[string]struct{})
	var rows []model.DetailRow
	tracker := NewConvergenceTracker(h.opts.DetailThreshold)

	var prevIDs []string
	scrolled := false
	scrolls := 0
	for {
		visible, err := h.driver.FindVisibleRows(ctx, scope)
		if err != nil {
			return rows, fmt.Errorf("读取明细网格失败: %w", err)
		}
		ids := rowIDs(visible)

		newCount := 0
		// 滚动后可见行集合没变,即使控件动了也按零新行处理
		if !scrolled || !sameIDSet(prevIDs, ids) {
			for _, rec := range visible {
				if !validRowID(layout.IDPattern, rec.RowID) {
					logger.Debug("跳过格式不符的行", zap.String("row_id", rec.RowID), zap.Error(ErrMalformedRow))
					continue
				}
				if _, ok := seen[rec.RowID]; ok {
					continue
				}
				seen[rec.RowID] = struct{}{}
				rows = append(rows, model.NewDetailRow(master, rec, layout.NameColumn, layout.NumericColumns))
				newCount++
			}
		}
		prevIDs = ids

		if tracker.Observe(newCount) == Exhausted {
			logger.Debug("明细网格已读完",
				zap.Int("rows", len(rows)),
				zap.Int("scrolls", scrolls))
			return rows, nil
		}
		if scrolls >= h.opts.MaxScrolls {
			logger.Warn("达到最大滚动次数,提前结束", zap.Int("scrolls", scrolls), zap.Int("rows", len(rows)))
			return rows, nil
		}

		handle, err := h.driver.FindScrollControl(ctx, scope)
		if err != nil {
			return rows, fmt.Errorf("查找明细网格滚动条失败: %w", err)
		}
		if handle == nil {
			logger.Debug("明细网格没有滚动条", zap.Int("rows", len(rows)))
			return rows, nil
		}
		if err := scrollAndSettle(ctx, h.driver, h.waiter, handle, ids, h.opts.SettleTimeout); err != nil {
			return rows, err
		}
		scrolled = true
		scrolls++
		logger.Debug("明细网格滚动", zap.Int("scrolls", scrolls), zap.Int("new_rows", newCount))
	}
}
