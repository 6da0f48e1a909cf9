package grid

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/LouYuanbo1/gridharvester/internal/harvest"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

type chromedpDriver struct {
	pageCtx context.Context
	scheme  Scheme
	layouts Layouts
	logger  *zap.Logger
}

// NewChromedpDriver pageCtx 为 chromedp.NewContext 创建的标签页上下文
func NewChromedpDriver(pageCtx context.Context, scheme Scheme, layouts Layouts, logger *zap.Logger) harvest.GridDriver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &chromedpDriver{
		pageCtx: pageCtx,
		scheme:  scheme,
		layouts: layouts,
		logger:  logger,
	}
}

// jsString 把 Go 字符串转成 JS 字面量
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// run 在标签页上下文中执行动作,调用方的 ctx 取消时一并取消
func (d *chromedpDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(d.pageCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (d *chromedpDriver) FindVisibleRows(ctx context.Context, scope model.GridScope) ([]model.RowRecord, error) {
	layout, ok := d.layouts[scope]
	if !ok {
		return nil, fmt.Errorf("网格 %s 没有配置列布局", scope)
	}
	js := fmt.Sprintf(`(() => { const el = document.querySelector(%s); return el ? el.outerHTML : ""; })()`,
		jsString(d.scheme.BodySelector(scope)))
	var html string
	if err := d.run(ctx, chromedp.Evaluate(js, &html)); err != nil {
		return nil, fmt.Errorf("读取网格 %s 快照失败: %w", scope, err)
	}
	return ParseRows(html, scope, layout, d.scheme)
}

func (d *chromedpDriver) FindScrollControl(ctx context.Context, scope model.GridScope) (*harvest.ScrollHandle, error) {
	js := fmt.Sprintf(`(() => { const el = document.querySelector(%s); return el ? el.id : ""; })()`,
		jsString(d.scheme.ScrollSelector(scope)))
	var id string
	if err := d.run(ctx, chromedp.Evaluate(js, &id)); err != nil {
		return nil, fmt.Errorf("查找网格 %s 滚动条失败: %w", scope, err)
	}
	if id == "" {
		return nil, nil
	}
	return &harvest.ScrollHandle{Scope: scope, ElementID: id}, nil
}

func (d *chromedpDriver) TriggerScroll(ctx context.Context, handle *harvest.ScrollHandle) error {
	ok, err := d.dispatchClick(ctx, handle.ElementID)
	if err != nil {
		return err
	}
	if !ok {
		d.logger.Debug("滚动按钮已不存在", zap.String("grid", string(handle.Scope)), zap.String("element_id", handle.ElementID))
	}
	return nil
}

func (d *chromedpDriver) ActivateRow(ctx context.Context, scope model.GridScope, row model.RowRecord) (bool, error) {
	if row.Target == "" {
		return false, nil
	}
	return d.dispatchClick(ctx, row.Target)
}

func (d *chromedpDriver) dispatchClick(ctx context.Context, elementID string) (bool, error) {
	var ok bool
	js := fmt.Sprintf("(%s)(%s)", dispatchClickJS, jsString(elementID))
	if err := d.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return false, fmt.Errorf("点击元素 %s 失败: %w", elementID, err)
	}
	return ok, nil
}
