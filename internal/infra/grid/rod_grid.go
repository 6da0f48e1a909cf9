package grid

import (
	"context"
	"fmt"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/LouYuanbo1/gridharvester/internal/harvest"
	"github.com/go-rod/rod"
	"go.uber.org/zap"
)

type rodDriver struct {
	page    *rod.Page
	scheme  Scheme
	layouts Layouts
	logger  *zap.Logger
}

// NewRodDriver 基于 rod 页面实现网格读取、滚动与点击
func NewRodDriver(page *rod.Page, scheme Scheme, layouts Layouts, logger *zap.Logger) harvest.GridDriver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &rodDriver{
		page:    page,
		scheme:  scheme,
		layouts: layouts,
		logger:  logger,
	}
}

func (d *rodDriver) layout(scope model.GridScope) (model.GridLayout, error) {
	layout, ok := d.layouts[scope]
	if !ok {
		return model.GridLayout{}, fmt.Errorf("网格 %s 没有配置列布局", scope)
	}
	return layout, nil
}

func (d *rodDriver) FindVisibleRows(ctx context.Context, scope model.GridScope) ([]model.RowRecord, error) {
	layout, err := d.layout(scope)
	if err != nil {
		return nil, err
	}
	has, body, err := d.page.Context(ctx).Has(d.scheme.BodySelector(scope))
	if err != nil {
		return nil, fmt.Errorf("查找网格 %s 失败: %w", scope, err)
	}
	if !has {
		return nil, nil
	}
	html, err := body.HTML()
	if err != nil {
		return nil, fmt.Errorf("读取网格 %s 快照失败: %w", scope, err)
	}
	return ParseRows(html, scope, layout, d.scheme)
}

func (d *rodDriver) FindScrollControl(ctx context.Context, scope model.GridScope) (*harvest.ScrollHandle, error) {
	has, btn, err := d.page.Context(ctx).Has(d.scheme.ScrollSelector(scope))
	if err != nil {
		return nil, fmt.Errorf("查找网格 %s 滚动条失败: %w", scope, err)
	}
	if !has {
		return nil, nil
	}
	id, err := btn.Attribute("id")
	if err != nil {
		return nil, fmt.Errorf("读取滚动按钮id失败: %w", err)
	}
	if id == nil || *id == "" {
		return nil, nil
	}
	return &harvest.ScrollHandle{Scope: scope, ElementID: *id}, nil
}

func (d *rodDriver) TriggerScroll(ctx context.Context, handle *harvest.ScrollHandle) error {
	ok, err := d.dispatchClick(ctx, handle.ElementID)
	if err != nil {
		return err
	}
	if !ok {
		d.logger.Debug("滚动按钮已不存在", zap.String("grid", string(handle.Scope)), zap.String("element_id", handle.ElementID))
	}
	return nil
}

func (d *rodDriver) ActivateRow(ctx context.Context, scope model.GridScope, row model.RowRecord) (bool, error) {
	if row.Target == "" {
		return false, nil
	}
	return d.dispatchClick(ctx, row.Target)
}

func (d *rodDriver) dispatchClick(ctx context.Context, elementID string) (bool, error) {
	res, err := d.page.Context(ctx).Eval(dispatchClickJS, elementID)
	if err != nil {
		return false, fmt.Errorf("点击元素 %s 失败: %w", elementID, err)
	}
	return res.Value.Bool(), nil
}
