package harvest

import (
	"context"
	"time"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
)

// ScrollHandle 网格纵向滚动条上"向后"按钮的句柄
type ScrollHandle struct {
	Scope     model.GridScope
	ElementID string
}

// RowWindowReader 读取网格当前渲染出来的行,按 DOM 顺序返回,不滚动
type RowWindowReader interface {
	FindVisibleRows(ctx context.Context, scope model.GridScope) ([]model.RowRecord, error)
}

// ScrollDriver 查找并触发网格的滚动控件。
// 控件不存在时 FindScrollControl 返回 nil, nil。
// TriggerScroll 只负责发出动作,效果只能通过后续的 FindVisibleRows 观察到。
type ScrollDriver interface {
	FindScrollControl(ctx context.Context, scope model.GridScope) (*ScrollHandle, error)
	TriggerScroll(ctx context.Context, handle *ScrollHandle) error
}

// RowActivator 选中/点击一行,使其明细数据在别处加载。
// 返回 false 表示找不到可交互的目标元素;返回 true 不代表下游已经就绪。
type RowActivator interface {
	ActivateRow(ctx context.Context, scope model.GridScope, row model.RowRecord) (bool, error)
}

// GridDriver 引擎所需的全部宿主页面能力
type GridDriver interface {
	RowWindowReader
	ScrollDriver
	RowActivator
}

// Condition 轮询等待的谓词
type Condition func(ctx context.Context) (bool, error)

// Waiter 有界等待:在 timeout 内反复检查 cond,成功返回 true,超时返回 false
type Waiter interface {
	WaitUntil(ctx context.Context, timeout time.Duration, cond Condition) (bool, error)
}
