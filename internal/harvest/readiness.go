package harvest

import (
	"context"
	"fmt"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
)

// ReadinessProbe 判断明细网格是否已切换到新主行时可用的信息
type ReadinessProbe struct {
	Reader RowWindowReader
	Scope  model.GridScope
	Master model.MasterContext
	// Before 激活主行前明细网格的可见行 id
	Before []string
}

// ReadinessFunc 激活主行后的就绪谓词,由调用方选择
type ReadinessFunc func(ctx context.Context, probe ReadinessProbe) (bool, error)

// DetailNonEmpty 明细网格至少有一行即视为就绪
func DetailNonEmpty(ctx context.Context, probe ReadinessProbe) (bool, error) {
	rows, err := probe.Reader.FindVisibleRows(ctx, probe.Scope)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// DetailChanged 明细网格非空且可见行与激活前不同才视为就绪
func DetailChanged(ctx context.Context, probe ReadinessProbe) (bool, error) {
	rows, err := probe.Reader.FindVisibleRows(ctx, probe.Scope)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	if len(probe.Before) == 0 {
		return true, nil
	}
	return !sameIDSet(probe.Before, rowIDs(rows)), nil
}

// ReadinessByName 根据配置名称选择就绪策略
func ReadinessByName(name string) (ReadinessFunc, error) {
	switch name {
	case "", "non_empty":
		return DetailNonEmpty, nil
	case "changed":
		return DetailChanged, nil
	default:
		return nil, fmt.Errorf("未知的就绪策略: %s", name)
	}
}
