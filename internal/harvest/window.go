package harvest

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
)

func validRowID(pattern *regexp.Regexp, id string) bool {
	if id == "" {
		return false
	}
	return pattern == nil || pattern.MatchString(id)
}

func rowIDs(rows []model.RowRecord) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.RowID)
	}
	return ids
}

// sameIDSet 按集合比较两次读取的行 id,与顺序无关
func sameIDSet(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	other := make(map[string]struct{}, len(b))
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
		other[id] = struct{}{}
	}
	return len(set) == len(other)
}

// waitForRows 等待网格出现并至少渲染一行
func waitForRows(ctx context.Context, reader RowWindowReader, waiter Waiter, scope model.GridScope, timeout time.Duration) error {
	ok, err := waiter.WaitUntil(ctx, timeout, func(ctx context.Context) (bool, error) {
		rows, err := reader.FindVisibleRows(ctx, scope)
		if err != nil {
			return false, err
		}
		return len(rows) > 0, nil
	})
	if err != nil {
		return fmt.Errorf("等待网格 %s 失败: %w", scope, err)
	}
	if !ok {
		return &GridError{Kind: ErrGridUnavailable, Scope: scope, Timeout: timeout}
	}
	return nil
}

// scrollAndSettle 触发一次滚动,然后等待可见行集合发生变化或超时。
// 超时不算错误,是否有新行交给收敛判断。
func scrollAndSettle(ctx context.Context, driver GridDriver, waiter Waiter, handle *ScrollHandle, before []string, timeout time.Duration) error {
	if err := driver.TriggerScroll(ctx, handle); err != nil {
		return fmt.Errorf("滚动网格 %s 失败: %w", handle.Scope, err)
	}
	_, err := waiter.WaitUntil(ctx, timeout, func(ctx context.Context) (bool, error) {
		rows, err := driver.FindVisibleRows(ctx, handle.Scope)
		if err != nil {
			return false, err
		}
		return !sameIDSet(before, rowIDs(rows)), nil
	})
	if err != nil {
		return fmt.Errorf("等待网格 %s 滚动稳定失败: %w", handle.Scope, err)
	}
	return nil
}
