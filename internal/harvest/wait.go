package harvest

import (
	"context"
	"time"
)

const DefaultPollInterval = 300 * time.Millisecond

// PollWaiter 以固定间隔轮询谓词,三类等待(网格出现、滚动稳定、激活后就绪)共用
type PollWaiter struct {
	interval time.Duration
}

func NewPollWaiter(interval time.Duration) *PollWaiter {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PollWaiter{interval: interval}
}

func (w *PollWaiter) WaitUntil(ctx context.Context, timeout time.Duration, cond Condition) (bool, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		ok, err := cond(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}
