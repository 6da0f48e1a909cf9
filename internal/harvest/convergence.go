package harvest

const DefaultConvergenceThreshold = 3

type Decision int

const (
	Continue Decision = iota
	Exhausted
)

func (d Decision) String() string {
	if d == Exhausted {
		return "exhausted"
	}
	return "continue"
}

// ConvergenceTracker 统计连续多少次观察没有出现新行。
// 网络请求未返回时虚拟化网格会在多次滚动中复用同一批行,
// 因此一次空读不能当作数据结束,需要连续 threshold 次空读。
type ConvergenceTracker struct {
	threshold int
	idle      int
}

func NewConvergenceTracker(threshold int) *ConvergenceTracker {
	if threshold <= 0 {
		threshold = DefaultConvergenceThreshold
	}
	return &ConvergenceTracker{threshold: threshold}
}

// Observe 记录一次观察的新行数量并给出决定
func (t *ConvergenceTracker) Observe(newlySeen int) Decision {
	if newlySeen > 0 {
		t.idle = 0
	} else {
		t.idle++
	}
	if t.idle >= t.threshold {
		return Exhausted
	}
	return Continue
}

func (t *ConvergenceTracker) IdleStreak() int {
	return t.idle
}

func (t *ConvergenceTracker) Threshold() int {
	return t.threshold
}
