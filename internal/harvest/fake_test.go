package harvest

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
)

const (
	masterScope model.GridScope = "gdList"
	detailScope model.GridScope = "gdDetail"
)

// fakeGrid 一个按页滚动的虚拟化网格,每次滚动前进一页,到底后停在最后一页
type fakeGrid struct {
	pages       [][]model.RowRecord
	pos         int
	noScrollbar bool
}

func (g *fakeGrid) visible() []model.RowRecord {
	if g == nil || len(g.pages) == 0 {
		return nil
	}
	return append([]model.RowRecord(nil), g.pages[g.pos]...)
}

type fakeDriver struct {
	mu             sync.Mutex
	grids          map[model.GridScope]*fakeGrid
	details        map[string][][]model.RowRecord
	missingTargets map[string]bool
	onActivate     func(d *fakeDriver, row model.RowRecord)
	activated      []string
	reads          map[model.GridScope]int
	scrolls        map[model.GridScope]int
	gate           chan struct{}
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		grids:          make(map[model.GridScope]*fakeGrid),
		details:        make(map[string][][]model.RowRecord),
		missingTargets: make(map[string]bool),
		reads:          make(map[model.GridScope]int),
		scrolls:        make(map[model.GridScope]int),
	}
}

func (d *fakeDriver) FindVisibleRows(ctx context.Context, scope model.GridScope) ([]model.RowRecord, error) {
	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads[scope]++
	return d.grids[scope].visible(), nil
}

func (d *fakeDriver) FindScrollControl(_ context.Context, scope model.GridScope) (*ScrollHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g := d.grids[scope]
	if g == nil || g.noScrollbar {
		return nil, nil
	}
	return &ScrollHandle{Scope: scope, ElementID: string(scope) + ".vscrollbar.incbutton"}, nil
}

func (d *fakeDriver) TriggerScroll(_ context.Context, handle *ScrollHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scrolls[handle.Scope]++
	g := d.grids[handle.Scope]
	if g != nil && g.pos < len(g.pages)-1 {
		g.pos++
	}
	return nil
}

func (d *fakeDriver) ActivateRow(_ context.Context, scope model.GridScope, row model.RowRecord) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.missingTargets[row.RowID] {
		return false, nil
	}
	d.activated = append(d.activated, row.RowID)
	d.grids[detailScope] = &fakeGrid{pages: d.details[row.RowID]}
	if d.onActivate != nil {
		d.onActivate(d, row)
	}
	return true, nil
}

func (d *fakeDriver) activatedCodes() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.activated...)
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Detail.IDPattern = regexp.MustCompile(`^[A-Z]\w*$`)
	opts.PollInterval = time.Millisecond
	opts.GridTimeout = 30 * time.Millisecond
	opts.SettleTimeout = 3 * time.Millisecond
	opts.ReadyTimeout = 30 * time.Millisecond
	return opts
}

func masterRow(code, name string, expected int) model.RowRecord {
	layout := DefaultOptions().Master.Grid
	return model.NewRowRecord(layout, fmt.Sprintf("gdList.body.cell_%s_0", code), []string{code, name, strconv.Itoa(expected)})
}

func productRow(code string, sales int) model.RowRecord {
	layout := DefaultOptions().Detail.Grid
	return model.NewRowRecord(layout, "gdDetail.body.cell_"+code+"_0",
		[]string{code, "product " + code, strconv.Itoa(sales), "1", "2", "0", "3"})
}

func page(rows ...model.RowRecord) []model.RowRecord {
	return rows
}

// scenarioDriver 主网格两页 "010"(期望5) / "020"(期望7);
// "010" 明细直接给出 A(5),"020" 明细先给 B(3),滚动一次后给 C(4)
func scenarioDriver() *fakeDriver {
	d := newFakeDriver()
	d.grids[masterScope] = &fakeGrid{pages: [][]model.RowRecord{
		page(masterRow("010", "beverage", 5)),
		page(masterRow("020", "snack", 7)),
	}}
	d.details["010"] = [][]model.RowRecord{page(productRow("A", 5))}
	d.details["020"] = [][]model.RowRecord{page(productRow("B", 3)), page(productRow("C", 4))}
	return d
}

type projected struct {
	MasterCode string
	ProductID  string
	Sales      int64
}

func project(rows []model.DetailRow) []projected {
	out := make([]projected, 0, len(rows))
	for _, r := range rows {
		out = append(out, projected{MasterCode: r.MasterCode, ProductID: r.ProductID, Sales: r.Quantity("sales")})
	}
	return out
}
