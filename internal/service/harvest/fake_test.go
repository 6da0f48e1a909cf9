package service

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/LouYuanbo1/gridharvester/internal/config"
	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/LouYuanbo1/gridharvester/internal/harvest"
	"github.com/LouYuanbo1/gridharvester/internal/infra/grid"
)

const testConfig = `{
	"target": {
		"url": "https://store.example.com/",
		"login_script": "login()",
		"date_script": "setDate('{{date}}')"
	},
	"harvest": {
		"poll_interval_ms": 1,
		"grid_timeout_ms": 30,
		"settle_timeout_ms": 3,
		"ready_timeout_ms": 30,
		"detail": {"id_pattern": "^[A-Z]\\w*$"}
	}
}`

func mustConfig() *config.Config {
	cfg, err := config.ParseConfig([]byte(testConfig))
	if err != nil {
		panic(err)
	}
	return cfg
}

// staticDriver 没有滚动条的网格:主网格固定,点击主行后明细网格换成对应内容
type staticDriver struct {
	mu      sync.Mutex
	masters []model.RowRecord
	details map[string][]model.RowRecord
	current []model.RowRecord
}

func newStaticDriver(cfg *config.Config) *staticDriver {
	master := cfg.MasterGridLayout()
	detail := cfg.DetailGridLayout()
	product := func(code string, sales int) model.RowRecord {
		return model.NewRowRecord(detail, "gdDetail.body.cell_"+code, []string{code, "product " + code, strconv.Itoa(sales), "0", "0", "0", "1"})
	}
	return &staticDriver{
		masters: []model.RowRecord{
			model.NewRowRecord(master, "gdList.body.cell_010", []string{"010", "drinks", "5"}),
			model.NewRowRecord(master, "gdList.body.cell_020", []string{"020", "snacks", "7"}),
		},
		details: map[string][]model.RowRecord{
			"010": {product("A", 5)},
			"020": {product("B", 3), product("C", 4)},
		},
	}
}

func (d *staticDriver) FindVisibleRows(_ context.Context, scope model.GridScope) ([]model.RowRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if scope == "gdList" {
		return append([]model.RowRecord(nil), d.masters...), nil
	}
	return append([]model.RowRecord(nil), d.current...), nil
}

func (d *staticDriver) FindScrollControl(context.Context, model.GridScope) (*harvest.ScrollHandle, error) {
	return nil, nil
}

func (d *staticDriver) TriggerScroll(context.Context, *harvest.ScrollHandle) error {
	return nil
}

func (d *staticDriver) ActivateRow(_ context.Context, _ model.GridScope, row model.RowRecord) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = d.details[row.RowID]
	return true, nil
}

type fakeCrawler struct {
	mu          sync.Mutex
	driver      harvest.GridDriver
	navigated   []string
	scripts     []string
	scriptErr   error
	navigateErr error
	closed      bool
}

func (c *fakeCrawler) InitAndNavigate(_ context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.navigateErr != nil {
		return c.navigateErr
	}
	c.navigated = append(c.navigated, url)
	return nil
}

func (c *fakeCrawler) RunScript(_ context.Context, js string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts = append(c.scripts, js)
	return c.scriptErr
}

func (c *fakeCrawler) GridDriver(grid.Scheme, grid.Layouts) harvest.GridDriver {
	return c.driver
}

func (c *fakeCrawler) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

type fakeStore struct {
	mu      sync.Mutex
	saved   []*model.HarvestResult
	field   string
	saveErr error
}

func (s *fakeStore) SaveResult(_ context.Context, result *model.HarvestResult, aggregateField string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, result)
	s.field = aggregateField
	return s.saveErr
}

type fakeExporter struct {
	exported []string
}

func (e *fakeExporter) Export(result *model.HarvestResult) (string, error) {
	e.exported = append(e.exported, result.CollectedFor)
	return "sales_" + result.CollectedFor + ".xlsx", nil
}

type fakeIndexer struct {
	calls int
	err   error
}

func (i *fakeIndexer) Index(_ context.Context, result *model.HarvestResult) (int, error) {
	i.calls++
	if i.err != nil {
		return 0, i.err
	}
	return len(result.Rows), nil
}

var errIndexDown = errors.New("index down")
