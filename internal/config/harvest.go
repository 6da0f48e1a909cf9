package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/LouYuanbo1/gridharvester/internal/harvest"
	"github.com/LouYuanbo1/gridharvester/internal/infra/grid"
)

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func (c *Config) MasterScope() model.GridScope {
	return model.GridScope(c.Target.MasterGrid)
}

func (c *Config) DetailScope() model.GridScope {
	return model.GridScope(c.Target.DetailGrid)
}

func (c *Config) MasterGridLayout() model.GridLayout {
	return model.GridLayout{Columns: c.Harvest.Master.Columns, KeyColumn: c.Harvest.Master.KeyColumn}
}

func (c *Config) DetailGridLayout() model.GridLayout {
	return model.GridLayout{Columns: c.Harvest.Detail.Columns, KeyColumn: c.Harvest.Detail.KeyColumn}
}

// GridScheme 按配置的选择器模板构造网格 DOM 约定
func (c *Config) GridScheme() (grid.Scheme, error) {
	sel := c.Harvest.Selector
	scheme, err := grid.NewScheme(sel.Body, sel.Cell, sel.ScrollButton, sel.CellID)
	if err != nil {
		return grid.Scheme{}, fmt.Errorf("网格选择器配置无效: %w", err)
	}
	return scheme, nil
}

func (c *Config) GridLayouts() grid.Layouts {
	return grid.Layouts{
		c.MasterScope(): c.MasterGridLayout(),
		c.DetailScope(): c.DetailGridLayout(),
	}
}

// HarvestOptions 把配置转换为采集引擎参数,编译 id 正则并选择就绪策略
func (c *Config) HarvestOptions() (harvest.Options, error) {
	h := c.Harvest
	masterPattern, err := regexp.Compile(h.Master.IDPattern)
	if err != nil {
		return harvest.Options{}, fmt.Errorf("主网格id正则无效: %w", err)
	}
	detailPattern, err := regexp.Compile(h.Detail.IDPattern)
	if err != nil {
		return harvest.Options{}, fmt.Errorf("明细网格id正则无效: %w", err)
	}
	readiness, err := harvest.ReadinessByName(h.Readiness)
	if err != nil {
		return harvest.Options{}, err
	}
	return harvest.Options{
		Master: harvest.MasterLayout{
			Grid:            c.MasterGridLayout(),
			IDPattern:       masterPattern,
			NameColumn:      h.Master.NameColumn,
			AggregateColumn: h.Master.AggregateColumn,
		},
		Detail: harvest.DetailLayout{
			Grid:           c.DetailGridLayout(),
			IDPattern:      detailPattern,
			NameColumn:     h.Detail.NameColumn,
			NumericColumns: h.Detail.NumericColumns,
		},
		DetailThreshold: h.DetailThreshold,
		MasterThreshold: h.MasterThreshold,
		PollInterval:    millis(h.PollIntervalMs),
		GridTimeout:     millis(h.GridTimeoutMs),
		SettleTimeout:   millis(h.SettleTimeoutMs),
		ReadyTimeout:    millis(h.ReadyTimeoutMs),
		MaxScrolls:      h.MaxScrolls,
		AggregateField:  h.AggregateField,
		Readiness:       readiness,
	}, nil
}
