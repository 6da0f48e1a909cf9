package harvest

import (
	"regexp"
	"time"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
)

// MasterLayout 主网格的列布局
type MasterLayout struct {
	Grid      model.GridLayout
	IDPattern *regexp.Regexp
	// NameColumn 主行名称列,AggregateColumn 宿主给出的期望合计列
	NameColumn      string
	AggregateColumn string
}

// DetailLayout 明细网格的列布局,NumericColumns 中的列会解析为整数
type DetailLayout struct {
	Grid           model.GridLayout
	IDPattern      *regexp.Regexp
	NameColumn     string
	NumericColumns []string
}

type Options struct {
	Master MasterLayout
	Detail DetailLayout

	DetailThreshold int
	MasterThreshold int

	PollInterval  time.Duration
	GridTimeout   time.Duration
	SettleTimeout time.Duration
	ReadyTimeout  time.Duration
	// MaxScrolls 单次网格遍历允许的最多滚动次数
	MaxScrolls int

	// AggregateField 对账时在明细行上求和的数值列
	AggregateField string
	Readiness      ReadinessFunc
}

// DefaultOptions 默认布局对应中分类(3位编码) → 商品(13位条码)的销售网格
func DefaultOptions() Options {
	return Options{
		Master: MasterLayout{
			Grid: model.GridLayout{
				Columns:   []string{"mid_code", "mid_name", "sale_qty"},
				KeyColumn: "mid_code",
			},
			IDPattern:       regexp.MustCompile(`^\d{3}$`),
			NameColumn:      "mid_name",
			AggregateColumn: "sale_qty",
		},
		Detail: DetailLayout{
			Grid: model.GridLayout{
				Columns:   []string{"product_code", "product_name", "sales", "order_cnt", "purchase", "disposal", "stock"},
				KeyColumn: "product_code",
			},
			IDPattern:      regexp.MustCompile(`^\d{13}$`),
			NameColumn:     "product_name",
			NumericColumns: []string{"sales", "order_cnt", "purchase", "disposal", "stock"},
		},
		DetailThreshold: DefaultConvergenceThreshold,
		MasterThreshold: DefaultConvergenceThreshold,
		PollInterval:    DefaultPollInterval,
		GridTimeout:     3 * time.Second,
		SettleTimeout:   1500 * time.Millisecond,
		ReadyTimeout:    120 * time.Second,
		MaxScrolls:      500,
		AggregateField:  "sales",
		Readiness:       DetailNonEmpty,
	}
}

// withDefaults 用默认值补齐未设置的调优项,布局保持调用方给出的值
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DetailThreshold <= 0 {
		o.DetailThreshold = d.DetailThreshold
	}
	if o.MasterThreshold <= 0 {
		o.MasterThreshold = d.MasterThreshold
	}
	if o.PollInterval <= 0 {
		o.PollInterval = d.PollInterval
	}
	if o.GridTimeout <= 0 {
		o.GridTimeout = d.GridTimeout
	}
	if o.SettleTimeout <= 0 {
		o.SettleTimeout = d.SettleTimeout
	}
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = d.ReadyTimeout
	}
	if o.MaxScrolls <= 0 {
		o.MaxScrolls = d.MaxScrolls
	}
	if o.AggregateField == "" {
		o.AggregateField = d.AggregateField
	}
	if o.Readiness == nil {
		o.Readiness = d.Readiness
	}
	return o
}
