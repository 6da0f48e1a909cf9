package model

import "maps"

// MasterContext 主网格中的一行(例如一个中分类),首次出现后不可变
type MasterContext struct {
	Code string `json:"code"`
	Name string `json:"name"`
	// ExpectedAggregate 由宿主网格给出的合计值,不是计算值
	ExpectedAggregate int64 `json:"expected_aggregate"`
	Ordinal           int   `json:"ordinal"`
	// Skipped 主行找不到点击目标,明细没有采集
	Skipped bool `json:"skipped,omitempty"`
}

type RowKey struct {
	MasterCode string
	ProductID  string
}

// DetailRow 明细网格中的一行,带所属主行编码和解析后的数值列
type DetailRow struct {
	MasterCode  string           `json:"master_code"`
	MasterName  string           `json:"master_name"`
	ProductID   string           `json:"product_id"`
	ProductName string           `json:"product_name"`
	Record      RowRecord        `json:"record"`
	Quantities  map[string]int64 `json:"quantities"`
}

// NewDetailRow 从原始行构造明细行,numericColumns 中的列按 ParseQuantity 解析
func NewDetailRow(master MasterContext, record RowRecord, nameColumn string, numericColumns []string) DetailRow {
	quantities := make(map[string]int64, len(numericColumns))
	for _, col := range numericColumns {
		quantities[col] = ParseQuantity(record.Value(col))
	}
	return DetailRow{
		MasterCode:  master.Code,
		MasterName:  master.Name,
		ProductID:   record.RowID,
		ProductName: record.Value(nameColumn),
		Record:      record,
		Quantities:  quantities,
	}
}

func (d DetailRow) Key() RowKey {
	return RowKey{MasterCode: d.MasterCode, ProductID: d.ProductID}
}

func (d DetailRow) Quantity(field string) int64 {
	return d.Quantities[field]
}

// RowSet 按 (主行编码, 商品编码) 去重的明细集合,保持首次插入顺序
type RowSet struct {
	index map[RowKey]int
	rows  []DetailRow
}

func NewRowSet() *RowSet {
	return &RowSet{index: make(map[RowKey]int)}
}

// Merge 合并一行:键已存在时各数值列相加,从不覆盖
func (s *RowSet) Merge(row DetailRow) {
	key := row.Key()
	if i, ok := s.index[key]; ok {
		existing := &s.rows[i]
		for field, v := range row.Quantities {
			existing.Quantities[field] += v
		}
		return
	}
	row.Quantities = maps.Clone(row.Quantities)
	if row.Quantities == nil {
		row.Quantities = make(map[string]int64)
	}
	s.index[key] = len(s.rows)
	s.rows = append(s.rows, row)
}

func (s *RowSet) MergeAll(rows []DetailRow) {
	for _, r := range rows {
		s.Merge(r)
	}
}

func (s *RowSet) Len() int {
	return len(s.rows)
}

// Rows 返回副本,调用方修改不会影响集合
func (s *RowSet) Rows() []DetailRow {
	out := make([]DetailRow, len(s.rows))
	for i, r := range s.rows {
		r.Quantities = maps.Clone(r.Quantities)
		out[i] = r
	}
	return out
}
