package model

import (
	"strconv"
	"strings"
)

// GridScope 网格在页面中的作用域标识,例如 "gdList" / "gdDetail"
type GridScope string

// GridLayout 描述网格的列顺序以及作为自然键的列
type GridLayout struct {
	Columns   []string
	KeyColumn string
}

// KeyIndex 返回键列在 Columns 中的位置,不存在时返回 0
func (l GridLayout) KeyIndex() int {
	for i, c := range l.Columns {
		if c == l.KeyColumn {
			return i
		}
	}
	return 0
}

type Cell struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// RowRecord 从可见窗口读取到的一行,读取后不再修改
type RowRecord struct {
	RowID string `json:"row_id"`
	// Target 激活该行时需要点击的元素 id
	Target string `json:"target"`
	Cells  []Cell `json:"cells"`
}

// NewRowRecord 按布局把单元格文本组装成行,缺失的列填空串
func NewRowRecord(layout GridLayout, target string, values []string) RowRecord {
	cells := make([]Cell, len(layout.Columns))
	for i, col := range layout.Columns {
		v := ""
		if i < len(values) {
			v = strings.TrimSpace(values[i])
		}
		cells[i] = Cell{Column: col, Value: v}
	}
	rowID := ""
	if k := layout.KeyIndex(); k < len(cells) {
		rowID = cells[k].Value
	}
	return RowRecord{RowID: rowID, Target: target, Cells: cells}
}

func (r RowRecord) Value(column string) string {
	for _, c := range r.Cells {
		if c.Column == column {
			return c.Value
		}
	}
	return ""
}

// ParseQuantity 解析带千分位逗号的整数,空值或无法解析时返回 0
func ParseQuantity(raw string) int64 {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
