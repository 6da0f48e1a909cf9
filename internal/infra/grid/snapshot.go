package grid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/PuerkitoBio/goquery"
)

type pendingRow struct {
	target string
	values []string
}

// ParseRows 从网格 body 的 HTML 快照中解析当前可见的行。
// 单元格按行号分组,行的顺序与单元格在 DOM 中首次出现的顺序一致。
func ParseRows(html string, scope model.GridScope, layout model.GridLayout, scheme Scheme) ([]model.RowRecord, error) {
	if strings.TrimSpace(html) == "" {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("解析网格 %s 快照失败: %w", scope, err)
	}

	keyIndex := layout.KeyIndex()
	byRow := make(map[int]*pendingRow)
	var order []int
	doc.Find(scheme.CellSelector(scope)).Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		m := scheme.CellID.FindStringSubmatch(id)
		if m == nil {
			return
		}
		rowIdx, err := strconv.Atoi(m[1])
		if err != nil {
			return
		}
		colIdx, err := strconv.Atoi(m[2])
		if err != nil || colIdx >= len(layout.Columns) {
			return
		}
		row, ok := byRow[rowIdx]
		if !ok {
			row = &pendingRow{values: make([]string, len(layout.Columns))}
			byRow[rowIdx] = row
			order = append(order, rowIdx)
		}
		row.values[colIdx] = s.Text()
		if colIdx == keyIndex {
			row.target = ClickTarget(id)
		}
	})

	rows := make([]model.RowRecord, 0, len(order))
	for _, idx := range order {
		p := byRow[idx]
		rows = append(rows, model.NewRowRecord(layout, p.target, p.values))
	}
	return rows, nil
}
