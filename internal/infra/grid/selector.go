package grid

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
)

// Scheme 描述宿主网格的 DOM 约定,选择器模板中的 %s 替换为网格名
type Scheme struct {
	Body         string
	Cell         string
	ScrollButton string
	// CellID 从单元格 id 中取出 (行号, 列号)
	CellID *regexp.Regexp
}

// Layouts 每个网格作用域对应的列布局
type Layouts map[model.GridScope]model.GridLayout

func NexacroScheme() Scheme {
	return Scheme{
		Body:         "div[id$='%s.body']",
		Cell:         "div[id*='%s.body'][id*='cell_'][id$=':text']",
		ScrollButton: "div[id$='%s.vscrollbar.incbutton:icontext']",
		CellID:       regexp.MustCompile(`cell_(\d+)_(\d+):text$`),
	}
}

// NewScheme 空字符串沿用 Nexacro 默认值
func NewScheme(body, cell, scrollButton, cellID string) (Scheme, error) {
	s := NexacroScheme()
	if body != "" {
		s.Body = body
	}
	if cell != "" {
		s.Cell = cell
	}
	if scrollButton != "" {
		s.ScrollButton = scrollButton
	}
	if cellID != "" {
		re, err := regexp.Compile(cellID)
		if err != nil {
			return Scheme{}, fmt.Errorf("单元格id正则无效: %w", err)
		}
		if re.NumSubexp() < 2 {
			return Scheme{}, fmt.Errorf("单元格id正则需要两个分组(行号, 列号): %s", cellID)
		}
		s.CellID = re
	}
	return s, nil
}

func (s Scheme) BodySelector(scope model.GridScope) string {
	return fmt.Sprintf(s.Body, scope)
}

func (s Scheme) CellSelector(scope model.GridScope) string {
	return fmt.Sprintf(s.Cell, scope)
}

func (s Scheme) ScrollSelector(scope model.GridScope) string {
	return fmt.Sprintf(s.ScrollButton, scope)
}

// ClickTarget 文本节点 id 去掉 ":text" 后缀即为可点击的单元格
func ClickTarget(textID string) string {
	return strings.TrimSuffix(textID, ":text")
}

// dispatchClickJS 按 id 找到元素并依次派发 mousedown/mouseup/click,元素不存在时返回 false
const dispatchClickJS = `(id) => {
	const el = document.getElementById(id);
	if (!el) return false;
	const rect = el.getBoundingClientRect();
	const init = {
		bubbles: true,
		cancelable: true,
		view: window,
		clientX: rect.left + rect.width / 2,
		clientY: rect.top + rect.height / 2,
	};
	for (const type of ['mousedown', 'mouseup', 'click']) {
		el.dispatchEvent(new MouseEvent(type, init));
	}
	return true;
}`
