package harvest

import (
	"errors"
	"fmt"
	"time"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
)

var (
	// ErrGridUnavailable 网格根节点在有界等待内没有出现或没有任何行,本次运行失败
	ErrGridUnavailable = errors.New("grid unavailable")
	// ErrRowActivationFailed 找不到某一行的可点击目标,跳过该行
	ErrRowActivationFailed = errors.New("row activation failed")
	// ErrReadinessTimeout 激活主行后明细网格迟迟没有就绪,本次运行失败
	ErrReadinessTimeout = errors.New("readiness timeout")
	// ErrMalformedRow 行 id 不符合预期格式,该行既不计入已见集合也不输出
	ErrMalformedRow = errors.New("malformed row")
)

// GridError 携带出错网格与行信息,通过 errors.Is 匹配上面的哨兵错误
type GridError struct {
	Kind    error
	Scope   model.GridScope
	RowID   string
	Timeout time.Duration
}

func (e *GridError) Error() string {
	msg := fmt.Sprintf("%v: grid=%s", e.Kind, e.Scope)
	if e.RowID != "" {
		msg += " row=" + e.RowID
	}
	if e.Timeout > 0 {
		msg += " timeout=" + e.Timeout.String()
	}
	return msg
}

func (e *GridError) Unwrap() error {
	return e.Kind
}
