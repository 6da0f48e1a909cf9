package chrome

import (
	"context"
	"strings"

	"github.com/LouYuanbo1/gridharvester/internal/harvest"
	"github.com/LouYuanbo1/gridharvester/internal/infra/grid"
)

// ChromeCrawler 单个浏览器标签页会话:导航到宿主页面、执行宿主脚本、提供网格驱动
type ChromeCrawler interface {
	InitAndNavigate(ctx context.Context, url string) error
	// RunScript 在页面中执行一段脚本,脚本内可以使用 await
	RunScript(ctx context.Context, js string) error
	GridDriver(scheme grid.Scheme, layouts grid.Layouts) harvest.GridDriver
	Close()
}

// wrapScript 把语句包成 async 函数体,便于脚本内 await 宿主的异步调用
func wrapScript(js string) string {
	return "async () => {\n" + strings.TrimSpace(js) + "\n}"
}
