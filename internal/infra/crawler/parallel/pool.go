package parallel

import (
	"context"

	"github.com/LouYuanbo1/gridharvester/internal/infra/crawler/chrome"
)

// CrawlerFunc 在借出的会话上执行一次任务,返回后会话归还池中
type CrawlerFunc func(ctx context.Context, crawler chrome.ChromeCrawler) error

// CrawlerPool 并发任务共享的浏览器池,每个任务独占一个标签页,互不共享明细网格
type CrawlerPool interface {
	Size() int
	WithCrawler(ctx context.Context, fn CrawlerFunc) error
	Close()
}

// acquire 从 rod 池中取出一个元素,ctx 取消时放弃等待
func acquire[T any](ctx context.Context, pool chan *T, create func() (*T, error)) (*T, error) {
	var elem *T
	select {
	case elem = <-pool:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if elem != nil {
		return elem, nil
	}
	elem, err := create()
	if err != nil {
		// 创建失败时把空位还回去,下次再尝试创建
		pool <- nil
		return nil, err
	}
	return elem, nil
}
