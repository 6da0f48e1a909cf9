package parallel

import (
	"context"
	"fmt"

	"github.com/LouYuanbo1/gridharvester/internal/config"
	"github.com/LouYuanbo1/gridharvester/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/gridharvester/internal/infra/crawler/options"
	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
)

type rodPagePool struct {
	cfg        *config.Config
	size       int
	browser    *rod.Browser
	pagePool   rod.Pool[rod.Page]
	createPage func() (*rod.Page, error)
	logger     *zap.Logger
}

// InitRodPagePool 只启动一个浏览器,并发任务各自使用独立的标签页
func InitRodPagePool(cfg *config.Config, size int, logger *zap.Logger) (CrawlerPool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if size <= 0 {
		size = 1
	}
	l := options.CreateLauncher(cfg.Rod.UserMode,
		options.WithBin(cfg.Rod.Bin),
		options.WithUserDataDir(cfg.Rod.UserDataDir),
		options.WithHeadless(cfg.Rod.Headless),
		options.WithDisableBlinkFeatures(cfg.Rod.DisableBlinkFeatures),
		options.WithIncognito(cfg.Rod.Incognito),
		options.WithDisableDevShmUsage(cfg.Rod.DisableDevShmUsage),
		options.WithNoSandbox(cfg.Rod.NoSandbox),
		options.WithUserAgent(cfg.Rod.UserAgent),
		options.WithLeakless(cfg.Rod.Leakless),
		options.WithDisableBackgroundNetworking(cfg.Rod.DisableBackgroundNetworking),
		options.WithDisableBackgroundTimerThrottling(cfg.Rod.DisableBackgroundTimerThrottling),
	)
	urlStr, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}
	browser := rod.New().ControlURL(urlStr).Trace(cfg.Rod.Trace)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	return &rodPagePool{
		cfg:      cfg,
		size:     size,
		browser:  browser,
		pagePool: rod.NewPagePool(size),
		createPage: func() (*rod.Page, error) {
			return stealth.Page(browser)
		},
		logger: logger,
	}, nil
}

func (p *rodPagePool) Size() int {
	return p.size
}

func (p *rodPagePool) WithCrawler(ctx context.Context, fn CrawlerFunc) error {
	page, err := acquire(ctx, p.pagePool, p.createPage)
	if err != nil {
		return fmt.Errorf("获取页面失败: %w", err)
	}
	defer p.pagePool.Put(page)

	crawler := chrome.NewRodPageCrawler(page, p.cfg, p.logger)
	defer crawler.Close()
	return fn(ctx, crawler)
}

func (p *rodPagePool) Close() {
	p.logger.Info("关闭页面池", zap.Int("size", p.size))
	p.pagePool.Cleanup(func(page *rod.Page) {
		if err := page.Close(); err != nil {
			p.logger.Warn("关闭页面失败", zap.Error(err))
		}
	})
	if err := p.browser.Close(); err != nil {
		p.logger.Warn("关闭浏览器失败", zap.Error(err))
	}
}

// InitCrawlerPool 按配置选择浏览器池或页面池
func InitCrawlerPool(cfg *config.Config, logger *zap.Logger) (CrawlerPool, error) {
	switch cfg.Rod.PoolMode {
	case "page":
		return InitRodPagePool(cfg, cfg.Rod.PoolSize, logger)
	default:
		return InitRodBrowserPool(cfg, cfg.Rod.PoolSize, logger)
	}
}
