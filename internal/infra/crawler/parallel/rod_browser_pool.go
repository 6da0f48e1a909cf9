package parallel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LouYuanbo1/gridharvester/internal/config"
	"github.com/LouYuanbo1/gridharvester/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/gridharvester/internal/infra/crawler/options"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"go.uber.org/zap"
)

type rodBrowserPool struct {
	cfg           *config.Config
	size          int
	browserPool   rod.Pool[rod.Browser]
	createBrowser func() (*rod.Browser, error)
	launchers     []*launcher.Launcher
	logger        *zap.Logger
}

// InitRodBrowserPool 预先启动 size 个相互独立的浏览器实例,每个实例使用单独的用户数据目录和调试端口
func InitRodBrowserPool(cfg *config.Config, size int, logger *zap.Logger) (CrawlerPool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if size <= 0 {
		size = 1
	}
	controlURLCh := make(chan string, size)
	launchers := make([]*launcher.Launcher, 0, size)
	cleanup := func() {
		for _, l := range launchers {
			l.Kill()
		}
	}
	for instanceID := range size {
		opts := []options.LauncherOption{
			options.WithBin(cfg.Rod.Bin),
			options.WithHeadless(cfg.Rod.Headless),
			options.WithDisableBlinkFeatures(cfg.Rod.DisableBlinkFeatures),
			options.WithIncognito(cfg.Rod.Incognito),
			options.WithDisableDevShmUsage(cfg.Rod.DisableDevShmUsage),
			options.WithNoSandbox(cfg.Rod.NoSandbox),
			options.WithUserAgent(cfg.Rod.UserAgent),
			options.WithLeakless(cfg.Rod.Leakless),
			options.WithDisableBackgroundNetworking(cfg.Rod.DisableBackgroundNetworking),
			options.WithDisableBackgroundTimerThrottling(cfg.Rod.DisableBackgroundTimerThrottling),
			options.WithRemoteDebuggingPort(cfg.Rod.BasicRemoteDebuggingPort + instanceID),
		}
		if cfg.Rod.UserDataDir != "" {
			instanceDataDir := filepath.Join(cfg.Rod.UserDataDir, fmt.Sprintf("instance_%d", instanceID))
			if err := os.MkdirAll(instanceDataDir, 0o755); err != nil {
				cleanup()
				return nil, fmt.Errorf("创建实例数据目录失败: %w", err)
			}
			opts = append(opts, options.WithUserDataDir(instanceDataDir))
		}

		l := options.CreateLauncher(cfg.Rod.UserMode, opts...)
		urlStr, err := l.Launch()
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("启动浏览器失败: %w", err)
		}
		launchers = append(launchers, l)
		logger.Info("浏览器实例已启动", zap.Int("instance", instanceID), zap.String("control_url", urlStr))
		controlURLCh <- urlStr
	}

	createBrowser := func() (*rod.Browser, error) {
		// 连接失败时把 URL 放回去,下次创建还能使用
		urlStr := <-controlURLCh
		browser := rod.New().ControlURL(urlStr).Trace(cfg.Rod.Trace)
		if err := browser.Connect(); err != nil {
			controlURLCh <- urlStr
			return nil, fmt.Errorf("连接浏览器失败: %w", err)
		}
		return browser, nil
	}

	return &rodBrowserPool{
		cfg:           cfg,
		size:          size,
		browserPool:   rod.NewBrowserPool(size),
		createBrowser: createBrowser,
		launchers:     launchers,
		logger:        logger,
	}, nil
}

func (p *rodBrowserPool) Size() int {
	return p.size
}

func (p *rodBrowserPool) WithCrawler(ctx context.Context, fn CrawlerFunc) error {
	browser, err := acquire(ctx, p.browserPool, p.createBrowser)
	if err != nil {
		return fmt.Errorf("获取浏览器失败: %w", err)
	}
	defer p.browserPool.Put(browser)

	crawler := chrome.NewRodCrawler(browser, p.cfg, p.logger)
	defer crawler.Close()
	return fn(ctx, crawler)
}

func (p *rodBrowserPool) Close() {
	p.logger.Info("关闭浏览器池", zap.Int("size", p.size))
	p.browserPool.Cleanup(func(b *rod.Browser) {
		if err := b.Close(); err != nil {
			p.logger.Warn("关闭浏览器失败", zap.Error(err))
		}
	})
	for _, l := range p.launchers {
		l.Kill()
	}
}
