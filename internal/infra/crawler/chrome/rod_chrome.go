package chrome

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LouYuanbo1/gridharvester/internal/config"
	"github.com/LouYuanbo1/gridharvester/internal/harvest"
	"github.com/LouYuanbo1/gridharvester/internal/infra/crawler/options"
	"github.com/LouYuanbo1/gridharvester/internal/infra/grid"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
)

var ErrNotNavigated = errors.New("页面尚未打开,请先调用 InitAndNavigate")

type rodCrawler struct {
	browser         *rod.Browser
	launcher        *launcher.Launcher
	page            *rod.Page
	ownsPage        bool
	ownsBrowser     bool
	navigateTimeout time.Duration
	stopConsole     context.CancelFunc
	logger          *zap.Logger
}

// InitRodCrawler 按配置启动一个独立浏览器
func InitRodCrawler(cfg *config.Config, logger *zap.Logger) (ChromeCrawler, error) {
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
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}
	browser := rod.New().ControlURL(controlURL).Trace(cfg.Rod.Trace)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}
	crawler := NewRodCrawler(browser, cfg, logger).(*rodCrawler)
	crawler.ownsBrowser = true
	// 未指定用户数据目录时使用的是临时目录,关闭时一并清理
	if cfg.Rod.UserDataDir == "" && !cfg.Rod.UserMode {
		crawler.launcher = l
	}
	return crawler, nil
}

// NewRodCrawler 在已连接的浏览器上打开会话,Close 只关闭页面不关闭浏览器
func NewRodCrawler(browser *rod.Browser, cfg *config.Config, logger *zap.Logger) ChromeCrawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &rodCrawler{
		browser:         browser,
		ownsPage:        true,
		navigateTimeout: time.Duration(cfg.Target.NavigateTimeout) * time.Second,
		logger:          logger,
	}
}

// NewRodPageCrawler 复用页面池中的页面,Close 不关闭页面
func NewRodPageCrawler(page *rod.Page, cfg *config.Config, logger *zap.Logger) ChromeCrawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	rc := &rodCrawler{
		browser:         page.Browser(),
		page:            page,
		navigateTimeout: time.Duration(cfg.Target.NavigateTimeout) * time.Second,
		logger:          logger,
	}
	rc.forwardConsole()
	return rc
}

func (rc *rodCrawler) InitAndNavigate(ctx context.Context, url string) error {
	if rc.page == nil {
		page, err := stealth.Page(rc.browser)
		if err != nil {
			return fmt.Errorf("创建页面失败: %w", err)
		}
		rc.page = page
		rc.forwardConsole()
	}

	p := rc.page.Context(ctx)
	if rc.navigateTimeout > 0 {
		p = p.Timeout(rc.navigateTimeout)
	}
	rc.logger.Info("打开页面", zap.String("url", url))
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("导航失败: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("等待页面加载失败: %w", err)
	}
	if err := p.WaitStable(time.Second); err != nil {
		return fmt.Errorf("等待页面稳定失败: %w", err)
	}
	return nil
}

// forwardConsole 把页面控制台输出转到日志
func (rc *rodCrawler) forwardConsole() {
	ctx, cancel := context.WithCancel(context.Background())
	rc.stopConsole = cancel
	wait := rc.page.Context(ctx).EachEvent(func(e *proto.RuntimeConsoleAPICalled) {
		args := make([]string, 0, len(e.Args))
		for _, arg := range e.Args {
			if arg.Description != "" {
				args = append(args, arg.Description)
				continue
			}
			args = append(args, arg.Value.String())
		}
		rc.logger.Debug("页面控制台", zap.String("type", string(e.Type)), zap.String("text", strings.Join(args, " ")))
	})
	go wait()
}

func (rc *rodCrawler) RunScript(ctx context.Context, js string) error {
	if rc.page == nil {
		return ErrNotNavigated
	}
	p := rc.page.Context(ctx)
	if _, err := p.Eval(wrapScript(js)); err != nil {
		return fmt.Errorf("执行页面脚本失败: %w", err)
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0); err != nil {
		return fmt.Errorf("等待页面稳定失败: %w", err)
	}
	return nil
}

func (rc *rodCrawler) GridDriver(scheme grid.Scheme, layouts grid.Layouts) harvest.GridDriver {
	return grid.NewRodDriver(rc.page, scheme, layouts, rc.logger)
}

func (rc *rodCrawler) Close() {
	if rc.stopConsole != nil {
		rc.stopConsole()
	}
	if rc.page != nil && rc.ownsPage {
		if err := rc.page.Close(); err != nil {
			rc.logger.Warn("关闭页面失败", zap.Error(err))
		}
		rc.page = nil
	}
	if !rc.ownsBrowser {
		return
	}
	if err := rc.browser.Close(); err != nil {
		rc.logger.Warn("关闭浏览器失败", zap.Error(err))
	}
	if rc.launcher != nil {
		rc.launcher.Cleanup()
	}
}
