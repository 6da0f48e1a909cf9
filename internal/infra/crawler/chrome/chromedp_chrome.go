package chrome

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LouYuanbo1/gridharvester/internal/config"
	"github.com/LouYuanbo1/gridharvester/internal/harvest"
	"github.com/LouYuanbo1/gridharvester/internal/infra/grid"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

type chromedpCrawler struct {
	allocCtxFuc     context.CancelFunc
	pageCtx         context.Context
	pageCtxFuc      context.CancelFunc
	timeoutCtxFuc   context.CancelFunc
	navigateTimeout time.Duration
	logger          *zap.Logger
}

// InitChromedpCrawler 浏览器生命周期受 cfg.Chromedp.LifeTime 限制
func InitChromedpCrawler(ctx context.Context, cfg *config.Config, logger *zap.Logger) ChromeCrawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Chromedp.Headless),
		chromedp.Flag("disable-blink-features", cfg.Chromedp.DisableBlinkFeatures),
		chromedp.Flag("incognito", cfg.Chromedp.Incognito),
		chromedp.Flag("disable-dev-shm-usage", cfg.Chromedp.DisableDevShmUsage),
		chromedp.Flag("no-sandbox", cfg.Chromedp.NoSandbox),
	)
	if cfg.Chromedp.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.Chromedp.UserDataDir))
	}
	if cfg.Chromedp.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.Chromedp.UserAgent))
	}
	timeoutCtx, cancelTimeout := context.WithTimeout(ctx, time.Duration(cfg.Chromedp.LifeTime)*time.Second)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(timeoutCtx, opts...)
	pageCtx, cancelPage := chromedp.NewContext(allocCtx)

	cc := &chromedpCrawler{
		allocCtxFuc:     cancelAlloc,
		pageCtx:         pageCtx,
		pageCtxFuc:      cancelPage,
		timeoutCtxFuc:   cancelTimeout,
		navigateTimeout: time.Duration(cfg.Target.NavigateTimeout) * time.Second,
		logger:          logger,
	}
	chromedp.ListenTarget(pageCtx, cc.onEvent)
	return cc
}

func (cc *chromedpCrawler) onEvent(ev any) {
	e, ok := ev.(*runtime.EventConsoleAPICalled)
	if !ok {
		return
	}
	args := make([]string, 0, len(e.Args))
	for _, arg := range e.Args {
		if arg.Description != "" {
			args = append(args, arg.Description)
			continue
		}
		args = append(args, string(arg.Value))
	}
	cc.logger.Debug("页面控制台", zap.String("type", string(e.Type)), zap.String("text", strings.Join(args, " ")))
}

// run 在标签页上下文中执行动作,调用方 ctx 取消时一并取消
func (cc *chromedpCrawler) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(cc.pageCtx)
	defer cancel()
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, timeout)
		defer cancelTimeout()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (cc *chromedpCrawler) InitAndNavigate(ctx context.Context, url string) error {
	cc.logger.Info("打开页面", zap.String("url", url))
	err := cc.run(ctx, cc.navigateTimeout,
		network.Enable(),
		runtime.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("导航失败: %w", err)
	}
	return nil
}

func (cc *chromedpCrawler) RunScript(ctx context.Context, js string) error {
	expr := "(" + wrapScript(js) + ")()"
	err := cc.run(ctx, 0,
		chromedp.Evaluate(expr, nil, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		return fmt.Errorf("执行页面脚本失败: %w", err)
	}
	return nil
}

func (cc *chromedpCrawler) GridDriver(scheme grid.Scheme, layouts grid.Layouts) harvest.GridDriver {
	return grid.NewChromedpDriver(cc.pageCtx, scheme, layouts, cc.logger)
}

func (cc *chromedpCrawler) Close() {
	cc.pageCtxFuc()
	cc.allocCtxFuc()
	cc.timeoutCtxFuc()
}
