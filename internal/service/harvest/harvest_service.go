package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/LouYuanbo1/gridharvester/internal/config"
	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/LouYuanbo1/gridharvester/internal/harvest"
	"github.com/LouYuanbo1/gridharvester/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/gridharvester/internal/infra/grid"
	"github.com/LouYuanbo1/gridharvester/param"
	"go.uber.org/zap"
)

// DatePlaceholder 日期脚本中的占位符
const DatePlaceholder = "{{date}}"

type harvestService struct {
	chromeCrawler chrome.ChromeCrawler
	cfg           *config.Config
	opts          harvest.Options
	scheme        grid.Scheme
	layouts       grid.Layouts
	sinks         Sinks
	logger        *zap.Logger

	running     atomic.Bool
	navigateMu  sync.Mutex
	navigated   bool
	coordinator *harvest.HarvestCoordinator
}

func InitHarvestService(chromeCrawler chrome.ChromeCrawler, cfg *config.Config, sinks Sinks, logger *zap.Logger) (HarvestService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts, err := cfg.HarvestOptions()
	if err != nil {
		return nil, err
	}
	scheme, err := cfg.GridScheme()
	if err != nil {
		return nil, err
	}
	return &harvestService{
		chromeCrawler: chromeCrawler,
		cfg:           cfg,
		opts:          opts,
		scheme:        scheme,
		layouts:       cfg.GridLayouts(),
		sinks:         sinks,
		logger:        logger,
	}, nil
}

// Collect 切换到 op.Date 并完整采集一次。
// 运行失败或写入失败时仍返回结果,错误一并返回。
func (hs *harvestService) Collect(ctx context.Context, op *param.HarvestOperation) (*model.HarvestResult, error) {
	if !op.IsValid() {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidOperation, op)
	}
	if !hs.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyCollecting
	}
	defer hs.running.Store(false)

	logger := hs.logger.With(zap.String("collected_for", op.Date))
	if err := hs.ensurePage(ctx); err != nil {
		return nil, err
	}
	if script := hs.cfg.Target.DateScript; script != "" {
		logger.Info("切换查询日期")
		if err := hs.chromeCrawler.RunScript(ctx, strings.ReplaceAll(script, DatePlaceholder, op.Date)); err != nil {
			return nil, fmt.Errorf("执行日期脚本失败: %w", err)
		}
	}

	result, ok := hs.getCoordinator().Run(ctx, hs.cfg.MasterScope(), hs.cfg.DetailScope())
	if !ok {
		return nil, ErrAlreadyCollecting
	}
	result.CollectedFor = op.Date

	errs := []error{result.Err()}
	errs = append(errs, hs.deliver(ctx, result, logger)...)
	return result, errors.Join(errs...)
}

// ensurePage 首次采集时打开宿主页面并执行登录脚本,之后复用同一页面
func (hs *harvestService) ensurePage(ctx context.Context) error {
	hs.navigateMu.Lock()
	defer hs.navigateMu.Unlock()
	if hs.navigated {
		return nil
	}
	if err := hs.chromeCrawler.InitAndNavigate(ctx, hs.cfg.Target.URL); err != nil {
		return err
	}
	if script := hs.cfg.Target.LoginScript; script != "" {
		hs.logger.Info("执行登录脚本")
		if err := hs.chromeCrawler.RunScript(ctx, script); err != nil {
			return fmt.Errorf("执行登录脚本失败: %w", err)
		}
	}
	hs.navigated = true
	return nil
}

func (hs *harvestService) getCoordinator() *harvest.HarvestCoordinator {
	if hs.coordinator == nil {
		driver := hs.chromeCrawler.GridDriver(hs.scheme, hs.layouts)
		hs.coordinator = harvest.NewHarvestCoordinator(driver, nil, hs.opts, hs.logger)
	}
	return hs.coordinator
}

// deliver 依次写入本地存储、导出表格、写入搜索索引。
// 失败的运行只落库,不导出也不索引。
func (hs *harvestService) deliver(ctx context.Context, result *model.HarvestResult, logger *zap.Logger) []error {
	var errs []error
	if hs.sinks.Store != nil {
		if err := hs.sinks.Store.SaveResult(ctx, result, hs.opts.AggregateField); err != nil {
			logger.Error("保存运行结果失败", zap.Error(err))
			errs = append(errs, fmt.Errorf("保存运行结果失败: %w", err))
		}
	}
	if result.Failed() {
		return errs
	}
	if hs.sinks.Exporter != nil {
		path, err := hs.sinks.Exporter.Export(result)
		if err != nil {
			logger.Error("导出表格失败", zap.Error(err))
			errs = append(errs, fmt.Errorf("导出表格失败: %w", err))
		} else {
			logger.Info("导出表格", zap.String("path", path))
		}
	}
	if hs.sinks.Indexer != nil {
		n, err := hs.sinks.Indexer.Index(ctx, result)
		if err != nil {
			logger.Error("写入搜索索引失败", zap.Int("indexed", n), zap.Error(err))
			errs = append(errs, fmt.Errorf("写入搜索索引失败: %w", err))
		} else {
			logger.Info("写入搜索索引", zap.Int("indexed", n))
		}
	}
	return errs
}
