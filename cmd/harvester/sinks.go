package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LouYuanbo1/gridharvester/internal/domain/entity"
	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/LouYuanbo1/gridharvester/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/gridharvester/internal/infra/embedding"
	"github.com/LouYuanbo1/gridharvester/internal/infra/export"
	"github.com/LouYuanbo1/gridharvester/internal/infra/persistence/es"
	"github.com/LouYuanbo1/gridharvester/internal/infra/persistence/sqlite"
	harvestsvc "github.com/LouYuanbo1/gridharvester/internal/service/harvest"
	"github.com/LouYuanbo1/gridharvester/param"
	"go.uber.org/zap"
)

// esWorkers 批量写入 Elasticsearch 的并发数
const esWorkers = 3

// commandContext 带总超时并在收到 SIGINT/SIGTERM 时取消
func commandContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func dateOrYesterday(date string) string {
	if date != "" {
		return date
	}
	return param.Yesterday(time.Now())
}

func openStore() (*sqlite.Store, error) {
	return sqlite.Open(appcfg.SQLite.Path)
}

func newExporter() *export.ExcelExporter {
	return export.NewExcelExporter(appcfg.Export.Dir, appcfg.Harvest.Detail.NumericColumns)
}

func newSalesClient() (es.TypedEsClient[*model.SalesDoc], error) {
	return es.InitTypedEsClient[*model.SalesDoc](appcfg, esWorkers, logger)
}

// buildSinks 组装采集结果的去向,Elasticsearch 与向量模型按配置启用
func buildSinks(ctx context.Context, store *sqlite.Store) (harvestsvc.Sinks, error) {
	sinks := harvestsvc.Sinks{
		Store:    store,
		Exporter: newExporter(),
	}
	if !appcfg.Elasticsearch.Enabled {
		return sinks, nil
	}

	client, err := newSalesClient()
	if err != nil {
		return sinks, err
	}
	if err := client.CreateIndexWithMapping(ctx); err != nil {
		return sinks, err
	}
	var embedder embedding.Embedder
	if appcfg.Embedder.Enabled {
		embedder, err = embedding.InitEmbedder(ctx, appcfg)
		if err != nil {
			return sinks, err
		}
	}
	toCrawlable := func(result *model.HarvestResult) []*entity.SalesEntity {
		return entity.FromResult(result, appcfg.Harvest.AggregateField)
	}
	sinks.Indexer = harvestsvc.InitSearchIndexer[*entity.SalesEntity, *model.SalesDoc](client, embedder, toCrawlable, logger)
	return sinks, nil
}

// newChromeCrawler 按配置的驱动打开单个浏览器会话
func newChromeCrawler(ctx context.Context) (chrome.ChromeCrawler, error) {
	switch appcfg.Target.Driver {
	case "chromedp":
		return chrome.InitChromedpCrawler(ctx, appcfg, logger), nil
	default:
		return chrome.InitRodCrawler(appcfg, logger)
	}
}

func reportResult(result *model.HarvestResult) {
	logger.Info("运行结果",
		zap.String("collected_for", result.CollectedFor),
		zap.String("run_id", result.RunID),
		zap.String("state", string(result.State)),
		zap.Int("masters", len(result.Masters)),
		zap.Int("rows", len(result.Rows)),
		zap.Bool("reconciled", result.Reconciliation.Success),
		zap.Strings("failed_codes", result.Reconciliation.FailedCodes))
}
