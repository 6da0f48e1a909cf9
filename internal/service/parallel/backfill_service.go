package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/LouYuanbo1/gridharvester/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/gridharvester/internal/infra/crawler/parallel"
	"github.com/LouYuanbo1/gridharvester/param"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrInvalidBackfill = errors.New("invalid backfill operation")

type backfillService struct {
	crawlerPool parallel.CrawlerPool
	newHarvest  HarvestFactory
	logger      *zap.Logger
}

func InitBackfillService(crawlerPool parallel.CrawlerPool, newHarvest HarvestFactory, logger *zap.Logger) BackfillService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &backfillService{
		crawlerPool: crawlerPool,
		newHarvest:  newHarvest,
		logger:      logger,
	}
}

// Backfill 单个日期失败不影响其他日期,所有失败合并后返回
func (bs *backfillService) Backfill(ctx context.Context, op *param.BackfillOperation) ([]*model.HarvestResult, error) {
	if !op.IsValid() {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidBackfill, op)
	}
	ops := op.Operations()
	results := make([]*model.HarvestResult, len(ops))

	var (
		mu   sync.Mutex
		errs []error
	)
	addError := func(date string, err error) {
		mu.Lock()
		errs = append(errs, fmt.Errorf("%s: %w", date, err))
		mu.Unlock()
	}

	bs.logger.Info("开始补采",
		zap.String("end_date", op.EndDate),
		zap.Int("days", op.Days),
		zap.Int("workers", bs.crawlerPool.Size()))

	eg := new(errgroup.Group)
	eg.SetLimit(max(bs.crawlerPool.Size(), 1))
	for i, harvestOp := range ops {
		eg.Go(func() error {
			err := bs.crawlerPool.WithCrawler(ctx, func(ctx context.Context, crawler chrome.ChromeCrawler) error {
				svc, err := bs.newHarvest(crawler)
				if err != nil {
					return err
				}
				result, err := svc.Collect(ctx, harvestOp)
				results[i] = result
				return err
			})
			if err != nil {
				bs.logger.Error("补采失败", zap.String("collected_for", harvestOp.Date), zap.Error(err))
				addError(harvestOp.Date, err)
			}
			return nil
		})
	}
	eg.Wait()

	succeeded := 0
	for _, r := range results {
		if r != nil && r.Reconciliation.Success {
			succeeded++
		}
	}
	bs.logger.Info("补采结束", zap.Int("days", len(ops)), zap.Int("reconciled", succeeded), zap.Int("failed", len(errs)))
	return results, errors.Join(errs...)
}
