package service

import (
	"context"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/LouYuanbo1/gridharvester/internal/infra/crawler/chrome"
	harvestsvc "github.com/LouYuanbo1/gridharvester/internal/service/harvest"
	"github.com/LouYuanbo1/gridharvester/param"
)

// BackfillService 把多日补采分发到浏览器池,每个日期独占一个会话
type BackfillService interface {
	// Backfill 返回的结果与 op.Operations() 顺序一致,未能开始的日期为 nil
	Backfill(ctx context.Context, op *param.BackfillOperation) ([]*model.HarvestResult, error)
}

// HarvestFactory 在借出的会话上构造单日采集服务
type HarvestFactory func(crawler chrome.ChromeCrawler) (harvestsvc.HarvestService, error)
