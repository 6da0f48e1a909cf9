package service

import (
	"context"
	"errors"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/LouYuanbo1/gridharvester/param"
)

var (
	// ErrAlreadyCollecting 同一会话上已有采集在进行
	ErrAlreadyCollecting = errors.New("already collecting")
	ErrInvalidOperation  = errors.New("invalid harvest operation")
)

// HarvestService 在一个浏览器会话上按日期采集
type HarvestService interface {
	Collect(ctx context.Context, op *param.HarvestOperation) (*model.HarvestResult, error)
}

type RunStore interface {
	SaveResult(ctx context.Context, result *model.HarvestResult, aggregateField string) error
}

type Exporter interface {
	Export(result *model.HarvestResult) (string, error)
}

// Indexer 把运行结果写入搜索索引,返回写入的文档数
type Indexer interface {
	Index(ctx context.Context, result *model.HarvestResult) (int, error)
}

// Sinks 采集结果的去向,均可为空
type Sinks struct {
	Store    RunStore
	Exporter Exporter
	Indexer  Indexer
}
