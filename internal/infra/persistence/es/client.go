package es

import (
	"context"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
)

// TypedEsClient 按文档类型 D 绑定索引名与映射的 Elasticsearch 客户端
type TypedEsClient[D model.Document] interface {
	CreateIndexWithMapping(ctx context.Context) error
	// BulkIndexDocsWithID 以文档 id 写入(覆盖),返回成功写入的数量
	BulkIndexDocsWithID(ctx context.Context, docs []D) (int, error)
	// CountDocs query 为 nil 时统计整个索引
	CountDocs(ctx context.Context, query *types.Query) (int64, error)
}

// CollectedForQuery 按采集日期过滤
func CollectedForQuery(date string) *types.Query {
	return &types.Query{
		Term: map[string]types.TermQuery{
			"collected_for": {Value: date},
		},
	}
}
