package service

import (
	"context"
	"fmt"
	"time"

	"github.com/LouYuanbo1/gridharvester/internal/domain/entity"
	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/LouYuanbo1/gridharvester/internal/infra/embedding"
	"github.com/LouYuanbo1/gridharvester/internal/infra/persistence/es"
	"go.uber.org/zap"
)

const embedTimeout = 20 * time.Second

type searchIndexer[C entity.Crawlable[D], D model.Document] struct {
	typedEsClient es.TypedEsClient[D]
	// embedder 为空时只写入文档,不生成向量
	embedder    embedding.Embedder
	toCrawlable func(result *model.HarvestResult) []C
	logger      *zap.Logger
}

func InitSearchIndexer[C entity.Crawlable[D], D model.Document](
	typedEsClient es.TypedEsClient[D],
	embedder embedding.Embedder,
	toCrawlable func(result *model.HarvestResult) []C,
	logger *zap.Logger,
) Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &searchIndexer[C, D]{
		typedEsClient: typedEsClient,
		embedder:      embedder,
		toCrawlable:   toCrawlable,
		logger:        logger,
	}
}

func (si *searchIndexer[C, D]) Index(ctx context.Context, result *model.HarvestResult) (int, error) {
	crawlables := si.toCrawlable(result)
	if len(crawlables) == 0 {
		return 0, nil
	}
	docs := make([]D, 0, len(crawlables))
	for _, crawlable := range crawlables {
		docs = append(docs, crawlable.ToDocument())
	}
	if si.embedder != nil {
		si.embeddingDocs(ctx, docs)
	}
	n, err := si.typedEsClient.BulkIndexDocsWithID(ctx, docs)
	if err != nil {
		return n, fmt.Errorf("批量写入失败: %w", err)
	}
	return n, nil
}

// embeddingDocs 按批生成向量,失败的批次记录日志后跳过,文档仍然写入
func (si *searchIndexer[C, D]) embeddingDocs(ctx context.Context, docs []D) {
	batchSize := max(si.embedder.BatchSize(), 1)
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		texts = append(texts, doc.GetEmbeddingString())
	}
	for i := 0; i < len(texts); i += batchSize {
		end := min(i+batchSize, len(texts))
		reqCtx, cancel := context.WithTimeout(ctx, embedTimeout)
		vectors, err := si.embedder.Embed(reqCtx, texts[i:end])
		cancel()
		if err != nil {
			si.logger.Warn("生成向量失败", zap.Int("from", i), zap.Int("to", end), zap.Error(err))
			continue
		}
		for j := range vectors {
			if i+j >= end {
				break
			}
			docs[i+j].SetEmbedding(vectors[j])
		}
	}
}
