package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/LouYuanbo1/gridharvester/internal/config"
	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esutil"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
	"go.uber.org/zap"
)

type typedEsClient[D model.Document] struct {
	client *elasticsearch.TypedClient
	// 只用于读取索引名和映射,不存放数据
	schemaDoc D
	workers   int
	logger    *zap.Logger
}

func InitTypedEsClient[D model.Document](cfg *config.Config, workers int, logger *zap.Logger) (TypedEsClient[D], error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	typedClient, err := elasticsearch.NewTypedClient(elasticsearch.Config{
		Username: cfg.Elasticsearch.Username,
		Password: cfg.Elasticsearch.Password,
		Addresses: []string{
			cfg.Elasticsearch.Address,
		},
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       90 * time.Second,
			// 跳过TLS验证(仅在开发环境中使用)
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("初始化Elasticsearch客户端失败: %w", err)
	}
	return &typedEsClient[D]{
		client:  typedClient,
		workers: max(workers, 1),
		logger:  logger,
	}, nil
}

func (tec *typedEsClient[D]) CreateIndexWithMapping(ctx context.Context) error {
	index := tec.schemaDoc.GetIndex()
	exists, err := tec.client.Indices.Exists(index).Do(ctx)
	if err != nil {
		return fmt.Errorf("检查索引是否存在失败: %w", err)
	}
	if exists {
		tec.logger.Debug("索引已存在,跳过创建", zap.String("index", index))
		return nil
	}

	mapping := tec.schemaDoc.GetTypeMapping()
	if mapping == nil {
		_, err = tec.client.Indices.Create(index).Do(ctx)
	} else {
		_, err = tec.client.Indices.Create(index).Mappings(mapping).Do(ctx)
	}
	if err != nil {
		return fmt.Errorf("创建索引 %s 失败: %w", index, err)
	}
	tec.logger.Info("索引已创建", zap.String("index", index))
	return nil
}

func (tec *typedEsClient[D]) BulkIndexDocsWithID(ctx context.Context, docs []D) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	index := tec.schemaDoc.GetIndex()
	var (
		mu       sync.Mutex
		firstErr error
	)
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:         index,
		Client:        tec.client,
		NumWorkers:    tec.workers,
		FlushBytes:    5 * 1024 * 1024,
		FlushInterval: 30 * time.Second,
		OnError: func(ctx context.Context, err error) {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			tec.logger.Error("批量写入出错", zap.Error(err))
		},
	})
	if err != nil {
		return 0, fmt.Errorf("创建批量写入器失败: %w", err)
	}

	for _, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			_ = bi.Close(ctx)
			return 0, fmt.Errorf("序列化文档 %s 失败: %w", doc.GetID(), err)
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: doc.GetID(),
			Body:       bytes.NewReader(data),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if err != nil {
					tec.logger.Warn("文档写入失败", zap.String("id", item.DocumentID), zap.Error(err))
					return
				}
				tec.logger.Warn("文档写入失败", zap.String("id", item.DocumentID), zap.String("reason", res.Error.Reason))
			},
		})
		if err != nil {
			_ = bi.Close(ctx)
			return 0, fmt.Errorf("添加批量写入项失败: %w", err)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return 0, fmt.Errorf("关闭批量写入器失败: %w", err)
	}
	stats := bi.Stats()
	tec.logger.Info("批量写入完成",
		zap.String("index", index),
		zap.Uint64("indexed", stats.NumIndexed),
		zap.Uint64("failed", stats.NumFailed))
	mu.Lock()
	defer mu.Unlock()
	if firstErr != nil {
		return int(stats.NumIndexed), fmt.Errorf("批量写入出错: %w", firstErr)
	}
	if stats.NumFailed > 0 {
		return int(stats.NumIndexed), fmt.Errorf("%d 条文档写入失败", stats.NumFailed)
	}
	return int(stats.NumIndexed), nil
}

func (tec *typedEsClient[D]) CountDocs(ctx context.Context, query *types.Query) (int64, error) {
	req := tec.client.Count().Index(tec.schemaDoc.GetIndex())
	if query != nil {
		req = req.Query(query)
	}
	resp, err := req.Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("统计文档数失败: %w", err)
	}
	return resp.Count, nil
}
