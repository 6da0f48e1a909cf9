package model

import (
	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
)

const SalesIndex = "grid_sales"

type Document interface {
	*SalesDoc
	GetID() string
	GetIndex() string
	GetTypeMapping() *types.TypeMapping
	GetEmbeddingString() string
	SetEmbedding(embedding []float32)
	GetEmbedding() []float32
}

// SalesDoc 一条明细行在搜索索引中的文档形式
type SalesDoc struct {
	ID           string           `json:"id"`
	RunID        string           `json:"run_id"`
	CollectedFor string           `json:"collected_for"`
	MidCode      string           `json:"mid_code"`
	MidName      string           `json:"mid_name"`
	ProductCode  string           `json:"product_code"`
	ProductName  string           `json:"product_name"`
	Sales        int64            `json:"sales"`
	Quantities   map[string]int64 `json:"quantities"`
	Embedding    []float32        `json:"embedding,omitempty"`
}

func (d *SalesDoc) GetID() string {
	return d.ID
}

func (d *SalesDoc) GetIndex() string {
	return SalesIndex
}

func (d *SalesDoc) GetTypeMapping() *types.TypeMapping {
	return &types.TypeMapping{
		Properties: map[string]types.Property{
			"id":            types.NewKeywordProperty(),
			"run_id":        types.NewKeywordProperty(),
			"collected_for": types.NewKeywordProperty(),
			"mid_code":      types.NewKeywordProperty(),
			"mid_name":      types.NewTextProperty(),
			"product_code":  types.NewKeywordProperty(),
			"product_name":  types.NewTextProperty(),
			"sales":         types.NewLongNumberProperty(),
			"quantities":    types.NewObjectProperty(),
			"embedding":     types.NewDenseVectorProperty(),
		},
	}
}

func (d *SalesDoc) GetEmbeddingString() string {
	return d.MidName + " " + d.ProductName
}

func (d *SalesDoc) SetEmbedding(embedding []float32) {
	d.Embedding = embedding
}

func (d *SalesDoc) GetEmbedding() []float32 {
	return d.Embedding
}
