package entity

import (
	"fmt"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
)

// 定义可索引的实体接口
// D是文档类型,必须实现model.Document接口
type Crawlable[D model.Document] interface {
	*SalesEntity
	ToDocument() D
}

// SalesEntity 一次运行中的一条明细行,附带运行信息
type SalesEntity struct {
	RunID          string
	CollectedFor   string
	AggregateField string
	Row            model.DetailRow
}

// FromResult 把采集结果展开为可索引实体
func FromResult(result *model.HarvestResult, aggregateField string) []*SalesEntity {
	entities := make([]*SalesEntity, 0, len(result.Rows))
	for _, row := range result.Rows {
		entities = append(entities, &SalesEntity{
			RunID:          result.RunID,
			CollectedFor:   result.CollectedFor,
			AggregateField: aggregateField,
			Row:            row,
		})
	}
	return entities
}

func (e *SalesEntity) ToDocument() *model.SalesDoc {
	return &model.SalesDoc{
		ID:           fmt.Sprintf("%s_%s_%s", e.CollectedFor, e.Row.MasterCode, e.Row.ProductID),
		RunID:        e.RunID,
		CollectedFor: e.CollectedFor,
		MidCode:      e.Row.MasterCode,
		MidName:      e.Row.MasterName,
		ProductCode:  e.Row.ProductID,
		ProductName:  e.Row.ProductName,
		Sales:        e.Row.Quantity(e.AggregateField),
		Quantities:   e.Row.Quantities,
	}
}
