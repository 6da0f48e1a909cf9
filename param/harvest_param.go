package param

import (
	"time"
)

// DateLayout 宿主页面日期控件使用的格式
const DateLayout = "20060102"

// MaxBackfillDays 单次补采最多回溯的天数
const MaxBackfillDays = 366

// HarvestOperation 采集某一天的数据
type HarvestOperation struct {
	Date string `json:"date"`
}

func (ho *HarvestOperation) IsValid() bool {
	if ho == nil || ho.Date == "" {
		return false
	}
	_, err := time.Parse(DateLayout, ho.Date)
	return err == nil
}

// BackfillOperation 从 EndDate 起向前补采 Days 天
type BackfillOperation struct {
	EndDate string `json:"end_date"`
	Days    int    `json:"days"`
}

func (bo *BackfillOperation) IsValid() bool {
	if bo == nil || bo.Days <= 0 || bo.Days > MaxBackfillDays {
		return false
	}
	_, err := time.Parse(DateLayout, bo.EndDate)
	return err == nil
}

// Operations 展开为逐日的采集操作,EndDate 在前
func (bo *BackfillOperation) Operations() []*HarvestOperation {
	end, err := time.Parse(DateLayout, bo.EndDate)
	if err != nil {
		return nil
	}
	ops := make([]*HarvestOperation, 0, bo.Days)
	for i := range bo.Days {
		ops = append(ops, &HarvestOperation{Date: end.AddDate(0, 0, -i).Format(DateLayout)})
	}
	return ops
}

// Yesterday 默认采集日期
func Yesterday(now time.Time) string {
	return now.AddDate(0, 0, -1).Format(DateLayout)
}
