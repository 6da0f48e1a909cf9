package model

import (
	"time"
)

// RunState 一次采集运行的状态
type RunState string

const (
	StateIdle              RunState = "idle"
	StateCollectingMasters RunState = "collecting_masters"
	StateActivatingRow     RunState = "activating_row"
	StateWaitingReady      RunState = "waiting_ready"
	StateCollectingDetail  RunState = "collecting_detail"
	StateReconciling       RunState = "reconciling"
	StateDone              RunState = "done"
	StateFailed            RunState = "failed"
)

// Collecting 除 Idle/Done/Failed 以外的状态都视为采集中
func (s RunState) Collecting() bool {
	switch s {
	case StateIdle, StateDone, StateFailed, "":
		return false
	default:
		return true
	}
}

type ReconciliationEntry struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Expected int64  `json:"expected"`
	Actual   int64  `json:"actual"`
	Matched  bool   `json:"matched"`
	Skipped  bool   `json:"skipped,omitempty"`
}

// ReconciliationReport 中 FailedCodes 只包含采集过明细但合计不符的主行,
// 被跳过的主行单独列在 SkippedCodes
type ReconciliationReport struct {
	Success      bool                  `json:"success"`
	FailedCodes  []string              `json:"failed_codes"`
	SkippedCodes []string              `json:"skipped_codes,omitempty"`
	Entries      []ReconciliationEntry `json:"entries"`
}

type HarvestResult struct {
	RunID          string               `json:"run_id"`
	CollectedFor   string               `json:"collected_for"`
	State          RunState             `json:"state"`
	StartedAt      time.Time            `json:"started_at"`
	FinishedAt     time.Time            `json:"finished_at"`
	Rows           []DetailRow          `json:"rows"`
	Masters        []MasterContext      `json:"masters"`
	Reconciliation ReconciliationReport `json:"reconciliation"`
	Errors         []error              `json:"-"`
}

func (r *HarvestResult) Failed() bool {
	return r.State == StateFailed
}

// Err 返回终止本次运行的错误,运行成功时为 nil
func (r *HarvestResult) Err() error {
	if !r.Failed() || len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[len(r.Errors)-1]
}

// ErrorMessages 便于落库与日志输出
func (r *HarvestResult) ErrorMessages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		msgs = append(msgs, err.Error())
	}
	return msgs
}
