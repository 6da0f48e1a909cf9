package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(master, product string, sales int64) DetailRow {
	return DetailRow{MasterCode: master, ProductID: product, Quantities: map[string]int64{"sales": sales}}
}

func TestRowSetMergeSums(t *testing.T) {
	s := NewRowSet()
	s.Merge(row("010", "A", 2))
	s.Merge(row("010", "A", 3))
	s.Merge(row("020", "A", 7))

	rows := s.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, int64(5), rows[0].Quantity("sales"))
	assert.Equal(t, "020", rows[1].MasterCode)
	assert.Equal(t, int64(7), rows[1].Quantity("sales"))
}

func TestRowSetMergeIsOrderIndependent(t *testing.T) {
	in := []DetailRow{row("010", "A", 1), row("010", "B", 4), row("010", "A", 6), row("010", "B", 2)}

	forward := NewRowSet()
	forward.MergeAll(in)
	backward := NewRowSet()
	for i := len(in) - 1; i >= 0; i-- {
		backward.Merge(in[i])
	}

	totals := func(s *RowSet) map[RowKey]int64 {
		out := make(map[RowKey]int64)
		for _, r := range s.Rows() {
			out[r.Key()] = r.Quantity("sales")
		}
		return out
	}
	assert.Equal(t, totals(forward), totals(backward))
	assert.Equal(t, int64(7), totals(forward)[RowKey{MasterCode: "010", ProductID: "A"}])
}

func TestRowSetDoesNotAliasInput(t *testing.T) {
	in := row("010", "A", 1)
	s := NewRowSet()
	s.Merge(in)
	s.Merge(row("010", "A", 1))
	assert.Equal(t, int64(1), in.Quantities["sales"])

	out := s.Rows()
	out[0].Quantities["sales"] = 100
	assert.Equal(t, int64(2), s.Rows()[0].Quantity("sales"))
}

func TestNewDetailRow(t *testing.T) {
	layout := GridLayout{Columns: []string{"product_code", "product_name", "sales"}, KeyColumn: "product_code"}
	rec := NewRowRecord(layout, "t", []string{"8801234567890", "cola", "1,200"})
	d := NewDetailRow(MasterContext{Code: "010", Name: "drinks"}, rec, "product_name", []string{"sales"})

	assert.Equal(t, RowKey{MasterCode: "010", ProductID: "8801234567890"}, d.Key())
	assert.Equal(t, "cola", d.ProductName)
	assert.Equal(t, "drinks", d.MasterName)
	assert.Equal(t, int64(1200), d.Quantity("sales"))
}

func TestRunStateCollecting(t *testing.T) {
	for _, s := range []RunState{StateIdle, StateDone, StateFailed, ""} {
		assert.False(t, s.Collecting(), s)
	}
	for _, s := range []RunState{StateCollectingMasters, StateActivatingRow, StateWaitingReady, StateCollectingDetail, StateReconciling} {
		assert.True(t, s.Collecting(), s)
	}
}
