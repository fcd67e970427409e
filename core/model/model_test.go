package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatSlots(price float64) []Slot {
	slots := make([]Slot, CycleHours)
	for h := range slots {
		slots[h] = NewSlot(h, price, 400, 0)
	}
	return slots
}

func TestNewSignalTable_InvalidLength(t *testing.T) {
	for _, n := range []int{0, 23, 25} {
		_, err := NewSignalTable(make([]Slot, n))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidSignalLength), "n=%d", n)
	}
}

func TestSignalTable_AtWraps(t *testing.T) {
	slots := flatSlots(100)
	slots[0].Price = 1
	slots[23].Price = 23
	tbl, err := NewSignalTable(slots)
	require.NoError(t, err)

	assert.Equal(t, 1.0, tbl.At(24).Price)
	assert.Equal(t, 23.0, tbl.At(-1).Price)
	assert.Equal(t, 23.0, tbl.AtMinute(-30).Price)
	assert.Equal(t, 1.0, tbl.AtMinute(59).Price)
}

func TestSignalTable_Immutable(t *testing.T) {
	slots := flatSlots(100)
	tbl, err := NewSignalTable(slots)
	require.NoError(t, err)
	slots[3].Price = -500
	assert.Equal(t, 100.0, tbl.At(3).Price)

	out := tbl.Slots()
	out[4].Price = -500
	assert.Equal(t, 100.0, tbl.At(4).Price)
}

func TestFavorableRuns(t *testing.T) {
	slots := flatSlots(100)
	for _, h := range []int{2, 3, 4, 10, 22, 23} {
		slots[h] = NewSlot(h, float64(h), 100, 25)
	}
	tbl, err := NewSignalTable(slots)
	require.NoError(t, err)

	var runs []Run
	for r := range tbl.FavorableRuns() {
		runs = append(runs, r)
	}
	require.Len(t, runs, 3)
	assert.Equal(t, Run{StartHour: 2, EndHour: 4, MeanPrice: 3}, runs[0])
	assert.Equal(t, Run{StartHour: 10, EndHour: 10, MeanPrice: 10}, runs[1])
	assert.Equal(t, Run{StartHour: 22, EndHour: 23, MeanPrice: 22.5}, runs[2])
	assert.Equal(t, 3, runs[0].Hours())
}

func TestFavorableRuns_EarlyStop(t *testing.T) {
	slots := flatSlots(100)
	slots[1].Favorable = true
	slots[5].Favorable = true
	tbl, err := NewSignalTable(slots)
	require.NoError(t, err)
	count := 0
	for range tbl.FavorableRuns() {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestNewSlotFlags(t *testing.T) {
	assert.False(t, NewSlot(0, 50, 0, 20).Favorable)
	s := NewSlot(0, 50, 0, 30)
	assert.True(t, s.Favorable)
	assert.False(t, s.Incentive)
	assert.True(t, NewSlot(0, -40, 0, 36).Incentive)
}

func TestHourOf(t *testing.T) {
	assert.Equal(t, 0, HourOf(0))
	assert.Equal(t, 0, HourOf(59))
	assert.Equal(t, -1, HourOf(-1))
	assert.Equal(t, -1, HourOf(-60))
	assert.Equal(t, -2, HourOf(-61))
	assert.Equal(t, 24, HourOf(1440))
}

func TestJobPlacement(t *testing.T) {
	j := NewJob("F-1", ClassFreight, "line-1", 360, 480)
	require.NoError(t, j.Validate())
	assert.Equal(t, 360, j.PlannedStart())
	assert.False(t, j.Placement.IsOptimized())

	moved := j.WithStart(720)
	assert.Equal(t, 720, moved.PlannedStart())
	assert.Equal(t, 840, moved.PlannedEnd())
	assert.Equal(t, j.Duration(), moved.PlannedEnd()-moved.PlannedStart())
	off, ok := moved.Placement.Offset()
	assert.True(t, ok)
	assert.Equal(t, 360, off)
	assert.Equal(t, 360, j.PlannedStart(), "original job untouched")
}

func TestJobMaxShift(t *testing.T) {
	j := NewJob("D-1", ClassDeadhead, "line-1", 0, 60)
	assert.Equal(t, 720, j.MaxShift(HalfCycleMinutes))
	j.Flexibility = 0.25
	assert.Equal(t, 180, j.MaxShift(HalfCycleMinutes))
	j.Flexibility = 0
	assert.Equal(t, 0, j.MaxShift(HalfCycleMinutes))
}

func TestJobValidate(t *testing.T) {
	j := NewJob("K", ClassKTX, "c", 100, 100)
	assert.Error(t, j.Validate())
	j.End = 200
	j.Flexibility = 1.5
	assert.Error(t, j.Validate())
	j.Flexibility = 0.1
	j.Priority = 9
	assert.Error(t, j.Validate())
	j.Priority = 5
	assert.NoError(t, j.Validate())

	late := NewJob("N", ClassFreight, "c", 1380, 1500)
	assert.NoError(t, late.Validate())
	late.Start, late.End = CycleMinutes, CycleMinutes+60
	assert.Error(t, late.Validate())
	late.Start = -30
	assert.Error(t, late.Validate())
}

func TestParseClass(t *testing.T) {
	for _, c := range []Class{ClassKTX, ClassSRT, ClassITX, ClassMugunghwa, ClassFreight, ClassDeadhead} {
		got, err := ParseClass(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseClass("TGV")
	assert.Error(t, err)
	assert.True(t, ClassSRT.Restricted())
	assert.False(t, ClassFreight.Restricted())
}
