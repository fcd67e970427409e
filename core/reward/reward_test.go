package reward

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/greenrail/core/model"
)

func table(t *testing.T, mutate func([]model.Slot)) *model.SignalTable {
	t.Helper()
	slots := make([]model.Slot, model.CycleHours)
	for h := range slots {
		slots[h] = model.NewSlot(h, 100, 400, 0)
	}
	if mutate != nil {
		mutate(slots)
	}
	tbl, err := model.NewSignalTable(slots)
	require.NoError(t, err)
	return tbl
}

func TestOnTime_ZeroShift(t *testing.T) {
	tbl := table(t, nil)
	for _, flex := range []float64{0.1, 0.5, 1} {
		j := model.NewJob("f", model.ClassFreight, "c", 600, 700)
		j.Flexibility = flex
		b := Evaluate(j, 0, tbl, DefaultWeights(), DefaultParams())
		assert.Equal(t, 100.0, b.OnTime, "flex=%v", flex)
	}
}

func TestOnTime_LinearDecayAndOverLimit(t *testing.T) {
	tbl := table(t, nil)
	j := model.NewJob("f", model.ClassFreight, "c", 600, 700)
	j.Flexibility = 0.25 // allowed = 180

	b := Evaluate(j, 90, tbl, DefaultWeights(), DefaultParams())
	assert.InDelta(t, 50, b.OnTime, 1e-9)
	b = Evaluate(j, -180, tbl, DefaultWeights(), DefaultParams())
	assert.InDelta(t, 0, b.OnTime, 1e-9)
	b = Evaluate(j, 240, tbl, DefaultWeights(), DefaultParams())
	assert.InDelta(t, -50, b.OnTime, 1e-9)
}

func TestOnTime_NoFlexibility(t *testing.T) {
	tbl := table(t, nil)
	j := model.NewJob("f", model.ClassFreight, "c", 600, 700)
	j.Flexibility = 0
	assert.Equal(t, 100.0, Evaluate(j, 0, tbl, DefaultWeights(), DefaultParams()).OnTime)
	assert.InDelta(t, -25, Evaluate(j, 30, tbl, DefaultWeights(), DefaultParams()).OnTime, 1e-9)
}

func TestEconomic(t *testing.T) {
	tbl := table(t, func(s []model.Slot) {
		s[12].Price = -50
		s[18].Price = 200
	})
	j := model.NewJob("f", model.ClassFreight, "c", 720, 780)
	j.EnergyKWh = 2000
	assert.InDelta(t, 30, Evaluate(j, 0, tbl, DefaultWeights(), DefaultParams()).Economic, 1e-9)
	assert.InDelta(t, -20, Evaluate(j, 360, tbl, DefaultWeights(), DefaultParams()).Economic, 1e-9)
	assert.InDelta(t, 0, Evaluate(j, 60, tbl, DefaultWeights(), DefaultParams()).Economic, 1e-9)
}

func TestAlignment(t *testing.T) {
	tbl := table(t, func(s []model.Slot) {
		s[10] = model.NewSlot(10, 40, 100, 30)
		s[11] = model.NewSlot(11, -20, 50, 40)
	})
	j := model.NewJob("f", model.ClassFreight, "c", 600, 660)
	b := Evaluate(j, 0, tbl, DefaultWeights(), DefaultParams())
	assert.InDelta(t, 50+15, b.Alignment, 1e-9)
	b = Evaluate(j, 60, tbl, DefaultWeights(), DefaultParams())
	assert.InDelta(t, 50+30+20, b.Alignment, 1e-9)

	p := DefaultParams()
	p.SurplusBonus = false
	b = Evaluate(j, 60, tbl, DefaultWeights(), p)
	assert.InDelta(t, 80, b.Alignment, 1e-9)
}

func TestSafety_RestrictedClassAtNight(t *testing.T) {
	tbl := table(t, nil)
	j := model.NewJob("k", model.ClassKTX, "c", 120, 270) // 02:00
	b := Evaluate(j, 0, tbl, DefaultWeights(), DefaultParams())
	assert.GreaterOrEqual(t, b.SafetyPenalty, 500.0)

	j = model.NewJob("k", model.ClassKTX, "c", 1380, 1430) // 23:00 is allowed
	assert.Equal(t, 0.0, Evaluate(j, 0, tbl, DefaultWeights(), DefaultParams()).SafetyPenalty)
	assert.GreaterOrEqual(t, Evaluate(j, 60, tbl, DefaultWeights(), DefaultParams()).SafetyPenalty, 500.0)

	f := model.NewJob("f", model.ClassFreight, "c", 120, 200)
	assert.Equal(t, 0.0, Evaluate(f, 0, tbl, DefaultWeights(), DefaultParams()).SafetyPenalty)
}

func TestSafety_PriorityDelay(t *testing.T) {
	tbl := table(t, nil)
	j := model.NewJob("i", model.ClassITX, "c", 600, 800)
	assert.Equal(t, 0.0, Evaluate(j, 30, tbl, DefaultWeights(), DefaultParams()).SafetyPenalty)
	assert.InDelta(t, 50, Evaluate(j, -60, tbl, DefaultWeights(), DefaultParams()).SafetyPenalty, 1e-9)
	m := model.NewJob("m", model.ClassMugunghwa, "c", 600, 800)
	assert.Equal(t, 0.0, Evaluate(m, 90, tbl, DefaultWeights(), DefaultParams()).SafetyPenalty)
}

func TestTotal(t *testing.T) {
	tbl := table(t, nil)
	j := model.NewJob("k", model.ClassKTX, "c", 120, 270)
	w := Weights{OnTime: 1, Economic: 2, Alignment: 3, Safety: 4}
	b := Evaluate(j, 0, tbl, w, DefaultParams())
	want := 1*b.OnTime + 2*b.Economic + 3*b.Alignment - 4*b.SafetyPenalty
	assert.InDelta(t, want, b.Total, 1e-9)
	assert.InDelta(t, 100-2000, b.Total, 1e-9)
	assert.InDelta(t, 1.0, DefaultWeights().Sum(), 1e-9)
}

func TestOnTimeRate(t *testing.T) {
	assert.Equal(t, 0.0, OnTimeRate(nil))
	assert.InDelta(t, 50, OnTimeRate([]int{0, -30, 31, 120}), 1e-9)
}
