// Package reward scores a proposed job placement against the hourly grid
// signal. The score combines punctuality, energy cost, alignment with
// favorable windows and a safety penalty, weighted by caller-supplied
// coefficients. Evaluation is pure and never fails.
package reward

import (
	"math"

	"github.com/kilianp07/greenrail/core/model"
)

const (
	// BaselinePrice is the reference price used by the economic component.
	BaselinePrice = 100.0

	// OnTimeMax is the punctuality reward for an unshifted job.
	OnTimeMax = 100.0
	// OverShiftPenaltyPerHour penalizes shifts beyond the allowed range.
	OverShiftPenaltyPerHour = 50.0

	FavorableBonus = 50.0
	IncentiveBonus = 30.0
	SurplusFactor  = 0.5

	// PriorityTier is the lowest priority considered delay intolerant.
	PriorityTier = 4
	// PriorityGraceMinutes is the shift tolerated for delay intolerant jobs.
	PriorityGraceMinutes = 30
	// DelayPenaltyPerHour applies past the grace period.
	DelayPenaltyPerHour = 100.0

	// OperatingBandStart and OperatingBandEnd bound, inclusively, the
	// departure hours of restricted classes.
	OperatingBandStart = 5
	OperatingBandEnd   = 23
	// BandViolationPenalty is added when a restricted job leaves the band.
	BandViolationPenalty = 500.0
)

// Weights balance the reward components. They are not normalized.
type Weights struct {
	OnTime    float64 `json:"w1" yaml:"w1"`
	Economic  float64 `json:"w2" yaml:"w2"`
	Alignment float64 `json:"w3" yaml:"w3"`
	Safety    float64 `json:"w4" yaml:"w4"`
}

// DefaultWeights returns the weights used when none are configured.
func DefaultWeights() Weights {
	return Weights{OnTime: 0.3, Economic: 0.4, Alignment: 0.25, Safety: 0.05}
}

// Sum returns the total of the weights. Callers may use it to check that
// the weights add up to one; Evaluate does not require it.
func (w Weights) Sum() float64 {
	return w.OnTime + w.Economic + w.Alignment + w.Safety
}

// Params tunes how the components are computed.
type Params struct {
	// HalfCycle is the shift horizon in minutes scaled by job flexibility.
	HalfCycle int
	// SurplusBonus adds SurplusFactor*surplus to the alignment component
	// when the slot is favorable, on top of FavorableBonus.
	SurplusBonus bool
}

// DefaultParams returns the parameters matching the historical scoring.
func DefaultParams() Params {
	return Params{HalfCycle: model.HalfCycleMinutes, SurplusBonus: true}
}

// Breakdown is the result of one evaluation.
type Breakdown struct {
	OnTime        float64 `json:"on_time"`
	Economic      float64 `json:"economic"`
	Alignment     float64 `json:"alignment"`
	SafetyPenalty float64 `json:"safety_penalty"`
	Total         float64 `json:"total"`
}

// Evaluate scores job shifted by offset minutes from its scheduled start.
func Evaluate(job model.Job, offset int, table *model.SignalTable, w Weights, p Params) Breakdown {
	if p.HalfCycle <= 0 {
		p.HalfCycle = model.HalfCycleMinutes
	}
	shift := offset
	if shift < 0 {
		shift = -shift
	}
	start := job.Start + offset
	slot := table.AtMinute(start)

	var b Breakdown
	b.OnTime = onTime(shift, job.MaxShift(p.HalfCycle))
	b.Economic = (BaselinePrice - slot.Price) * job.EnergyKWh / 10000
	b.Alignment = alignment(slot, p.SurplusBonus)
	b.SafetyPenalty = safety(job, shift, model.HourOf(start))
	b.Total = w.OnTime*b.OnTime + w.Economic*b.Economic + w.Alignment*b.Alignment - w.Safety*b.SafetyPenalty
	return b
}

func onTime(shift, allowed int) float64 {
	if allowed > 0 && shift <= allowed {
		return OnTimeMax * (1 - float64(shift)/float64(allowed))
	}
	if allowed == 0 && shift == 0 {
		return OnTimeMax
	}
	return -OverShiftPenaltyPerHour * float64(shift-allowed) / 60
}

func alignment(s model.Slot, surplusBonus bool) float64 {
	var r float64
	if s.Favorable {
		r += FavorableBonus
	}
	if s.Incentive {
		r += IncentiveBonus
	}
	if surplusBonus && s.Surplus > model.FavorableThreshold {
		r += SurplusFactor * s.Surplus
	}
	return r
}

// safety uses the unwrapped departure hour so that shifts past either end
// of the cycle count as leaving the operating band.
func safety(job model.Job, shift, hour int) float64 {
	var p float64
	if job.Priority >= PriorityTier && shift > PriorityGraceMinutes {
		p += DelayPenaltyPerHour * float64(shift-PriorityGraceMinutes) / 60
	}
	if job.Class.Restricted() && (hour < OperatingBandStart || hour > OperatingBandEnd) {
		p += BandViolationPenalty
	}
	return p
}

// OnTimeRate returns the share of shifts within the punctuality grace in
// percent. It returns 0 for an empty input.
func OnTimeRate(shifts []int) float64 {
	if len(shifts) == 0 {
		return 0
	}
	n := 0
	for _, s := range shifts {
		if math.Abs(float64(s)) <= PriorityGraceMinutes {
			n++
		}
	}
	return float64(n) / float64(len(shifts)) * 100
}
