// Package report rolls placed jobs up into daily cost and carbon figures,
// payback and ROI estimates and annual projections. Every function is pure
// and guards its ratios: a zero base yields 0 and a payback that can never
// be reached is +Inf.
package report

import (
	"github.com/kilianp07/greenrail/core/model"
	"github.com/kilianp07/greenrail/core/optimizer"
)

const (
	// OperatingDays is the number of operating days per year.
	OperatingDays = 365
	// PeakPrice is the slot price from which an hour counts as peak.
	PeakPrice = 150.0
	// CarbonPerTreeKg is the yearly CO2 absorbed by one tree.
	CarbonPerTreeKg = 22.0
	// CarbonCreditPrice is the value of one tonne of avoided CO2.
	CarbonCreditPrice = 25000.0
	// DefaultImplementationCost is the system cost used for payback.
	DefaultImplementationCost = 5_000_000_000.0
	// PunctualMinutes is the largest delay counted as on time.
	PunctualMinutes = 30
)

// CostAnalysis compares the daily energy cost of the scheduled and the
// planned placements.
type CostAnalysis struct {
	BaselineCost   float64 `json:"baseline_cost"`
	OptimizedCost  float64 `json:"optimized_cost"`
	Savings        float64 `json:"savings"`
	SavingsPercent float64 `json:"savings_percent"`
	PeakAvoidance  int     `json:"peak_avoidance"`
	FavorableHits  int     `json:"favorable_hits"`
}

// CarbonAnalysis compares the daily emissions in kg of CO2.
type CarbonAnalysis struct {
	BaselineEmission  float64 `json:"baseline_emission"`
	OptimizedEmission float64 `json:"optimized_emission"`
	Reduction         float64 `json:"reduction"`
	ReductionPercent  float64 `json:"reduction_percent"`
	TreesEquivalent   float64 `json:"trees_equivalent"`
	CarbonCreditValue float64 `json:"carbon_credit_value"`
}

// Placed returns the jobs carried by optimizer results with their
// committed placements.
func Placed(results []optimizer.Result) []model.Job {
	jobs := make([]model.Job, len(results))
	for i, r := range results {
		jobs[i] = r.Job
	}
	return jobs
}

// AnalyzeCost prices every job at its scheduled and planned departure slot.
func AnalyzeCost(jobs []model.Job, table *model.SignalTable) CostAnalysis {
	var a CostAnalysis
	for _, j := range jobs {
		orig := table.AtMinute(j.Start)
		planned := table.AtMinute(j.PlannedStart())
		a.BaselineCost += j.EnergyKWh * orig.Price
		a.OptimizedCost += j.EnergyKWh * planned.Price
		if orig.Price >= PeakPrice && planned.Price < PeakPrice {
			a.PeakAvoidance++
		}
		if planned.Favorable {
			a.FavorableHits++
		}
	}
	a.Savings = a.BaselineCost - a.OptimizedCost
	a.SavingsPercent = percent(a.Savings, a.BaselineCost)
	return a
}

// AnalyzeCarbon computes the daily emission of both placements.
func AnalyzeCarbon(jobs []model.Job, table *model.SignalTable) CarbonAnalysis {
	var a CarbonAnalysis
	for _, j := range jobs {
		a.BaselineEmission += j.EnergyKWh * table.AtMinute(j.Start).CarbonIntensity / 1000
		a.OptimizedEmission += j.EnergyKWh * table.AtMinute(j.PlannedStart()).CarbonIntensity / 1000
	}
	a.Reduction = a.BaselineEmission - a.OptimizedEmission
	a.ReductionPercent = percent(a.Reduction, a.BaselineEmission)
	yearly := a.Reduction * OperatingDays
	a.TreesEquivalent = yearly / CarbonPerTreeKg
	a.CarbonCreditValue = yearly / 1000 * CarbonCreditPrice
	return a
}

// percent returns part/base*100, or 0 when base is not positive.
func percent(part, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return part / base * 100
}
