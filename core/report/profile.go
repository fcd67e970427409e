package report

import (
	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/greenrail/core/model"
)

const (
	// IncentiveDiscount is deducted from the kWh price in incentive slots.
	IncentiveDiscount = 30.0
	// FavorableDiscount is deducted from the kWh price in favorable slots.
	FavorableDiscount = 20.0
)

// Profile is an hourly energy distribution in kWh.
type Profile [model.CycleHours]float64

// Total returns the energy of the whole cycle.
func (p Profile) Total() float64 { return floats.Sum(p[:]) }

// HourlyProfile spreads the energy of each job evenly over every hour from
// its departure hour to its arrival hour inclusive. Hours outside the
// cycle are dropped. When planned is false the scheduled times are used.
func HourlyProfile(jobs []model.Job, planned bool) Profile {
	var p Profile
	for _, j := range jobs {
		start, end := j.Start, j.End
		if planned {
			start, end = j.PlannedStart(), j.PlannedEnd()
		}
		first, last := model.HourOf(start), model.HourOf(end)
		share := j.EnergyKWh / float64(last-first+1)
		for h := max(first, 0); h <= last && h < model.CycleHours; h++ {
			p[h] += share
		}
	}
	return p
}

// HourCost is the tariff outcome of one hour.
type HourCost struct {
	Hour   int     `json:"hour"`
	Energy float64 `json:"energy"`
	Price  float64 `json:"price"`
	Cost   float64 `json:"cost"`
}

// Tariff is a simulated daily bill.
type Tariff struct {
	TotalCost        float64    `json:"total_cost"`
	Hourly           []HourCost `json:"hourly"`
	FavorableSavings float64    `json:"favorable_savings"`
	IncentiveSavings float64    `json:"incentive_savings"`
}

// UnitPrice returns the effective kWh price of a slot after discounts.
func UnitPrice(s model.Slot) float64 {
	p := s.Price
	if s.Incentive {
		p -= IncentiveDiscount
	}
	if s.Favorable {
		p -= FavorableDiscount
	}
	return p
}

// SimulateTariff bills the profile against the table with the favorable
// and incentive discounts applied.
func SimulateTariff(table *model.SignalTable, p Profile) Tariff {
	t := Tariff{Hourly: make([]HourCost, 0, model.CycleHours)}
	costs := make([]float64, model.CycleHours)
	for h, e := range p {
		s := table.At(h)
		costs[h] = e * UnitPrice(s)
		if s.Favorable {
			t.FavorableSavings += e * FavorableDiscount
		}
		if s.Incentive {
			t.IncentiveSavings += e * IncentiveDiscount
		}
		t.Hourly = append(t.Hourly, HourCost{Hour: h, Energy: e, Price: s.Price, Cost: costs[h]})
	}
	t.TotalCost = floats.Sum(costs)
	return t
}

// Emission is the simulated daily carbon output of a profile.
type Emission struct {
	TotalKg      float64                   `json:"total_kg"`
	HourlyKg     [model.CycleHours]float64 `json:"hourly_kg"`
	AvgIntensity float64                   `json:"avg_intensity"`
}

// SimulateEmission computes the carbon output of the profile.
func SimulateEmission(table *model.SignalTable, p Profile) Emission {
	var e Emission
	intensity := make([]float64, model.CycleHours)
	for h, kwh := range p {
		s := table.At(h)
		intensity[h] = s.CarbonIntensity
		e.HourlyKg[h] = kwh * s.CarbonIntensity / 1000
	}
	e.TotalKg = floats.Sum(e.HourlyKg[:])
	e.AvgIntensity = floats.Sum(intensity) / model.CycleHours
	return e
}

// Benefit compares the tariff and emission of two profiles.
type Benefit struct {
	Baseline        Tariff   `json:"baseline"`
	Optimized       Tariff   `json:"optimized"`
	BaselineCarbon  Emission `json:"baseline_carbon"`
	OptimizedCarbon Emission `json:"optimized_carbon"`
	CostSavings     float64  `json:"cost_savings"`
	SavingsPercent  float64  `json:"savings_percent"`
	CarbonReduction float64  `json:"carbon_reduction"`
}

// CompareProfiles bills the scheduled and planned profiles of jobs.
func CompareProfiles(jobs []model.Job, table *model.SignalTable) Benefit {
	base, opt := HourlyProfile(jobs, false), HourlyProfile(jobs, true)
	b := Benefit{
		Baseline:        SimulateTariff(table, base),
		Optimized:       SimulateTariff(table, opt),
		BaselineCarbon:  SimulateEmission(table, base),
		OptimizedCarbon: SimulateEmission(table, opt),
	}
	b.CostSavings = b.Baseline.TotalCost - b.Optimized.TotalCost
	b.SavingsPercent = percent(b.CostSavings, b.Baseline.TotalCost)
	b.CarbonReduction = b.BaselineCarbon.TotalKg - b.OptimizedCarbon.TotalKg
	return b
}
