package report

import (
	"encoding/json"
	"math"
)

// DaysPerMonth weights the annual projection across calendar months.
var DaysPerMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// YearROI is the return over a number of years in percent.
type YearROI struct {
	Years   int     `json:"years"`
	Percent float64 `json:"percent"`
}

// ROI holds payback and return figures.
type ROI struct {
	ImplementationCost float64 `json:"implementation_cost"`
	AnnualSavings      float64 `json:"annual_savings"`
	// PaybackYears is +Inf when the annual savings are not positive.
	PaybackYears float64   `json:"payback_years"`
	Returns      []YearROI `json:"returns"`
}

// Unbounded reports whether the investment is never paid back.
func (r ROI) Unbounded() bool { return math.IsInf(r.PaybackYears, 1) }

// MarshalJSON renders an unbounded payback as null.
func (r ROI) MarshalJSON() ([]byte, error) {
	type alias ROI
	out := struct {
		alias
		PaybackYears *float64 `json:"payback_years"`
	}{alias: alias(r)}
	if !r.Unbounded() {
		p := r.PaybackYears
		out.PaybackYears = &p
	}
	return json.Marshal(out)
}

// AnalyzeROI derives payback and the N-year returns from daily savings.
// Years defaults to 5 and 10.
func AnalyzeROI(dailySavings, implementationCost float64, years ...int) ROI {
	if len(years) == 0 {
		years = []int{5, 10}
	}
	r := ROI{
		ImplementationCost: implementationCost,
		AnnualSavings:      dailySavings * OperatingDays,
		Returns:            make([]YearROI, 0, len(years)),
	}
	r.PaybackYears = Payback(implementationCost, r.AnnualSavings)
	for _, n := range years {
		var pct float64
		if implementationCost > 0 {
			pct = (r.AnnualSavings*float64(n) - implementationCost) / implementationCost * 100
		}
		r.Returns = append(r.Returns, YearROI{Years: n, Percent: pct})
	}
	return r
}

// Payback returns cost/annualSavings in years, or +Inf when annualSavings
// is not positive.
func Payback(cost, annualSavings float64) float64 {
	if annualSavings <= 0 {
		return math.Inf(1)
	}
	return cost / annualSavings
}

// Projection spreads daily figures over a year.
type Projection struct {
	MonthlySavings        [12]float64 `json:"monthly_savings"`
	CumulativeSavings     [12]float64 `json:"cumulative_savings"`
	AnnualSavings         float64     `json:"annual_savings"`
	AnnualCarbonReduction float64     `json:"annual_carbon_reduction"`
}

// ProjectAnnual distributes daily savings across months using
// DaysPerMonth with a running cumulative sum.
func ProjectAnnual(dailySavings, dailyCarbonReduction float64) Projection {
	p := Projection{
		AnnualSavings:         dailySavings * OperatingDays,
		AnnualCarbonReduction: dailyCarbonReduction * OperatingDays,
	}
	var cum float64
	for m, days := range DaysPerMonth {
		p.MonthlySavings[m] = dailySavings * float64(days)
		cum += p.MonthlySavings[m]
		p.CumulativeSavings[m] = cum
	}
	return p
}
