package report

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/greenrail/core/model"
)

// Operational summarizes punctuality and signal usage of a placement.
type Operational struct {
	TotalJobs            int     `json:"total_jobs"`
	OptimizedJobs        int     `json:"optimized_jobs"`
	AvgDelayMinutes      float64 `json:"avg_delay_minutes"`
	OnTimeRate           float64 `json:"on_time_rate"`
	FavorableUtilization float64 `json:"favorable_utilization"`
}

// Performance is the full daily report of a placement.
type Performance struct {
	DailyCost   CostAnalysis   `json:"daily_cost"`
	DailyCarbon CarbonAnalysis `json:"daily_carbon"`
	ROI         ROI            `json:"roi"`
	Annual      Projection     `json:"annual"`
	Operational Operational    `json:"operational"`
	Profile     Benefit        `json:"profile"`
}

// Options tunes the investment figures of a report.
type Options struct {
	ImplementationCost float64 `json:"implementation_cost"`
	ROIYears           []int   `json:"roi_years"`
}

// DefaultOptions returns the standard investment assumptions.
func DefaultOptions() Options {
	return Options{ImplementationCost: DefaultImplementationCost, ROIYears: []int{5, 10}}
}

// Analyze builds the performance report of jobs at their planned
// placements. An empty job list yields zero figures.
func Analyze(jobs []model.Job, table *model.SignalTable, opts Options) Performance {
	cost := AnalyzeCost(jobs, table)
	carbon := AnalyzeCarbon(jobs, table)
	return Performance{
		DailyCost:   cost,
		DailyCarbon: carbon,
		ROI:         AnalyzeROI(cost.Savings, opts.ImplementationCost, opts.ROIYears...),
		Annual:      ProjectAnnual(cost.Savings, carbon.Reduction),
		Operational: operational(jobs, cost.FavorableHits),
		Profile:     CompareProfiles(jobs, table),
	}
}

func operational(jobs []model.Job, favorableHits int) Operational {
	o := Operational{TotalJobs: len(jobs)}
	if len(jobs) == 0 {
		return o
	}
	delays := make([]float64, 0, len(jobs))
	punctual := 0
	for _, j := range jobs {
		if !j.Placement.IsOptimized() {
			continue
		}
		d := math.Abs(float64(j.Shift()))
		delays = append(delays, d)
		if d <= PunctualMinutes {
			punctual++
		}
	}
	o.OptimizedJobs = len(delays)
	if len(delays) > 0 {
		o.AvgDelayMinutes = stat.Mean(delays, nil)
	}
	o.OnTimeRate = percent(float64(punctual), float64(len(jobs)))
	o.FavorableUtilization = percent(float64(favorableHits), float64(len(jobs)))
	return o
}
