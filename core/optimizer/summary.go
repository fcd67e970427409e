package optimizer

// Summary aggregates the results of one pass.
type Summary struct {
	Jobs                 int     `json:"jobs"`
	Shifted              int     `json:"shifted"`
	TotalOriginalCost    float64 `json:"total_original_cost"`
	TotalOptimizedCost   float64 `json:"total_optimized_cost"`
	TotalSavings         float64 `json:"total_savings"`
	FavorableUtilization float64 `json:"favorable_utilization"` // percent of jobs in a favorable slot
}

// Summarize totals results. An empty input yields a zero Summary.
func Summarize(results []Result) Summary {
	s := Summary{Jobs: len(results)}
	if len(results) == 0 {
		return s
	}
	favorable := 0
	for _, r := range results {
		s.TotalOriginalCost += r.OriginalCost
		s.TotalOptimizedCost += r.OptimizedCost
		if r.Favorable {
			favorable++
		}
		if r.DelayMinutes != 0 {
			s.Shifted++
		}
	}
	s.TotalSavings = s.TotalOriginalCost - s.TotalOptimizedCost
	s.FavorableUtilization = float64(favorable) / float64(len(results)) * 100
	return s
}
