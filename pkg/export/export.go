// Package export writes optimizer results, episode histories and reports
// as JSON or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/greenrail/core/optimizer"
	"github.com/kilianp07/greenrail/core/simulator"
)

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var resultHeader = []string{
	"job_id", "class", "corridor", "original_start", "optimized_start",
	"delay_minutes", "original_cost", "optimized_cost", "savings",
	"favorable", "fixed", "infeasible",
}

// WriteResultsCSV writes one row per optimizer result.
func WriteResultsCSV(w io.Writer, results []optimizer.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultHeader); err != nil {
		return err
	}
	for _, r := range results {
		rec := []string{
			r.JobID,
			r.Class,
			r.Corridor,
			strconv.Itoa(r.OriginalStart),
			strconv.Itoa(r.OptimizedStart),
			strconv.Itoa(r.DelayMinutes),
			formatFloat(r.OriginalCost),
			formatFloat(r.OptimizedCost),
			formatFloat(r.Savings),
			strconv.FormatBool(r.Favorable),
			strconv.FormatBool(r.Fixed),
			strconv.FormatBool(r.Infeasible),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var episodeHeader = []string{
	"episode", "epsilon", "total_reward", "on_time_rate",
	"signal_utilization", "violations", "cost_savings", "carbon_reduction",
}

// WriteEpisodesCSV writes one row per episode.
func WriteEpisodesCSV(w io.Writer, episodes []simulator.EpisodeResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(episodeHeader); err != nil {
		return err
	}
	for _, e := range episodes {
		rec := []string{
			strconv.Itoa(e.EpisodeNumber),
			formatFloat(e.Epsilon),
			formatFloat(e.TotalReward),
			formatFloat(e.OnTimeRate),
			formatFloat(e.SignalUtilization),
			strconv.Itoa(e.ViolationCount),
			formatFloat(e.CostSavings),
			formatFloat(e.CarbonReduction),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
