package simulator

import (
	"context"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/greenrail/core/model"
)

const (
	// ConvergenceWindow is the number of trailing episodes inspected.
	ConvergenceWindow = 10
	// ConvergenceVariance is the reward variance under which the trailing
	// window is considered stable.
	ConvergenceVariance = 100.0
	// ConvergenceMinEpisode is the first episode number past which
	// convergence may be declared.
	ConvergenceMinEpisode = 20
)

// TrainingResult summarizes a training run.
type TrainingResult struct {
	Best               EpisodeResult `json:"best"`
	History            *History      `json:"-"`
	ConvergenceEpisode int           `json:"convergence_episode"`
	Episodes           int           `json:"episodes"`
}

// EpisodeFunc is called after each training episode.
type EpisodeFunc func(EpisodeResult)

// Train runs episodes 0..n-1 and tracks the best episode and the
// convergence episode. ConvergenceEpisode equals n when the reward never
// stabilized. Training stops early with ctx.Err() when ctx is done; the
// partial result is still returned.
func (s *Simulator) Train(ctx context.Context, jobs []model.Job, table *model.SignalTable, n int, fn EpisodeFunc) (TrainingResult, error) {
	h := &History{}
	res := TrainingResult{History: h, ConvergenceEpisode: n}
	for ep := 0; ep < n; ep++ {
		if err := ctx.Err(); err != nil {
			res.Episodes = h.Len()
			res.Best, _ = h.Best()
			return res, err
		}
		r := s.RunEpisode(jobs, table, ep)
		h.Append(r)
		if fn != nil {
			fn(r)
		}
		if res.ConvergenceEpisode == n && Converged(h.Rewards(), ep) {
			res.ConvergenceEpisode = ep
			s.log.Debugf("training converged at episode %d", ep)
		}
	}
	res.Episodes = h.Len()
	res.Best, _ = h.Best()
	return res, nil
}

// Converged reports whether the rewards recorded up to episode have
// stabilized: episode is past ConvergenceMinEpisode and the population
// variance of the last ConvergenceWindow rewards is below
// ConvergenceVariance.
func Converged(rewards []float64, episode int) bool {
	if episode <= ConvergenceMinEpisode || len(rewards) < ConvergenceWindow {
		return false
	}
	window := rewards[len(rewards)-ConvergenceWindow:]
	return stat.PopVariance(window, nil) < ConvergenceVariance
}
