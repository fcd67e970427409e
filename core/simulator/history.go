package simulator

import (
	"iter"
	"math"
)

// History is an append-only record of episode results owned by the
// caller. The zero value is ready to use.
type History struct {
	episodes []EpisodeResult
	bestSeen []float64
}

// Append records res at the end of the history.
func (h *History) Append(res EpisodeResult) {
	best := res.TotalReward
	if n := len(h.bestSeen); n > 0 {
		best = math.Max(best, h.bestSeen[n-1])
	}
	h.episodes = append(h.episodes, res)
	h.bestSeen = append(h.bestSeen, best)
}

// Len returns the number of recorded episodes.
func (h *History) Len() int { return len(h.episodes) }

// All yields the recorded episodes in order.
func (h *History) All() iter.Seq[EpisodeResult] {
	return func(yield func(EpisodeResult) bool) {
		for _, e := range h.episodes {
			if !yield(e) {
				return
			}
		}
	}
}

// Episodes returns a copy of the recorded episodes.
func (h *History) Episodes() []EpisodeResult {
	out := make([]EpisodeResult, len(h.episodes))
	copy(out, h.episodes)
	return out
}

// Last returns the most recent episode.
func (h *History) Last() (EpisodeResult, bool) {
	if len(h.episodes) == 0 {
		return EpisodeResult{}, false
	}
	return h.episodes[len(h.episodes)-1], true
}

// Best returns the first episode with the highest total reward.
func (h *History) Best() (EpisodeResult, bool) {
	if len(h.episodes) == 0 {
		return EpisodeResult{}, false
	}
	best := h.episodes[0]
	for _, e := range h.episodes[1:] {
		if e.TotalReward > best.TotalReward {
			best = e
		}
	}
	return best, true
}

// Rewards returns the total reward of every episode.
func (h *History) Rewards() []float64 {
	out := make([]float64, len(h.episodes))
	for i, e := range h.episodes {
		out[i] = e.TotalReward
	}
	return out
}

// BestSeen returns the running maximum of the total reward, one entry
// per episode. It is non-decreasing.
func (h *History) BestSeen() []float64 {
	out := make([]float64, len(h.bestSeen))
	copy(out, h.bestSeen)
	return out
}

// Reset drops every recorded episode.
func (h *History) Reset() {
	h.episodes = nil
	h.bestSeen = nil
}
