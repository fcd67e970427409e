// Package simulator runs epsilon-greedy episodes over a job set. Each
// episode either explores a random shift or exploits the best scanned
// shift per job, scores the choice with the reward evaluator and reports
// aggregate statistics. The simulator keeps no state between episodes
// besides its random source.
package simulator

import (
	"math"
	"math/rand"
	"time"

	"github.com/kilianp07/greenrail/core/logger"
	"github.com/kilianp07/greenrail/core/model"
	"github.com/kilianp07/greenrail/core/reward"
)

const (
	// ScanStepMinutes is the spacing of shifts scanned when exploiting.
	ScanStepMinutes = 30
	// PunctualMinutes is the largest shift still counted as on time.
	PunctualMinutes = 30

	epsilonStart = 0.3
	epsilonFloor = 0.01
	epsilonDecay = 50.0
)

// Action is the shift chosen for one job during an episode.
type Action struct {
	JobID string `json:"job_id"`
	Shift int    `json:"shift"`
	// Accepted is false when the shift moved the departure out of the
	// cycle. Such actions count as violations and are not scored.
	Accepted bool `json:"accepted"`
	Explored bool `json:"explored"`
}

// EpisodeResult holds the statistics of one episode.
type EpisodeResult struct {
	EpisodeNumber     int       `json:"episode"`
	Epsilon           float64   `json:"epsilon"`
	TotalReward       float64   `json:"total_reward"`
	RewardHistory     []float64 `json:"reward_history"`
	OnTimeRate        float64   `json:"on_time_rate"`       // percent of jobs
	SignalUtilization float64   `json:"signal_utilization"` // percent of jobs in a favorable slot
	ViolationCount    int       `json:"violation_count"`
	CostSavings       float64   `json:"cost_savings"`
	CarbonReduction   float64   `json:"carbon_reduction"` // kg
	Actions           []Action  `json:"actions"`
}

// Epsilon returns the exploration probability of an episode. It never
// increases with the episode number and never drops below 0.01.
func Epsilon(episode int) float64 {
	return math.Max(epsilonFloor, epsilonStart*math.Exp(-float64(episode)/epsilonDecay))
}

// Simulator runs episodes with fixed weights and an injectable random
// source.
type Simulator struct {
	weights reward.Weights
	params  reward.Params
	rng     *rand.Rand
	log     logger.Logger
}

// New creates a simulator. A nil rng is seeded from the clock and a nil
// logger discards output.
func New(w reward.Weights, p reward.Params, rng *rand.Rand, log logger.Logger) *Simulator {
	if p.HalfCycle <= 0 {
		p.HalfCycle = model.HalfCycleMinutes
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Simulator{weights: w, params: p, rng: rng, log: log}
}

// NewSeeded is a shorthand for New with a deterministic source.
func NewSeeded(w reward.Weights, p reward.Params, seed int64, log logger.Logger) *Simulator {
	return New(w, p, rand.New(rand.NewSource(seed)), log)
}

// Weights returns the reward weights in use.
func (s *Simulator) Weights() reward.Weights { return s.weights }

// RunEpisode plays one episode over jobs in input order.
func (s *Simulator) RunEpisode(jobs []model.Job, table *model.SignalTable, episode int) EpisodeResult {
	eps := Epsilon(episode)
	res := EpisodeResult{
		EpisodeNumber: episode,
		Epsilon:       eps,
		RewardHistory: make([]float64, 0, len(jobs)),
		Actions:       make([]Action, 0, len(jobs)),
	}

	var punctual, favorable int
	var origCost, newCost, origCarbon, newCarbon float64
	for _, job := range jobs {
		act := s.selectAction(job, table, eps)
		start := job.Start + act.Shift
		hour := model.HourOf(start)
		if hour < 0 || hour >= model.CycleHours {
			s.log.Debugf("episode %d: job %s shifted %d min out of cycle", episode, job.ID, act.Shift)
			res.ViolationCount++
			res.Actions = append(res.Actions, act)
			continue
		}
		act.Accepted = true
		res.Actions = append(res.Actions, act)

		b := reward.Evaluate(job, act.Shift, table, s.weights, s.params)
		res.TotalReward += b.Total
		res.RewardHistory = append(res.RewardHistory, b.Total)

		if abs(act.Shift) <= PunctualMinutes {
			punctual++
		}
		slot := table.At(hour)
		if slot.Favorable {
			favorable++
		}
		if b.SafetyPenalty > 0 {
			res.ViolationCount++
		}

		orig := table.AtMinute(job.Start)
		origCost += job.EnergyKWh * orig.Price
		newCost += job.EnergyKWh * slot.Price
		origCarbon += job.EnergyKWh * orig.CarbonIntensity / 1000
		newCarbon += job.EnergyKWh * slot.CarbonIntensity / 1000
	}

	if n := len(jobs); n > 0 {
		res.OnTimeRate = float64(punctual) / float64(n) * 100
		res.SignalUtilization = float64(favorable) / float64(n) * 100
	}
	res.CostSavings = origCost - newCost
	res.CarbonReduction = origCarbon - newCarbon
	return res
}

func (s *Simulator) selectAction(job model.Job, table *model.SignalTable, eps float64) Action {
	maxShift := job.MaxShift(s.params.HalfCycle)
	if s.rng.Float64() < eps {
		return Action{JobID: job.ID, Shift: s.rng.Intn(2*maxShift+1) - maxShift, Explored: true}
	}

	best := Action{JobID: job.ID}
	bestReward := math.Inf(-1)
	for shift := -maxShift; shift <= maxShift; shift += ScanStepMinutes {
		hour := model.HourOf(job.Start + shift)
		if hour < 0 || hour >= model.CycleHours {
			continue
		}
		if r := reward.Evaluate(job, shift, table, s.weights, s.params).Total; r > bestReward {
			best.Shift, bestReward = shift, r
		}
	}
	return best
}

// Apply returns copies of jobs placed according to the accepted actions
// of res. Jobs without an accepted action keep their scheduled placement.
func Apply(jobs []model.Job, res EpisodeResult) []model.Job {
	shifts := make(map[string]int, len(res.Actions))
	for _, a := range res.Actions {
		if a.Accepted {
			shifts[a.JobID] = a.Shift
		}
	}
	out := make([]model.Job, len(jobs))
	for i, j := range jobs {
		if shift, ok := shifts[j.ID]; ok {
			out[i] = j.WithPlacement(model.Optimized(shift))
		} else {
			out[i] = j.WithPlacement(model.Scheduled())
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
