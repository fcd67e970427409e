// Package optimizer assigns each job a departure that lowers its energy
// cost against the hourly signal. Jobs are placed greedily in priority
// order: a job is checked for headway only against jobs committed before
// it in the same pass, and never displaces them.
package optimizer

import (
	"errors"
	"sort"
	"time"

	"github.com/kilianp07/greenrail/core/logger"
	"github.com/kilianp07/greenrail/core/model"
)

// ErrInfeasibleWindow reports that a job has no admissible start inside
// the cycle. It is logged and the job keeps its scheduled start.
var ErrInfeasibleWindow = errors.New("infeasible window")

// Result describes the placement chosen for one job.
type Result struct {
	Job            model.Job `json:"-"`
	JobID          string    `json:"job_id"`
	Class          string    `json:"class"`
	Corridor       string    `json:"corridor"`
	OriginalStart  int       `json:"original_start"`
	OptimizedStart int       `json:"optimized_start"`
	OriginalCost   float64   `json:"original_cost"`
	OptimizedCost  float64   `json:"optimized_cost"`
	Savings        float64   `json:"savings"`
	Favorable      bool      `json:"favorable"`
	DelayMinutes   int       `json:"delay_minutes"` // negative when advanced
	Fixed          bool      `json:"fixed"`
	Infeasible     bool      `json:"infeasible"`
}

// Optimizer runs constrained local searches over a job set.
type Optimizer struct {
	constraints Constraints
	log         logger.Logger
}

// New returns an optimizer using c. A nil logger discards output.
func New(c Constraints, log logger.Logger) *Optimizer {
	c.SetDefaults()
	if log == nil {
		log = logger.Nop{}
	}
	return &Optimizer{constraints: c, log: log}
}

// Constraints returns the effective configuration.
func (o *Optimizer) Constraints() Constraints { return o.constraints }

// placement is a start committed on a corridor during one pass.
type placement struct {
	corridor string
	start    int
}

// Optimize places every job and returns one result per job, in processing
// order: descending priority, ties kept in input order. The input slice is
// not modified.
func (o *Optimizer) Optimize(jobs []model.Job, table *model.SignalTable) []Result {
	begin := time.Now()
	ordered := make([]model.Job, len(jobs))
	copy(ordered, jobs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority > ordered[j].Priority })

	results := make([]Result, 0, len(ordered))
	committed := make([]placement, 0, len(ordered))
	for _, job := range ordered {
		res := o.place(job, table, committed)
		results = append(results, res)
		committed = append(committed, placement{corridor: job.Corridor, start: res.OptimizedStart})
		observeResult(res)
	}
	passDuration.Observe(time.Since(begin).Seconds())
	return results
}

func (o *Optimizer) place(job model.Job, table *model.SignalTable, committed []placement) Result {
	c := o.constraints
	origCost := o.cost(job, job.Start, table)
	res := Result{
		JobID:          job.ID,
		Class:          job.Class.String(),
		Corridor:       job.Corridor,
		OriginalStart:  job.Start,
		OptimizedStart: job.Start,
		OriginalCost:   origCost,
		OptimizedCost:  origCost,
	}

	if job.Flexibility < ratio(c.FixedBelow) {
		res.Fixed = true
		return o.finish(res, job, table)
	}

	lo, hi, err := o.window(job)
	if err != nil {
		o.log.Warnf("job %s: %v, keeping scheduled start %d", job.ID, err, job.Start)
		res.Infeasible = true
		return o.finish(res, job, table)
	}

	headway := c.HeadwayFor(job.Class)
	// The scheduled start is the incumbent without a headway check: only
	// moved jobs are spaced against earlier commitments.
	best, bestCost := job.Start, origCost
	for dep := lo; dep <= hi; dep += c.StepMinutes {
		if conflicts(committed, job.Corridor, dep, headway) {
			continue
		}
		if cost := o.cost(job, dep, table); cost < bestCost {
			best, bestCost = dep, cost
		}
	}

	for run := range table.FavorableRuns() {
		if run.Hours()*60 < job.Duration() {
			continue
		}
		dep := run.StartHour * 60
		if dep < lo || dep > hi || conflicts(committed, job.Corridor, dep, headway) {
			continue
		}
		adjusted := o.cost(job, dep, table) * (1 - ratio(c.FavorableDiscount))
		if adjusted < bestCost*(1-ratio(c.FavorableMargin)) {
			best, bestCost = dep, adjusted
		}
	}

	res.OptimizedStart = best
	res.OptimizedCost = bestCost
	return o.finish(res, job, table)
}

func (o *Optimizer) finish(res Result, job model.Job, table *model.SignalTable) Result {
	res.Savings = res.OriginalCost - res.OptimizedCost
	res.DelayMinutes = res.OptimizedStart - res.OriginalStart
	res.Favorable = table.AtMinute(res.OptimizedStart).Favorable
	if res.Fixed || res.Infeasible {
		res.Job = job.WithPlacement(model.Scheduled())
	} else {
		res.Job = job.WithStart(res.OptimizedStart)
	}
	return res
}

// window returns the admissible start range of job, clipped to the cycle.
func (o *Optimizer) window(job model.Job) (int, int, error) {
	d := job.Duration()
	if d <= 0 || d > model.CycleMinutes {
		return 0, 0, ErrInfeasibleWindow
	}
	shift := job.MaxShift(o.constraints.HalfCycle)
	lo := max(0, job.Start-shift)
	hi := min(model.CycleMinutes-d, job.Start+shift)
	if lo > hi {
		return 0, 0, ErrInfeasibleWindow
	}
	return lo, hi, nil
}

func conflicts(committed []placement, corridor string, start, headway int) bool {
	for _, p := range committed {
		if p.corridor != corridor {
			continue
		}
		d := p.start - start
		if d < 0 {
			d = -d
		}
		if d < headway {
			return true
		}
	}
	return false
}

// Cost returns the energy cost of running job from start under the
// optimizer pricing model.
func (o *Optimizer) Cost(job model.Job, start int, table *model.SignalTable) float64 {
	return o.cost(job, start, table)
}

func (o *Optimizer) cost(job model.Job, start int, table *model.SignalTable) float64 {
	if o.constraints.TransitPricing {
		return job.EnergyKWh * TransitPrice(table, start, job.Duration())
	}
	return job.EnergyKWh * table.AtMinute(start).Price
}

// TransitPrice averages the slot prices over every hour touched by a run
// of duration minutes starting at start, wrapping around the cycle.
func TransitPrice(table *model.SignalTable, start, duration int) float64 {
	first := model.HourOf(start)
	last := model.HourOf(start + duration)
	n := last - first + 1
	if n > model.CycleHours {
		n = model.CycleHours
	}
	if n <= 0 {
		return table.At(first).Price
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += table.At(first + i).Price
	}
	return sum / float64(n)
}
