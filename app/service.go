// Package app wires the optimizer, the simulator and the reports around a
// single job set and signal table.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/greenrail/config"
	"github.com/kilianp07/greenrail/core/events"
	coremetrics "github.com/kilianp07/greenrail/core/metrics"
	"github.com/kilianp07/greenrail/core/model"
	"github.com/kilianp07/greenrail/core/monitoring"
	"github.com/kilianp07/greenrail/core/optimizer"
	"github.com/kilianp07/greenrail/core/report"
	"github.com/kilianp07/greenrail/core/reward"
	"github.com/kilianp07/greenrail/core/simulator"
	"github.com/kilianp07/greenrail/infra/logger"
	_ "github.com/kilianp07/greenrail/infra/metrics" // built-in sinks
	"github.com/kilianp07/greenrail/internal/eventbus"
)

// ErrUnknownJob is returned by UpdateSchedule for an id not in the job set.
var ErrUnknownJob = errors.New("unknown job")

// Options assembles a Service. Nil collaborators are replaced by no-op
// implementations.
type Options struct {
	Constraints optimizer.Constraints
	Weights     reward.Weights
	Params      reward.Params
	Report      report.Options
	// Seed makes episodes reproducible. Zero seeds from the clock.
	Seed   int64
	Sink   coremetrics.Sink
	Bus    eventbus.EventBus
	Logger logger.Logger
}

// Optimization is the outcome of one optimization pass.
type Optimization struct {
	RunID       string             `json:"run_id"`
	Results     []optimizer.Result `json:"results"`
	Summary     optimizer.Summary  `json:"summary"`
	Performance report.Performance `json:"performance"`
}

// Service owns a job set, its signal table and the episode history. It is
// not safe for concurrent use.
type Service struct {
	scheduled []model.Job
	jobs      []model.Job
	table     *model.SignalTable

	opt     *optimizer.Optimizer
	sim     *simulator.Simulator
	history *simulator.History
	episode int
	runID   string

	reportOpts report.Options
	sink       coremetrics.Sink
	bus        eventbus.EventBus
	log        logger.Logger
}

// New creates a Service over jobs and table. Jobs start at their
// scheduled placement.
func New(jobs []model.Job, table *model.SignalTable, opts Options) (*Service, error) {
	if table == nil {
		return nil, fmt.Errorf("signal table is required")
	}
	for _, j := range jobs {
		if err := j.Validate(); err != nil {
			return nil, err
		}
	}
	opts.Constraints.SetDefaults()
	if err := opts.Constraints.Validate(); err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}
	if opts.Weights == (reward.Weights{}) {
		opts.Weights = reward.DefaultWeights()
	}
	if opts.Params == (reward.Params{}) {
		opts.Params = reward.DefaultParams()
	}
	if opts.Report.ROIYears == nil && opts.Report.ImplementationCost == 0 {
		opts.Report = report.DefaultOptions()
	}
	if opts.Sink == nil {
		opts.Sink = coremetrics.NopSink{}
	}
	if opts.Bus == nil {
		opts.Bus = eventbus.New()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NopLogger{}
	}

	var sim *simulator.Simulator
	if opts.Seed != 0 {
		sim = simulator.NewSeeded(opts.Weights, opts.Params, opts.Seed, opts.Logger)
	} else {
		sim = simulator.New(opts.Weights, opts.Params, nil, opts.Logger)
	}

	s := &Service{
		scheduled:  resetPlacements(jobs),
		table:      table,
		opt:        optimizer.New(opts.Constraints, opts.Logger),
		sim:        sim,
		history:    &simulator.History{},
		runID:      uuid.NewString(),
		reportOpts: opts.Report,
		sink:       opts.Sink,
		bus:        opts.Bus,
		log:        opts.Logger,
	}
	s.jobs = resetPlacements(s.scheduled)
	return s, nil
}

// NewFromConfig builds the sinks and the logger described by cfg.
func NewFromConfig(cfg *config.Config, jobs []model.Job, table *model.SignalTable) (*Service, error) {
	sink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	return New(jobs, table, Options{
		Constraints: cfg.Optimizer,
		Weights:     cfg.Reward.Weights,
		Params:      cfg.Reward.Params(cfg.Optimizer.HalfCycle),
		Report:      cfg.Report.Options(),
		Seed:        cfg.Simulator.Seed,
		Sink:        sink,
		Logger:      logger.New("service"),
	})
}

func resetPlacements(jobs []model.Job) []model.Job {
	out := make([]model.Job, len(jobs))
	for i, j := range jobs {
		out[i] = j.WithPlacement(model.Scheduled())
	}
	return out
}

// Bus returns the bus events are published on.
func (s *Service) Bus() eventbus.EventBus { return s.bus }

// RunID identifies the training run. It changes on Reset.
func (s *Service) RunID() string { return s.runID }

// Table returns the signal table.
func (s *Service) Table() *model.SignalTable { return s.table }

// Jobs returns a copy of the jobs with their current placements.
func (s *Service) Jobs() []model.Job {
	out := make([]model.Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// Episode returns the number of the next episode.
func (s *Service) Episode() int { return s.episode }

// History returns the episodes played since the last Reset.
func (s *Service) History() *simulator.History { return s.history }

// RunOptimization places every job with the optimizer, commits the
// placements and reports the outcome. Each pass gets its own run id.
func (s *Service) RunOptimization(ctx context.Context) (Optimization, error) {
	if err := ctx.Err(); err != nil {
		return Optimization{}, err
	}
	start := time.Now()
	results := s.opt.Optimize(s.scheduled, s.table)
	s.jobs = s.applyResults(results)

	out := Optimization{
		RunID:       uuid.NewString(),
		Results:     results,
		Summary:     optimizer.Summarize(results),
		Performance: s.Report(),
	}
	elapsed := time.Since(start)

	if err := s.sink.RecordOptimization(optimizationRecords(out.RunID, results, start)); err != nil {
		s.log.Warnf("record optimization %s: %v", out.RunID, err)
		monitoring.CaptureException(err, map[string]string{"component": "metrics-sink", "run_id": out.RunID})
	}
	s.bus.Publish(events.PassCompleted{
		RunID:    out.RunID,
		Summary:  out.Summary,
		Results:  results,
		Duration: elapsed,
		Time:     time.Now(),
	})
	s.log.Infof("optimization %s: %d/%d jobs shifted, savings %.0f (%.1f%%)",
		out.RunID, out.Summary.Shifted, out.Summary.Jobs,
		out.Summary.TotalSavings, out.Performance.DailyCost.SavingsPercent)
	return out, nil
}

// applyResults maps results, returned in processing order, back onto the
// job order of the service.
func (s *Service) applyResults(results []optimizer.Result) []model.Job {
	byID := make(map[string]model.Job, len(results))
	for _, r := range results {
		byID[r.JobID] = r.Job
	}
	out := make([]model.Job, len(s.scheduled))
	for i, j := range s.scheduled {
		if placed, ok := byID[j.ID]; ok {
			out[i] = placed
		} else {
			out[i] = j
		}
	}
	return out
}

func optimizationRecords(runID string, results []optimizer.Result, at time.Time) []coremetrics.OptimizationRecord {
	recs := make([]coremetrics.OptimizationRecord, len(results))
	for i, r := range results {
		recs[i] = coremetrics.OptimizationRecord{
			RunID:          runID,
			JobID:          r.JobID,
			Class:          r.Class,
			Corridor:       r.Corridor,
			OriginalStart:  r.OriginalStart,
			OptimizedStart: r.OptimizedStart,
			OriginalCost:   r.OriginalCost,
			OptimizedCost:  r.OptimizedCost,
			Savings:        r.Savings,
			Favorable:      r.Favorable,
			DelayMinutes:   r.DelayMinutes,
			Time:           at,
		}
	}
	return recs
}

// RunEpisode plays the next episode, commits its accepted shifts and
// appends it to the history.
func (s *Service) RunEpisode(ctx context.Context) (simulator.EpisodeResult, error) {
	if err := ctx.Err(); err != nil {
		return simulator.EpisodeResult{}, err
	}
	res := s.sim.RunEpisode(s.scheduled, s.table, s.episode)
	s.jobs = simulator.Apply(s.scheduled, res)
	s.history.Append(res)
	s.episode++

	seen := s.history.BestSeen()
	best := seen[len(seen)-1]
	now := time.Now()
	rec := coremetrics.EpisodeRecord{
		RunID:             s.runID,
		Episode:           res.EpisodeNumber,
		Epsilon:           res.Epsilon,
		TotalReward:       res.TotalReward,
		BestSeen:          best,
		OnTimeRate:        res.OnTimeRate,
		SignalUtilization: res.SignalUtilization,
		Violations:        res.ViolationCount,
		CostSavings:       res.CostSavings,
		CarbonReduction:   res.CarbonReduction,
		Time:              now,
	}
	if err := s.sink.RecordEpisode(rec); err != nil {
		s.log.Warnf("record episode %d: %v", res.EpisodeNumber, err)
		monitoring.CaptureException(err, map[string]string{"component": "metrics-sink", "run_id": s.runID})
	}
	s.bus.Publish(events.EpisodeCompleted{RunID: s.runID, Result: res, BestSeen: best, Time: now})
	s.log.Debugf("episode %d: reward %.2f epsilon %.3f violations %d",
		res.EpisodeNumber, res.TotalReward, res.Epsilon, res.ViolationCount)
	return res, nil
}

// Train plays n episodes through RunEpisode. ConvergenceEpisode is the
// first episode number whose trailing rewards stabilized, or the episode
// counter after the last played episode when they never did. On
// cancellation the partial result is returned with ctx.Err().
func (s *Service) Train(ctx context.Context, n int) (simulator.TrainingResult, error) {
	res := simulator.TrainingResult{History: s.history, ConvergenceEpisode: -1}
	var err error
	for i := 0; i < n; i++ {
		var ep simulator.EpisodeResult
		if ep, err = s.RunEpisode(ctx); err != nil {
			break
		}
		res.Episodes++
		if res.ConvergenceEpisode < 0 && simulator.Converged(s.history.Rewards(), ep.EpisodeNumber) {
			res.ConvergenceEpisode = ep.EpisodeNumber
		}
	}
	if res.ConvergenceEpisode < 0 {
		res.ConvergenceEpisode = s.episode
	}
	res.Best, _ = s.history.Best()
	if err == nil {
		s.log.Infof("training %s: %d episodes, best reward %.2f at episode %d, converged at %d",
			s.runID, res.Episodes, res.Best.TotalReward, res.Best.EpisodeNumber, res.ConvergenceEpisode)
	}
	return res, err
}

// Reset restores the scheduled placements and clears the history. A new
// run id is drawn.
func (s *Service) Reset() {
	s.jobs = resetPlacements(s.scheduled)
	s.history.Reset()
	s.episode = 0
	s.runID = uuid.NewString()
}

// Report analyzes the current placements.
func (s *Service) Report() report.Performance {
	return report.Analyze(s.jobs, s.table, s.reportOpts)
}

// UpdateSchedule places a job at newStart by hand, keeping its duration.
func (s *Service) UpdateSchedule(jobID string, newStart int) error {
	for i, j := range s.jobs {
		if j.ID != jobID {
			continue
		}
		old := j.PlannedStart()
		s.jobs[i] = j.WithStart(newStart)
		s.bus.Publish(events.ScheduleUpdated{JobID: jobID, OldStart: old, NewStart: newStart, Time: time.Now()})
		s.log.Infof("job %s moved from %d to %d", jobID, old, newStart)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
}

// Close releases the bus and every sink holding resources.
func (s *Service) Close() {
	s.bus.Close()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
}
