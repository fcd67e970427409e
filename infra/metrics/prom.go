package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/greenrail/core/metrics"
)

// PromSink exposes optimization and episode figures as Prometheus metrics.
type PromSink struct {
	jobs       *prometheus.CounterVec
	savings    prometheus.Counter
	delay      prometheus.Histogram
	episodes   prometheus.Counter
	reward     prometheus.Gauge
	bestReward prometheus.Gauge
	epsilon    prometheus.Gauge
	onTime     prometheus.Gauge
	violations prometheus.Counter
}

// NewPromSink registers the metrics on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers the metrics on reg. A nil registerer
// defaults to the global one. Collectors already registered by an earlier
// sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.jobs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "greenrail_optimized_jobs_total",
		Help: "Jobs recorded after an optimization pass",
	}, []string{"class", "favorable", "shifted"})); err != nil {
		return nil, err
	}
	if s.savings, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "greenrail_cost_savings_total",
		Help: "Energy cost saved by recorded passes",
	})); err != nil {
		return nil, err
	}
	if s.delay, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "greenrail_delay_minutes",
		Help:    "Absolute departure shift of optimized jobs",
		Buckets: []float64{0, 30, 60, 120, 240, 480, 720},
	})); err != nil {
		return nil, err
	}
	if s.episodes, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "greenrail_episodes_total",
		Help: "Simulator episodes recorded",
	})); err != nil {
		return nil, err
	}
	if s.reward, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "greenrail_episode_reward",
		Help: "Total reward of the last episode",
	})); err != nil {
		return nil, err
	}
	if s.bestReward, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "greenrail_episode_best_reward",
		Help: "Best total reward seen so far",
	})); err != nil {
		return nil, err
	}
	if s.epsilon, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "greenrail_episode_epsilon",
		Help: "Exploration probability of the last episode",
	})); err != nil {
		return nil, err
	}
	if s.onTime, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "greenrail_episode_on_time_rate",
		Help: "On-time rate of the last episode in percent",
	})); err != nil {
		return nil, err
	}
	if s.violations, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "greenrail_episode_violations_total",
		Help: "Violations counted over recorded episodes",
	})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordOptimization counts jobs and accumulates savings.
func (s *PromSink) RecordOptimization(recs []coremetrics.OptimizationRecord) error {
	for _, r := range recs {
		shifted := r.DelayMinutes != 0
		s.jobs.WithLabelValues(r.Class, strconv.FormatBool(r.Favorable), strconv.FormatBool(shifted)).Inc()
		if r.Savings > 0 {
			s.savings.Add(r.Savings)
		}
		if shifted {
			d := r.DelayMinutes
			if d < 0 {
				d = -d
			}
			s.delay.Observe(float64(d))
		}
	}
	return nil
}

// RecordEpisode updates the episode gauges.
func (s *PromSink) RecordEpisode(rec coremetrics.EpisodeRecord) error {
	s.episodes.Inc()
	s.reward.Set(rec.TotalReward)
	s.bestReward.Set(rec.BestSeen)
	s.epsilon.Set(rec.Epsilon)
	s.onTime.Set(rec.OnTimeRate)
	s.violations.Add(float64(rec.Violations))
	return nil
}
