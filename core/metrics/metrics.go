package metrics

import (
	"errors"
	"time"
)

// OptimizationRecord is the outcome of one job in an optimization pass.
type OptimizationRecord struct {
	RunID          string
	JobID          string
	Class          string
	Corridor       string
	OriginalStart  int
	OptimizedStart int
	OriginalCost   float64
	OptimizedCost  float64
	Savings        float64
	Favorable      bool
	DelayMinutes   int
	Time           time.Time
}

// EpisodeRecord is the summary of one simulator episode.
type EpisodeRecord struct {
	RunID             string
	Episode           int
	Epsilon           float64
	TotalReward       float64
	BestSeen          float64
	OnTimeRate        float64
	SignalUtilization float64
	Violations        int
	CostSavings       float64
	CarbonReduction   float64
	Time              time.Time
}

// OptimizationRecorder records the results of an optimization pass.
type OptimizationRecorder interface {
	RecordOptimization(recs []OptimizationRecord) error
}

// EpisodeRecorder records simulator episodes.
type EpisodeRecorder interface {
	RecordEpisode(rec EpisodeRecord) error
}

// Sink records both passes and episodes.
type Sink interface {
	OptimizationRecorder
	EpisodeRecorder
}

// NopSink discards every record.
type NopSink struct{}

func (NopSink) RecordOptimization([]OptimizationRecord) error { return nil }
func (NopSink) RecordEpisode(EpisodeRecord) error             { return nil }

// MultiSink fans records out to several sinks. Every sink is called even
// when one fails; the errors are joined.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink combines sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordOptimization forwards recs to every sink.
func (m *MultiSink) RecordOptimization(recs []OptimizationRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordOptimization(recs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordEpisode forwards rec to every sink.
func (m *MultiSink) RecordEpisode(rec EpisodeRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordEpisode(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
