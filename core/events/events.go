package events

import (
	"time"

	"github.com/kilianp07/greenrail/core/optimizer"
	"github.com/kilianp07/greenrail/core/simulator"
)

// PassCompleted is published after each optimization pass.
type PassCompleted struct {
	RunID    string
	Summary  optimizer.Summary
	Results  []optimizer.Result
	Duration time.Duration
	Time     time.Time
}

// EpisodeCompleted is published after each simulator episode.
type EpisodeCompleted struct {
	RunID    string
	Result   simulator.EpisodeResult
	BestSeen float64
	Time     time.Time
}

// ScheduleUpdated is published when a placement is set by hand.
type ScheduleUpdated struct {
	JobID    string
	OldStart int
	NewStart int
	Time     time.Time
}
