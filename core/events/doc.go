// Package events defines the events published on the event bus by the
// orchestration service.
//
// Available event types:
//   - PassCompleted: an optimization pass finished
//   - EpisodeCompleted: a simulator episode finished
//   - ScheduleUpdated: a job placement was changed manually
package events
