package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/greenrail/config"
	"github.com/kilianp07/greenrail/core/events"
	"github.com/kilianp07/greenrail/core/factory"
	coremetrics "github.com/kilianp07/greenrail/core/metrics"
	"github.com/kilianp07/greenrail/core/model"
	"github.com/kilianp07/greenrail/core/optimizer"
	"github.com/kilianp07/greenrail/internal/eventbus"
)

type recordingSink struct {
	passes   [][]coremetrics.OptimizationRecord
	episodes []coremetrics.EpisodeRecord
	err      error
}

func (r *recordingSink) RecordOptimization(recs []coremetrics.OptimizationRecord) error {
	r.passes = append(r.passes, recs)
	return r.err
}

func (r *recordingSink) RecordEpisode(rec coremetrics.EpisodeRecord) error {
	r.episodes = append(r.episodes, rec)
	return r.err
}

func testTable(t *testing.T) *model.SignalTable {
	t.Helper()
	slots := make([]model.Slot, model.CycleHours)
	for h := range slots {
		slots[h] = model.NewSlot(h, 100, 400, 0)
	}
	slots[12].Price = 10
	slots[12].Favorable = true
	tbl, err := model.NewSignalTable(slots)
	require.NoError(t, err)
	return tbl
}

func testJobs() []model.Job {
	return []model.Job{
		model.NewJob("DH-1", model.ClassDeadhead, "c", 360, 420),
		model.NewJob("KTX-1", model.ClassKTX, "c", 480, 600),
	}
}

func newService(t *testing.T, sink coremetrics.Sink, bus eventbus.EventBus) *Service {
	t.Helper()
	svc, err := New(testJobs(), testTable(t), Options{Seed: 1, Sink: sink, Bus: bus})
	require.NoError(t, err)
	return svc
}

func TestRunOptimization(t *testing.T) {
	sink := &recordingSink{}
	bus := eventbus.New()
	sub := bus.Subscribe()
	svc := newService(t, sink, bus)

	out, err := svc.RunOptimization(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, 1, out.Summary.Shifted)
	assert.Greater(t, out.Performance.DailyCost.Savings, 0.0)

	jobs := svc.Jobs()
	assert.Equal(t, "DH-1", jobs[0].ID)
	assert.Equal(t, 720, jobs[0].PlannedStart())
	assert.Equal(t, 60, jobs[0].PlannedEnd()-jobs[0].PlannedStart())
	assert.Equal(t, "KTX-1", jobs[1].ID)
	assert.Equal(t, 480, jobs[1].PlannedStart())

	require.Len(t, sink.passes, 1)
	require.Len(t, sink.passes[0], 2)
	for _, rec := range sink.passes[0] {
		assert.Equal(t, out.RunID, rec.RunID)
	}

	ev := <-sub
	pass, ok := ev.(events.PassCompleted)
	require.True(t, ok)
	assert.Equal(t, out.RunID, pass.RunID)
	assert.Equal(t, out.Summary, pass.Summary)

	again, err := svc.RunOptimization(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, out.RunID, again.RunID)
	assert.Equal(t, out.Summary, again.Summary)
}

func TestRunOptimization_SinkErrorIsNotFatal(t *testing.T) {
	svc := newService(t, &recordingSink{err: errors.New("down")}, nil)
	_, err := svc.RunOptimization(context.Background())
	require.NoError(t, err)
	_, err = svc.RunEpisode(context.Background())
	require.NoError(t, err)
}

func TestRunOptimization_Cancelled(t *testing.T) {
	svc := newService(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.RunOptimization(ctx)
	require.ErrorIs(t, err, context.Canceled)
	_, err = svc.RunEpisode(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunEpisode(t *testing.T) {
	sink := &recordingSink{}
	bus := eventbus.New()
	sub := bus.Subscribe()
	svc := newService(t, sink, bus)

	first, err := svc.RunEpisode(context.Background())
	require.NoError(t, err)
	second, err := svc.RunEpisode(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, first.EpisodeNumber)
	assert.Equal(t, 1, second.EpisodeNumber)
	assert.Equal(t, 2, svc.Episode())
	assert.Equal(t, 2, svc.History().Len())

	require.Len(t, sink.episodes, 2)
	assert.Equal(t, svc.RunID(), sink.episodes[0].RunID)
	assert.GreaterOrEqual(t, sink.episodes[1].BestSeen, sink.episodes[0].BestSeen)

	ev := (<-sub).(events.EpisodeCompleted)
	assert.Equal(t, 0, ev.Result.EpisodeNumber)

	for i, j := range svc.Jobs() {
		assert.Equal(t, testJobs()[i].Duration(), j.PlannedEnd()-j.PlannedStart())
	}
}

func TestTrain(t *testing.T) {
	svc := newService(t, nil, nil)
	res, err := svc.Train(context.Background(), 25)
	require.NoError(t, err)
	assert.Equal(t, 25, res.Episodes)
	assert.Equal(t, 25, svc.Episode())
	assert.Equal(t, 25, res.History.Len())
	assert.LessOrEqual(t, res.ConvergenceEpisode, 25)

	best, ok := svc.History().Best()
	require.True(t, ok)
	assert.Equal(t, best, res.Best)

	seen := svc.History().BestSeen()
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1])
	}
}

func TestTrain_Cancelled(t *testing.T) {
	svc := newService(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := svc.Train(ctx, 10)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Episodes)
	assert.Zero(t, svc.Episode())
}

func TestReset(t *testing.T) {
	svc := newService(t, nil, nil)
	_, err := svc.Train(context.Background(), 3)
	require.NoError(t, err)
	id := svc.RunID()

	svc.Reset()
	assert.Zero(t, svc.Episode())
	assert.Zero(t, svc.History().Len())
	assert.NotEqual(t, id, svc.RunID())
	for _, j := range svc.Jobs() {
		assert.False(t, j.Placement.IsOptimized())
	}

	ep, err := svc.RunEpisode(context.Background())
	require.NoError(t, err)
	assert.Zero(t, ep.EpisodeNumber)
}

func TestUpdateSchedule(t *testing.T) {
	bus := eventbus.New()
	sub := bus.Subscribe()
	svc := newService(t, nil, bus)

	require.NoError(t, svc.UpdateSchedule("KTX-1", 510))
	j := svc.Jobs()[1]
	assert.True(t, j.Placement.IsOptimized())
	assert.Equal(t, 510, j.PlannedStart())
	assert.Equal(t, 630, j.PlannedEnd())

	ev := (<-sub).(events.ScheduleUpdated)
	assert.Equal(t, events.ScheduleUpdated{JobID: "KTX-1", OldStart: 480, NewStart: 510, Time: ev.Time}, ev)

	err := svc.UpdateSchedule("nope", 0)
	require.ErrorIs(t, err, ErrUnknownJob)
}

func TestReport(t *testing.T) {
	svc := newService(t, nil, nil)
	before := svc.Report()
	assert.Zero(t, before.DailyCost.Savings)
	assert.True(t, before.ROI.Unbounded())

	_, err := svc.RunOptimization(context.Background())
	require.NoError(t, err)
	after := svc.Report()
	assert.Greater(t, after.DailyCost.Savings, 0.0)
	assert.Equal(t, 2, after.Operational.TotalJobs)
	assert.Equal(t, 1, after.Operational.OptimizedJobs)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(testJobs(), nil, Options{})
	require.Error(t, err)

	bad := testJobs()
	bad[0].End = bad[0].Start
	_, err = New(bad, testTable(t), Options{})
	require.Error(t, err)

	_, err = New(testJobs(), testTable(t), Options{Constraints: optimizer.Constraints{FavorableDiscount: optimizer.Ratio(2)}})
	require.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	svc, err := NewFromConfig(cfg, testJobs(), testTable(t))
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.RunOptimization(context.Background())
	require.NoError(t, err)

	cfg.Metrics.Sinks = append(cfg.Metrics.Sinks, factory.ModuleConfig{Type: "missing"})
	_, err = NewFromConfig(cfg, testJobs(), testTable(t))
	require.Error(t, err)
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) RecordOptimization(recs []coremetrics.OptimizationRecord) error {
	return m.Called(recs).Error(0)
}

func (m *mockSink) RecordEpisode(rec coremetrics.EpisodeRecord) error {
	return m.Called(rec).Error(0)
}

func TestSinkCalls(t *testing.T) {
	sink := &mockSink{}
	sink.On("RecordOptimization", mock.MatchedBy(func(recs []coremetrics.OptimizationRecord) bool {
		return len(recs) == 2 && recs[0].RunID != ""
	})).Return(nil).Once()
	sink.On("RecordEpisode", mock.AnythingOfType("metrics.EpisodeRecord")).Return(nil).Times(3)

	svc := newService(t, sink, nil)
	_, err := svc.RunOptimization(context.Background())
	require.NoError(t, err)
	_, err = svc.Train(context.Background(), 3)
	require.NoError(t, err)

	sink.AssertExpectations(t)
}
