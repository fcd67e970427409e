package metrics

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/greenrail/core/metrics"
	"github.com/kilianp07/greenrail/infra/logger"
)

const (
	// MeasurementOptimization holds one point per job and pass.
	MeasurementOptimization = "optimization_result"
	// MeasurementEpisode holds one point per simulator episode.
	MeasurementEpisode = "episode_result"
)

// InfluxConfig locates the InfluxDB bucket.
type InfluxConfig struct {
	URL     string        `json:"url"`
	Token   string        `json:"token"`
	Org     string        `json:"org"`
	Bucket  string        `json:"bucket"`
	Timeout time.Duration `json:"timeout"`
}

// Validate checks mandatory fields.
func (c InfluxConfig) Validate() error {
	if c.URL == "" || c.Org == "" || c.Bucket == "" {
		return fmt.Errorf("influx: url, org and bucket are required")
	}
	return nil
}

// InfluxSink writes optimization and episode points using the official
// client with blocking writes.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	timeout  time.Duration
	log      logger.Logger
}

// NewInfluxSink creates a sink for the configured bucket. No request is
// made until the first record.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		timeout:  cfg.Timeout,
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the instance and returns a NopSink when
// the health check fails, so an unreachable database never blocks a run.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.Sink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), sink.timeout)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordOptimization writes one point per job in a single request.
func (s *InfluxSink) RecordOptimization(recs []coremetrics.OptimizationRecord) error {
	if len(recs) == 0 {
		return nil
	}
	points := make([]*write.Point, len(recs))
	for i, r := range recs {
		points[i] = optimizationPoint(r)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*s.timeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordEpisode writes the episode summary.
func (s *InfluxSink) RecordEpisode(rec coremetrics.EpisodeRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, episodePoint(rec))
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func optimizationPoint(r coremetrics.OptimizationRecord) *write.Point {
	return write.NewPointWithMeasurement(MeasurementOptimization).
		AddTag("run_id", r.RunID).
		AddTag("job_id", r.JobID).
		AddTag("class", r.Class).
		AddTag("corridor", r.Corridor).
		AddTag("favorable", strconv.FormatBool(r.Favorable)).
		AddField("original_start", r.OriginalStart).
		AddField("optimized_start", r.OptimizedStart).
		AddField("delay_minutes", r.DelayMinutes).
		AddField("original_cost", round3(r.OriginalCost)).
		AddField("optimized_cost", round3(r.OptimizedCost)).
		AddField("savings", round3(r.Savings)).
		SetTime(r.Time)
}

func episodePoint(r coremetrics.EpisodeRecord) *write.Point {
	return write.NewPointWithMeasurement(MeasurementEpisode).
		AddTag("run_id", r.RunID).
		AddField("episode", r.Episode).
		AddField("epsilon", round3(r.Epsilon)).
		AddField("total_reward", round3(r.TotalReward)).
		AddField("best_seen", round3(r.BestSeen)).
		AddField("on_time_rate", round3(r.OnTimeRate)).
		AddField("signal_utilization", round3(r.SignalUtilization)).
		AddField("violations", r.Violations).
		AddField("cost_savings", round3(r.CostSavings)).
		AddField("carbon_reduction", round3(r.CarbonReduction)).
		SetTime(r.Time)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
