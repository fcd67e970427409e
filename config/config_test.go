package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kilianp07/greenrail/core/report"
	"github.com/kilianp07/greenrail/core/reward"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `optimizer:
  step_minutes: 15
  max_shift_minutes: 600
  transit_pricing: true
  favorable_margin: 0
  headway:
    FREIGHT: 45
reward:
  weights:
    w1: 0.5
    w2: 0.2
    w3: 0.2
    w4: 0.1
  surplus_bonus: false
simulator:
  episodes: 40
  seed: 3
report:
  implementation_cost: 1000000
  roi_years: [3]
metrics:
  prometheus_addr: ":9100"
  sinks:
    - type: "nop"
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GR_SIMULATOR__SEED", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"optimizer.step_minutes", cfg.Optimizer.StepMinutes, 15},
		{"optimizer.max_shift_minutes", cfg.Optimizer.HalfCycle, 600},
		{"optimizer.transit_pricing", cfg.Optimizer.TransitPricing, true},
		{"optimizer.headway", cfg.Optimizer.Headway["FREIGHT"], 45},
		{"optimizer.fixed_below default", *cfg.Optimizer.FixedBelow, 0.3},
		{"optimizer.favorable_margin explicit zero", *cfg.Optimizer.FavorableMargin, 0.0},
		{"optimizer.favorable_discount default", *cfg.Optimizer.FavorableDiscount, 0.1},
		{"reward.w1", cfg.Reward.Weights.OnTime, 0.5},
		{"reward.w4", cfg.Reward.Weights.Safety, 0.1},
		{"reward.surplus_bonus", *cfg.Reward.SurplusBonus, false},
		{"simulator.episodes", cfg.Simulator.Episodes, 40},
		{"simulator.seed env override", cfg.Simulator.Seed, int64(7)},
		{"report.implementation_cost", cfg.Report.ImplementationCost, 1000000.0},
		{"report.roi_years", len(cfg.Report.ROIYears) == 1 && cfg.Report.ROIYears[0] == 3, true},
		{"metrics.prometheus_addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"log.level", cfg.Log.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
	if p := cfg.Reward.Params(cfg.Optimizer.HalfCycle); p.HalfCycle != 600 || p.SurplusBonus {
		t.Errorf("unexpected reward params %+v", p)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Optimizer.StepMinutes != 30 || cfg.Optimizer.HalfCycle != 720 {
		t.Errorf("optimizer defaults not applied: %+v", cfg.Optimizer)
	}
	if cfg.Reward.Weights != reward.DefaultWeights() {
		t.Errorf("weights = %+v", cfg.Reward.Weights)
	}
	if !cfg.Reward.Params(720).SurplusBonus {
		t.Error("surplus bonus should default to true")
	}
	if cfg.Simulator.Episodes != 100 {
		t.Errorf("episodes = %d", cfg.Simulator.Episodes)
	}
	opts := cfg.Report.Options()
	if opts.ImplementationCost != report.DefaultImplementationCost || len(opts.ROIYears) != 2 {
		t.Errorf("report defaults = %+v", opts)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]struct {
		file string
		data string
	}{
		"format":    {"config.toml", ""},
		"missing":   {"", ""},
		"discount":  {"c.yaml", "optimizer:\n  favorable_discount: 1.5\n"},
		"headway":   {"c.yaml", "optimizer:\n  headway:\n    TGV: 10\n"},
		"episodes":  {"c.yaml", "simulator:\n  episodes: -1\n"},
		"roi_years": {"c.yaml", "report:\n  roi_years: [0]\n"},
		"log level": {"c.yaml", "log:\n  level: verbose\n"},
		"sink type": {"c.yaml", "metrics:\n  sinks:\n    - conf: {}\n"},
		"impl cost": {"c.yaml", "report:\n  implementation_cost: -5\n"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "absent.yaml")
			if c.file != "" {
				path = filepath.Join(dir, name+"-"+c.file)
				if err := os.WriteFile(path, []byte(c.data), 0o644); err != nil {
					t.Fatalf("write config: %v", err)
				}
			}
			if _, err := Load(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("GR_LOG__LEVEL", "warn")
	t.Setenv("GR_OPTIMIZER__STEP_MINUTES", "60")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("level = %q", cfg.Log.Level)
	}
	if cfg.Optimizer.StepMinutes != 60 {
		t.Errorf("step = %d", cfg.Optimizer.StepMinutes)
	}
}
