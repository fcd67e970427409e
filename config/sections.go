package config

import (
	"fmt"

	"github.com/kilianp07/greenrail/core/report"
	"github.com/kilianp07/greenrail/core/reward"
)

// RewardConfig sets the simulator reward weights.
type RewardConfig struct {
	Weights reward.Weights `json:"weights"`
	// SurplusBonus defaults to true when unset.
	SurplusBonus *bool `json:"surplus_bonus"`
}

// SetDefaults uses the default weights when none are configured.
func (c *RewardConfig) SetDefaults() {
	if c.Weights == (reward.Weights{}) {
		c.Weights = reward.DefaultWeights()
	}
	if c.SurplusBonus == nil {
		v := reward.DefaultParams().SurplusBonus
		c.SurplusBonus = &v
	}
}

// Params returns the reward parameters for a shift horizon of halfCycle
// minutes.
func (c RewardConfig) Params(halfCycle int) reward.Params {
	p := reward.DefaultParams()
	p.HalfCycle = halfCycle
	if c.SurplusBonus != nil {
		p.SurplusBonus = *c.SurplusBonus
	}
	return p
}

// SimulatorConfig tunes episode runs.
type SimulatorConfig struct {
	// Episodes is the default training length.
	Episodes int `json:"episodes"`
	// Seed makes runs reproducible. Zero seeds from the clock.
	Seed int64 `json:"seed"`
}

// SetDefaults fills unset fields.
func (c *SimulatorConfig) SetDefaults() {
	if c.Episodes == 0 {
		c.Episodes = 100
	}
}

// Validate checks ranges.
func (c SimulatorConfig) Validate() error {
	if c.Episodes < 0 {
		return fmt.Errorf("episodes must not be negative")
	}
	return nil
}

// ReportConfig holds the investment assumptions of reports.
type ReportConfig struct {
	ImplementationCost float64 `json:"implementation_cost"`
	ROIYears           []int   `json:"roi_years"`
}

// SetDefaults fills unset fields.
func (c *ReportConfig) SetDefaults() {
	def := report.DefaultOptions()
	if c.ImplementationCost == 0 {
		c.ImplementationCost = def.ImplementationCost
	}
	if len(c.ROIYears) == 0 {
		c.ROIYears = def.ROIYears
	}
}

// Validate checks ranges.
func (c ReportConfig) Validate() error {
	if c.ImplementationCost < 0 {
		return fmt.Errorf("implementation_cost must not be negative")
	}
	for _, y := range c.ROIYears {
		if y <= 0 {
			return fmt.Errorf("roi_years must be positive, got %d", y)
		}
	}
	return nil
}

// Options converts the section into report options.
func (c ReportConfig) Options() report.Options {
	return report.Options{ImplementationCost: c.ImplementationCost, ROIYears: c.ROIYears}
}
