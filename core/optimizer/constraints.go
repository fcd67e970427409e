package optimizer

import (
	"fmt"

	"github.com/kilianp07/greenrail/core/model"
)

// Constraints configures the search performed by the optimizer. Zero
// step and shift values and nil ratios are replaced by defaults through
// SetDefaults, so an explicit 0 ratio is kept.
type Constraints struct {
	// StepMinutes is the spacing between scanned candidate starts.
	StepMinutes int `json:"step_minutes"`
	// HalfCycle is the shift horizon in minutes scaled by job flexibility.
	HalfCycle int `json:"max_shift_minutes"`
	// FixedBelow is the flexibility under which a job is never moved.
	FixedBelow *float64 `json:"fixed_below"`
	// FavorableDiscount is applied to the cost of a favorable run start.
	FavorableDiscount *float64 `json:"favorable_discount"`
	// FavorableMargin is how much the discounted cost must beat the best
	// scanned cost by before the favorable run start is preferred.
	FavorableMargin *float64 `json:"favorable_margin"`
	// Headway overrides the class minimum headway in minutes, keyed by
	// class name.
	Headway map[string]int `json:"headway"`
	// TransitPricing averages the slot price over every hour the job is
	// running instead of using the departure slot only.
	TransitPricing bool `json:"transit_pricing"`
}

// DefaultConstraints returns the standard search configuration.
func DefaultConstraints() Constraints {
	var c Constraints
	c.SetDefaults()
	return c
}

// SetDefaults fills unset fields.
func (c *Constraints) SetDefaults() {
	if c.StepMinutes <= 0 {
		c.StepMinutes = 30
	}
	if c.HalfCycle <= 0 {
		c.HalfCycle = model.HalfCycleMinutes
	}
	if c.FixedBelow == nil {
		c.FixedBelow = Ratio(0.3)
	}
	if c.FavorableDiscount == nil {
		c.FavorableDiscount = Ratio(0.1)
	}
	if c.FavorableMargin == nil {
		c.FavorableMargin = Ratio(0.05)
	}
}

// Ratio returns a pointer to v for the optional ratio fields.
func Ratio(v float64) *float64 { return &v }

func ratio(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Validate checks ranges and headway class names.
func (c Constraints) Validate() error {
	if c.StepMinutes <= 0 {
		return fmt.Errorf("step_minutes must be positive")
	}
	if c.HalfCycle <= 0 || c.HalfCycle > model.CycleMinutes {
		return fmt.Errorf("max_shift_minutes must be in (0,%d]", model.CycleMinutes)
	}
	if v := ratio(c.FixedBelow); v < 0 || v > 1 {
		return fmt.Errorf("fixed_below must be in [0,1]")
	}
	if v := ratio(c.FavorableDiscount); v < 0 || v >= 1 {
		return fmt.Errorf("favorable_discount must be in [0,1)")
	}
	if v := ratio(c.FavorableMargin); v < 0 || v >= 1 {
		return fmt.Errorf("favorable_margin must be in [0,1)")
	}
	for name, v := range c.Headway {
		if _, err := model.ParseClass(name); err != nil {
			return fmt.Errorf("headway: %w", err)
		}
		if v < 0 {
			return fmt.Errorf("headway for %s must not be negative", name)
		}
	}
	return nil
}

// HeadwayFor returns the minimum spacing for jobs of class.
func (c Constraints) HeadwayFor(class model.Class) int {
	if v, ok := c.Headway[class.String()]; ok {
		return v
	}
	return class.Profile().HeadwayMinutes
}
