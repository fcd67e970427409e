package model

import (
	"fmt"
	"math"
)

// Class identifies the service category of a job. It determines the default
// flexibility, priority, energy demand and minimum headway of the job.
type Class int

const (
	ClassKTX Class = iota
	ClassSRT
	ClassITX
	ClassMugunghwa
	ClassFreight
	ClassDeadhead
)

// String returns a human-readable representation of the class.
func (c Class) String() string {
	switch c {
	case ClassKTX:
		return "KTX"
	case ClassSRT:
		return "SRT"
	case ClassITX:
		return "ITX"
	case ClassMugunghwa:
		return "MUGUNGHWA"
	case ClassFreight:
		return "FREIGHT"
	case ClassDeadhead:
		return "DEADHEAD"
	default:
		return "unknown"
	}
}

// ParseClass converts a class name as found in input files.
func ParseClass(s string) (Class, error) {
	switch s {
	case "KTX":
		return ClassKTX, nil
	case "SRT":
		return ClassSRT, nil
	case "ITX":
		return ClassITX, nil
	case "MUGUNGHWA", "Mugunghwa":
		return ClassMugunghwa, nil
	case "FREIGHT", "Freight":
		return ClassFreight, nil
	case "DEADHEAD", "Deadhead":
		return ClassDeadhead, nil
	default:
		return 0, fmt.Errorf("unknown job class %q", s)
	}
}

// Restricted reports whether the class may only depart inside the
// operating band (05:00-23:00).
func (c Class) Restricted() bool {
	return c == ClassKTX || c == ClassSRT
}

// ClassProfile holds the defaults attached to a class.
type ClassProfile struct {
	Flexibility    float64
	Priority       int
	EnergyKWh      float64
	HeadwayMinutes int
	RouteCapacity  int
}

var classProfiles = map[Class]ClassProfile{
	ClassKTX:       {Flexibility: 0.1, Priority: 5, EnergyKWh: 4500, HeadwayMinutes: 10, RouteCapacity: 6},
	ClassSRT:       {Flexibility: 0.1, Priority: 5, EnergyKWh: 4200, HeadwayMinutes: 10, RouteCapacity: 6},
	ClassITX:       {Flexibility: 0.2, Priority: 4, EnergyKWh: 2800, HeadwayMinutes: 15, RouteCapacity: 4},
	ClassMugunghwa: {Flexibility: 0.3, Priority: 3, EnergyKWh: 2200, HeadwayMinutes: 20, RouteCapacity: 3},
	ClassFreight:   {Flexibility: 0.8, Priority: 2, EnergyKWh: 3500, HeadwayMinutes: 30, RouteCapacity: 2},
	ClassDeadhead:  {Flexibility: 1.0, Priority: 1, EnergyKWh: 1500, HeadwayMinutes: 20, RouteCapacity: 2},
}

// Profile returns the defaults of the class. Unknown classes get the
// most conservative profile.
func (c Class) Profile() ClassProfile {
	if p, ok := classProfiles[c]; ok {
		return p
	}
	return ClassProfile{Priority: 5, HeadwayMinutes: 30, RouteCapacity: 1}
}

// Placement is either the scheduled placement of a job or an optimized one
// expressed as an offset in minutes from the scheduled start.
type Placement struct {
	optimized bool
	offset    int
}

// Scheduled returns the placement that keeps the scheduled start.
func Scheduled() Placement { return Placement{} }

// Optimized returns a placement shifted by offset minutes.
func Optimized(offset int) Placement { return Placement{optimized: true, offset: offset} }

// Offset returns the shift in minutes and whether the placement is optimized.
func (p Placement) Offset() (int, bool) { return p.offset, p.optimized }

// IsOptimized reports whether the placement came from an optimizer.
func (p Placement) IsOptimized() bool { return p.optimized }

// Job is a schedulable train run. Start and End are minutes within the
// cycle. Duration is fixed: only the placement may change.
type Job struct {
	ID          string
	Name        string
	Class       Class
	Corridor    string  // shared route used for headway checks
	Start       int     // scheduled start in minutes
	End         int     // scheduled end in minutes
	EnergyKWh   float64 // consumed uniformly over the run
	Flexibility float64 // fraction of the half cycle the job may shift, in [0,1]
	Priority    int     // 1 (lowest) to 5 (highest)

	Placement Placement
}

// NewJob creates a job of the given class using the class defaults for
// flexibility, priority and energy.
func NewJob(id string, class Class, corridor string, start, end int) Job {
	p := class.Profile()
	return Job{
		ID:          id,
		Name:        id,
		Class:       class,
		Corridor:    corridor,
		Start:       start,
		End:         end,
		EnergyKWh:   p.EnergyKWh,
		Flexibility: p.Flexibility,
		Priority:    p.Priority,
	}
}

// Validate checks that the job is well formed.
func (j Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job id is required")
	}
	if j.Start < 0 || j.Start >= CycleMinutes {
		return fmt.Errorf("job %s: start %d outside the cycle [0,%d)", j.ID, j.Start, CycleMinutes)
	}
	if j.End <= j.Start {
		return fmt.Errorf("job %s: end %d must be after start %d", j.ID, j.End, j.Start)
	}
	if j.Flexibility < 0 || j.Flexibility > 1 {
		return fmt.Errorf("job %s: flexibility %.2f out of [0,1]", j.ID, j.Flexibility)
	}
	if j.Priority < MinPriority || j.Priority > MaxPriority {
		return fmt.Errorf("job %s: priority %d out of [%d,%d]", j.ID, j.Priority, MinPriority, MaxPriority)
	}
	if j.EnergyKWh < 0 {
		return fmt.Errorf("job %s: energy must not be negative", j.ID)
	}
	return nil
}

// Duration returns the run time in minutes.
func (j Job) Duration() int { return j.End - j.Start }

// MaxShift returns the largest absolute shift in minutes allowed by the
// job flexibility over a shift horizon of halfCycle minutes.
func (j Job) MaxShift(halfCycle int) int {
	return int(math.Round(j.Flexibility * float64(halfCycle)))
}

// PlannedStart resolves the placement into an absolute start minute.
func (j Job) PlannedStart() int {
	if off, ok := j.Placement.Offset(); ok {
		return j.Start + off
	}
	return j.Start
}

// PlannedEnd resolves the placement into an absolute end minute.
func (j Job) PlannedEnd() int { return j.PlannedStart() + j.Duration() }

// Shift returns the placement offset from the scheduled start.
func (j Job) Shift() int { return j.PlannedStart() - j.Start }

// WithPlacement returns a copy of the job using p.
func (j Job) WithPlacement(p Placement) Job {
	j.Placement = p
	return j
}

// WithStart returns a copy of the job placed at start, preserving duration.
func (j Job) WithStart(start int) Job {
	return j.WithPlacement(Optimized(start - j.Start))
}
