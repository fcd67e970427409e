package model

import (
	"errors"
	"fmt"
	"iter"
)

const (
	// CycleHours is the number of slots in a signal table.
	CycleHours = 24
	// CycleMinutes is the length of the scheduling cycle.
	CycleMinutes = CycleHours * 60
	// HalfCycleMinutes is the shift horizon scaled by a job flexibility.
	HalfCycleMinutes = CycleMinutes / 2

	// FavorableThreshold is the surplus above which a slot is favorable.
	FavorableThreshold = 20.0
	// IncentiveThreshold is the surplus above which a slot triggers the
	// incentive window.
	IncentiveThreshold = 35.0

	MinPriority = 1
	MaxPriority = 5
)

// ErrInvalidSignalLength is returned when a signal table is built from a
// slot sequence that does not cover exactly one cycle.
var ErrInvalidSignalLength = errors.New("invalid signal length")

// Slot describes the grid conditions for one hour of the cycle.
type Slot struct {
	Hour            int     `json:"hour" yaml:"hour"`
	Price           float64 `json:"price" yaml:"price"`                       // may be negative on oversupply
	CarbonIntensity float64 `json:"carbon_intensity" yaml:"carbon_intensity"` // gCO2/kWh
	Surplus         float64 `json:"surplus" yaml:"surplus"`                   // MW, negative on shortage
	Favorable       bool    `json:"favorable" yaml:"favorable"`
	Incentive       bool    `json:"incentive" yaml:"incentive"`

	// Generation figures are informational only.
	Solar  float64 `json:"solar,omitempty" yaml:"solar,omitempty"`
	Wind   float64 `json:"wind,omitempty" yaml:"wind,omitempty"`
	Demand float64 `json:"demand,omitempty" yaml:"demand,omitempty"`
}

// NewSlot builds a slot deriving the favorable and incentive flags from
// the surplus.
func NewSlot(hour int, price, carbon, surplus float64) Slot {
	return Slot{
		Hour:            hour,
		Price:           price,
		CarbonIntensity: carbon,
		Surplus:         surplus,
		Favorable:       surplus > FavorableThreshold,
		Incentive:       surplus > IncentiveThreshold,
	}
}

// SignalTable is an immutable hourly profile covering one cycle.
type SignalTable struct {
	slots [CycleHours]Slot
}

// NewSignalTable copies slots into a new table. It fails with
// ErrInvalidSignalLength unless exactly CycleHours slots are given.
func NewSignalTable(slots []Slot) (*SignalTable, error) {
	if len(slots) != CycleHours {
		return nil, fmt.Errorf("%w: got %d slots, want %d", ErrInvalidSignalLength, len(slots), CycleHours)
	}
	t := &SignalTable{}
	copy(t.slots[:], slots)
	for i := range t.slots {
		t.slots[i].Hour = i
	}
	return t, nil
}

// At returns the slot for hour, wrapping around the cycle.
func (t *SignalTable) At(hour int) Slot {
	return t.slots[WrapHour(hour)]
}

// AtMinute returns the slot containing the given minute of the cycle.
func (t *SignalTable) AtMinute(minute int) Slot {
	return t.At(HourOf(minute))
}

// Slots returns a copy of the table content.
func (t *SignalTable) Slots() []Slot {
	out := make([]Slot, CycleHours)
	copy(out, t.slots[:])
	return out
}

// Run is a maximal sequence of contiguous favorable hours.
type Run struct {
	StartHour int     // first hour of the run
	EndHour   int     // last hour of the run, inclusive
	MeanPrice float64 // average slot price over the run
}

// Hours returns the run length in hours.
func (r Run) Hours() int { return r.EndHour - r.StartHour + 1 }

// FavorableRuns yields every maximal run of favorable hours in hour order.
// Runs do not wrap past the end of the cycle.
func (t *SignalTable) FavorableRuns() iter.Seq[Run] {
	return func(yield func(Run) bool) {
		for h := 0; h < CycleHours; h++ {
			if !t.slots[h].Favorable {
				continue
			}
			start := h
			sum := t.slots[h].Price
			for h+1 < CycleHours && t.slots[h+1].Favorable {
				h++
				sum += t.slots[h].Price
			}
			run := Run{StartHour: start, EndHour: h, MeanPrice: sum / float64(h-start+1)}
			if !yield(run) {
				return
			}
		}
	}
}

// HourOf returns the floored hour of a minute without wrapping. Negative
// minutes yield negative hours.
func HourOf(minute int) int {
	h := minute / 60
	if minute%60 != 0 && minute < 0 {
		h--
	}
	return h
}

// WrapHour maps any hour onto [0, CycleHours).
func WrapHour(hour int) int {
	h := hour % CycleHours
	if h < 0 {
		h += CycleHours
	}
	return h
}
