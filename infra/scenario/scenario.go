// Package scenario loads a job fleet and its hourly signal table from a
// YAML or JSON file.
//
//	name: weekday
//	jobs:
//	  - id: FR-2001
//	    class: FREIGHT
//	    corridor: gyeongbu
//	    departure: "03:00"
//	    arrival: "07:00"
//	signal:
//	  - {hour: 0, price: 95, carbon_intensity: 380, surplus: -12}
//	  ...
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/greenrail/core/model"
)

// ErrInvalidScenario wraps every validation failure of a scenario file.
var ErrInvalidScenario = errors.New("invalid scenario")

// JobDef describes one job. Flexibility, priority and energy default to
// the class profile when omitted.
type JobDef struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name,omitempty"`
	Class       string   `yaml:"class"`
	Corridor    string   `yaml:"corridor"`
	Departure   string   `yaml:"departure"`
	Arrival     string   `yaml:"arrival"`
	EnergyKWh   *float64 `yaml:"energy_kwh,omitempty"`
	Flexibility *float64 `yaml:"flexibility,omitempty"`
	Priority    *int     `yaml:"priority,omitempty"`
}

// SlotDef describes one hour of the signal. The favorable and incentive
// flags are derived from the surplus unless given explicitly.
type SlotDef struct {
	Hour            int     `yaml:"hour"`
	Price           float64 `yaml:"price"`
	CarbonIntensity float64 `yaml:"carbon_intensity"`
	Surplus         float64 `yaml:"surplus"`
	Favorable       *bool   `yaml:"favorable,omitempty"`
	Incentive       *bool   `yaml:"incentive,omitempty"`
	Solar           float64 `yaml:"solar,omitempty"`
	Wind            float64 `yaml:"wind,omitempty"`
	Demand          float64 `yaml:"demand,omitempty"`
}

// Scenario is the decoded content of a scenario file.
type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Jobs        []JobDef  `yaml:"jobs"`
	Signal      []SlotDef `yaml:"signal"`
}

// Load reads and decodes the file at path. JSON files are accepted since
// JSON is valid YAML.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes a scenario, rejecting unknown fields.
func Parse(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &sc, nil
}

// BuildJobs converts and validates the job definitions.
func (s *Scenario) BuildJobs() ([]model.Job, error) {
	jobs := make([]model.Job, 0, len(s.Jobs))
	seen := make(map[string]struct{}, len(s.Jobs))
	for i, d := range s.Jobs {
		j, err := d.ToModel()
		if err != nil {
			return nil, fmt.Errorf("%w: jobs[%d]: %v", ErrInvalidScenario, i, err)
		}
		if _, dup := seen[j.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate job id %s", ErrInvalidScenario, j.ID)
		}
		seen[j.ID] = struct{}{}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// BuildTable converts the signal into a table. Slots may be listed in any
// order but every hour must appear exactly once.
func (s *Scenario) BuildTable() (*model.SignalTable, error) {
	if len(s.Signal) != model.CycleHours {
		return nil, fmt.Errorf("%w: %w: got %d slots", ErrInvalidScenario, model.ErrInvalidSignalLength, len(s.Signal))
	}
	slots := make([]model.Slot, model.CycleHours)
	filled := make([]bool, model.CycleHours)
	for _, d := range s.Signal {
		if d.Hour < 0 || d.Hour >= model.CycleHours {
			return nil, fmt.Errorf("%w: hour %d out of range", ErrInvalidScenario, d.Hour)
		}
		if filled[d.Hour] {
			return nil, fmt.Errorf("%w: hour %d listed twice", ErrInvalidScenario, d.Hour)
		}
		filled[d.Hour] = true
		slots[d.Hour] = d.ToModel()
	}
	return model.NewSignalTable(slots)
}

// Build returns the jobs and the signal table.
func (s *Scenario) Build() ([]model.Job, *model.SignalTable, error) {
	jobs, err := s.BuildJobs()
	if err != nil {
		return nil, nil, err
	}
	table, err := s.BuildTable()
	if err != nil {
		return nil, nil, err
	}
	return jobs, table, nil
}

// ToModel converts the definition applying class defaults.
func (d JobDef) ToModel() (model.Job, error) {
	class, err := model.ParseClass(strings.ToUpper(d.Class))
	if err != nil {
		return model.Job{}, err
	}
	start, err := ParseClock(d.Departure)
	if err != nil {
		return model.Job{}, fmt.Errorf("departure: %w", err)
	}
	end, err := ParseClock(d.Arrival)
	if err != nil {
		return model.Job{}, fmt.Errorf("arrival: %w", err)
	}
	j := model.NewJob(d.ID, class, d.Corridor, start, end)
	if d.Name != "" {
		j.Name = d.Name
	}
	if d.EnergyKWh != nil {
		j.EnergyKWh = *d.EnergyKWh
	}
	if d.Flexibility != nil {
		j.Flexibility = *d.Flexibility
	}
	if d.Priority != nil {
		j.Priority = *d.Priority
	}
	return j, j.Validate()
}

// ToModel converts the definition into a slot.
func (d SlotDef) ToModel() model.Slot {
	s := model.NewSlot(d.Hour, d.Price, d.CarbonIntensity, d.Surplus)
	if d.Favorable != nil {
		s.Favorable = *d.Favorable
	}
	if d.Incentive != nil {
		s.Incentive = *d.Incentive
	}
	s.Solar, s.Wind, s.Demand = d.Solar, d.Wind, d.Demand
	return s
}

// ParseClock converts "HH:MM" into minutes. Hours past 23 express runs
// that end after midnight.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("time %q is not HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 {
		return 0, fmt.Errorf("time %q: bad hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q: bad minute", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes as "HH:MM".
func FormatClock(minutes int) string {
	sign := ""
	if minutes < 0 {
		sign, minutes = "-", -minutes
	}
	return fmt.Sprintf("%s%02d:%02d", sign, minutes/60, minutes%60)
}
