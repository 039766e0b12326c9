package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Domain errors for trajectory log handling.
var (
	// ErrNoEntries indicates a log with an empty entry list.
	ErrNoEntries = errors.New("record: log has no entries")

	// ErrTimestamps indicates non-increasing timestamps.
	ErrTimestamps = errors.New("record: timestamps must be strictly increasing")

	// ErrNoLogs indicates a directory without any log file.
	ErrNoLogs = errors.New("record: no log files found")
)

// Entry is one sampled observation from a recording run. Read-only once
// loaded.
type Entry struct {
	Timestamp    float64  `json:"timestamp"`
	Position     float64  `json:"position"`
	Speed        float64  `json:"speed"`
	GoalPosition float64  `json:"goal_position"`
	TorqueEnable bool     `json:"torque_enable"`
	Voltage      float64  `json:"voltage"`
	Temp         *float64 `json:"temp,omitempty"`
}

// Log is one recorded trajectory with the testbench geometry and
// control settings it was captured under.
type Log struct {
	Mass    float64 `json:"mass"`
	Length  float64 `json:"length"`
	ArmMass float64 `json:"arm_mass"`
	Kp      float64 `json:"kp"`
	Vin     float64 `json:"vin"`
	Dt      float64 `json:"dt"`

	// Recording provenance, preserved on round-trip but unused by the
	// simulator.
	Motor      string `json:"motor,omitempty"`
	Trajectory string `json:"trajectory,omitempty"`

	Entries []Entry `json:"entries"`
}

// Duration is the time span covered by the entries.
func (l *Log) Duration() float64 {
	if len(l.Entries) < 2 {
		return 0
	}
	return l.Entries[len(l.Entries)-1].Timestamp - l.Entries[0].Timestamp
}

// Validate checks the invariants the simulator relies on and derives dt
// from the median timestamp step when the metadata omits it.
func (l *Log) Validate() error {
	if len(l.Entries) == 0 {
		return ErrNoEntries
	}
	for i := 1; i < len(l.Entries); i++ {
		if l.Entries[i].Timestamp <= l.Entries[i-1].Timestamp {
			return fmt.Errorf("%w: entry %d (%f -> %f)",
				ErrTimestamps, i, l.Entries[i-1].Timestamp, l.Entries[i].Timestamp)
		}
	}
	if l.Dt <= 0 {
		l.Dt = l.medianStep()
	}
	return nil
}

func (l *Log) medianStep() float64 {
	if len(l.Entries) < 2 {
		return 0
	}
	steps := make([]float64, 0, len(l.Entries)-1)
	for i := 1; i < len(l.Entries); i++ {
		steps = append(steps, l.Entries[i].Timestamp-l.Entries[i-1].Timestamp)
	}
	sort.Float64s(steps)
	return steps[len(steps)/2]
}

// Load reads and validates one log file.
func Load(path string) (*Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("record: reading %s: %w", path, err)
	}
	var l Log
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("record: parsing %s: %w", path, err)
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &l, nil
}

// LoadDir loads every *.json log in a directory, sorted by filename.
func LoadDir(dir string) ([]*Log, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	logs := make([]*Log, 0, len(paths))
	for _, path := range paths {
		l, err := Load(path)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	if len(logs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoLogs, dir)
	}
	return logs, nil
}

// Save writes a log as JSON, used when exporting simulated rollouts.
func Save(path string, l *Log) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(l)
}
