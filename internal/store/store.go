package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"frictionfit/internal/actuator"
	"frictionfit/internal/fit"
)

// Store keeps fit runs on disk, one directory per run holding the
// parameter file and a metadata record.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// FitMetadata describes one completed identification run.
type FitMetadata struct {
	ID        string    `json:"id"`
	Actuator  string    `json:"actuator"`
	Model     string    `json:"model"`
	Method    string    `json:"method"`
	Trials    int       `json:"trials"`
	Score     float64   `json:"score"`
	PerLog    []float64 `json:"per_log"`
	Timestamp time.Time `json:"timestamp"`
	Elapsed   float64   `json:"elapsed_seconds"`
}

// SaveFit persists a fit result and the fitted actuator parameters.
func (s *Store) SaveFit(res *fit.Result, act *actuator.Actuator, elapsed time.Duration) (string, error) {
	runID := fmt.Sprintf("%s_%s_%d", res.ActuatorName, res.ModelKind, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := SaveParams(filepath.Join(runDir, "params.json"), act); err != nil {
		return "", err
	}

	meta := FitMetadata{
		ID:        runID,
		Actuator:  res.ActuatorName,
		Model:     string(res.ModelKind),
		Method:    res.Method,
		Trials:    res.Trials,
		Score:     res.Score,
		PerLog:    res.PerLog,
		Timestamp: time.Now(),
		Elapsed:   elapsed.Seconds(),
	}

	f, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}
	return runID, nil
}

// Load reads one run's metadata.
func (s *Store) Load(runID string) (*FitMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta FitMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// ParamsPath returns the parameter file location of a run.
func (s *Store) ParamsPath(runID string) string {
	return filepath.Join(s.baseDir, runID, "params.json")
}

// List returns every stored run, newest first.
func (s *Store) List() ([]FitMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []FitMetadata
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}
