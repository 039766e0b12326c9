package store

import (
	"encoding/json"
	"fmt"
	"os"

	"frictionfit/internal/actuator"
	"frictionfit/internal/friction"
)

// ParamFile is a fitted parameter set as persisted on disk. Only the
// parameters that exist for the model kind are present; absent fields
// mean the corresponding friction term is inactive.
type ParamFile struct {
	Actuator string
	Model    friction.Kind
	Values   map[string]float64
}

// SaveParams writes the actuator's current parameter values in the
// flat JSON format consumed by plotting and simulation bridges.
func SaveParams(path string, act *actuator.Actuator) error {
	flat := map[string]any{
		"actuator": act.Name,
		"model":    string(act.Model.Kind),
	}
	for name, p := range act.Parameters() {
		flat[name] = p.Sample()
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(flat)
}

// LoadParams reads a parameter file back.
func LoadParams(path string) (*ParamFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: reading %s: %w", path, err)
	}

	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("store: parsing %s: %w", path, err)
	}

	name, _ := flat["actuator"].(string)
	kindStr, _ := flat["model"].(string)
	kind, err := friction.ParseKind(kindStr)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", path, err)
	}
	if name == "" {
		return nil, fmt.Errorf("store: %s: missing actuator name", path)
	}

	pf := &ParamFile{Actuator: name, Model: kind, Values: make(map[string]float64)}
	for key, v := range flat {
		if key == "actuator" || key == "model" {
			continue
		}
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("store: %s: field %q is not a number", path, key)
		}
		pf.Values[key] = f
	}
	return pf, nil
}

// Build reconstructs the actuator+model the file describes, with every
// stored parameter value applied.
func (pf *ParamFile) Build(reg *actuator.Registry) (*actuator.Actuator, error) {
	act, err := reg.New(pf.Actuator, pf.Model)
	if err != nil {
		return nil, err
	}
	params := act.Parameters()
	for name, v := range pf.Values {
		p, ok := params[name]
		if !ok {
			return nil, fmt.Errorf("store: unknown parameter %q for %s/%s", name, pf.Actuator, pf.Model)
		}
		p.Set(v)
	}
	return act, nil
}
