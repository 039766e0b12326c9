package actuator

import (
	"fmt"
	"sort"

	"frictionfit/internal/friction"
	"frictionfit/internal/param"
)

// bounds is a literature-derived default with its allowed fitting range.
type bounds struct {
	value, min, max float64
}

// spec is one named actuator configuration. Electrical defaults come
// from datasheet torque ratings; the fitting process refines them.
type spec struct {
	vin       float64
	errorGain float64
	maxPWM    float64
	kt        bounds
	r         bounds
	armature  bounds
}

// Registry maps actuator names to configurations. Constructed once at
// startup and passed down; no package-level mutable state.
type Registry struct {
	specs map[string]spec
}

func NewRegistry() *Registry {
	return &Registry{specs: map[string]spec{
		// Hiwonder bus servos. errorGain is the duty cycle per unit of
		// kp-scaled error, estimated on an oscilloscope.
		"lx16a": {
			vin: 6.0, errorGain: 0.15, maxPWM: 0.95,
			kt:       bounds{0.157, 0.05, 0.5},
			r:        bounds{3.0, 1.0, 6.0},
			armature: bounds{0.0015, 0.0005, 0.008},
		},
		"lx15d": {
			vin: 6.0, errorGain: 0.15, maxPWM: 0.95,
			kt:       bounds{0.147, 0.05, 0.5},
			r:        bounds{3.0, 1.0, 6.0},
			armature: bounds{0.0012, 0.0003, 0.007},
		},
		"ld27mg": {
			vin: 7.4, errorGain: 0.15, maxPWM: 0.95,
			kt:       bounds{2.65, 1.0, 5.0},
			r:        bounds{2.5, 1.0, 6.0},
			armature: bounds{0.005, 0.001, 0.015},
		},
		"htd45h": {
			vin: 12.0, errorGain: 0.15, maxPWM: 0.95,
			kt:       bounds{4.4, 2.0, 8.0},
			r:        bounds{3.5, 1.5, 8.0},
			armature: bounds{0.008, 0.002, 0.025},
		},
	}}
}

// New builds an actuator from a registry entry with a fresh friction
// model of the given kind. Unknown names fail before any simulation.
func (r *Registry) New(name string, kind friction.Kind) (*Actuator, error) {
	s, ok := r.specs[name]
	if !ok {
		return nil, fmt.Errorf("actuator: unknown actuator: %q (available: %v)", name, r.Names())
	}

	model, err := friction.New(kind)
	if err != nil {
		return nil, err
	}

	return &Actuator{
		Name:      name,
		Vin:       s.vin,
		ErrorGain: s.errorGain,
		MaxPWM:    s.maxPWM,
		KT:        param.MustNew(s.kt.value, s.kt.min, s.kt.max),
		R:         param.MustNew(s.r.value, s.r.min, s.r.max),
		Armature:  param.MustNew(s.armature.value, s.armature.min, s.armature.max),
		Model:     model,
	}, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
