package actuator

import (
	"sort"

	"frictionfit/internal/friction"
	"frictionfit/internal/param"
)

// Actuator is a voltage-controlled geared servo: a proportional position
// loop producing a duty-cycle command, a DC motor electrical model
// turning it into torque, and a friction model owned exclusively by this
// actuator. All methods are pure functions of the current parameter
// values.
type Actuator struct {
	Name string

	Vin       float64 // supply voltage [V]
	ErrorGain float64 // duty cycle per rad of position error
	MaxPWM    float64 // duty cycle saturation

	KT       *param.Parameter // torque constant [Nm/A]
	R        *param.Parameter // winding resistance [Ohm], bounds keep it > 0
	Armature *param.Parameter // reflected rotor/gearbox inertia [kg m^2]

	Model *friction.Model
}

// ComputeControl turns a position tracking error into an applied motor
// voltage: proportional duty cycle saturated at MaxPWM, scaled by the
// supply voltage.
func (a *Actuator) ComputeControl(positionError, velocity, kp float64) float64 {
	_ = velocity
	duty := kp * a.ErrorGain * positionError
	if duty > a.MaxPWM {
		duty = a.MaxPWM
	}
	if duty < -a.MaxPWM {
		duty = -a.MaxPWM
	}
	return duty * a.Vin
}

// ComputeTorque applies the DC-motor back-EMF model: the current implied
// by the applied voltage minus back-EMF, scaled by the torque constant.
func (a *Actuator) ComputeTorque(volts, velocity float64) float64 {
	kt := a.KT.Sample()
	return kt * (volts - kt*velocity) / a.R.Sample()
}

// GetExtraInertia returns the rotor inertia reflected at the joint.
func (a *Actuator) GetExtraInertia() float64 {
	return a.Armature.Sample()
}

// Parameters returns every parameter of the actuator and its model,
// keyed by name. Electrical parameters use fixed names so parameter
// files stay stable across model kinds.
func (a *Actuator) Parameters() map[string]*param.Parameter {
	out := map[string]*param.Parameter{
		"kt":       a.KT,
		"R":        a.R,
		"armature": a.Armature,
	}
	for name, p := range a.Model.Params {
		out[name] = p
	}
	return out
}

// ParameterNames returns the parameter names in deterministic order.
func (a *Actuator) ParameterNames() []string {
	params := a.Parameters()
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
