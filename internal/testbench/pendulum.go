package testbench

import "math"

const gravity = 9.81

// Pendulum is the mechanical load driven by the actuator: a point mass
// at the end of a rigid arm, with the arm's own mass treated as a
// uniform rod. Geometry comes from log metadata and is never fitted.
type Pendulum struct {
	Mass    float64 // load mass at the tip [kg]
	Length  float64 // arm length [m]
	ArmMass float64 // arm mass [kg]

	// ExtraInertia is the actuator's reflected rotor/gearbox inertia,
	// added to the mechanical inertia seen at the joint [kg m^2].
	ExtraInertia float64
}

func NewPendulum(mass, length, armMass float64) *Pendulum {
	return &Pendulum{Mass: mass, Length: length, ArmMass: armMass}
}

// ComputeMass returns the generalized inertia at the given position.
// Constant for a rigid pendulum; kept as a function of position so
// mechanisms with configuration-dependent inertia fit the same contract.
func (p *Pendulum) ComputeMass(position float64) float64 {
	_ = position
	tip := p.Mass * p.Length * p.Length
	arm := p.ArmMass * p.Length * p.Length / 3.0
	return tip + arm + p.ExtraInertia
}

// ComputeBias returns the gravity torque at the given position. Zero
// position is the arm hanging straight down.
func (p *Pendulum) ComputeBias(position float64) float64 {
	s := math.Sin(position)
	tip := p.Mass * gravity * p.Length * s
	arm := p.ArmMass * gravity * (p.Length / 2.0) * s
	return tip + arm
}
