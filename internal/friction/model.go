package friction

import (
	"fmt"
	"math"
	"sort"

	"frictionfit/internal/param"
)

// Kind selects one of the friction-law variants. Each kind fixes the
// set of parameters that exist on the model and which terms are active.
type Kind string

const (
	M1 Kind = "m1" // Coulomb + viscous
	M2 Kind = "m2" // m1 with Stribeck decay on the Coulomb term
	M3 Kind = "m3" // m1 with load-dependent term
	M4 Kind = "m4" // m2 + m3
	M5 Kind = "m5" // m4 + directional Coulomb asymmetry
	M6 Kind = "m6" // m5 + quadratic-in-velocity dissipation
)

func Kinds() []Kind {
	return []Kind{M1, M2, M3, M4, M5, M6}
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	switch k {
	case M1, M2, M3, M4, M5, M6:
		return k, nil
	}
	return "", fmt.Errorf("friction: unknown model kind: %q", s)
}

// Model is a friction law of a given Kind. The parameter table is fixed
// at construction; only parameter values change afterwards (driven by
// the fitter).
type Model struct {
	Kind   Kind
	Params map[string]*param.Parameter
}

// New builds a model with the parameter set of the given kind.
// Defaults and bounds come from servo identification practice; bounds
// keep every term well defined (dq_stribeck stays strictly positive,
// all friction magnitudes stay non-negative).
func New(kind Kind) (*Model, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}

	m := &Model{
		Kind: kind,
		Params: map[string]*param.Parameter{
			"friction_base":    param.MustNew(0.05, 0.0, 1.0),
			"friction_viscous": param.MustNew(0.01, 0.0, 1.0),
		},
	}

	if m.hasStribeck() {
		m.Params["dq_stribeck"] = param.MustNew(0.2, 0.01, 5.0)
		m.Params["alpha_stribeck"] = param.MustNew(1.0, 0.25, 3.0)
	}
	if m.hasLoad() {
		m.Params["friction_load"] = param.MustNew(0.05, 0.0, 1.0)
		m.Params["tau_load"] = param.MustNew(1.0, 0.01, 10.0)
	}
	if m.hasDirectional() {
		for _, name := range []string{
			"friction_motor_pos", "friction_motor_neg",
			"friction_external_pos", "friction_external_neg",
		} {
			m.Params[name] = param.MustNew(0.02, 0.0, 0.5)
		}
	}
	if m.hasQuadratic() {
		m.Params["friction_quadratic"] = param.MustNew(0.001, 0.0, 0.1)
	}

	return m, nil
}

func (m *Model) hasStribeck() bool {
	return m.Kind == M2 || m.Kind == M4 || m.Kind == M5 || m.Kind == M6
}

func (m *Model) hasLoad() bool {
	return m.Kind == M3 || m.Kind == M4 || m.Kind == M5 || m.Kind == M6
}

func (m *Model) hasDirectional() bool {
	return m.Kind == M5 || m.Kind == M6
}

func (m *Model) hasQuadratic() bool {
	return m.Kind == M6
}

func (m *Model) value(name string) float64 {
	return m.Params[name].Sample()
}

// Names returns the parameter names in deterministic order.
func (m *Model) Names() []string {
	names := make([]string, 0, len(m.Params))
	for name := range m.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ComputeFrictions evaluates the friction law at angular velocity dq
// under the given motor and external torques. It returns a Coulomb-type
// torque magnitude opposing the velocity sign and a viscous damping
// coefficient. Both are non-negative and finite for any finite input.
func (m *Model) ComputeFrictions(dq, motorTorque, externalTorque float64) (frictionloss, damping float64) {
	coulomb := m.value("friction_base")
	damping = m.value("friction_viscous")

	if m.hasStribeck() {
		dqs := m.value("dq_stribeck")
		alpha := m.value("alpha_stribeck")
		coulomb *= math.Exp(-math.Pow(math.Abs(dq/dqs), alpha))
	}

	if m.hasLoad() {
		tauLoad := m.value("tau_load")
		load := math.Min(math.Abs(externalTorque), tauLoad) / tauLoad
		coulomb += m.value("friction_load") * load
	}

	if m.hasDirectional() {
		if motorTorque >= 0 {
			coulomb += m.value("friction_motor_pos")
		} else {
			coulomb += m.value("friction_motor_neg")
		}
		if externalTorque >= 0 {
			coulomb += m.value("friction_external_pos")
		} else {
			coulomb += m.value("friction_external_neg")
		}
	}

	if m.hasQuadratic() {
		// dq^2 dissipation expressed as extra velocity-proportional
		// damping so the torque keeps opposing the motion sign.
		damping += m.value("friction_quadratic") * math.Abs(dq)
	}

	return sanitize(coulomb), sanitize(damping)
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
