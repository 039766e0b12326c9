package actuator

import (
	"math"
	"testing"

	"frictionfit/internal/friction"
)

func TestRegistryNames(t *testing.T) {
	r := NewRegistry()
	names := r.Names()
	if len(names) == 0 {
		t.Fatal("registry should not be empty")
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}

func TestRegistryUnknownActuator(t *testing.T) {
	r := NewRegistry()
	if _, err := r.New("servo9000", friction.M1); err == nil {
		t.Error("expected error for unknown actuator")
	}
}

func TestRegistryUnknownModelKind(t *testing.T) {
	r := NewRegistry()
	if _, err := r.New("lx16a", friction.Kind("m9")); err == nil {
		t.Error("expected error for unknown model kind")
	}
}

func TestComputeControlSaturates(t *testing.T) {
	r := NewRegistry()
	a, err := r.New("lx16a", friction.M1)
	if err != nil {
		t.Fatal(err)
	}

	// Large error pins the duty cycle at MaxPWM.
	v := a.ComputeControl(10.0, 0, 32.0)
	if math.Abs(v-a.MaxPWM*a.Vin) > 1e-12 {
		t.Errorf("expected saturation at %f, got %f", a.MaxPWM*a.Vin, v)
	}

	v = a.ComputeControl(-10.0, 0, 32.0)
	if math.Abs(v+a.MaxPWM*a.Vin) > 1e-12 {
		t.Errorf("expected saturation at %f, got %f", -a.MaxPWM*a.Vin, v)
	}

	// Small error stays proportional.
	v = a.ComputeControl(0.01, 0, 32.0)
	want := 32.0 * a.ErrorGain * 0.01 * a.Vin
	if math.Abs(v-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, v)
	}
}

func TestComputeTorqueBackEMF(t *testing.T) {
	r := NewRegistry()
	a, _ := r.New("lx16a", friction.M1)

	kt := a.KT.Sample()
	res := a.R.Sample()

	tau := a.ComputeTorque(6.0, 0)
	if math.Abs(tau-kt*6.0/res) > 1e-12 {
		t.Errorf("stall torque mismatch: %f", tau)
	}

	// At the no-load speed the back-EMF cancels the applied voltage.
	tau = a.ComputeTorque(6.0, 6.0/kt)
	if math.Abs(tau) > 1e-9 {
		t.Errorf("expected zero torque at no-load speed, got %f", tau)
	}
}

func TestResistanceBoundsStayPositive(t *testing.T) {
	r := NewRegistry()
	for _, name := range r.Names() {
		a, err := r.New(name, friction.M6)
		if err != nil {
			t.Fatal(err)
		}
		if a.R.Min <= 0 {
			t.Errorf("%s: resistance lower bound must be strictly positive", name)
		}
		a.R.Set(0)
		if a.R.Sample() <= 0 {
			t.Errorf("%s: clamped resistance must stay positive", name)
		}
	}
}

func TestParametersMergeElectricalAndModel(t *testing.T) {
	r := NewRegistry()
	a, _ := r.New("ld27mg", friction.M4)

	params := a.Parameters()
	for _, name := range []string{"kt", "R", "armature", "friction_base", "dq_stribeck", "tau_load"} {
		if _, ok := params[name]; !ok {
			t.Errorf("missing parameter %s", name)
		}
	}
	if len(params) != 3+len(a.Model.Params) {
		t.Errorf("expected %d parameters, got %d", 3+len(a.Model.Params), len(params))
	}
}

func TestGetExtraInertia(t *testing.T) {
	r := NewRegistry()
	a, _ := r.New("htd45h", friction.M1)
	if a.GetExtraInertia() != a.Armature.Sample() {
		t.Error("extra inertia should equal the armature parameter")
	}
}
