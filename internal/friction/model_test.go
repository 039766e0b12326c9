package friction

import (
	"math"
	"testing"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		parsed, err := ParseKind(string(k))
		if err != nil {
			t.Errorf("kind %s should parse: %v", k, err)
		}
		if parsed != k {
			t.Errorf("expected %s, got %s", k, parsed)
		}
	}

	if _, err := ParseKind("m7"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestNewRejectsUnknownKind(t *testing.T) {
	if _, err := New("bogus"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestParameterSetsPerKind(t *testing.T) {
	counts := map[Kind]int{
		M1: 2, // base, viscous
		M2: 4, // + dq_stribeck, alpha_stribeck
		M3: 4, // + friction_load, tau_load
		M4: 6,
		M5: 10, // + 4 directional coefficients
		M6: 11, // + friction_quadratic
	}

	for kind, want := range counts {
		m, err := New(kind)
		if err != nil {
			t.Fatalf("New(%s): %v", kind, err)
		}
		if len(m.Params) != want {
			t.Errorf("%s: expected %d parameters, got %d (%v)", kind, want, len(m.Params), m.Names())
		}
	}
}

func TestM1IgnoresExternalTorque(t *testing.T) {
	m, _ := New(M1)

	velocities := []float64{-5, -0.1, 0, 0.1, 5}
	for _, dq := range velocities {
		f1, d1 := m.ComputeFrictions(dq, 0.2, 0.0)
		f2, d2 := m.ComputeFrictions(dq, 0.2, 3.7)
		if f1 != f2 || d1 != d2 {
			t.Errorf("dq=%f: m1 output should not depend on external torque", dq)
		}
	}
}

func TestOutputsNonNegative(t *testing.T) {
	inputs := []struct{ dq, motor, external float64 }{
		{0, 0, 0},
		{1.5, 0.3, -0.7},
		{-8.0, -2.0, 5.0},
		{0.001, 1e3, -1e3},
	}

	for _, kind := range Kinds() {
		m, _ := New(kind)
		for _, in := range inputs {
			f, d := m.ComputeFrictions(in.dq, in.motor, in.external)
			if f < 0 || d < 0 {
				t.Errorf("%s: negative output f=%f d=%f for %+v", kind, f, d, in)
			}
			if math.IsNaN(f) || math.IsInf(f, 0) || math.IsNaN(d) || math.IsInf(d, 0) {
				t.Errorf("%s: non-finite output for %+v", kind, in)
			}
		}
	}
}

func TestStribeckDecaysWithSpeed(t *testing.T) {
	m, _ := New(M2)

	fSlow, _ := m.ComputeFrictions(0.01, 0, 0)
	fFast, _ := m.ComputeFrictions(5.0, 0, 0)
	if fFast >= fSlow {
		t.Errorf("stribeck term should decay with speed: slow=%f fast=%f", fSlow, fFast)
	}

	f0, _ := m.ComputeFrictions(0, 0, 0)
	base := m.Params["friction_base"].Sample()
	if math.Abs(f0-base) > 1e-12 {
		t.Errorf("at dq=0 the stribeck factor is 1: expected %f, got %f", base, f0)
	}
}

func TestLoadTermSaturates(t *testing.T) {
	m, _ := New(M3)
	tauLoad := m.Params["tau_load"].Sample()

	fAt, _ := m.ComputeFrictions(1.0, 0, tauLoad)
	fBeyond, _ := m.ComputeFrictions(1.0, 0, 10*tauLoad)
	if fAt != fBeyond {
		t.Errorf("load term should saturate at tau_load: %f vs %f", fAt, fBeyond)
	}

	fNone, _ := m.ComputeFrictions(1.0, 0, 0)
	if fAt <= fNone {
		t.Errorf("friction should grow with load: loaded=%f unloaded=%f", fAt, fNone)
	}
}

func TestDirectionalAsymmetry(t *testing.T) {
	m, _ := New(M5)
	m.Params["friction_motor_pos"].Set(0.1)
	m.Params["friction_motor_neg"].Set(0.3)

	fPos, _ := m.ComputeFrictions(1.0, 0.5, 0)
	fNeg, _ := m.ComputeFrictions(1.0, -0.5, 0)
	if math.Abs((fNeg-fPos)-0.2) > 1e-12 {
		t.Errorf("expected 0.2 asymmetry, got %f", fNeg-fPos)
	}
}

func TestQuadraticTermAddsDamping(t *testing.T) {
	m, _ := New(M6)
	m.Params["friction_quadratic"].Set(0.05)

	_, dSlow := m.ComputeFrictions(0.1, 0, 0)
	_, dFast := m.ComputeFrictions(2.0, 0, 0)
	if dFast <= dSlow {
		t.Errorf("quadratic dissipation should raise damping with speed: %f vs %f", dSlow, dFast)
	}
}

func TestNamesSorted(t *testing.T) {
	m, _ := New(M6)
	names := m.Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}
