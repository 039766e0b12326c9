package param

import "testing"

func TestSetClamps(t *testing.T) {
	p := MustNew(1.0, 0.0, 2.0)

	p.Set(5.0)
	if p.Sample() != 2.0 {
		t.Errorf("expected clamp to 2.0, got %f", p.Sample())
	}

	p.Set(-3.0)
	if p.Sample() != 0.0 {
		t.Errorf("expected clamp to 0.0, got %f", p.Sample())
	}

	p.Set(1.5)
	if p.Sample() != 1.5 {
		t.Errorf("expected 1.5, got %f", p.Sample())
	}
}

func TestNewRejectsBadBounds(t *testing.T) {
	if _, err := New(0, 2.0, 1.0); err == nil {
		t.Error("expected error for min > max")
	}
}

func TestNewClampsInitialValue(t *testing.T) {
	p := MustNew(10.0, 0.0, 1.0)
	if p.Sample() != 1.0 {
		t.Errorf("initial value should be clamped, got %f", p.Sample())
	}
}

func TestFixed(t *testing.T) {
	p := Fixed(0.25)
	if p.Optimizable {
		t.Error("fixed parameter should not be optimizable")
	}
	p.Set(9.0)
	if p.Sample() != 0.25 {
		t.Errorf("fixed parameter should not move, got %f", p.Sample())
	}
	if p.Span() != 0 {
		t.Errorf("fixed parameter span should be 0, got %f", p.Span())
	}
}
