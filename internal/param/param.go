package param

import "fmt"

// Parameter is a bounded scalar. Values always stay inside [Min, Max];
// Set saturates instead of failing. Optimizable decides whether the
// fitter includes it in the search vector.
type Parameter struct {
	Value       float64
	Min         float64
	Max         float64
	Optimizable bool
}

func New(value, min, max float64) (*Parameter, error) {
	if min > max {
		return nil, fmt.Errorf("param: min %g > max %g", min, max)
	}
	p := &Parameter{Min: min, Max: max, Optimizable: true}
	p.Set(value)
	return p, nil
}

// MustNew panics on malformed bounds. Used for the built-in parameter
// tables, whose bounds are compile-time constants.
func MustNew(value, min, max float64) *Parameter {
	p, err := New(value, min, max)
	if err != nil {
		panic(err)
	}
	return p
}

// Fixed returns a non-optimizable parameter pinned at value.
func Fixed(value float64) *Parameter {
	return &Parameter{Value: value, Min: value, Max: value}
}

// Sample returns the current value.
func (p *Parameter) Sample() float64 {
	return p.Value
}

// Set stores v clamped into [Min, Max].
func (p *Parameter) Set(v float64) {
	if v < p.Min {
		v = p.Min
	}
	if v > p.Max {
		v = p.Max
	}
	p.Value = v
}

// Span is the width of the allowed range.
func (p *Parameter) Span() float64 {
	return p.Max - p.Min
}
