package fit

import (
	"fmt"
	"math/rand"
)

// Bound is the allowed range of one search dimension.
type Bound struct {
	Min float64
	Max float64
}

// Strategy proposes candidate parameter vectors and learns from their
// scores. Implementations are not safe for concurrent use; the fitter
// serializes Ask/Tell around parallel evaluations.
//
// Tell receives one score per objective (one per log). Scalar
// strategies reduce them to their mean; multi-objective strategies use
// them as-is.
type Strategy interface {
	Name() string
	Ask() []float64
	Tell(x []float64, scores []float64)
}

// Strategy names accepted by NewStrategy.
const (
	MethodCMAES  = "cmaes"
	MethodRandom = "random"
	MethodNSGA2  = "nsga2"
)

func Methods() []string {
	return []string{MethodCMAES, MethodRandom, MethodNSGA2}
}

// NewStrategy builds a search strategy over the given bounds.
func NewStrategy(method string, bounds []Bound, rng *rand.Rand) (Strategy, error) {
	if len(bounds) == 0 {
		return nil, fmt.Errorf("fit: no optimizable parameters to search over")
	}
	for i, b := range bounds {
		if b.Min > b.Max {
			return nil, fmt.Errorf("fit: dimension %d has min %g > max %g", i, b.Min, b.Max)
		}
	}

	switch method {
	case MethodCMAES:
		return newCMAES(bounds, rng), nil
	case MethodRandom:
		return newRandomSearch(bounds, rng), nil
	case MethodNSGA2:
		return newNSGA2(bounds, rng), nil
	}
	return nil, fmt.Errorf("fit: unknown method: %q (available: %v)", method, Methods())
}

func mean(scores []float64) float64 {
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// denormalize maps a unit-cube point to parameter space.
func denormalize(u []float64, bounds []Bound) []float64 {
	x := make([]float64, len(u))
	for i, b := range bounds {
		x[i] = b.Min + clamp01(u[i])*(b.Max-b.Min)
	}
	return x
}

// normalize maps parameter-space coordinates to the unit cube.
func normalize(x []float64, bounds []Bound) []float64 {
	u := make([]float64, len(x))
	for i, b := range bounds {
		if b.Max > b.Min {
			u[i] = clamp01((x[i] - b.Min) / (b.Max - b.Min))
		}
	}
	return u
}
