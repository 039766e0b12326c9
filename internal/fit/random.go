package fit

import "math/rand"

// randomSearch samples candidates uniformly inside the bounds. The
// baseline strategy: no learning, every trial independent.
type randomSearch struct {
	bounds []Bound
	rng    *rand.Rand
}

func newRandomSearch(bounds []Bound, rng *rand.Rand) *randomSearch {
	return &randomSearch{bounds: bounds, rng: rng}
}

func (r *randomSearch) Name() string {
	return MethodRandom
}

func (r *randomSearch) Ask() []float64 {
	u := make([]float64, len(r.bounds))
	for i := range u {
		u[i] = r.rng.Float64()
	}
	return denormalize(u, r.bounds)
}

func (r *randomSearch) Tell(x []float64, scores []float64) {}
