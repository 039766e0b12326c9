package fit

import (
	"math"
	"math/rand"
	"testing"
)

func sphere(target []float64) func(x []float64) float64 {
	return func(x []float64) float64 {
		sum := 0.0
		for i := range x {
			d := x[i] - target[i]
			sum += d * d
		}
		return sum
	}
}

func TestNewStrategyErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	bounds := []Bound{{0, 1}}

	if _, err := NewStrategy("annealing", bounds, rng); err == nil {
		t.Error("expected error for unknown method")
	}
	if _, err := NewStrategy(MethodCMAES, nil, rng); err == nil {
		t.Error("expected error for empty bounds")
	}
	if _, err := NewStrategy(MethodCMAES, []Bound{{2, 1}}, rng); err == nil {
		t.Error("expected error for inverted bounds")
	}
}

func TestStrategiesRespectBounds(t *testing.T) {
	bounds := []Bound{{-1, 1}, {0, 10}, {0.5, 0.6}}

	for _, method := range Methods() {
		s, err := NewStrategy(method, bounds, rand.New(rand.NewSource(7)))
		if err != nil {
			t.Fatal(err)
		}
		for trial := 0; trial < 200; trial++ {
			x := s.Ask()
			if len(x) != len(bounds) {
				t.Fatalf("%s: wrong dimension %d", method, len(x))
			}
			for i, b := range bounds {
				if x[i] < b.Min || x[i] > b.Max {
					t.Fatalf("%s: dimension %d out of bounds: %f", method, i, x[i])
				}
			}
			s.Tell(x, []float64{sphere([]float64{0, 5, 0.55})(x)})
		}
	}
}

func TestCMAESConvergesOnSphere(t *testing.T) {
	bounds := []Bound{{0, 1}, {0, 1}, {0, 1}}
	target := []float64{0.3, 0.7, 0.5}
	f := sphere(target)

	s := newCMAES(bounds, rand.New(rand.NewSource(42)))

	best := math.Inf(1)
	var bestX []float64
	for trial := 0; trial < 600; trial++ {
		x := s.Ask()
		score := f(x)
		s.Tell(x, []float64{score})
		if score < best {
			best = score
			bestX = x
		}
	}

	for i := range target {
		if math.Abs(bestX[i]-target[i]) > 0.05 {
			t.Errorf("dimension %d: expected near %f, got %f", i, target[i], bestX[i])
		}
	}
}

func TestCMAESBeatsRandomOnSphere(t *testing.T) {
	bounds := make([]Bound, 4)
	target := []float64{0.2, 0.4, 0.6, 0.8}
	for i := range bounds {
		bounds[i] = Bound{0, 1}
	}
	f := sphere(target)

	run := func(s Strategy, trials int) float64 {
		best := math.Inf(1)
		for i := 0; i < trials; i++ {
			x := s.Ask()
			score := f(x)
			s.Tell(x, []float64{score})
			if score < best {
				best = score
			}
		}
		return best
	}

	cma := run(newCMAES(bounds, rand.New(rand.NewSource(3))), 500)
	rnd := run(newRandomSearch(bounds, rand.New(rand.NewSource(3))), 500)

	if cma >= rnd {
		t.Errorf("cmaes (%e) should beat random search (%e)", cma, rnd)
	}
}

func TestDominates(t *testing.T) {
	a := individual{objs: []float64{1, 2}}
	b := individual{objs: []float64{2, 3}}
	c := individual{objs: []float64{0.5, 4}}

	if !dominates(a, b) {
		t.Error("a should dominate b")
	}
	if dominates(b, a) {
		t.Error("b should not dominate a")
	}
	if dominates(a, c) || dominates(c, a) {
		t.Error("a and c should be mutually non-dominated")
	}
	if dominates(a, a) {
		t.Error("an individual does not dominate itself")
	}
}

func TestNonDominatedSortFronts(t *testing.T) {
	pop := []individual{
		{objs: []float64{1, 1}},
		{objs: []float64{2, 2}},
		{objs: []float64{0, 3}},
		{objs: []float64{3, 3}},
	}

	fronts := nonDominatedSort(pop)
	if len(fronts) < 2 {
		t.Fatalf("expected at least 2 fronts, got %d", len(fronts))
	}
	if len(fronts[0]) != 2 {
		t.Errorf("expected 2 individuals in first front, got %d", len(fronts[0]))
	}
	total := 0
	for _, f := range fronts {
		total += len(f)
	}
	if total != len(pop) {
		t.Errorf("fronts should partition the population: %d vs %d", total, len(pop))
	}
}

func TestNSGA2ImprovesFront(t *testing.T) {
	bounds := []Bound{{0, 1}, {0, 1}}
	// Two conflicting objectives along the first dimension.
	eval := func(x []float64) []float64 {
		return []float64{
			(x[0]-0.1)*(x[0]-0.1) + x[1]*x[1],
			(x[0]-0.9)*(x[0]-0.9) + x[1]*x[1],
		}
	}

	s := newNSGA2(bounds, rand.New(rand.NewSource(11)))

	firstGenBest := math.Inf(1)
	best := math.Inf(1)
	for trial := 0; trial < 20*nsga2PopSize; trial++ {
		x := s.Ask()
		objs := eval(x)
		s.Tell(x, objs)
		m := mean(objs)
		if trial < nsga2PopSize && m < firstGenBest {
			firstGenBest = m
		}
		if m < best {
			best = m
		}
	}

	if best >= firstGenBest {
		t.Errorf("evolution should improve on the initial population: %f vs %f", best, firstGenBest)
	}
	// The second dimension is purely harmful; survivors should have
	// driven it near zero.
	for _, ind := range s.pop {
		if ind.genes[1] > 0.5 {
			t.Errorf("survivor kept harmful gene value %f", ind.genes[1])
		}
	}
}
