package fit

import (
	"math"
	"math/rand"
	"sort"
)

const (
	nsga2PopSize     = 24
	sbxEta           = 15.0
	mutationEta      = 20.0
	tournamentRounds = 2
)

// nsga2 is a multi-objective evolutionary strategy: one objective per
// log, non-dominated sorting with crowding-distance selection, SBX
// crossover and polynomial mutation. Useful for exploring trade-offs
// when no single parameter set fits every log equally well.
type nsga2 struct {
	bounds  []Bound
	rng     *rand.Rand
	popSize int

	pop   []individual // current evaluated parents
	batch []individual // offspring waiting for a full generation
}

type individual struct {
	genes    []float64 // normalized [0,1]
	objs     []float64
	rank     int
	crowding float64
}

func newNSGA2(bounds []Bound, rng *rand.Rand) *nsga2 {
	return &nsga2{bounds: bounds, rng: rng, popSize: nsga2PopSize}
}

func (n *nsga2) Name() string {
	return MethodNSGA2
}

func (n *nsga2) Ask() []float64 {
	if len(n.pop) == 0 {
		// Initial population: uniform random.
		genes := make([]float64, len(n.bounds))
		for i := range genes {
			genes[i] = n.rng.Float64()
		}
		return denormalize(genes, n.bounds)
	}

	p1 := n.tournament()
	p2 := n.tournament()
	child := n.crossover(p1.genes, p2.genes)
	n.mutate(child)
	return denormalize(child, n.bounds)
}

func (n *nsga2) Tell(x []float64, scores []float64) {
	n.batch = append(n.batch, individual{
		genes: normalize(x, n.bounds),
		objs:  append([]float64(nil), scores...),
	})
	if len(n.batch) < n.popSize {
		return
	}

	if len(n.pop) == 0 {
		n.pop = n.batch
	} else {
		n.pop = n.selectSurvivors(append(n.pop, n.batch...))
	}
	n.batch = nil
	rankAndCrowd(n.pop)
}

func (n *nsga2) tournament() individual {
	best := n.pop[n.rng.Intn(len(n.pop))]
	for i := 0; i < tournamentRounds; i++ {
		c := n.pop[n.rng.Intn(len(n.pop))]
		if c.rank < best.rank || (c.rank == best.rank && c.crowding > best.crowding) {
			best = c
		}
	}
	return best
}

// crossover is simulated binary crossover, returning one child.
func (n *nsga2) crossover(a, b []float64) []float64 {
	child := make([]float64, len(a))
	for i := range child {
		u := n.rng.Float64()
		var beta float64
		if u <= 0.5 {
			beta = math.Pow(2*u, 1/(sbxEta+1))
		} else {
			beta = math.Pow(1/(2*(1-u)), 1/(sbxEta+1))
		}
		if n.rng.Float64() < 0.5 {
			child[i] = clamp01(0.5 * ((1+beta)*a[i] + (1-beta)*b[i]))
		} else {
			child[i] = clamp01(0.5 * ((1-beta)*a[i] + (1+beta)*b[i]))
		}
	}
	return child
}

func (n *nsga2) mutate(genes []float64) {
	pm := 1.0 / float64(len(genes))
	for i := range genes {
		if n.rng.Float64() >= pm {
			continue
		}
		u := n.rng.Float64()
		var delta float64
		if u < 0.5 {
			delta = math.Pow(2*u, 1/(mutationEta+1)) - 1
		} else {
			delta = 1 - math.Pow(2*(1-u), 1/(mutationEta+1))
		}
		genes[i] = clamp01(genes[i] + delta)
	}
}

func (n *nsga2) selectSurvivors(combined []individual) []individual {
	fronts := nonDominatedSort(combined)
	survivors := make([]individual, 0, n.popSize)
	for _, front := range fronts {
		if len(survivors)+len(front) <= n.popSize {
			survivors = append(survivors, front...)
			continue
		}
		assignCrowding(front)
		sort.Slice(front, func(i, j int) bool {
			return front[i].crowding > front[j].crowding
		})
		survivors = append(survivors, front[:n.popSize-len(survivors)]...)
		break
	}
	return survivors
}

// dominates reports whether a is at least as good as b on every
// objective and strictly better on one (minimization).
func dominates(a, b individual) bool {
	better := false
	for i := range a.objs {
		if a.objs[i] > b.objs[i] {
			return false
		}
		if a.objs[i] < b.objs[i] {
			better = true
		}
	}
	return better
}

func nonDominatedSort(pop []individual) [][]individual {
	n := len(pop)
	dominatedBy := make([][]int, n)
	domCount := make([]int, n)

	var fronts [][]int
	var first []int
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if dominates(pop[i], pop[j]) {
				dominatedBy[i] = append(dominatedBy[i], j)
			} else if dominates(pop[j], pop[i]) {
				domCount[i]++
			}
		}
		if domCount[i] == 0 {
			first = append(first, i)
		}
	}

	fronts = append(fronts, first)
	for len(fronts[len(fronts)-1]) > 0 {
		var next []int
		for _, i := range fronts[len(fronts)-1] {
			for _, j := range dominatedBy[i] {
				domCount[j]--
				if domCount[j] == 0 {
					next = append(next, j)
				}
			}
		}
		if len(next) == 0 {
			break
		}
		fronts = append(fronts, next)
	}

	out := make([][]individual, len(fronts))
	for rank, front := range fronts {
		out[rank] = make([]individual, 0, len(front))
		for _, i := range front {
			ind := pop[i]
			ind.rank = rank
			out[rank] = append(out[rank], ind)
		}
	}
	return out
}

func assignCrowding(front []individual) {
	if len(front) == 0 {
		return
	}
	for i := range front {
		front[i].crowding = 0
	}
	nObjs := len(front[0].objs)
	for m := 0; m < nObjs; m++ {
		sort.Slice(front, func(i, j int) bool {
			return front[i].objs[m] < front[j].objs[m]
		})
		span := front[len(front)-1].objs[m] - front[0].objs[m]
		front[0].crowding = math.Inf(1)
		front[len(front)-1].crowding = math.Inf(1)
		if span == 0 {
			continue
		}
		for i := 1; i < len(front)-1; i++ {
			front[i].crowding += (front[i+1].objs[m] - front[i-1].objs[m]) / span
		}
	}
}

func rankAndCrowd(pop []individual) {
	fronts := nonDominatedSort(pop)
	idx := 0
	for _, front := range fronts {
		assignCrowding(front)
		for _, ind := range front {
			pop[idx] = ind
			idx++
		}
	}
}
