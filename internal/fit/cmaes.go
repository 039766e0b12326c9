package fit

import (
	"math"
	"math/rand"
	"sort"
)

// cmaes is a derandomized (mu/mu_w, lambda) evolution strategy with
// weighted recombination, cumulative step-size adaptation and a
// diagonal covariance model. It works in normalized [0,1] coordinates;
// out-of-bounds samples are repaired by clamping.
type cmaes struct {
	bounds []Bound
	rng    *rand.Rand

	n      int
	lambda int
	mu     int

	weights []float64
	mueff   float64
	cs, ds  float64
	cc, c1  float64
	cmu     float64
	chiN    float64

	mean  []float64
	sigma float64
	diagC []float64 // per-dimension variances
	ps    []float64 // step-size path
	pc    []float64 // covariance path
	gen   int

	batch []scored
}

type scored struct {
	u     []float64
	score float64
}

func newCMAES(bounds []Bound, rng *rand.Rand) *cmaes {
	n := len(bounds)
	lambda := 4 + int(3*math.Log(float64(n)))
	if lambda < 6 {
		lambda = 6
	}
	mu := lambda / 2

	weights := make([]float64, mu)
	sum := 0.0
	for i := range weights {
		weights[i] = math.Log(float64(mu)+0.5) - math.Log(float64(i+1))
		sum += weights[i]
	}
	sumSq := 0.0
	for i := range weights {
		weights[i] /= sum
		sumSq += weights[i] * weights[i]
	}
	mueff := 1.0 / sumSq

	nf := float64(n)
	cs := (mueff + 2) / (nf + mueff + 5)
	ds := 1 + cs + 2*math.Max(0, math.Sqrt((mueff-1)/(nf+1))-1)
	cc := (4 + mueff/nf) / (nf + 4 + 2*mueff/nf)
	c1 := 2 / ((nf+1.3)*(nf+1.3) + mueff)
	cmu := math.Min(1-c1, 2*(mueff-2+1/mueff)/((nf+2)*(nf+2)+mueff))
	chiN := math.Sqrt(nf) * (1 - 1/(4*nf) + 1/(21*nf*nf))

	c := &cmaes{
		bounds:  bounds,
		rng:     rng,
		n:       n,
		lambda:  lambda,
		mu:      mu,
		weights: weights,
		mueff:   mueff,
		cs:      cs,
		ds:      ds,
		cc:      cc,
		c1:      c1,
		cmu:     cmu,
		chiN:    chiN,
		mean:    make([]float64, n),
		sigma:   0.3,
		diagC:   make([]float64, n),
		ps:      make([]float64, n),
		pc:      make([]float64, n),
	}
	for i := range c.mean {
		c.mean[i] = 0.5
		c.diagC[i] = 1.0
	}
	return c
}

func (c *cmaes) Name() string {
	return MethodCMAES
}

func (c *cmaes) Ask() []float64 {
	u := make([]float64, c.n)
	for j := range u {
		u[j] = clamp01(c.mean[j] + c.sigma*math.Sqrt(c.diagC[j])*c.rng.NormFloat64())
	}
	return denormalize(u, c.bounds)
}

func (c *cmaes) Tell(x []float64, scores []float64) {
	c.batch = append(c.batch, scored{u: normalize(x, c.bounds), score: mean(scores)})
	if len(c.batch) < c.lambda {
		return
	}
	c.update()
	c.batch = c.batch[:0]
}

func (c *cmaes) update() {
	sort.Slice(c.batch, func(i, j int) bool {
		return c.batch[i].score < c.batch[j].score
	})
	c.gen++

	oldMean := append([]float64(nil), c.mean...)
	for j := 0; j < c.n; j++ {
		m := 0.0
		for i := 0; i < c.mu; i++ {
			m += c.weights[i] * c.batch[i].u[j]
		}
		c.mean[j] = m
	}

	// Mean shift in sampling coordinates and whitened by the current
	// covariance, for the evolution paths.
	y := make([]float64, c.n)
	z := make([]float64, c.n)
	for j := 0; j < c.n; j++ {
		y[j] = (c.mean[j] - oldMean[j]) / c.sigma
		z[j] = y[j] / math.Sqrt(c.diagC[j])
	}

	psNorm := 0.0
	for j := 0; j < c.n; j++ {
		c.ps[j] = (1-c.cs)*c.ps[j] + math.Sqrt(c.cs*(2-c.cs)*c.mueff)*z[j]
		psNorm += c.ps[j] * c.ps[j]
	}
	psNorm = math.Sqrt(psNorm)

	expected := math.Sqrt(1 - math.Pow(1-c.cs, 2*float64(c.gen)))
	hsig := 0.0
	if psNorm/expected < (1.4+2/(float64(c.n)+1))*c.chiN {
		hsig = 1.0
	}

	for j := 0; j < c.n; j++ {
		c.pc[j] = (1-c.cc)*c.pc[j] + hsig*math.Sqrt(c.cc*(2-c.cc)*c.mueff)*y[j]
	}

	for j := 0; j < c.n; j++ {
		rankMu := 0.0
		for i := 0; i < c.mu; i++ {
			yi := (c.batch[i].u[j] - oldMean[j]) / c.sigma
			rankMu += c.weights[i] * yi * yi
		}
		c.diagC[j] = (1-c.c1-c.cmu)*c.diagC[j] + c.c1*c.pc[j]*c.pc[j] + c.cmu*rankMu
		if c.diagC[j] < 1e-10 {
			c.diagC[j] = 1e-10
		}
	}

	c.sigma *= math.Exp((c.cs / c.ds) * (psNorm/c.chiN - 1))
	if c.sigma > 1.0 {
		c.sigma = 1.0
	}
	if c.sigma < 1e-8 {
		c.sigma = 1e-8
	}
}
