package fit

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"frictionfit/internal/actuator"
	"frictionfit/internal/friction"
	"frictionfit/internal/record"
	"frictionfit/internal/sim"
)

// PenaltyScore is the objective value assigned to a diverged or
// otherwise invalid rollout. Large but finite so search strategies stay
// well behaved.
const PenaltyScore = 1e6

var ErrNoTrials = errors.New("fit: no trials completed")

// Options configure one identification run.
type Options struct {
	Method  string // strategy name, MethodCMAES when empty
	Trials  int    // evaluation budget, default 500
	Workers int    // parallel trial evaluations, default GOMAXPROCS
	Seed    int64
	Logger  *zap.Logger

	// OnTrial is called after every completed trial with the trial
	// number, its score and the best score so far. Called under the
	// fitter's lock; keep it cheap.
	OnTrial func(trial int, score, best float64)
}

// Result is the outcome of a fit: the best parameter vector found and
// the error it achieves, per log and aggregated.
type Result struct {
	ActuatorName string
	ModelKind    friction.Kind
	Method       string
	Trials       int

	Score  float64            // best mean MAE across logs
	PerLog []float64          // per-log MAE at the best vector
	Params map[string]float64 // every parameter value at the best vector

	// History holds the best score after each completed trial, in
	// completion order.
	History []float64
}

// Fitter searches the optimizable parameters of an actuator+model pair
// so that simulating the recorded logs reproduces them as closely as
// possible.
//
// The template Actuator is exposed so callers can freeze parameters
// (Optimizable=false) before Run; frozen parameters keep their template
// value in every trial. The best vector is written back into the
// template's Parameter objects.
type Fitter struct {
	Actuator *actuator.Actuator

	registry *actuator.Registry
	kind     friction.Kind
	logs     []*record.Log
	opts     Options
}

func NewFitter(reg *actuator.Registry, actuatorName string, kind friction.Kind, logs []*record.Log, opts Options) (*Fitter, error) {
	if len(logs) == 0 {
		return nil, record.ErrNoLogs
	}
	template, err := reg.New(actuatorName, kind)
	if err != nil {
		return nil, err
	}

	if opts.Method == "" {
		opts.Method = MethodCMAES
	}
	if opts.Trials <= 0 {
		opts.Trials = 500
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Fitter{
		Actuator: template,
		registry: reg,
		kind:     kind,
		logs:     logs,
		opts:     opts,
	}, nil
}

// searchSpace lists the optimizable parameter names and their bounds,
// in deterministic order.
func (f *Fitter) searchSpace() ([]string, []Bound) {
	params := f.Actuator.Parameters()
	names := make([]string, 0, len(params))
	var bounds []Bound
	for _, name := range f.Actuator.ParameterNames() {
		p := params[name]
		if !p.Optimizable {
			continue
		}
		names = append(names, name)
		bounds = append(bounds, Bound{Min: p.Min, Max: p.Max})
	}
	return names, bounds
}

// evaluate scores one candidate vector: per-log MAE, with invalid
// rollouts mapped to the penalty. Each call works on its own actuator
// clone, so evaluations are safe to run concurrently.
func (f *Fitter) evaluate(names []string, x []float64) (perLog []float64, score float64) {
	act, err := f.registry.New(f.Actuator.Name, f.kind)
	if err != nil {
		// Registry already validated at construction.
		panic(err)
	}

	templateParams := f.Actuator.Parameters()
	cloneParams := act.Parameters()
	for name, p := range templateParams {
		cloneParams[name].Set(p.Sample())
	}
	for i, name := range names {
		cloneParams[name].Set(x[i])
	}

	perLog = make([]float64, len(f.logs))
	for i, l := range f.logs {
		s := sim.New(act, sim.BenchFor(l))
		mae, err := s.ComputeError(l)
		if err != nil || math.IsNaN(mae) || math.IsInf(mae, 0) {
			mae = PenaltyScore
		}
		perLog[i] = mae
	}
	return perLog, mean(perLog)
}

// Run evaluates candidate vectors until the trial budget is exhausted
// or the context is canceled (cancel stops after in-flight trials
// finish). The best-scoring vector is written back into the template
// actuator's parameters.
func (f *Fitter) Run(ctx context.Context) (*Result, error) {
	names, bounds := f.searchSpace()
	strategy, err := NewStrategy(f.opts.Method, bounds, rand.New(rand.NewSource(f.opts.Seed)))
	if err != nil {
		return nil, err
	}

	log := f.opts.Logger
	log.Info("starting fit",
		zap.String("actuator", f.Actuator.Name),
		zap.String("model", string(f.kind)),
		zap.String("method", strategy.Name()),
		zap.Int("dimensions", len(bounds)),
		zap.Int("trials", f.opts.Trials),
		zap.Int("workers", f.opts.Workers),
		zap.Int("logs", len(f.logs)))

	trials := make(chan int)
	go func() {
		defer close(trials)
		for i := 0; i < f.opts.Trials; i++ {
			select {
			case trials <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var mu sync.Mutex
	best := math.Inf(1)
	var bestX, bestPerLog []float64
	history := make([]float64, 0, f.opts.Trials)

	g := new(errgroup.Group)
	for w := 0; w < f.opts.Workers; w++ {
		g.Go(func() error {
			for range trials {
				mu.Lock()
				x := strategy.Ask()
				mu.Unlock()

				perLog, score := f.evaluate(names, x)

				mu.Lock()
				strategy.Tell(x, perLog)
				if score < best {
					best = score
					bestX = x
					bestPerLog = perLog
					log.Info("improved best",
						zap.Int("trial", len(history)+1),
						zap.Float64("score", score))
				}
				history = append(history, best)
				if f.opts.OnTrial != nil {
					f.opts.OnTrial(len(history), score, best)
				}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if bestX == nil {
		return nil, ErrNoTrials
	}

	// Write the winner back into the template's Parameter objects.
	params := f.Actuator.Parameters()
	for i, name := range names {
		params[name].Set(bestX[i])
	}
	values := make(map[string]float64, len(params))
	for name, p := range params {
		values[name] = p.Sample()
	}

	log.Info("fit finished",
		zap.Int("trials", len(history)),
		zap.Float64("best", best))

	return &Result{
		ActuatorName: f.Actuator.Name,
		ModelKind:    f.kind,
		Method:       strategy.Name(),
		Trials:       len(history),
		Score:        best,
		PerLog:       bestPerLog,
		Params:       values,
		History:      history,
	}, nil
}
