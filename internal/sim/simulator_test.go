package sim_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"frictionfit/internal/actuator"
	"frictionfit/internal/friction"
	"frictionfit/internal/record"
	"frictionfit/internal/sim"
)

// freeSwingLog is a torque-disabled recording: the pendulum is released
// at the given angle and swings freely.
func freeSwingLog(theta0 float64, steps int, dt float64) *record.Log {
	l := &record.Log{
		Mass: 0.1, Length: 0.1, ArmMass: 0,
		Kp: 32, Vin: 6.0, Dt: dt,
	}
	for i := 0; i < steps; i++ {
		l.Entries = append(l.Entries, record.Entry{
			Timestamp: float64(i) * dt,
			Position:  theta0,
		})
	}
	return l
}

// trackingLog commands a constant goal with the servo enabled, starting
// from theta0.
func trackingLog(theta0, goal float64, steps int, dt float64) *record.Log {
	l := freeSwingLog(theta0, steps, dt)
	for i := range l.Entries {
		l.Entries[i].GoalPosition = goal
		l.Entries[i].TorqueEnable = true
	}
	return l
}

func newSimulator(kind friction.Kind, l *record.Log) (*sim.Simulator, *actuator.Actuator) {
	act, err := actuator.NewRegistry().New("lx16a", kind)
	Expect(err).NotTo(HaveOccurred())
	return sim.New(act, sim.BenchFor(l)), act
}

func zeroFriction(act *actuator.Actuator) {
	for _, name := range []string{"friction_base", "friction_viscous"} {
		p := act.Model.Params[name]
		p.Min = 0
		p.Set(0)
	}
}

var _ = Describe("Rollout", func() {
	It("keeps a frictionless free swing undamped", func() {
		l := freeSwingLog(0.5, 4000, 0.001)
		s, act := newSimulator(friction.M1, l)
		zeroFriction(act)

		traj, err := s.Rollout(l)
		Expect(err).NotTo(HaveOccurred())
		Expect(traj.Positions).To(HaveLen(len(l.Entries)))

		// Peak amplitude in the last third matches the release angle.
		lastThird := traj.Positions[len(traj.Positions)*2/3:]
		peak := 0.0
		for _, q := range lastThird {
			if math.Abs(q) > peak {
				peak = math.Abs(q)
			}
		}
		Expect(peak).To(BeNumerically("~", 0.5, 0.02))
	})

	It("drives the tracking error toward zero under proportional control", func() {
		l := trackingLog(0.5, 0.0, 2000, 0.002)
		s, act := newSimulator(friction.M1, l)
		zeroFriction(act)
		act.Model.Params["friction_viscous"].Set(0.05)

		traj, err := s.Rollout(l)
		Expect(err).NotTo(HaveOccurred())

		final := traj.Positions[len(traj.Positions)-1]
		Expect(math.Abs(final)).To(BeNumerically("<", 0.05))
	})

	It("holds the joint when net torque stays under the stiction level", func() {
		l := freeSwingLog(0.05, 100, 0.01)
		s, act := newSimulator(friction.M1, l)
		act.Model.Params["friction_base"].Set(0.5)

		st := sim.State{Position: 0.05, Velocity: 0}
		next, err := s.Step(st, 0, false, l.Kp, l.Dt)
		Expect(err).NotTo(HaveOccurred())
		Expect(next.Velocity).To(Equal(0.0))
		Expect(next.Position).To(Equal(0.05))

		// A whole rollout never moves either.
		traj, err := s.Rollout(l)
		Expect(err).NotTo(HaveOccurred())
		for _, v := range traj.Velocities {
			Expect(v).To(Equal(0.0))
		}
	})

	It("reports a diverged rollout instead of panicking", func() {
		// Absurd timestep turns the position loop into a geometric
		// blow-up that overflows to Inf.
		l := trackingLog(0.5, 0.0, 300, 0.002)
		l.Dt = 1000.0
		s, _ := newSimulator(friction.M1, l)

		_, err := s.Rollout(l)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, sim.ErrDiverged)).To(BeTrue())

		var rerr *sim.RolloutError
		Expect(errors.As(err, &rerr)).To(BeTrue())
		Expect(rerr.Step).To(BeNumerically(">", 0))
	})
})

var _ = Describe("ComputeError", func() {
	It("is zero on a trajectory compared against itself", func() {
		l := trackingLog(0.3, 0.0, 500, 0.005)
		s, _ := newSimulator(friction.M4, l)

		traj, err := s.Rollout(l)
		Expect(err).NotTo(HaveOccurred())

		replay := sim.SimulatedLog(l, traj)
		mae, err := s.ComputeError(replay)
		Expect(err).NotTo(HaveOccurred())
		Expect(mae).To(Equal(0.0))
	})

	It("is idempotent", func() {
		l := trackingLog(0.3, 0.1, 500, 0.005)
		s, _ := newSimulator(friction.M6, l)

		first, err := s.ComputeError(l)
		Expect(err).NotTo(HaveOccurred())
		second, err := s.ComputeError(l)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))
	})
})
