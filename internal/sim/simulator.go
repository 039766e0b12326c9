package sim

import (
	"errors"
	"fmt"
	"math"

	"frictionfit/internal/actuator"
	"frictionfit/internal/record"
	"frictionfit/internal/testbench"
)

// ErrDiverged indicates a rollout produced a non-finite state. Trials
// hitting it are penalized by the fitter, never crashed on.
var ErrDiverged = errors.New("sim: rollout diverged (non-finite state)")

// RolloutError wraps a rollout failure with the step it occurred at.
type RolloutError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *RolloutError) Error() string {
	return fmt.Sprintf("%v at step %d (t=%.4f)", e.Wrapped, e.Step, e.Time)
}

func (e *RolloutError) Unwrap() error {
	return e.Wrapped
}

// stickEps is the velocity magnitude below which the joint is a
// candidate for holding static. The hold itself zeroes the velocity, so
// a held joint stays exactly at zero.
const stickEps = 1e-9

// State is one snapshot of the simulated joint.
type State struct {
	Position float64
	Velocity float64
	Time     float64
}

// Trajectory is the result of one rollout, one sample per log entry.
type Trajectory struct {
	Times      []float64
	Positions  []float64
	Velocities []float64
}

// Simulator integrates the pendulum equations of motion under the
// recorded control inputs, one semi-implicit Euler step per log sample.
type Simulator struct {
	act   *actuator.Actuator
	bench *testbench.Pendulum
}

func New(act *actuator.Actuator, bench *testbench.Pendulum) *Simulator {
	return &Simulator{act: act, bench: bench}
}

// BenchFor builds the testbench described by a log's metadata.
func BenchFor(l *record.Log) *testbench.Pendulum {
	return testbench.NewPendulum(l.Mass, l.Length, l.ArmMass)
}

// Step advances the state by dt under one control sample. With torque
// disabled the motor applies nothing and the pendulum swings freely
// against friction and gravity. Velocity is updated before position
// (semi-implicit Euler); stiff friction terms are unstable the other
// way around.
func (s *Simulator) Step(st State, goalPosition float64, torqueEnable bool, kp, dt float64) (State, error) {
	motorTorque := 0.0
	if torqueEnable {
		volts := s.act.ComputeControl(goalPosition-st.Position, st.Velocity, kp)
		motorTorque = s.act.ComputeTorque(volts, st.Velocity)
	}

	biasTorque := s.bench.ComputeBias(st.Position)
	frictionloss, damping := s.act.Model.ComputeFrictions(st.Velocity, motorTorque, biasTorque)
	inertia := s.bench.ComputeMass(st.Position)

	netTorque := motorTorque - biasTorque
	velocity := st.Velocity

	if math.Abs(velocity) < stickEps && math.Abs(netTorque) <= frictionloss {
		// Held: static friction balances the net torque.
		velocity = 0
	} else {
		accel := (netTorque - sign(velocity)*frictionloss - damping*velocity) / inertia
		next := velocity + accel*dt
		// A friction-driven sign flip within one step means the joint
		// stopped rather than reversed.
		if velocity*next < 0 && math.Abs(netTorque) <= frictionloss {
			next = 0
		}
		velocity = next
	}

	st.Velocity = velocity
	st.Position += velocity * dt
	st.Time += dt

	if math.IsNaN(st.Position) || math.IsInf(st.Position, 0) ||
		math.IsNaN(st.Velocity) || math.IsInf(st.Velocity, 0) {
		return st, ErrDiverged
	}
	return st, nil
}

// Rollout replays a whole log, applying each entry's command over the
// interval to the next sample. Deterministic for fixed parameter
// values.
func (s *Simulator) Rollout(l *record.Log) (*Trajectory, error) {
	if len(l.Entries) == 0 {
		return nil, record.ErrNoEntries
	}

	s.bench.ExtraInertia = s.act.GetExtraInertia()

	n := len(l.Entries)
	traj := &Trajectory{
		Times:      make([]float64, 0, n),
		Positions:  make([]float64, 0, n),
		Velocities: make([]float64, 0, n),
	}

	st := State{
		Position: l.Entries[0].Position,
		Velocity: l.Entries[0].Speed,
		Time:     l.Entries[0].Timestamp,
	}
	traj.append(st)

	for i := 1; i < n; i++ {
		prev := l.Entries[i-1]
		next, err := s.Step(st, prev.GoalPosition, prev.TorqueEnable, l.Kp, l.Dt)
		if err != nil {
			return nil, &RolloutError{Step: i, Time: st.Time, Wrapped: err}
		}
		st = next
		traj.append(st)
	}

	return traj, nil
}

// ComputeError returns the mean absolute position error between a
// rollout of the log and the recorded positions.
func (s *Simulator) ComputeError(l *record.Log) (float64, error) {
	traj, err := s.Rollout(l)
	if err != nil {
		return 0, err
	}

	sum := 0.0
	for i, entry := range l.Entries {
		sum += math.Abs(traj.Positions[i] - entry.Position)
	}
	return sum / float64(len(l.Entries)), nil
}

// SimulatedLog clones a log with its recorded positions replaced by the
// trajectory, for export and plotting against the original.
func SimulatedLog(l *record.Log, traj *Trajectory) *record.Log {
	out := *l
	out.Entries = make([]record.Entry, len(l.Entries))
	for i, entry := range l.Entries {
		entry.Position = traj.Positions[i]
		entry.Speed = traj.Velocities[i]
		out.Entries[i] = entry
	}
	return &out
}

func (t *Trajectory) append(st State) {
	t.Times = append(t.Times, st.Time)
	t.Positions = append(t.Positions, st.Position)
	t.Velocities = append(t.Velocities, st.Velocity)
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
