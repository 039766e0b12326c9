package export

import (
	"github.com/guptarohit/asciigraph"

	"frictionfit/internal/record"
	"frictionfit/internal/sim"
)

// TrajectoryASCII renders recorded and simulated positions as a
// terminal plot.
func TrajectoryASCII(l *record.Log, traj *sim.Trajectory, width, height int) string {
	real := make([]float64, len(l.Entries))
	for i, e := range l.Entries {
		real[i] = e.Position
	}

	return asciigraph.PlotMany(
		[][]float64{real, traj.Positions},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
		asciigraph.SeriesLegends("recorded", "simulated"),
		asciigraph.Caption("position [rad] vs sample"),
	)
}

// ConvergenceASCII renders the best-so-far score curve of a fit.
func ConvergenceASCII(history []float64, width, height int) string {
	if len(history) == 0 {
		return ""
	}
	return asciigraph.Plot(history,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("best MAE vs trial"),
	)
}
