// Package export renders trajectory comparisons, to PNG for reports
// and to the terminal for quick inspection.
package export

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"frictionfit/internal/record"
	"frictionfit/internal/sim"
)

// SavePNG writes a recorded-vs-simulated position plot.
func SavePNG(path string, l *record.Log, traj *sim.Trajectory) error {
	p := plot.New()
	p.Title.Text = "recorded vs simulated"
	p.X.Label.Text = "time [s]"
	p.Y.Label.Text = "position [rad]"

	real := make(plotter.XYs, len(l.Entries))
	for i, e := range l.Entries {
		real[i].X = e.Timestamp
		real[i].Y = e.Position
	}
	simulated := make(plotter.XYs, len(traj.Positions))
	for i := range traj.Positions {
		simulated[i].X = traj.Times[i]
		simulated[i].Y = traj.Positions[i]
	}

	realLine, err := plotter.NewLine(real)
	if err != nil {
		return err
	}
	realLine.Color = color.RGBA{B: 255, A: 255}

	simLine, err := plotter.NewLine(simulated)
	if err != nil {
		return err
	}
	simLine.Color = color.RGBA{R: 255, A: 255}

	p.Add(realLine, simLine)
	p.Legend.Add("recorded", realLine)
	p.Legend.Add("simulated", simLine)
	p.Legend.Top = true

	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
