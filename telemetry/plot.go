package telemetry

import (
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// palette cycles for species lines.
var palette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
}

// PlotOccupancy draws one line per species of occupancy fraction against
// window end step and saves it to path. The image format follows the file
// extension.
func PlotOccupancy(records []SpeciesWindow, path string) error {
	bySpecies := make(map[string]plotter.XYs)
	for _, r := range records {
		bySpecies[r.Species] = append(bySpecies[r.Species], plotter.XY{
			X: float64(r.WindowEndStep),
			Y: r.Fraction,
		})
	}

	names := make([]string, 0, len(bySpecies))
	for name := range bySpecies {
		names = append(names, name)
	}
	sort.Strings(names)

	p := plot.New()
	p.Title.Text = "Lattice Occupancy"
	p.X.Label.Text = "Step"
	p.Y.Label.Text = "Fraction of voxels"
	p.Y.Min = 0
	p.Y.Max = 1

	for i, name := range names {
		line, err := plotter.NewLine(bySpecies[name])
		if err != nil {
			return fmt.Errorf("occupancy line for %s: %w", name, err)
		}
		line.Color = palette[i%len(palette)]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(name, line)
	}

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving occupancy plot: %w", err)
	}
	return nil
}
