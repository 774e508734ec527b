package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/photonlab/fdtdbench/internal/result"
)

// PlotSpectrum renders the transmission/reflection spectra of one normalized
// record.
func PlotSpectrum(path string, rec *result.Record) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%s)", rec.Device, rec.Solver)
	p.X.Label.Text = "wavelength (µm)"
	p.Y.Label.Text = axisLabel(rec.Units)
	p.Legend.Top = true

	var args []interface{}
	for _, name := range powerQuantities(rec) {
		args = append(args, name, xys(rec.WavelengthUm, rec.Quantities[name]))
	}
	if len(args) == 0 {
		return fmt.Errorf("record for %s has no power quantities to plot", rec.Device)
	}
	if err := plotutil.AddLines(p, args...); err != nil {
		return err
	}
	return save(p, path)
}

// PlotComparison overlays the same quantities from two solvers' records.
func PlotComparison(path string, a, b *result.Record, quantities []string) error {
	p := plot.New()
	p.Title.Text = a.Device + ": " + a.Solver + " vs " + b.Solver
	p.X.Label.Text = "wavelength (µm)"
	p.Y.Label.Text = axisLabel(a.Units)
	p.Legend.Top = true

	var args []interface{}
	for _, name := range quantities {
		if va, ok := a.Quantities[name]; ok {
			args = append(args, name+" "+a.Solver, xys(a.WavelengthUm, va))
		}
		if vb, ok := b.Quantities[name]; ok {
			args = append(args, name+" "+b.Solver, xys(b.WavelengthUm, vb))
		}
	}
	if len(args) == 0 {
		return fmt.Errorf("no common quantities to plot for %s", a.Device)
	}
	if err := plotutil.AddLines(p, args...); err != nil {
		return err
	}
	return save(p, path)
}

func save(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// powerQuantities returns the record's transmission/reflection series names
// in stable order; mode-conversion series are left to the comparison plot.
func powerQuantities(rec *result.Record) []string {
	var names []string
	for name := range rec.Quantities {
		if strings.HasPrefix(name, "T_") || strings.HasPrefix(name, "R_") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts
}

func axisLabel(units string) string {
	if units == "db" {
		return "power (dB)"
	}
	return "power (linear)"
}
