package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/photonlab/fdtdbench/internal/result"
)

// QuantityDelta is the per-quantity disagreement between two solvers on the
// common wavelength grid.
type QuantityDelta struct {
	MaxAbsDelta float64 `json:"max_abs_delta"`
	AtUm        float64 `json:"at_um"`
	Pass        bool    `json:"pass"`
}

// Comparison is the cross-solver agreement record for one device.
type Comparison struct {
	Device     string                   `json:"device"`
	Solvers    [2]string                `json:"solvers"`
	Units      string                   `json:"units"`
	Tolerance  float64                  `json:"tolerance"`
	GridUm     []float64                `json:"wavelength_um"`
	Quantities map[string]QuantityDelta `json:"quantities"`
	Peaks      map[string]*PeakAnalysis `json:"peaks,omitempty"`
	Pass       bool                     `json:"pass"`
}

// Compare resamples both records onto their common wavelength grid and
// reports the per-quantity max |Δ| against the tolerance. Quantities present
// in only one record are ignored; at least one transmission/reflection
// quantity must be shared.
func Compare(a, b *result.Record, tolerance float64) (*Comparison, error) {
	if a.Units != b.Units {
		return nil, fmt.Errorf("records use different units (%s vs %s)", a.Units, b.Units)
	}
	grid, err := commonGrid(a.WavelengthUm, b.WavelengthUm)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{
		Device:     a.Device,
		Solvers:    [2]string{a.Solver, b.Solver},
		Units:      a.Units,
		Tolerance:  tolerance,
		GridUm:     grid,
		Quantities: map[string]QuantityDelta{},
		Peaks:      map[string]*PeakAnalysis{},
		Pass:       true,
	}

	for _, name := range CommonQuantities(a, b) {
		va, err := resample(a.WavelengthUm, a.Quantities[name], grid)
		if err != nil {
			return nil, fmt.Errorf("quantity %s (%s): %w", name, a.Solver, err)
		}
		vb, err := resample(b.WavelengthUm, b.Quantities[name], grid)
		if err != nil {
			return nil, fmt.Errorf("quantity %s (%s): %w", name, b.Solver, err)
		}

		delta := QuantityDelta{Pass: true}
		for i := range grid {
			if d := math.Abs(va[i] - vb[i]); d > delta.MaxAbsDelta {
				delta.MaxAbsDelta = d
				delta.AtUm = grid[i]
			}
		}
		delta.Pass = delta.MaxAbsDelta <= tolerance
		if !delta.Pass {
			cmp.Pass = false
		}
		cmp.Quantities[name] = delta

		if strings.HasPrefix(name, "T_") {
			if peak, err := AnalyzePeak(grid, va); err == nil {
				cmp.Peaks[name+"_"+a.Solver] = peak
			}
			if peak, err := AnalyzePeak(grid, vb); err == nil {
				cmp.Peaks[name+"_"+b.Solver] = peak
			}
		}
	}
	if len(cmp.Quantities) == 0 {
		return nil, fmt.Errorf("records for %s share no quantities", a.Device)
	}
	return cmp, nil
}

// CommonQuantities returns the sorted quantity names present in both
// records.
func CommonQuantities(a, b *result.Record) []string {
	var names []string
	for name := range a.Quantities {
		if _, ok := b.Quantities[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// WriteComparison persists a comparison record.
func WriteComparison(path string, cmp *Comparison) error {
	data, err := json.MarshalIndent(cmp, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// commonGrid intersects two ascending grids and keeps the first grid's
// points inside the overlap, so no comparison point is extrapolated.
func commonGrid(a, b []float64) ([]float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, fmt.Errorf("empty wavelength grid")
	}
	lo := math.Max(floats.Min(a), floats.Min(b))
	hi := math.Min(floats.Max(a), floats.Max(b))
	if lo > hi {
		return nil, fmt.Errorf("wavelength grids do not overlap")
	}
	var grid []float64
	for _, w := range a {
		if w >= lo-1e-12 && w <= hi+1e-12 {
			grid = append(grid, w)
		}
	}
	if len(grid) < 2 {
		return nil, fmt.Errorf("wavelength grids overlap at fewer than 2 points")
	}
	return grid, nil
}

func resample(x, y, grid []float64) ([]float64, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("series length %d does not match grid length %d", len(y), len(x))
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(x, y); err != nil {
		return nil, err
	}
	out := make([]float64, len(grid))
	for i, w := range grid {
		out[i] = pl.Predict(w)
	}
	return out, nil
}
