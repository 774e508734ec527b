package result

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// speed of light in m/s, for the cloud solver's frequency grid.
const cLight = 2.99792458e8

// dbFloor keeps log conversion defined for numerically-zero power.
const dbFloor = 1e-12

// Source is a document the normalizer accepts: a solver-native Raw, or an
// already-normalized Record (in which case normalization is a no-op).
type Source interface {
	resultSource()
}

// Options fixes the target convention of a normalization.
type Options struct {
	Device    string
	Ports     []string // ports whose transmission is requested
	InputPort string   // port carrying the source; reflection is read here
	ModeIndex int      // injected mode, normalized 0-based convention
	// NativeBase is the solver's mode-index base (desktop 1, cloud 0). The
	// remap from native to normalized indices happens here and nowhere else.
	NativeBase int
	Units      string // "linear" or "db"
}

// Normalize maps a raw solver output into a Record. Feeding a Record back in
// returns it unchanged.
func Normalize(src Source, opts Options) (*Record, error) {
	if rec, ok := src.(*Record); ok {
		return rec, nil
	}
	raw := src.(*Raw)

	if len(raw.Monitors) == 0 {
		return nil, &ParseError{Solver: raw.Solver, Detail: "raw result contains no monitors"}
	}
	if len(opts.Ports) == 0 {
		return nil, &ParseError{Solver: raw.Solver, Detail: "no ports requested"}
	}

	units := opts.Units
	if units == "" {
		units = "linear"
	}

	rec := &Record{
		Schema:     SchemaNormalized,
		Device:     opts.Device,
		Solver:     raw.Solver,
		Units:      units,
		Quantities: map[string][]float64{},
	}

	var perm []int
	for _, port := range opts.Ports {
		mon := raw.MonitorFor(port, KindTransmission)
		if mon == nil {
			return nil, &ParseError{Solver: raw.Solver,
				Detail: fmt.Sprintf("no transmission data for requested port %q", port)}
		}
		grid, err := gridUm(mon)
		if err != nil {
			return nil, &ParseError{Solver: raw.Solver, Detail: fmt.Sprintf("port %q: %v", port, err)}
		}
		if rec.WavelengthUm == nil {
			rec.WavelengthUm, perm = sortedGrid(grid)
		} else if err := sameGrid(rec.WavelengthUm, grid, perm); err != nil {
			return nil, &ParseError{Solver: raw.Solver, Detail: fmt.Sprintf("port %q: %v", port, err)}
		}
		if err := extractModes(rec, mon, port, "T_"+port, opts, perm, units); err != nil {
			return nil, err
		}
	}

	if opts.InputPort != "" {
		mon := raw.MonitorFor(opts.InputPort, KindReflection)
		if mon == nil {
			return nil, &ParseError{Solver: raw.Solver,
				Detail: fmt.Sprintf("no reflection data for source port %q", opts.InputPort)}
		}
		if err := extractModes(rec, mon, opts.InputPort, "R_"+opts.InputPort, opts, perm, units); err != nil {
			return nil, err
		}
	}

	return rec, nil
}

// extractModes pulls the injected-mode series under quantity, and every
// other native mode as a mode-conversion series with a normalized index. The
// conversion name carries the parent quantity (XT_o1_m1, XR_o1_m1), so the
// transmission and reflection monitors of the same port never collide.
func extractModes(rec *Record, mon *Monitor, port, quantity string, opts Options, perm []int, units string) error {
	injected := strconv.Itoa(opts.ModeIndex + opts.NativeBase)
	series, ok := mon.Modes[injected]
	if !ok {
		return &ParseError{Solver: rec.Solver,
			Detail: fmt.Sprintf("port %q has no data for mode %s (native convention)", port, injected)}
	}
	if len(series) != mon.points() {
		return &ParseError{Solver: rec.Solver,
			Detail: fmt.Sprintf("port %q mode %s: %d values for %d wavelength points", port, injected, len(series), mon.points())}
	}
	rec.Quantities[quantity] = applyUnits(reorder(series, perm), units)

	for key, vals := range mon.Modes {
		if key == injected {
			continue
		}
		native, err := strconv.Atoi(key)
		if err != nil || native < opts.NativeBase {
			return &ParseError{Solver: rec.Solver,
				Detail: fmt.Sprintf("port %q: invalid native mode key %q", port, key)}
		}
		if len(vals) != mon.points() {
			return &ParseError{Solver: rec.Solver,
				Detail: fmt.Sprintf("port %q mode %s: %d values for %d wavelength points", port, key, len(vals), mon.points())}
		}
		normalized := native - opts.NativeBase
		name := fmt.Sprintf("X%s_m%d", quantity, normalized)
		rec.Quantities[name] = applyUnits(reorder(vals, perm), units)
	}
	return nil
}

// gridUm converts a monitor's native spectral grid into wavelengths in µm.
func gridUm(mon *Monitor) ([]float64, error) {
	switch {
	case len(mon.WavelengthM) > 0:
		out := make([]float64, len(mon.WavelengthM))
		for i, m := range mon.WavelengthM {
			out[i] = m * 1e6
		}
		return out, nil
	case len(mon.FreqHz) > 0:
		out := make([]float64, len(mon.FreqHz))
		for i, f := range mon.FreqHz {
			if f <= 0 {
				return nil, fmt.Errorf("non-positive frequency %v", f)
			}
			out[i] = cLight / f * 1e6
		}
		return out, nil
	default:
		return nil, fmt.Errorf("monitor has neither wavelength nor frequency data")
	}
}

// sortedGrid returns the grid ascending plus the permutation that produced
// it, so value series can be reordered to match.
func sortedGrid(grid []float64) ([]float64, []int) {
	perm := make([]int, len(grid))
	for i := range perm {
		perm[i] = i
	}
	sort.Slice(perm, func(a, b int) bool { return grid[perm[a]] < grid[perm[b]] })
	out := make([]float64, len(grid))
	for i, p := range perm {
		out[i] = grid[p]
	}
	return out, perm
}

func sameGrid(ref, grid []float64, perm []int) error {
	if len(grid) != len(ref) {
		return fmt.Errorf("wavelength grid has %d points, expected %d", len(grid), len(ref))
	}
	for i, p := range perm {
		if math.Abs(grid[p]-ref[i]) > 1e-9 {
			return fmt.Errorf("wavelength grid differs from the first monitor at point %d", i)
		}
	}
	return nil
}

func reorder(vals []float64, perm []int) []float64 {
	out := make([]float64, len(vals))
	for i, p := range perm {
		out[i] = vals[p]
	}
	return out
}

func applyUnits(vals []float64, units string) []float64 {
	if units != "db" {
		return vals
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = 10 * math.Log10(math.Max(v, dbFloor))
	}
	return out
}
