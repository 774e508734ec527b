package material

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/optimize"
)

// FitSinglePole fits a one-pole pole-residue model to tabulated n,k data by
// least squares. It is a library-preparation helper, not part of the run
// path: fits are written once into the universal library and loaded from
// there afterward.
//
// Returns the fitted model and the RMS error of the complex index over the
// sample points.
func FitSinglePole(name string, wavUm, n, k []float64, thermo ThermoOptic) (*PoleResidue, float64, error) {
	if len(wavUm) < 4 {
		return nil, 0, fmt.Errorf("pole fit needs at least 4 samples, got %d", len(wavUm))
	}
	if len(n) != len(wavUm) || len(k) != len(wavUm) {
		return nil, 0, fmt.Errorf("wavelength/n/k arrays are inconsistent")
	}

	residual := func(x []float64) float64 {
		model := poleFromVector(name, x, thermo)
		var sum float64
		for i, w := range wavUm {
			idx := model.Index(w, thermo.TRef)
			dr := real(idx) - n[i]
			di := imag(idx) - k[i]
			sum += dr*dr + di*di
		}
		return sum
	}

	// Seed from the mid-sample index: eps_inf ~ n², a weak UV pole.
	mid := len(n) / 2
	wMid := 2 * math.Pi * c0 / wavUm[mid]
	x0 := []float64{n[mid] * n[mid], -0.1 * wMid, 3 * wMid, 0.01 * wMid, 0}

	problem := optimize.Problem{Func: residual}
	res, err := optimize.Minimize(problem, x0, &optimize.Settings{
		MajorIterations: 5000,
	}, &optimize.NelderMead{})
	if err != nil {
		return nil, 0, fmt.Errorf("pole fit did not converge: %w", err)
	}

	model := poleFromVector(name, res.X, thermo)
	rms := math.Sqrt(res.F / float64(len(wavUm)))
	return model, rms, nil
}

func poleFromVector(name string, x []float64, thermo ThermoOptic) *PoleResidue {
	return &PoleResidue{
		Name:   name,
		EpsInf: math.Abs(x[0]),
		Poles: []Pole{{
			ARe: -math.Abs(x[1]), // stability requires Re(a) <= 0
			AIm: x[2],
			CRe: x[3],
			CIm: x[4],
		}},
		Thermo: thermo,
	}
}

// WriteModel saves a fitted model into a library file.
func WriteModel(path string, model *PoleResidue) error {
	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
