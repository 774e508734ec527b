package report

import (
	"fmt"
)

// PeakAnalysis describes a spectral feature: peak position and value, full
// width at half maximum, and the quality factor λ/FWHM.
type PeakAnalysis struct {
	PeakUm    float64 `json:"peak_um"`
	PeakValue float64 `json:"peak_value"`
	FWHMUm    float64 `json:"fwhm_um"`
	Q         float64 `json:"q"`
}

// AnalyzePeak locates the global maximum of a spectrum and measures its
// FWHM by linear interpolation of the half-maximum crossings. The feature
// must be fully contained in the grid; a spectrum that never drops to half
// maximum on either side has no measurable width and is rejected.
func AnalyzePeak(wavUm, vals []float64) (*PeakAnalysis, error) {
	if len(wavUm) < 3 || len(wavUm) != len(vals) {
		return nil, fmt.Errorf("need at least 3 matched samples, got %d/%d", len(wavUm), len(vals))
	}

	peak := 0
	for i := range vals {
		if vals[i] > vals[peak] {
			peak = i
		}
	}
	half := vals[peak] / 2

	left, err := crossing(wavUm, vals, peak, -1, half)
	if err != nil {
		return nil, err
	}
	right, err := crossing(wavUm, vals, peak, +1, half)
	if err != nil {
		return nil, err
	}

	fwhm := right - left
	return &PeakAnalysis{
		PeakUm:    wavUm[peak],
		PeakValue: vals[peak],
		FWHMUm:    fwhm,
		Q:         wavUm[peak] / fwhm,
	}, nil
}

// AnalyzeDip measures a resonance dip (e.g. a ring through port) by
// analyzing the inverted spectrum around its minimum.
func AnalyzeDip(wavUm, vals []float64) (*PeakAnalysis, error) {
	if len(wavUm) < 3 || len(wavUm) != len(vals) {
		return nil, fmt.Errorf("need at least 3 matched samples, got %d/%d", len(wavUm), len(vals))
	}

	inverted := make([]float64, len(vals))
	max := vals[0]
	for _, v := range vals {
		if v > max {
			max = v
		}
	}
	for i, v := range vals {
		inverted[i] = max - v
	}
	an, err := AnalyzePeak(wavUm, inverted)
	if err != nil {
		return nil, err
	}
	// Report the dip's own value, not the inverted one.
	an.PeakValue = max - an.PeakValue
	return an, nil
}

// crossing walks from the peak in the given direction until the spectrum
// falls through the target level, then interpolates the crossing wavelength.
func crossing(wavUm, vals []float64, peak, dir int, target float64) (float64, error) {
	for i := peak; i+dir >= 0 && i+dir < len(vals); i += dir {
		j := i + dir
		if vals[j] <= target {
			// Linear interpolation between samples i and j.
			frac := (vals[i] - target) / (vals[i] - vals[j])
			return wavUm[i] + frac*(wavUm[j]-wavUm[i]), nil
		}
	}
	return 0, fmt.Errorf("spectrum never falls to half maximum on one side of the peak")
}
