package material

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/interp"
)

// c0 is the speed of light in µm/s.
const c0 = 2.99792458e14

// Model is a resolved dispersion model: index of refraction as a function of
// wavelength and temperature.
type Model interface {
	Material() string
	// Index returns the complex refractive index at the given wavelength
	// (µm) and temperature (K).
	Index(wavelengthUm, temperatureK float64) complex128
}

// Sample evaluates a model over a wavelength grid at fixed temperature.
func Sample(m Model, gridUm []float64, temperatureK float64) []complex128 {
	out := make([]complex128, len(gridUm))
	for i, w := range gridUm {
		out[i] = m.Index(w, temperatureK)
	}
	return out
}

// ThermoOptic is a linear dn/dT correction around a reference temperature.
type ThermoOptic struct {
	DnDt float64 `json:"dn_dt"` // 1/K
	TRef float64 `json:"t_ref"` // K
}

func (t ThermoOptic) shift(temperatureK float64) float64 {
	if t.DnDt == 0 {
		return 0
	}
	return t.DnDt * (temperatureK - t.TRef)
}

// Pole is one complex conjugate pole pair of a pole-residue model.
type Pole struct {
	ARe float64 `json:"a_re"`
	AIm float64 `json:"a_im"`
	CRe float64 `json:"c_re"`
	CIm float64 `json:"c_im"`
}

// PoleResidue is the universal analytic dispersion model:
//
//	eps(w) = eps_inf + sum_i [ c_i/(j*w - a_i) + c_i*/(j*w - a_i*) ]
//
// with angular frequency w in rad/s and n = sqrt(eps).
type PoleResidue struct {
	Name   string      `json:"material"`
	EpsInf float64     `json:"eps_inf"`
	Poles  []Pole      `json:"poles"`
	Thermo ThermoOptic `json:"thermo_optic"`
}

func (p *PoleResidue) Material() string { return p.Name }

func (p *PoleResidue) Index(wavelengthUm, temperatureK float64) complex128 {
	w := 2 * math.Pi * c0 / wavelengthUm
	jw := complex(0, w)
	eps := complex(p.EpsInf, 0)
	for _, pole := range p.Poles {
		a := complex(pole.ARe, pole.AIm)
		c := complex(pole.CRe, pole.CIm)
		eps += c/(jw-a) + cmplx.Conj(c)/(jw-cmplx.Conj(a))
	}
	n := cmplx.Sqrt(eps)
	return n + complex(p.Thermo.shift(temperatureK), 0)
}

// Tabulated is a solver-native sampled n,k model, linearly interpolated in
// wavelength. Queries outside the tabulated range clamp to the end points.
type Tabulated struct {
	Name   string
	WavUm  []float64
	N      []float64
	K      []float64
	Thermo ThermoOptic

	nInterp interp.PiecewiseLinear
	kInterp interp.PiecewiseLinear
}

// NewTabulated builds a tabulated model. The wavelength grid must be strictly
// increasing and at least two points long.
func NewTabulated(name string, wavUm, n, k []float64, thermo ThermoOptic) (*Tabulated, error) {
	t := &Tabulated{Name: name, WavUm: wavUm, N: n, K: k, Thermo: thermo}
	if err := t.nInterp.Fit(wavUm, n); err != nil {
		return nil, err
	}
	if err := t.kInterp.Fit(wavUm, k); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tabulated) Material() string { return t.Name }

func (t *Tabulated) Index(wavelengthUm, temperatureK float64) complex128 {
	w := wavelengthUm
	if w < t.WavUm[0] {
		w = t.WavUm[0]
	}
	if last := t.WavUm[len(t.WavUm)-1]; w > last {
		w = last
	}
	n := t.nInterp.Predict(w) + t.Thermo.shift(temperatureK)
	return complex(n, t.kInterp.Predict(w))
}
