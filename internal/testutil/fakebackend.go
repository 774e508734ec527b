package testutil

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/photonlab/fdtdbench/internal/config"
	"github.com/photonlab/fdtdbench/internal/fsutil"
	"github.com/photonlab/fdtdbench/internal/layout"
	"github.com/photonlab/fdtdbench/internal/material"
	"github.com/photonlab/fdtdbench/internal/result"
	"github.com/photonlab/fdtdbench/internal/solver"
)

// cLight is the vacuum speed of light in m/s, for synthetic frequency grids.
const cLight = 2.99792458e8

// FakeBackend is an in-process solver.Backend that produces a deterministic
// synthetic spectrum instead of running anything. Two fakes with different
// native conventions produce the same physical answer, so normalized records
// from both must agree.
type FakeBackend struct {
	SolverName string
	Base       int // native mode-index convention

	BuildErr error // returned by BuildSetup when set
	RunErr   error // returned by Run when set
	Perturb  float64
	// OmitPorts drops the named ports' monitors from the synthetic result,
	// simulating a solver that produced no data for them.
	OmitPorts []string

	BuildCalls int
	RunCalls   int
	LastSetup  *solver.Setup
}

// NewFakeDesktop returns a fake with the desktop solver's identity and
// 1-based mode convention.
func NewFakeDesktop() *FakeBackend {
	return &FakeBackend{SolverName: "desktop", Base: 1}
}

// NewFakeCloud returns a fake with the cloud solver's identity and 0-based
// mode convention.
func NewFakeCloud() *FakeBackend {
	return &FakeBackend{SolverName: "cloud", Base: 0}
}

func (f *FakeBackend) Name() string { return f.SolverName }

func (f *FakeBackend) Convention() solver.ModeConvention {
	return solver.ModeConvention{Base: f.Base}
}

func (f *FakeBackend) BuildSetup(_ context.Context, prim *layout.Primitives,
	settings config.Settings, dev *config.Device, core, cladding material.Model) (*solver.Setup, error) {
	f.BuildCalls++
	if f.BuildErr != nil {
		return nil, f.BuildErr
	}
	setup, err := solver.Build(prim, settings, dev, core, cladding, f.Convention(), f.SolverName)
	if err != nil {
		return nil, err
	}
	f.LastSetup = setup
	return setup, nil
}

func (f *FakeBackend) Run(_ context.Context, setup *solver.Setup, outDir string) (*result.Raw, error) {
	f.RunCalls++
	if f.RunErr != nil {
		return nil, f.RunErr
	}
	if err := fsutil.EnsureDir(outDir); err != nil {
		return nil, err
	}
	if !setup.RunFlag {
		return nil, nil
	}
	return f.SyntheticRaw(setup, filepath.Join(outDir, setup.Device+"_fake")), nil
}

// SyntheticRaw builds a raw result for the setup's monitors. Transmission at
// output ports splits the power evenly with a mild parabolic dip away from
// 1.55 µm; the input port's transmission and reflection are small. The
// desktop-convention fake reports a wavelength grid in meters, the cloud one
// a frequency grid in hertz, so both normalizer paths get exercised.
func (f *FakeBackend) SyntheticRaw(setup *solver.Setup, bundlePath string) *result.Raw {
	grid := setup.Source.Grid()
	input := setup.Source.Port.Name
	outputs := 0
	for _, m := range setup.Monitors {
		if m.Kind == result.KindTransmission && m.Port.Name != input {
			outputs++
		}
	}

	raw := &result.Raw{
		Device:     setup.Device,
		Solver:     f.SolverName,
		Monitors:   map[string]*result.Monitor{},
		BundlePath: bundlePath,
	}
	if f.Base == 1 {
		raw.Schema = result.SchemaDesktopRaw
	} else {
		raw.Schema = result.SchemaCloudRaw
	}

	modeKey := strconv.Itoa(setup.Source.ModeIndex)
	for _, spec := range setup.Monitors {
		mon := &result.Monitor{
			Port:  spec.Port.Name,
			Kind:  spec.Kind,
			Modes: map[string][]float64{modeKey: make([]float64, len(grid))},
		}
		for i, w := range grid {
			mon.Modes[modeKey][i] = f.value(spec, input, outputs, w)
			if f.Base == 1 {
				mon.WavelengthM = append(mon.WavelengthM, w*1e-6)
			} else {
				mon.FreqHz = append(mon.FreqHz, cLight/(w*1e-6))
			}
		}
		raw.Monitors[spec.Name] = mon
	}
	for _, port := range f.OmitPorts {
		delete(raw.Monitors, "T_"+port)
		delete(raw.Monitors, "R_"+port)
	}
	return raw
}

func (f *FakeBackend) value(spec solver.MonitorSpec, input string, outputs int, wavUm float64) float64 {
	d := (wavUm - 1.55) / 0.05
	shape := 1 - 0.1*d*d
	switch {
	case spec.Kind == result.KindReflection:
		return 0.01 + f.Perturb
	case spec.Port.Name == input:
		return 0.001 + f.Perturb
	default:
		return 0.96/float64(outputs)*shape + f.Perturb
	}
}
