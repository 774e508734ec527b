package solver

import (
	"fmt"

	"github.com/photonlab/fdtdbench/internal/config"
	"github.com/photonlab/fdtdbench/internal/layout"
	"github.com/photonlab/fdtdbench/internal/material"
)

// MaxCells is the practical cell-count ceiling for a single job. A setup
// whose estimated mesh exceeds it is rejected before submission.
const MaxCells = 5e8

// Boundary is a simulation boundary condition. Only absorbing boundaries are
// modeled; no device in the comparison set is periodic.
type Boundary string

// BoundaryPML is the absorbing (perfectly matched layer) condition applied
// to every face.
const BoundaryPML Boundary = "pml"

// Domain is the simulation region in µm.
type Domain struct {
	MinX, MinY float64
	MaxX, MaxY float64
	ZMin, ZMax float64
}

// Contains reports whether the xy point is inside the domain.
func (d Domain) Contains(p layout.Point) bool {
	return p.X >= d.MinX && p.X <= d.MaxX && p.Y >= d.MinY && p.Y <= d.MaxY
}

// Source is the injected mode source: one per run, placed at the input port.
// ModeIndex is in the owning solver's native convention.
type Source struct {
	Port      layout.Port
	ModeIndex int
	WavMinUm  float64
	WavMaxUm  float64
	WavStepUm float64
}

// Grid returns the source wavelength points, ascending.
func (s Source) Grid() []float64 {
	var grid []float64
	for w := s.WavMinUm; w <= s.WavMaxUm+1e-12; w += s.WavStepUm {
		grid = append(grid, w)
	}
	return grid
}

// MonitorSpec places one power monitor at a port cross-section.
type MonitorSpec struct {
	Name string
	Port layout.Port
	Kind string // result.KindTransmission / result.KindReflection
}

// Mesh is the mesh density in both the canonical and the solver-native
// representation. CellUm is wavelength/resolution in the guiding region; the
// native fields are filled by the owning backend and must describe the same
// physical size after unit conversion.
type Mesh struct {
	CellUm float64

	DesktopDxM       float64 `json:"desktop_dx_m,omitempty"`        // meters
	CloudStepsPerWvl int     `json:"cloud_steps_per_wvl,omitempty"` // cells per wavelength
}

// MaterialAssignment couples a region role with its resolved index samples
// over the source grid.
type MaterialAssignment struct {
	Role     string // "core" or "cladding"
	Material string
	Index    []complex128 // sampled at Source.Grid()
}

// Setup is a fully parameterized solver-specific simulation description. One
// instance is created per run, owned by the builder until handed to the job
// runner.
type Setup struct {
	Device     string
	Solver     string
	Domain     Domain
	Boundaries Boundary // applied on all faces
	Source     Source
	Monitors   []MonitorSpec
	Mesh       Mesh
	Materials  []MaterialAssignment
	Geometry   *layout.Primitives
	RunFlag    bool
}

// Build constructs the solver-neutral part of a Setup: padded domain, source
// grid, monitor placements, mesh size, and validity checks. Backends wrap it
// and fill in their native mesh representation. A nil cladding model leaves
// the background to the solver's own default.
func Build(prim *layout.Primitives, settings config.Settings, dev *config.Device,
	core, cladding material.Model, conv ModeConvention, solverName string) (*Setup, error) {

	if err := conv.CheckNative(dev.ModeIndex); err != nil {
		return nil, &SetupError{Solver: solverName, Detail: err.Error()}
	}

	bounds := prim.Bounds.Pad(settings.Margin)
	domain := Domain{
		MinX: bounds.MinX, MinY: bounds.MinY,
		MaxX: bounds.MaxX, MaxY: bounds.MaxY,
		ZMin: settings.SolverZMin, ZMax: settings.SolverZMax,
	}

	src := Source{
		Port:      prim.InputPort(),
		ModeIndex: dev.ModeIndex,
		WavMinUm:  settings.Wavelength - dev.SpanUm()/2,
		WavMaxUm:  settings.Wavelength + dev.SpanUm()/2,
		WavStepUm: settings.WavStep,
	}
	if src.WavMinUm <= 0 {
		return nil, &SetupError{Solver: solverName,
			Detail: fmt.Sprintf("wavelength span %v nm extends below zero at center %v µm", dev.SpanNm, settings.Wavelength)}
	}

	setup := &Setup{
		Device:     dev.Name,
		Solver:     solverName,
		Domain:     domain,
		Boundaries: BoundaryPML,
		Source:     src,
		Mesh:       Mesh{CellUm: settings.Wavelength / float64(dev.Resolution)},
		Geometry:   prim,
		RunFlag:    dev.Run,
	}

	for _, port := range prim.Ports {
		if !domain.Contains(port.Center) {
			return nil, &SetupError{Solver: solverName,
				Detail: fmt.Sprintf("port %q at (%.3f, %.3f) lies outside the padded domain", port.Name, port.Center.X, port.Center.Y)}
		}
		setup.Monitors = append(setup.Monitors, MonitorSpec{
			Name: "T_" + port.Name,
			Port: port,
			Kind: "transmission",
		})
	}
	input := prim.InputPort()
	setup.Monitors = append(setup.Monitors, MonitorSpec{
		Name: "R_" + input.Name,
		Port: input,
		Kind: "reflection",
	})

	if cells := estimateCells(domain, setup.Mesh.CellUm); cells > MaxCells {
		return nil, &SetupError{Solver: solverName,
			Detail: fmt.Sprintf("estimated mesh of %.2g cells exceeds the %.0g ceiling", cells, float64(MaxCells))}
	}

	setup.Materials = []MaterialAssignment{{
		Role:     "core",
		Material: core.Material(),
		Index:    material.Sample(core, src.Grid(), settings.Temperature),
	}}
	if cladding != nil {
		setup.Materials = append(setup.Materials, MaterialAssignment{
			Role:     "cladding",
			Material: cladding.Material(),
			Index:    material.Sample(cladding, src.Grid(), settings.Temperature),
		})
	}
	return setup, nil
}

func estimateCells(d Domain, cellUm float64) float64 {
	nx := (d.MaxX - d.MinX) / cellUm
	ny := (d.MaxY - d.MinY) / cellUm
	nz := (d.ZMax - d.ZMin) / cellUm
	return nx * ny * nz
}
