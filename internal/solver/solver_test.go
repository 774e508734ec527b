package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photonlab/fdtdbench/internal/config"
	"github.com/photonlab/fdtdbench/internal/layout"
)

// stubModel is a dispersionless index for setup tests.
type stubModel struct{ n float64 }

func (s stubModel) Material() string              { return "stub" }
func (s stubModel) Index(_, _ float64) complex128 { return complex(s.n, 0) }

func testPrimitives() *layout.Primitives {
	return &layout.Primitives{
		Name: "wg",
		Core: []layout.Polygon{
			{Name: "core", Layer: 1, Points: []layout.Point{{X: 0, Y: -0.25}, {X: 10, Y: -0.25}, {X: 10, Y: 0.25}, {X: 0, Y: 0.25}}},
		},
		Ports: []layout.Port{
			{Name: "o1", Center: layout.Point{X: 0, Y: 0}, Direction: 180, Width: 0.5},
			{Name: "o2", Center: layout.Point{X: 10, Y: 0}, Direction: 0, Width: 0.5},
		},
		Bounds: layout.Rect{MinX: 0, MinY: -2, MaxX: 10, MaxY: 2},
	}
}

func testSettings() config.Settings {
	return config.Settings{
		Wavelength:  1.55,
		WavStep:     0.01,
		Temperature: 300,
		SolverZMin:  -1,
		SolverZMax:  1,
		Margin:      1.0,
	}
}

func testDevice(modeIndex int) *config.Device {
	return &config.Device{
		Name:       "wg",
		Solver:     config.SolverDesktop,
		Resolution: 10,
		SpanNm:     100,
		ModeIndex:  modeIndex,
		Run:        true,
	}
}

func TestModeConventionRoundTrip(t *testing.T) {
	desktop := ModeConvention{Base: 1}
	cloud := ModeConvention{Base: 0}

	for normalized := 0; normalized < 4; normalized++ {
		assert.Equal(t, normalized, desktop.FromNative(desktop.ToNative(normalized)))
		assert.Equal(t, normalized, cloud.FromNative(cloud.ToNative(normalized)))
	}

	// The same physical mode: desktop 1 and cloud 0 are both normalized 0.
	assert.Equal(t, 0, desktop.FromNative(1))
	assert.Equal(t, 0, cloud.FromNative(0))

	assert.NoError(t, desktop.CheckNative(1))
	assert.Error(t, desktop.CheckNative(0), "mode 0 does not exist on a 1-based solver")
	assert.NoError(t, cloud.CheckNative(0))
}

func TestRunStageMachine(t *testing.T) {
	run := NewRun("wg", "desktop")
	assert.Equal(t, StageUnconfigured, run.Stage())

	for _, next := range []Stage{
		StageGeometryLoaded, StageMaterialsResolved, StageSetupBuilt, StageSubmitted, StageCompleted,
	} {
		run.Advance(next)
		assert.Equal(t, next, run.Stage())
	}
}

func TestRunStageSkipPanics(t *testing.T) {
	run := NewRun("wg", "desktop")
	assert.Panics(t, func() { run.Advance(StageSetupBuilt) }, "skipping stages is a programmer error")

	back := NewRun("wg", "desktop")
	back.Advance(StageGeometryLoaded)
	assert.Panics(t, func() { back.Advance(StageUnconfigured) }, "reversing is a programmer error")
}

func TestRunFail(t *testing.T) {
	run := NewRun("wg", "cloud")
	run.Advance(StageGeometryLoaded)
	run.Advance(StageMaterialsResolved)

	err := run.Fail(assert.AnError)
	assert.Equal(t, StageFailed, run.Stage())
	assert.Equal(t, StageMaterialsResolved, err.Stage, "error names the stage the failure happened in")
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "MATERIALS_RESOLVED")

	assert.Panics(t, func() { run.Advance(StageSetupBuilt) }, "failed runs are terminal")
}

func TestBuild(t *testing.T) {
	setup, err := Build(testPrimitives(), testSettings(), testDevice(1), stubModel{n: 3.48}, nil, ModeConvention{Base: 1}, "desktop")
	require.NoError(t, err)

	assert.Equal(t, "desktop", setup.Solver)
	assert.Equal(t, BoundaryPML, setup.Boundaries)

	// Domain is the exact bounding box padded by the margin.
	assert.Equal(t, Domain{MinX: -1, MinY: -3, MaxX: 11, MaxY: 3, ZMin: -1, ZMax: 1}, setup.Domain)

	// 100 nm span around 1.55 µm.
	assert.InDelta(t, 1.50, setup.Source.WavMinUm, 1e-9)
	assert.InDelta(t, 1.60, setup.Source.WavMaxUm, 1e-9)
	assert.Len(t, setup.Source.Grid(), 11)

	// Mesh cell is wavelength over resolution.
	assert.InDelta(t, 0.155, setup.Mesh.CellUm, 1e-12)

	// One transmission monitor per port plus reflection at the input.
	require.Len(t, setup.Monitors, 3)
	names := []string{setup.Monitors[0].Name, setup.Monitors[1].Name, setup.Monitors[2].Name}
	assert.Equal(t, []string{"T_o1", "T_o2", "R_o1"}, names)

	require.Len(t, setup.Materials, 1)
	assert.Equal(t, "core", setup.Materials[0].Role)
	assert.Len(t, setup.Materials[0].Index, 11, "index sampled over the source grid")
}

func TestBuildAssignsCladding(t *testing.T) {
	setup, err := Build(testPrimitives(), testSettings(), testDevice(1),
		stubModel{n: 3.48}, stubModel{n: 1.444}, ModeConvention{Base: 1}, "desktop")
	require.NoError(t, err)

	require.Len(t, setup.Materials, 2)
	assert.Equal(t, "core", setup.Materials[0].Role)
	assert.Equal(t, "cladding", setup.Materials[1].Role)
	assert.Len(t, setup.Materials[1].Index, 11)
	assert.InDelta(t, 1.444, real(setup.Materials[1].Index[0]), 1e-12)
}

func TestBuildRejectsInvalidModeIndex(t *testing.T) {
	_, err := Build(testPrimitives(), testSettings(), testDevice(0), stubModel{n: 3.48}, nil, ModeConvention{Base: 1}, "desktop")
	var setupErr *SetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Contains(t, err.Error(), "mode index 0")
}

func TestBuildRejectsPortOutsideDomain(t *testing.T) {
	prim := testPrimitives()
	prim.Ports[1].Center = layout.Point{X: 50, Y: 0}

	_, err := Build(prim, testSettings(), testDevice(1), stubModel{n: 3.48}, nil, ModeConvention{Base: 1}, "desktop")
	var setupErr *SetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Contains(t, err.Error(), `port "o2"`)
}

func TestBuildRejectsSpanBelowZero(t *testing.T) {
	dev := testDevice(1)
	dev.SpanNm = 4000 // 4 µm span around a 1.55 µm center

	_, err := Build(testPrimitives(), testSettings(), dev, stubModel{n: 3.48}, nil, ModeConvention{Base: 1}, "desktop")
	var setupErr *SetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Contains(t, err.Error(), "below zero")
}

func TestBuildRejectsMeshOverCeiling(t *testing.T) {
	dev := testDevice(1)
	dev.Resolution = 100000 // 15.5 pm cells over a 12x6x2 µm domain

	_, err := Build(testPrimitives(), testSettings(), dev, stubModel{n: 3.48}, nil, ModeConvention{Base: 1}, "desktop")
	var setupErr *SetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Contains(t, err.Error(), "ceiling")
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	calls := 0
	r.Register(config.SolverDesktop, func(config.Settings) (Backend, error) {
		calls++
		return nil, assert.AnError
	})

	assert.Panics(t, func() {
		r.Register(config.SolverDesktop, func(config.Settings) (Backend, error) { return nil, nil })
	}, "duplicate registration is a programmer error")

	_, err := r.Backend(config.SolverDesktop, config.Settings{})
	assert.ErrorIs(t, err, assert.AnError)

	_, err = r.Backend(config.SolverCloud, config.Settings{})
	assert.Error(t, err, "unregistered solver")
	assert.Equal(t, 1, calls)
}
