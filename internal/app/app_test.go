package app

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photonlab/fdtdbench/internal/config"
	"github.com/photonlab/fdtdbench/internal/report"
	"github.com/photonlab/fdtdbench/internal/result"
	"github.com/photonlab/fdtdbench/internal/solver"
	"github.com/photonlab/fdtdbench/internal/testutil"
)

// fixture builds a workspace with the 2x2 MMI layout on both solvers, an app
// over it, and fake backends injected into the registry.
type fixture struct {
	ws      *testutil.Workspace
	app     *App
	desktop *testutil.FakeBackend
	cloud   *testutil.FakeBackend
	paths   report.Paths
}

func newFixture(t *testing.T, cfg Config, run bool) *fixture {
	t.Helper()
	ws := testutil.NewWorkspace(t)
	layoutPath := ws.WriteMMILayout(t, "mmi")
	ws.WriteUniversalSilicon(t)

	devices := testutil.DeviceBlock("mmi", layoutPath, "desktop", run, "") +
		testutil.DeviceBlock("mmi", layoutPath, "cloud", run, "")
	cfg.ConfigPath = ws.WriteConfig(t, testutil.ConfigParams{Devices: devices})
	if cfg.LogLevel == "" {
		cfg.LogLevel = "error"
	}

	appCfg, err := NewConfig(cfg)
	require.NoError(t, err)
	a, err := NewApp(io.Discard, appCfg)
	require.NoError(t, err)

	f := &fixture{
		ws:      ws,
		app:     a,
		desktop: testutil.NewFakeDesktop(),
		cloud:   testutil.NewFakeCloud(),
		paths:   report.Paths{Root: ws.OutputDir},
	}
	a.Backends().SetBackend(config.SolverDesktop, f.desktop)
	a.Backends().SetBackend(config.SolverCloud, f.cloud)
	return f
}

func TestRunEndToEndComparison(t *testing.T) {
	f := newFixture(t, Config{Compare: true}, true)

	require.NoError(t, f.app.Run(context.Background()))
	assert.Equal(t, 1, f.desktop.RunCalls)
	assert.Equal(t, 1, f.cloud.RunCalls)

	for _, solverName := range []string{"desktop", "cloud"} {
		assert.FileExists(t, f.paths.Params("mmi", solverName))
		assert.FileExists(t, f.paths.Spectrum("mmi", solverName))

		rec, err := result.ReadRecord(f.paths.Normalized("mmi", solverName))
		require.NoError(t, err)
		assert.Equal(t, result.SchemaNormalized, rec.Schema)
		assert.Contains(t, rec.Quantities, "T_o3")
		assert.Contains(t, rec.Quantities, "R_o1")
	}

	// The two conventions describe the same physics, so the normalized
	// records must agree inside the default tolerance.
	desktopRec, err := result.ReadRecord(f.paths.Normalized("mmi", "desktop"))
	require.NoError(t, err)
	cloudRec, err := result.ReadRecord(f.paths.Normalized("mmi", "cloud"))
	require.NoError(t, err)
	cmp, err := report.Compare(desktopRec, cloudRec, 0.05)
	require.NoError(t, err)
	assert.True(t, cmp.Pass)

	assert.FileExists(t, f.paths.CompareTable("mmi"))
	assert.FileExists(t, f.paths.ComparePlot("mmi"))
}

func TestRunDryConfiguration(t *testing.T) {
	f := newFixture(t, Config{}, false)

	require.NoError(t, f.app.Run(context.Background()))
	assert.Equal(t, 1, f.desktop.RunCalls, "runner is still asked to persist the setup")

	assert.FileExists(t, f.paths.Params("mmi", "desktop"))
	assert.NoFileExists(t, f.paths.Normalized("mmi", "desktop"))
	assert.NoFileExists(t, f.paths.Spectrum("mmi", "desktop"))
}

func TestRunRefusesToOverwrite(t *testing.T) {
	f := newFixture(t, Config{}, true)
	require.NoError(t, f.app.Run(context.Background()))

	err := f.app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-force")
	assert.Equal(t, 1, f.desktop.RunCalls, "existing artifacts stop the run before the solver")
}

func TestRunForceOverwrites(t *testing.T) {
	f := newFixture(t, Config{Force: true}, true)
	require.NoError(t, f.app.Run(context.Background()))
	require.NoError(t, f.app.Run(context.Background()))
	assert.Equal(t, 2, f.desktop.RunCalls)
}

func TestRunDeviceSelection(t *testing.T) {
	f := newFixture(t, Config{Device: "mmi"}, true)
	require.NoError(t, f.app.Run(context.Background()))
	assert.Equal(t, 1, f.desktop.RunCalls)
	assert.Equal(t, 1, f.cloud.RunCalls, "selection by name covers both solver blocks")

	missing := newFixture(t, Config{Device: "absent"}, true)
	err := missing.app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"absent"`)
}

func TestRunIsolatesDeviceFailures(t *testing.T) {
	f := newFixture(t, Config{}, true)
	f.desktop.RunErr = &solver.ExecutionError{Solver: "desktop", Detail: "engine crashed"}

	err := f.app.Run(context.Background())
	require.Error(t, err)
	var stageErr *solver.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, solver.StageSubmitted, stageErr.Stage)

	// The cloud block still ran to completion.
	assert.Equal(t, 1, f.cloud.RunCalls)
	assert.FileExists(t, f.paths.Normalized("mmi", "cloud"))
	assert.NoFileExists(t, f.paths.Normalized("mmi", "desktop"))
}

func TestRunMissingPortLeavesNoRecord(t *testing.T) {
	f := newFixture(t, Config{}, true)
	f.desktop.OmitPorts = []string{"o3"}

	err := f.app.Run(context.Background())
	require.Error(t, err)
	var parseErr *result.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), `"o3"`)

	// A failed normalization never leaves a partial normalized file.
	assert.NoFileExists(t, f.paths.Normalized("mmi", "desktop"))
	assert.FileExists(t, f.paths.Params("mmi", "desktop"), "parameter record from before submission survives")
}

func TestRunResolvesCladdingMaterial(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	layoutPath := ws.WriteMMILayout(t, "mmi")
	ws.WriteUniversalSilicon(t)
	ws.WriteUniversalOxide(t)

	cfgPath := ws.WriteConfig(t, testutil.ConfigParams{
		Devices: testutil.DeviceBlock("mmi", layoutPath, "desktop", true, ""),
		Extra:   "  cladding_material = \"sio2\"\n",
	})
	appCfg, err := NewConfig(Config{ConfigPath: cfgPath, LogLevel: "error"})
	require.NoError(t, err)
	a, err := NewApp(io.Discard, appCfg)
	require.NoError(t, err)

	fake := testutil.NewFakeDesktop()
	a.Backends().SetBackend(config.SolverDesktop, fake)

	require.NoError(t, a.Run(context.Background()))
	require.NotNil(t, fake.LastSetup)
	require.Len(t, fake.LastSetup.Materials, 2)
	assert.Equal(t, "cladding", fake.LastSetup.Materials[1].Role)
	assert.Equal(t, "sio2", fake.LastSetup.Materials[1].Material)
	assert.InDelta(t, 1.444, real(fake.LastSetup.Materials[1].Index[0]), 1e-3)
}

func TestRunCompareSkipsIncompletePairs(t *testing.T) {
	f := newFixture(t, Config{Compare: true}, true)
	f.cloud.RunErr = &solver.RemoteError{Detail: "poll timeout"}

	err := f.app.Run(context.Background())
	require.Error(t, err, "the cloud failure is reported")

	// Comparison needs both records and quietly skips the device.
	assert.NoFileExists(t, f.paths.CompareTable("mmi"))
}

func TestNewAppRejectsBrokenConfig(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	path := ws.WriteFile(t, "config.hcl", "settings {}\n")

	cfg, err := NewConfig(Config{ConfigPath: path, LogLevel: "error"})
	require.NoError(t, err)
	_, err = NewApp(io.Discard, cfg)
	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
}

func TestNewConfigRequiresPath(t *testing.T) {
	_, err := NewConfig(Config{})
	require.Error(t, err)
}
