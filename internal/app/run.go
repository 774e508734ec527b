package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/photonlab/fdtdbench/internal/config"
	"github.com/photonlab/fdtdbench/internal/ctxlog"
	"github.com/photonlab/fdtdbench/internal/fsutil"
	"github.com/photonlab/fdtdbench/internal/layout"
	"github.com/photonlab/fdtdbench/internal/material"
	"github.com/photonlab/fdtdbench/internal/report"
	"github.com/photonlab/fdtdbench/internal/result"
	"github.com/photonlab/fdtdbench/internal/solver"
)

// defaultRoles is the layer-role mapping shared by the comparison layout
// set: layer 1 carries the waveguide core, layer 2 the cladding.
var defaultRoles = layout.Roles{
	CoreLayers:     []int{1},
	CladdingLayers: []int{2},
}

// Run executes the batch: every selected device sequentially, then the
// optional cross-solver comparison. A per-device failure is logged and does
// not stop the remaining devices; backend construction failures (broken
// installation, missing credentials) abort before any device runs.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	devices := a.file.Devices
	if a.cfg.Device != "" {
		devices = a.file.DevicesByName(a.cfg.Device)
		if len(devices) == 0 {
			return fmt.Errorf("no device block named %q in %s", a.cfg.Device, a.file.Path)
		}
	}

	// Probe every backend the batch needs up front, so environment and
	// credential problems surface before the first device run.
	for _, dev := range devices {
		if _, err := a.backends.Backend(dev.Solver, a.file.Settings); err != nil {
			return err
		}
	}

	var failures []error
	for _, dev := range devices {
		if err := a.runDevice(ctx, dev); err != nil {
			a.logger.Error("device run failed", "device", dev.Name, "error", err)
			failures = append(failures, err)
			continue
		}
	}
	a.logger.Info("batch finished",
		"devices", len(devices), "failed", len(failures))

	if a.cfg.Compare {
		if err := a.compare(ctx, devices); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

// runDevice walks one device through the stage machine. Every failure is
// wrapped with the stage it happened in; partial artifacts stay on disk for
// diagnosis.
func (a *App) runDevice(ctx context.Context, dev *config.Device) error {
	run := solver.NewRun(dev.Name, string(dev.Solver))
	ctx = ctxlog.With(ctx, "device", dev.Name, "solver", string(dev.Solver))
	logger := ctxlog.FromContext(ctx)
	settings := a.file.Settings

	outDir := a.paths.DeviceDir(dev.Name, string(dev.Solver))
	if !a.cfg.Force && fsutil.Exists(a.paths.Params(dev.Name, string(dev.Solver))) {
		return run.Fail(fmt.Errorf("artifacts already exist in %s (use -force to overwrite)", outDir))
	}
	if err := fsutil.EnsureDir(outDir); err != nil {
		return run.Fail(err)
	}

	backend, err := a.backends.Backend(dev.Solver, settings)
	if err != nil {
		return run.Fail(err)
	}

	dvc, err := layout.Load(dev.Layout)
	if err != nil {
		return run.Fail(err)
	}
	roles := defaultRoles
	for _, port := range dvc.Ports {
		roles.RequiredPorts = append(roles.RequiredPorts, port.Name)
	}
	prim, err := layout.Adapt(dvc, roles, layout.ExtendOptions{
		Enabled: dev.ExtendPorts,
		Length:  dev.Extension,
	})
	if err != nil {
		return run.Fail(err)
	}
	run.Advance(solver.StageGeometryLoaded)
	logger.Info("geometry loaded", "ports", len(prim.Ports), "core_polygons", len(prim.Core))

	core, err := a.materials.Resolve(settings.GuidingMaterial, settings.MaterialType, backend.Name())
	if err != nil {
		var notFound *material.NotFoundError
		if errors.As(err, &notFound) {
			logger.Error("material lookup failed", "library_contents", a.materials.Available())
		}
		return run.Fail(err)
	}
	var cladding material.Model
	if settings.CladdingMaterial != "" {
		cladding, err = a.materials.Resolve(settings.CladdingMaterial, settings.MaterialType, backend.Name())
		if err != nil {
			var notFound *material.NotFoundError
			if errors.As(err, &notFound) {
				logger.Error("material lookup failed", "library_contents", a.materials.Available())
			}
			return run.Fail(err)
		}
	}
	run.Advance(solver.StageMaterialsResolved)

	setup, err := backend.BuildSetup(ctx, prim, settings, dev, core, cladding)
	if err != nil {
		return run.Fail(err)
	}
	run.Advance(solver.StageSetupBuilt)

	if err := report.WriteParams(a.paths.Params(dev.Name, string(dev.Solver)), a.paramsRecord(dev, setup)); err != nil {
		return run.Fail(err)
	}

	run.Advance(solver.StageSubmitted)
	raw, err := backend.Run(ctx, setup, outDir)
	if err != nil {
		return run.Fail(err)
	}
	if raw == nil {
		// Dry configuration: the persisted setup is the whole deliverable.
		run.Advance(solver.StageCompleted)
		logger.Info("dry configuration complete", "dir", outDir)
		return nil
	}

	conv := backend.Convention()
	rec, err := result.Normalize(raw, result.Options{
		Device:     dev.Name,
		Ports:      portNames(prim),
		InputPort:  prim.InputPort().Name,
		ModeIndex:  conv.FromNative(dev.ModeIndex),
		NativeBase: conv.Base,
		Units:      string(settings.Units),
	})
	if err != nil {
		return run.Fail(err)
	}
	recPath := a.paths.Normalized(dev.Name, string(dev.Solver))
	if err := result.WriteRecord(recPath, rec); err != nil {
		return run.Fail(err)
	}
	if err := report.PlotSpectrum(a.paths.Spectrum(dev.Name, string(dev.Solver)), rec); err != nil {
		return run.Fail(err)
	}

	run.Advance(solver.StageCompleted)
	logger.Info("device run complete", "normalized", recPath)
	return nil
}

// compare pairs desktop and cloud normalized records per device directory
// and writes the agreement table plus an overlay plot.
func (a *App) compare(ctx context.Context, devices []*config.Device) error {
	logger := ctxlog.FromContext(ctx)

	tolerances := map[string]float64{}
	seen := map[string]bool{}
	var names []string
	for _, dev := range devices {
		tolerances[dev.Name] = dev.Tolerance
		if !seen[dev.Name] {
			seen[dev.Name] = true
			names = append(names, dev.Name)
		}
	}

	var failures []error
	compared := 0
	for _, name := range names {
		deskPath := a.paths.Normalized(name, string(config.SolverDesktop))
		cloudPath := a.paths.Normalized(name, string(config.SolverCloud))
		if !fsutil.Exists(deskPath) || !fsutil.Exists(cloudPath) {
			logger.Debug("comparison skipped: need results from both solvers", "device", name)
			continue
		}
		deskRec, err := result.ReadRecord(deskPath)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		cloudRec, err := result.ReadRecord(cloudPath)
		if err != nil {
			failures = append(failures, err)
			continue
		}

		cmp, err := report.Compare(deskRec, cloudRec, tolerances[name])
		if err != nil {
			failures = append(failures, fmt.Errorf("compare %s: %w", name, err))
			continue
		}
		if err := report.WriteComparison(a.paths.CompareTable(name), cmp); err != nil {
			failures = append(failures, err)
			continue
		}
		if err := report.PlotComparison(a.paths.ComparePlot(name), deskRec, cloudRec,
			report.CommonQuantities(deskRec, cloudRec)); err != nil {
			failures = append(failures, err)
			continue
		}
		compared++
		logger.Info("comparison written",
			"device", name, "pass", cmp.Pass, "tolerance", cmp.Tolerance)
	}
	logger.Info("comparison finished", "compared", compared)
	return errors.Join(failures...)
}

// paramsRecord is the effective-parameter artifact, one per run, written
// before submission so a failed run still documents what was attempted.
func (a *App) paramsRecord(dev *config.Device, setup *solver.Setup) map[string]any {
	s := a.file.Settings
	return map[string]any{
		"device":           dev.Name,
		"solver":           string(dev.Solver),
		"wavelength":       s.Wavelength,
		"wav_span":         dev.SpanUm(),
		"wav_step":         s.WavStep,
		"resolution":       dev.Resolution,
		"temperature":      s.Temperature,
		"material_type":    s.MaterialType,
		"guiding_material": s.GuidingMaterial,
		"mode_idx":         dev.ModeIndex,
		"flag_extend":      dev.ExtendPorts,
		"extension":        dev.Extension,
		"flag_run":         dev.Run,
		"solver_z_min":     s.SolverZMin,
		"solver_z_max":     s.SolverZMax,
		"mesh_cell_um":     setup.Mesh.CellUm,
		"domain": map[string]any{
			"min_x": setup.Domain.MinX, "max_x": setup.Domain.MaxX,
			"min_y": setup.Domain.MinY, "max_y": setup.Domain.MaxY,
			"z_min": setup.Domain.ZMin, "z_max": setup.Domain.ZMax,
		},
	}
}

func portNames(prim *layout.Primitives) []string {
	names := make([]string, len(prim.Ports))
	for i, p := range prim.Ports {
		names[i] = p.Name
	}
	return names
}
