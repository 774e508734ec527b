// Package desktop drives the local proprietary FDTD solver: it writes a
// native project file from a Setup and invokes the installed engine
// synchronously. The desktop solver counts modes from 1.
package desktop

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/photonlab/fdtdbench/internal/config"
	"github.com/photonlab/fdtdbench/internal/ctxlog"
	"github.com/photonlab/fdtdbench/internal/layout"
	"github.com/photonlab/fdtdbench/internal/material"
	"github.com/photonlab/fdtdbench/internal/result"
	"github.com/photonlab/fdtdbench/internal/solver"
)

// Name identifies this backend in logs and artifacts.
const Name = "desktop"

// engineCandidates are the engine binary locations tried under the
// configured installation root, most specific first.
var engineCandidates = []string{
	filepath.Join("bin", "fdtd-engine-ompi-lcl"),
	filepath.Join("bin", "fdtd-engine"),
	"fdtd-engine",
}

// EnvError reports a desktop solver installation that cannot be located or
// loaded. It is fatal at startup, before any device runs.
type EnvError struct {
	Path   string
	Detail string
}

func (e *EnvError) Error() string {
	return fmt.Sprintf("desktop solver environment (%s): %s", e.Path, e.Detail)
}

// Backend is the desktop solver variant.
type Backend struct {
	// EnginePath is the resolved solver engine binary.
	EnginePath string
}

// New probes the configured installation and returns the backend. A missing
// installation or engine binary fails with *EnvError.
func New(settings config.Settings) (solver.Backend, error) {
	root := settings.LumapiPath
	info, err := os.Stat(root)
	if err != nil {
		return nil, &EnvError{Path: root, Detail: "installation path does not exist"}
	}
	if !info.IsDir() {
		// A direct path to the engine binary is accepted too.
		return &Backend{EnginePath: root}, nil
	}
	for _, rel := range engineCandidates {
		candidate := filepath.Join(root, rel)
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return &Backend{EnginePath: candidate}, nil
		}
	}
	return nil, &EnvError{Path: root, Detail: "no solver engine found under installation path"}
}

func (b *Backend) Name() string { return Name }

// Convention implements solver.Backend; the desktop solver is 1-based.
func (b *Backend) Convention() solver.ModeConvention { return solver.ModeConvention{Base: 1} }

// BuildSetup implements solver.Backend. The native mesh unit is meters.
func (b *Backend) BuildSetup(ctx context.Context, prim *layout.Primitives, settings config.Settings,
	dev *config.Device, core, cladding material.Model) (*solver.Setup, error) {

	setup, err := solver.Build(prim, settings, dev, core, cladding, b.Convention(), Name)
	if err != nil {
		return nil, err
	}
	setup.Mesh.DesktopDxM = setup.Mesh.CellUm * 1e-6
	ctxlog.FromContext(ctx).Debug("desktop setup built",
		"mesh_dx_m", setup.Mesh.DesktopDxM, "monitors", len(setup.Monitors))
	return setup, nil
}

// Run implements solver.Backend. The project file is always persisted; the
// engine is only invoked when the setup's run flag is set, and the call
// blocks until the engine process exits. No local timeout is enforced.
func (b *Backend) Run(ctx context.Context, setup *solver.Setup, outDir string) (*result.Raw, error) {
	logger := ctxlog.FromContext(ctx)

	if err := validate(setup); err != nil {
		return nil, err
	}

	projectPath := filepath.Join(outDir, setup.Device+"_FDTD.fsp")
	if err := writeProject(projectPath, setup); err != nil {
		return nil, &solver.SubmissionError{Solver: Name, Detail: "writing project file", Err: err}
	}
	logger.Info("project file written", "path", projectPath)

	if !setup.RunFlag {
		logger.Info("dry configuration: engine not invoked")
		return nil, nil
	}

	raw, err := b.execute(ctx, setup, projectPath)
	if err != nil {
		return nil, err
	}
	raw.BundlePath = projectPath
	return raw, nil
}

func validate(setup *solver.Setup) error {
	switch {
	case setup.Solver != Name:
		return &solver.SubmissionError{Solver: Name,
			Detail: fmt.Sprintf("setup was built for solver %q", setup.Solver)}
	case setup.Mesh.DesktopDxM <= 0:
		return &solver.SubmissionError{Solver: Name, Detail: "setup has no native mesh size"}
	case len(setup.Monitors) == 0:
		return &solver.SubmissionError{Solver: Name, Detail: "setup has no monitors"}
	}
	return nil
}
