package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/photonlab/fdtdbench/internal/ctxlog"
)

// Context returns a context carrying a discard logger, as the run pipeline
// requires one to be present.
func Context(t *testing.T) context.Context {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

// Workspace is a temporary directory tree laid out like a real run: a config
// file, a layout directory, a materials library, and an output root.
type Workspace struct {
	Root         string
	LayoutDir    string
	MaterialsDir string
	OutputDir    string
}

// NewWorkspace creates the directory tree under t.TempDir().
func NewWorkspace(t *testing.T) *Workspace {
	t.Helper()
	root := t.TempDir()
	ws := &Workspace{
		Root:         root,
		LayoutDir:    filepath.Join(root, "layouts"),
		MaterialsDir: filepath.Join(root, "materials_library"),
		OutputDir:    filepath.Join(root, "results"),
	}
	for _, dir := range []string{ws.LayoutDir, ws.MaterialsDir, ws.OutputDir} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	return ws
}

// WriteFile writes content relative to the workspace root and returns the
// absolute path.
func (ws *Workspace) WriteFile(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(ws.Root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// WriteJSON marshals v and writes it relative to the workspace root.
func (ws *Workspace) WriteJSON(t *testing.T, rel string, v any) string {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	return ws.WriteFile(t, rel, string(data))
}

// ConfigParams parameterizes the canned run configuration.
type ConfigParams struct {
	LumapiPath string
	Devices    string // rendered device blocks
	Extra      string // extra settings attributes, one per line
}

// WriteConfig renders a complete run configuration and returns its path.
func (ws *Workspace) WriteConfig(t *testing.T, p ConfigParams) string {
	t.Helper()
	if p.LumapiPath == "" {
		p.LumapiPath = ws.WriteFile(t, "engine/fdtd-engine", "#!/bin/sh\nexit 0\n")
	}
	cfg := fmt.Sprintf(`settings {
  wavelength       = 1.55 * um
  wav_step         = 10 * nm
  temperature      = 300.0
  material_type    = "universal"
  guiding_material = "silicon"
  lumapi_path      = %q
  solver_z_min     = -1.0
  solver_z_max     = 1.0
  materials_dir    = %q
  output_dir       = %q
%s}

%s`, p.LumapiPath, ws.MaterialsDir, ws.OutputDir, p.Extra, p.Devices)
	return ws.WriteFile(t, "config.hcl", cfg)
}

// DeviceBlock renders one device block for WriteConfig.
func DeviceBlock(name, layoutPath, solverName string, run bool, extra string) string {
	return fmt.Sprintf(`device %q {
  layout     = %q
  solver     = %q
  resolution = 10
  span       = 100
  mode_index = %d
  run        = %t
%s}
`, name, layoutPath, solverName, nativeFundamental(solverName), run, extra)
}

func nativeFundamental(solverName string) int {
	if solverName == "desktop" {
		return 1
	}
	return 0
}
