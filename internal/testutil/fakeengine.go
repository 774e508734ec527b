package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/photonlab/fdtdbench/internal/result"
)

func chmodExec(path string) error { return os.Chmod(path, 0o755) }

// WriteFakeEngine writes an executable shell script that mimics the desktop
// engine invocation `engine -o <sweep> <project>`: it copies a prepared raw
// sweep document to the requested output path. Returns the engine path.
func (ws *Workspace) WriteFakeEngine(t *testing.T, raw *result.Raw) string {
	t.Helper()
	sweepSrc := ws.WriteJSON(t, "engine/sweep_fixture.json", raw)
	return ws.writeEngineScript(t, fmt.Sprintf("#!/bin/sh\ncp %q \"$2\"\n", sweepSrc))
}

// WriteBrokenEngine writes an engine script that prints a diagnostic and
// exits nonzero without producing output.
func (ws *Workspace) WriteBrokenEngine(t *testing.T, message string) string {
	t.Helper()
	return ws.writeEngineScript(t, fmt.Sprintf("#!/bin/sh\necho %q >&2\nexit 3\n", message))
}

// WriteSilentEngine writes an engine script that exits cleanly but never
// writes the sweep output.
func (ws *Workspace) WriteSilentEngine(t *testing.T) string {
	t.Helper()
	return ws.writeEngineScript(t, "#!/bin/sh\nexit 0\n")
}

func (ws *Workspace) writeEngineScript(t *testing.T, script string) string {
	t.Helper()
	path := ws.WriteFile(t, filepath.Join("engine", "fdtd-engine"), script)
	require.NoError(t, chmodExec(path))
	return path
}

// DesktopRaw builds a small desktop-convention raw document: a wavelength
// grid in meters and mode coefficients keyed by 1-based mode index.
func DesktopRaw(device string, ports []string, input string, gridUm []float64) *result.Raw {
	raw := &result.Raw{
		Schema:   result.SchemaDesktopRaw,
		Solver:   "desktop",
		Device:   device,
		Monitors: map[string]*result.Monitor{},
	}
	gridM := make([]float64, len(gridUm))
	for i, w := range gridUm {
		gridM[i] = w * 1e-6
	}
	flat := func(v float64) []float64 {
		vals := make([]float64, len(gridUm))
		for i := range vals {
			vals[i] = v
		}
		return vals
	}
	for _, port := range ports {
		v := 0.45
		if port == input {
			v = 0.001
		}
		raw.Monitors["T_"+port] = &result.Monitor{
			Port: port, Kind: result.KindTransmission,
			WavelengthM: gridM,
			Modes:       map[string][]float64{"1": flat(v)},
		}
	}
	raw.Monitors["R_"+input] = &result.Monitor{
		Port: input, Kind: result.KindReflection,
		WavelengthM: gridM,
		Modes:       map[string][]float64{"1": flat(0.01)},
	}
	return raw
}

// CloudRaw builds a small cloud-convention raw document: a frequency grid in
// hertz and mode coefficients keyed by 0-based mode index.
func CloudRaw(device string, ports []string, input string, gridUm []float64) *result.Raw {
	raw := &result.Raw{
		Schema:   result.SchemaCloudRaw,
		Solver:   "cloud",
		Device:   device,
		Monitors: map[string]*result.Monitor{},
	}
	freq := make([]float64, len(gridUm))
	for i, w := range gridUm {
		freq[i] = cLight / (w * 1e-6)
	}
	flat := func(v float64) []float64 {
		vals := make([]float64, len(gridUm))
		for i := range vals {
			vals[i] = v
		}
		return vals
	}
	for _, port := range ports {
		v := 0.45
		if port == input {
			v = 0.001
		}
		raw.Monitors["T_"+port] = &result.Monitor{
			Port: port, Kind: result.KindTransmission,
			FreqHz: freq,
			Modes:  map[string][]float64{"0": flat(v)},
		}
	}
	raw.Monitors["R_"+input] = &result.Monitor{
		Port: input, Kind: result.KindReflection,
		FreqHz: freq,
		Modes:  map[string][]float64{"0": flat(0.01)},
	}
	return raw
}

// RoundTripJSON is a convenience for fixtures that need a deep copy.
func RoundTripJSON[T any](t *testing.T, v T) T {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}
