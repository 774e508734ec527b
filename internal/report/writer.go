package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/photonlab/fdtdbench/internal/result"
)

// Paths lays out the artifact tree under the configured output directory.
type Paths struct {
	Root string
}

// DeviceDir is the directory holding all artifacts of one device+solver run.
func (p Paths) DeviceDir(device, solver string) string {
	return filepath.Join(p.Root, device, solver)
}

// Params is the parameter record path (<device>_fdtd.json).
func (p Paths) Params(device, solver string) string {
	return filepath.Join(p.DeviceDir(device, solver), device+"_fdtd.json")
}

// Normalized is the normalized record path.
func (p Paths) Normalized(device, solver string) string {
	return filepath.Join(p.DeviceDir(device, solver), device+"_normalized.json")
}

// Spectrum is the per-run spectrum plot path.
func (p Paths) Spectrum(device, solver string) string {
	return filepath.Join(p.DeviceDir(device, solver), device+"_spectrum.png")
}

// CompareTable is the cross-solver comparison record path.
func (p Paths) CompareTable(device string) string {
	return filepath.Join(p.Root, device, device+"_compare.json")
}

// ComparePlot is the cross-solver overlay plot path.
func (p Paths) ComparePlot(device string) string {
	return filepath.Join(p.Root, device, device+"_compare.png")
}

// WriteParams saves the effective run parameters. Values pass through
// ConvertForJSON, so complex numbers and nested maps are safe.
func WriteParams(path string, params map[string]any) error {
	data, err := json.MarshalIndent(ConvertForJSON(params), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal parameter record: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ConvertForJSON recursively rewrites values the standard encoder rejects:
// complex numbers become {"real": r, "imag": i} objects, and nested maps and
// slices are converted element-wise.
func ConvertForJSON(v any) any {
	switch x := v.(type) {
	case complex128:
		return result.Complex(x)
	case complex64:
		return result.Complex(complex128(x))
	case []complex128:
		out := make([]result.Complex, len(x))
		for i, c := range x {
			out[i] = result.Complex(c)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = ConvertForJSON(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = ConvertForJSON(val)
		}
		return out
	default:
		return v
	}
}
