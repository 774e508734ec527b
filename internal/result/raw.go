package result

import (
	"encoding/json"
	"fmt"
	"os"
)

// Schema markers distinguish raw solver documents from normalized records.
const (
	SchemaDesktopRaw = "desktop/raw"
	SchemaCloudRaw   = "cloud/raw"
	SchemaNormalized = "normalized/1"
)

// Monitor kinds.
const (
	KindTransmission = "transmission"
	KindReflection   = "reflection"
)

// Monitor holds one monitor's extracted arrays in the solver's native units
// and mode-index convention. Mode power coefficients are keyed by the native
// mode index rendered as a decimal string.
type Monitor struct {
	Port        string               `json:"port"`
	Kind        string               `json:"kind"`
	WavelengthM []float64            `json:"wavelength_m,omitempty"` // desktop output grid
	FreqHz      []float64            `json:"f_hz,omitempty"`         // cloud output grid
	Modes       map[string][]float64 `json:"modes"`
}

func (m *Monitor) points() int {
	if len(m.WavelengthM) > 0 {
		return len(m.WavelengthM)
	}
	return len(m.FreqHz)
}

// Raw is a solver-native result: the extracted arrays for the desktop
// solver's project run, or the downloaded data document of a cloud task. It
// is owned by the job runner until the normalizer consumes it.
type Raw struct {
	Schema   string              `json:"schema"`
	Solver   string              `json:"solver"`
	Device   string              `json:"device"`
	TaskID   string              `json:"task_id,omitempty"`
	Monitors map[string]*Monitor `json:"monitors"`

	// BundlePath points at the preserved on-disk artifact (project file or
	// downloaded bundle) for manual inspection after a parse failure.
	BundlePath string `json:"-"`
}

func (r *Raw) resultSource() {}

// MonitorFor returns the monitor of the given kind at the given port.
func (r *Raw) MonitorFor(port, kind string) *Monitor {
	for _, m := range r.Monitors {
		if m.Port == port && m.Kind == kind {
			return m
		}
	}
	return nil
}

// ReadRaw loads a raw result document from disk.
func ReadRaw(path string) (*Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Detail: "raw result not readable", Err: err}
	}
	var raw Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Detail: fmt.Sprintf("raw result %s is not valid JSON", path), Err: err}
	}
	raw.BundlePath = path
	return &raw, nil
}

// ParseError reports an output schema mismatch: expected fields missing from
// a raw result, e.g. no converged data for a requested port. The raw output
// stays on disk for manual inspection.
type ParseError struct {
	Solver string
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "result parse"
	if e.Solver != "" {
		msg += " (" + e.Solver + ")"
	}
	msg += ": " + e.Detail
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }
