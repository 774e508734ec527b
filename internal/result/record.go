package result

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Complex serializes a complex value as {"real": r, "imag": i}, the shape
// shared with the parameter record writer.
type Complex complex128

type complexDoc struct {
	Real float64 `json:"real"`
	Imag float64 `json:"imag"`
}

// MarshalJSON implements json.Marshaler.
func (c Complex) MarshalJSON() ([]byte, error) {
	return json.Marshal(complexDoc{Real: real(complex128(c)), Imag: imag(complex128(c))})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Complex) UnmarshalJSON(data []byte) error {
	var doc complexDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*c = Complex(complex(doc.Real, doc.Imag))
	return nil
}

// Record is the terminal normalized artifact: a wavelength-indexed table of
// named quantities in a single unit and the 0-based mode convention,
// regardless of source solver. Immutable after creation.
type Record struct {
	Schema       string               `json:"schema"`
	Device       string               `json:"device"`
	Solver       string               `json:"solver"`
	Units        string               `json:"units"` // "linear" or "db"
	WavelengthUm []float64            `json:"wavelength_um"`
	Quantities   map[string][]float64 `json:"quantities"`

	// Amplitudes optionally preserves complex mode coefficients for
	// quantities where phase matters (mode overlap analysis).
	Amplitudes map[string][]Complex `json:"amplitudes,omitempty"`
}

func (r *Record) resultSource() {}

// Quantity returns the named series, or nil.
func (r *Record) Quantity(name string) []float64 { return r.Quantities[name] }

// WriteRecord persists a record. The document is fully marshaled before any
// byte hits disk, so a failed normalization can never leave a partial file.
func WriteRecord(path string, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal normalized record: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadRecord loads a normalized record from disk.
func ReadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("normalized record %s: %w", path, err)
	}
	if rec.Schema != SchemaNormalized {
		return nil, fmt.Errorf("normalized record %s: unexpected schema %q", path, rec.Schema)
	}
	return &rec, nil
}
