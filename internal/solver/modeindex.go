package solver

import "fmt"

// ModeConvention encodes a solver's mode numbering. The normalized
// convention is 0-based; the desktop solver counts from 1, the cloud solver
// from 0. Translation happens exactly once outbound (setup builder) and once
// inbound (result normalizer); downstream code only ever sees 0-based
// indices.
type ModeConvention struct {
	Base int
}

// ToNative translates a normalized 0-based index into this convention.
func (c ModeConvention) ToNative(normalized int) int { return normalized + c.Base }

// FromNative translates a native index into the normalized convention.
func (c ModeConvention) FromNative(native int) int { return native - c.Base }

// CheckNative validates that a solver-relative index is in range for this
// convention.
func (c ModeConvention) CheckNative(native int) error {
	if native < c.Base {
		return fmt.Errorf("mode index %d is out of range for a %d-based solver", native, c.Base)
	}
	return nil
}
