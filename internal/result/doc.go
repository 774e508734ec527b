// Package result maps solver-native raw outputs into a common normalized
// record: a wavelength-indexed table of named power quantities in µm and
// linear power ratio (or dB), with mode indices remapped to the
// solver-independent 0-based convention. Normalization is idempotent and
// never writes a partial record.
package result
